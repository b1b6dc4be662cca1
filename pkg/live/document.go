// Package live builds Ableton Live project documents (.als files,
// gzip-compressed XML). A Document owns one XML tree from template load
// to final write; every structural mutation happens on that tree, so a
// single serialization pass produces the finished project.
package live

import (
	"compress/gzip"
	"fmt"
	"os"
	"strconv"

	"github.com/beevik/etree"
)

// StructuralError reports template structure a populator expected but
// could not find. It degrades the feature that needed the node; callers
// treat it as non-fatal for the conversion as a whole.
type StructuralError struct {
	Device string
	Path   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Device, e.Path)
}

// Document is an Ableton Live set under construction.
type Document struct {
	doc *etree.Document
	IDs *IDAllocator
}

// NewDocument builds a fresh document from the embedded minimal
// template (one MIDI track, one return track, eight scenes).
func NewDocument() (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(minimalTemplate); err != nil {
		return nil, fmt.Errorf("parsing embedded template: %w", err)
	}
	return wrap(doc)
}

// LoadDocument reads a gzipped .als template from disk.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("template %s is not gzip-compressed: %w", path, err)
	}
	defer gz.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(gz); err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", path, err)
	}
	return wrap(doc)
}

func wrap(doc *etree.Document) (*Document, error) {
	d := &Document{doc: doc}
	if d.LiveSet() == nil {
		return nil, &StructuralError{Device: "document", Path: "LiveSet"}
	}
	d.IDs = NewIDAllocator(maxNumericID(doc.Root()) + 1)
	return d, nil
}

// LiveSet returns the root LiveSet element.
func (d *Document) LiveSet() *etree.Element {
	return d.doc.FindElement("//LiveSet")
}

// Tracks returns the Tracks container element.
func (d *Document) Tracks() *etree.Element {
	return d.LiveSet().FindElement("Tracks")
}

// MidiTracks returns the MIDI tracks in document order.
func (d *Document) MidiTracks() []*etree.Element {
	tracks := d.Tracks()
	if tracks == nil {
		return nil
	}
	return tracks.SelectElements("MidiTrack")
}

// Write finalizes the identifier space and serializes the set as
// gzipped XML. NextPointeeId records the first unused Id so Live keeps
// allocating past everything the assembly created.
func (d *Document) Write(path string) error {
	if next := d.doc.FindElement("//NextPointeeId"); next != nil {
		next.CreateAttr("Value", strconv.Itoa(d.IDs.Peek()))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	gz, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := d.doc.WriteTo(gz); err != nil {
		gz.Close()
		f.Close()
		return fmt.Errorf("serializing live set: %w", err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// setValue sets the Value attribute of the element at path below root.
// Missing nodes are ignored; populators that require the node to exist
// check separately.
func setValue(root *etree.Element, path, value string) {
	if el := root.FindElement(path); el != nil {
		el.CreateAttr("Value", value)
	}
}

func maxNumericID(root *etree.Element) int {
	max := 0
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if raw := el.SelectAttrValue("Id", ""); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil && id > max {
				max = id
			}
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return max
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
