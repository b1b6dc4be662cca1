// Package converter orchestrates tracker module to Live project
// conversion: decoding, sample rendering, track planning, document
// assembly and the on-disk project layout.
package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/tracker2live/pkg/live"
	"github.com/james-see/tracker2live/pkg/tracker"
)

// Result summarizes one successful conversion.
type Result struct {
	Source     string         `json:"source"`
	Format     tracker.Format `json:"format"`
	Title      string         `json:"title"`
	Project    string         `json:"project"`
	SamplesDir string         `json:"samples_dir"`
	Tracks     int            `json:"tracks"`
	Samples    int            `json:"samples"`
	Notes      int            `json:"notes"`
	BPM        float64        `json:"bpm"`
}

// ProjectPath returns where Convert will write the .als for the given
// source file. Used to detect already-converted files in batch runs.
func ProjectPath(source, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	dir := outputDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(source), "converted")
	}
	return filepath.Join(dir, base+"_Project", base+".als")
}

// Convert turns one MOD/XM file into an Ableton Live project directory:
// <base>_Project/<base>.als plus a Samples/ directory of rendered WAVs.
func Convert(path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	module, err := tracker.Decode(data)
	if err != nil {
		return nil, err
	}
	fmt.Printf("  %s: %q, %d channels, %d patterns, speed %d, bpm %d\n",
		strings.ToUpper(string(module.Format)), module.Info.Title,
		module.Info.Channels, len(module.Patterns), module.Info.Speed, module.Info.BPM)

	alsPath := ProjectPath(path, opts.OutputDir)
	projectDir := filepath.Dir(alsPath)
	samplesDir := filepath.Join(projectDir, "Samples")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return nil, err
	}

	if err := tracker.RenderSamples(module, samplesDir); err != nil {
		return nil, err
	}

	groups := tracker.BuildNotes(module)
	plans := tracker.PlanTracks(module, groups, opts.MergeTracks)
	if len(plans) == 0 {
		return nil, fmt.Errorf("%s: no playable notes", path)
	}

	var doc *live.Document
	if opts.Template != "" {
		doc, err = live.LoadDocument(opts.Template)
	} else {
		doc, err = live.NewDocument()
	}
	if err != nil {
		return nil, err
	}

	err = live.Assemble(doc, module, plans, live.Options{
		PanAutomation: opts.PanAutomation,
		Envelope:      opts.Envelope,
		SampleOffset:  opts.SampleOffset,
	})
	if err != nil {
		return nil, err
	}

	if err := doc.Write(alsPath); err != nil {
		return nil, err
	}

	if opts.MIDIExport {
		if err := ExportMIDI(plans, module.RealBPM(), filepath.Join(projectDir, "MIDI")); err != nil {
			return nil, err
		}
	}

	noteCount := 0
	for _, p := range plans {
		noteCount += len(p.Notes)
	}
	rendered := 0
	for _, s := range module.Samples {
		if s.Path != "" {
			rendered++
		}
	}

	return &Result{
		Source:     path,
		Format:     module.Format,
		Title:      module.Info.Title,
		Project:    alsPath,
		SamplesDir: samplesDir,
		Tracks:     len(plans),
		Samples:    rendered,
		Notes:      noteCount,
		BPM:        module.RealBPM(),
	}, nil
}
