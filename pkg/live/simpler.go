package live

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/james-see/tracker2live/pkg/tracker"
)

// Simpler is the typed accessor for an OriginalSimpler device. Simpler
// is used instead of MultiSampler when an instrument plays sample
// offset commands: only Simpler exposes an automatable sample start.
type Simpler struct {
	device *etree.Element
}

// InsertSimpler replaces the track's MultiSampler with a fresh
// OriginalSimpler built from the embedded device template. Template ids
// are regenerated from the document allocator so pointee references
// stay unique.
func InsertSimpler(track *etree.Element, alloc *IDAllocator) (*Simpler, error) {
	devices := track.FindElement(".//DeviceChain/DeviceChain/Devices")
	if devices == nil {
		return nil, &StructuralError{Device: "simpler", Path: "DeviceChain/Devices"}
	}
	if old := devices.SelectElement("MultiSampler"); old != nil {
		devices.RemoveChild(old)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(simplerTemplate); err != nil {
		return nil, fmt.Errorf("parsing simpler template: %w", err)
	}
	device := doc.Root()
	RegenerateIDs(device, alloc)
	devices.AddChild(device)

	return &Simpler{device: device}, nil
}

// Populate loads a rendered sample into the Simpler. Snap is always
// enabled so sample-start automation does not click; ping-pong loops
// degrade to forward, which is the only loop shape the device plays.
func (s *Simpler) Populate(sample *tracker.Sample, withEnvelope bool, bpm int) error {
	part := s.device.FindElement(".//Player/MultiSampleMap/SampleParts/MultiSamplePart")
	if part == nil {
		return &StructuralError{Device: "simpler", Path: "SampleParts/MultiSamplePart"}
	}
	populateSamplePart(part, sample)

	setValue(s.device, ".//Player/Snap/Manual", "true")

	if sample.Loop != tracker.LoopNone {
		loopEnd := sample.LoopStart + sample.LoopLength
		setValue(part, "SustainLoop/LoopOn", "true")
		setValue(part, "SustainLoop/Start", strconv.Itoa(sample.LoopStart))
		setValue(part, "SustainLoop/End", strconv.Itoa(loopEnd))
		setValue(part, "SustainLoop/Mode", "1")
		setValue(s.device, ".//LoopModulators/LoopOn/Manual", "true")
		if sample.Loop == tracker.LoopPingPong {
			fmt.Printf("    note: %s: ping-pong loop played forward\n", sample.Name)
		}
	} else {
		setValue(s.device, ".//LoopModulators/LoopOn/Manual", "false")
	}

	setValue(s.device, ".//NumVoices", "0")

	if withEnvelope && sample.Envelope != nil && sample.Envelope.Enabled {
		sampler := &Sampler{device: s.device}
		if err := sampler.ConfigureEnvelope(sample.Envelope, bpm); err != nil {
			return err
		}
	}
	return nil
}

// SampleStartTarget returns the automation target id of the device's
// sample start and marks the loop modulators as modulated, which Live
// requires before it shows the envelope. A missing target id is minted
// from the allocator.
func (s *Simpler) SampleStartTarget(alloc *IDAllocator) (string, error) {
	modulators := s.device.FindElement(".//Player/LoopModulators")
	if modulators == nil {
		return "", &StructuralError{Device: "simpler", Path: "Player/LoopModulators"}
	}
	target := modulators.FindElement("SampleStart/AutomationTarget")
	if target == nil {
		return "", &StructuralError{Device: "simpler", Path: "SampleStart/AutomationTarget"}
	}

	id := target.SelectAttrValue("Id", "")
	if id == "" {
		id = alloc.NextString()
		target.CreateAttr("Id", id)
	}

	if modulated := modulators.SelectElement("IsModulated"); modulated != nil {
		modulated.CreateAttr("Value", "true")
	} else {
		modulated = etree.NewElement("IsModulated")
		modulated.CreateAttr("Value", "true")
		modulators.InsertChildAt(0, modulated)
	}
	return id, nil
}
