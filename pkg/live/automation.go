package live

import (
	"sort"

	"github.com/beevik/etree"

	"github.com/james-see/tracker2live/pkg/tracker"
)

// envelopesContainer finds or creates the track's automation envelope
// list.
func envelopesContainer(track *etree.Element) *etree.Element {
	auto := track.FindElement("AutomationEnvelopes")
	if auto == nil {
		auto = track.CreateElement("AutomationEnvelopes")
	}
	container := auto.FindElement("Envelopes")
	if container == nil {
		container = auto.CreateElement("Envelopes")
	}
	return container
}

// newAutomationEnvelope opens an envelope pointing at targetID and
// returns its event list.
func newAutomationEnvelope(container *etree.Element, targetID string, alloc *IDAllocator) *etree.Element {
	envelope := container.CreateElement("AutomationEnvelope")
	envelope.CreateAttr("Id", alloc.NextString())

	target := envelope.CreateElement("EnvelopeTarget")
	pointee := target.CreateElement("PointeeId")
	pointee.CreateAttr("Value", targetID)

	automation := envelope.CreateElement("Automation")
	events := automation.CreateElement("Events")

	state := automation.CreateElement("AutomationTransformViewState")
	pending := state.CreateElement("IsTransformPending")
	pending.CreateAttr("Value", "false")
	state.CreateElement("TimeAndValueTransforms")

	return events
}

func addFloatEvent(events *etree.Element, time, value float64, alloc *IDAllocator) {
	ev := events.CreateElement("FloatEvent")
	ev.CreateAttr("Id", alloc.NextString())
	ev.CreateAttr("Time", formatFloat(time))
	ev.CreateAttr("Value", formatFloat(value))
}

// AddPanAutomation draws the mixer pan envelope from 8xx panning
// commands. Notes with a command hold their pan as a plateau for the
// note's length; the first note without one snaps the envelope back to
// the sample's default pan, the way trackers reset panning.
func AddPanAutomation(track *etree.Element, notes []tracker.NoteEvent, defaultPan int, alloc *IDAllocator) error {
	var panned []tracker.NoteEvent
	for _, n := range notes {
		if n.Panning >= 0 {
			panned = append(panned, n)
		}
	}
	if len(panned) == 0 {
		return nil
	}
	allDefault := true
	for _, n := range panned {
		if n.Panning != defaultPan {
			allDefault = false
			break
		}
	}
	if allDefault {
		return nil
	}

	target := track.FindElement(".//DeviceChain/Mixer/Pan/AutomationTarget")
	if target == nil {
		return &StructuralError{Device: "mixer", Path: "Mixer/Pan/AutomationTarget"}
	}
	targetID := target.SelectAttrValue("Id", "")
	if targetID == "" {
		targetID = alloc.NextString()
		target.CreateAttr("Id", targetID)
	}

	events := newAutomationEnvelope(envelopesContainer(track), targetID, alloc)
	defaultValue := PanValue(defaultPan)

	sorted := make([]tracker.NoteEvent, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	if panned[0].Time > 0 {
		addFloatEvent(events, 0, defaultValue, alloc)
	}

	previousPanned := false
	for _, n := range sorted {
		if n.Panning >= 0 {
			v := PanValue(n.Panning)
			addFloatEvent(events, n.Time, v, alloc)
			addFloatEvent(events, n.Time+n.Duration, v, alloc)
			previousPanned = true
		} else if previousPanned {
			addFloatEvent(events, n.Time, defaultValue, alloc)
			previousPanned = false
		}
	}
	return nil
}

// AddSampleStartAutomation draws the Simpler sample-start envelope from
// 9xx offset commands. Every note contributes a plateau: the normalized
// offset when the note carries the command, zero otherwise, so playback
// always starts where the tracker did.
func AddSampleStartAutomation(track *etree.Element, notes []tracker.NoteEvent, sampleFrames int, targetID string, alloc *IDAllocator) {
	events := newAutomationEnvelope(envelopesContainer(track), targetID, alloc)
	addFloatEvent(events, 0, 0, alloc)

	sorted := make([]tracker.NoteEvent, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	for _, n := range sorted {
		v := 0.0
		if n.SampleOffset >= 0 {
			v = SampleStartValue(n.SampleOffset, sampleFrames)
		}
		addFloatEvent(events, n.Time, v, alloc)
		addFloatEvent(events, n.Time+n.Duration, v, alloc)
	}
}

// SampleStartValue converts a 9xx payload to the device's normalized
// 0..1 sample start. The command counts 256-byte pages; at 16 bits that
// is 128 frames per step.
func SampleStartValue(offset, frames int) float64 {
	if frames <= 0 {
		return 0
	}
	v := float64(offset) * 256 / 2 / float64(frames)
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return v
}
