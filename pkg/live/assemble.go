package live

import (
	"errors"
	"fmt"
	"sort"

	"github.com/beevik/etree"

	"github.com/james-see/tracker2live/pkg/tracker"
)

// Options select the optional assembly features.
type Options struct {
	PanAutomation bool
	Envelope      bool
	SampleOffset  bool
}

// firstGroupID numbers group tracks in their own range, away from the
// per-element id space.
const firstGroupID = 10000

// templateDefaultBPM is the tempo every template carries; assembly
// rewrites it to the module's real tempo.
const templateDefaultBPM = "120"

// Assemble populates the document from the track plans: one MIDI track
// per plan with a sample device and clip, optional pan and sample-start
// automation, group tracks per multi-track instrument, tempo correction
// and transport reset. Structural problems in the template degrade the
// affected feature and are reported, not fatal.
func Assemble(d *Document, m *tracker.Module, plans []tracker.TrackPlan, opts Options) error {
	if err := d.EnsureTracks(len(plans)); err != nil {
		return err
	}

	withOffset := tracker.InstrumentsWithSampleOffset(m)
	midiTracks := d.MidiTracks()

	used := make(map[*etree.Element]bool)
	trackOf := make([]*etree.Element, len(plans))

	for i, plan := range plans {
		if i >= len(midiTracks) {
			fmt.Printf("  warning: template has only %d tracks, %d needed\n", len(midiTracks), len(plans))
			break
		}
		track := midiTracks[i]
		trackOf[i] = track
		used[track] = true

		SetTrackName(track, plan.Name)
		SetTrackColor(track, plan.Color)

		useSimpler := opts.SampleOffset && withOffset[plan.Instrument]
		var startTargetID string

		if useSimpler {
			simpler, err := InsertSimpler(track, d.IDs)
			if err == nil {
				err = simpler.Populate(plan.Sample, opts.Envelope, m.Info.BPM)
			}
			if err == nil {
				startTargetID, err = simpler.SampleStartTarget(d.IDs)
			}
			if err != nil {
				reportStructural(plan.Name, err)
				startTargetID = ""
			}
		} else {
			sampler, err := FindSampler(track)
			if err == nil {
				err = sampler.Populate(plan.Sample, opts.Envelope, m.Info.BPM)
			}
			if err != nil {
				reportStructural(plan.Name, err)
			}
		}

		if err := SetClipNotes(track, plan.Notes); err != nil {
			reportStructural(plan.Name, err)
		}

		if startTargetID != "" && hasSampleOffset(plan.Notes) {
			AddSampleStartAutomation(track, plan.Notes, plan.Sample.Frames, startTargetID, d.IDs)
		}

		if opts.PanAutomation {
			if err := AddPanAutomation(track, plan.Notes, plan.Sample.Panning, d.IDs); err != nil {
				reportStructural(plan.Name, err)
			}
		}

		DisarmTrack(track)
	}

	if err := d.groupInstruments(plans, trackOf); err != nil {
		return err
	}

	d.removeUnusedTracks(used)

	for _, track := range trackOf {
		if track != nil {
			FoldTrack(track)
		}
	}

	d.applyTempo(m.RealBPM())
	d.resetTransport()
	return nil
}

func reportStructural(trackName string, err error) {
	var serr *StructuralError
	if errors.As(err, &serr) {
		fmt.Printf("  warning: %s: %v\n", trackName, serr)
		return
	}
	fmt.Printf("  warning: %s: %v\n", trackName, err)
}

func hasSampleOffset(notes []tracker.NoteEvent) bool {
	for _, n := range notes {
		if n.SampleOffset >= 0 {
			return true
		}
	}
	return false
}

// groupInstruments wraps every instrument that spans two or more tracks
// in a collapsed group named after its sample.
func (d *Document) groupInstruments(plans []tracker.TrackPlan, trackOf []*etree.Element) error {
	byInstrument := make(map[int][]int)
	for i := range plans {
		if trackOf[i] == nil {
			continue
		}
		byInstrument[plans[i].Instrument] = append(byInstrument[plans[i].Instrument], i)
	}
	instruments := make([]int, 0, len(byInstrument))
	for inst := range byInstrument {
		instruments = append(instruments, inst)
	}
	sort.Ints(instruments)

	groupID := firstGroupID
	for _, inst := range instruments {
		indices := byInstrument[inst]
		if len(indices) < 2 {
			continue
		}
		members := make([]*etree.Element, len(indices))
		for i, idx := range indices {
			members[i] = trackOf[idx]
		}
		first := plans[indices[0]]
		if err := d.AddGroupTrack(first.Sample.Name, first.Color, groupID, members); err != nil {
			return err
		}
		groupID++
	}
	return nil
}

// removeUnusedTracks drops template MIDI tracks no plan claimed. Group
// and return tracks stay.
func (d *Document) removeUnusedTracks(used map[*etree.Element]bool) {
	tracks := d.Tracks()
	if tracks == nil {
		return
	}
	for _, track := range tracks.SelectElements("MidiTrack") {
		if !used[track] {
			tracks.RemoveChild(track)
		}
	}
}

// applyTempo rewrites every tempo value still at the template default.
// The tempo lives in the main track's Manual plus an arrangement
// FloatEvent, and both must agree.
func (d *Document) applyTempo(bpm float64) {
	value := formatFloat(bpm)
	for _, manual := range d.doc.FindElements("//Manual") {
		if manual.SelectAttrValue("Value", "") == templateDefaultBPM {
			manual.CreateAttr("Value", value)
		}
	}
	for _, event := range d.doc.FindElements("//FloatEvent") {
		if event.SelectAttrValue("Value", "") == templateDefaultBPM {
			event.CreateAttr("Value", value)
		}
	}
}

// resetTransport puts the playhead and the global time selection back
// at 1.1.1.
func (d *Document) resetTransport() {
	setValue(d.LiveSet(), "Transport/CurrentTime", "0")
	if sel := d.LiveSet().SelectElement("TimeSelection"); sel != nil {
		setValue(sel, "AnchorTime", "0")
		setValue(sel, "OtherTime", "0")
	}
}
