package tracker

import (
	"fmt"
	"math"
	"sort"
)

// TrackPlan is one MIDI track to materialize in the project: its notes,
// the instrument sample behind it, and presentation metadata. Channel is
// -1 for merged lanes.
type TrackPlan struct {
	Name       string
	Instrument int
	Channel    int
	Color      int
	Sample     *Sample
	Notes      []NoteEvent
}

// paletteSize is the number of usable Ableton track colors (1..69).
const paletteSize = 69

// overlapMargin absorbs float noise when testing note intervals for
// overlap during lane distribution.
const overlapMargin = 0.001

// PlanTracks turns grouped notes into the list of tracks to create.
// Default is one track per (channel, instrument) pair, named after the
// channel and sample. With merge enabled, each instrument gets a single
// "All notes" track; overlapping notes spill onto auxiliary lanes.
// Instruments with no rendered sample are dropped.
func PlanTracks(m *Module, groups []ChannelNotes, merge bool) []TrackPlan {
	instruments := make(map[int]*Sample)
	var order []int
	for _, g := range groups {
		if _, seen := instruments[g.Instrument]; seen {
			continue
		}
		if s := m.SampleByInstrument(g.Instrument); s != nil {
			instruments[g.Instrument] = s
			order = append(order, g.Instrument)
		}
	}
	sort.Ints(order)

	colors := make(map[int]int, len(order))
	for i, inst := range order {
		colors[inst] = i%paletteSize + 1
	}

	var plans []TrackPlan
	for _, inst := range order {
		sample := instruments[inst]
		sampleName := sample.Name
		if sampleName == "" {
			sampleName = fmt.Sprintf("Instrument_%02X_Sample_%d", inst, sample.Slot)
		}

		var lanes []ChannelNotes
		for _, g := range groups {
			if g.Instrument == inst {
				lanes = append(lanes, g)
			}
		}

		if merge {
			var lists [][]NoteEvent
			for _, lane := range lanes {
				lists = append(lists, lane.Events)
			}
			for i, notes := range DistributeNotes(MergeNotes(lists)) {
				if len(notes) == 0 {
					continue
				}
				name := "All notes"
				if i > 0 {
					name = fmt.Sprintf("All notes (%d)", i+1)
				}
				plans = append(plans, TrackPlan{
					Name:       name,
					Instrument: inst,
					Channel:    -1,
					Color:      colors[inst],
					Sample:     sample,
					Notes:      notes,
				})
			}
			continue
		}

		for _, lane := range lanes {
			plans = append(plans, TrackPlan{
				Name:       fmt.Sprintf("Ch%d - %s", lane.Channel+1, sampleName),
				Instrument: inst,
				Channel:    lane.Channel,
				Color:      colors[inst],
				Sample:     sample,
				Notes:      lane.Events,
			})
		}
	}
	return plans
}

// MergeNotes flattens several note lists into one timeline, dropping
// duplicates that share the same (time, pitch). Time is rounded to four
// decimals for the comparison so float noise does not defeat the dedup.
func MergeNotes(lists [][]NoteEvent) []NoteEvent {
	var all []NoteEvent
	for _, l := range lists {
		all = append(all, l...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time < all[j].Time })

	type noteKey struct {
		time  float64
		pitch int
	}
	seen := make(map[noteKey]bool, len(all))
	out := all[:0]
	for _, n := range all {
		key := noteKey{math.Round(n.Time*1e4) / 1e4, n.Pitch}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// DistributeNotes assigns time-sorted notes to lanes so that no lane
// holds two overlapping notes: greedy first-fit, opening a new lane when
// none accepts the note. Always returns at least one lane.
func DistributeNotes(notes []NoteEvent) [][]NoteEvent {
	lanes := [][]NoteEvent{{}}
	for _, n := range notes {
		start, end := n.Time, n.Time+n.Duration
		placed := false
		for i, lane := range lanes {
			overlaps := false
			for _, e := range lane {
				eStart, eEnd := e.Time, e.Time+e.Duration
				if !(end <= eStart+overlapMargin || start >= eEnd-overlapMargin) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				lanes[i] = append(lanes[i], n)
				placed = true
				break
			}
		}
		if !placed {
			lanes = append(lanes, []NoteEvent{n})
		}
	}
	return lanes
}
