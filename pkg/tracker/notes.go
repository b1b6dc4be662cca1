package tracker

import "sort"

// NoteEvent is one playable note on the song timeline. Time and Duration
// are in beats (4 rows = 1 beat). Panning and SampleOffset carry the raw
// 8xx / 9xx effect payloads, -1 when absent.
type NoteEvent struct {
	Time         float64
	Pitch        int
	Velocity     int
	Duration     float64
	Instrument   int
	Panning      int
	SampleOffset int
}

// maxNoteDuration caps note lengths for readability. A note with no
// following event on its channel also gets this length.
const maxNoteDuration = 4.0

// ChannelNotes groups the notes of one (channel, instrument) pair.
type ChannelNotes struct {
	Channel    int
	Instrument int
	Events     []NoteEvent
}

// BuildNotes walks the pattern order and turns raw events into timed
// notes grouped by (channel, instrument). Each tracker channel is
// monophonic: the next event on a channel, note or volume stop, bounds
// the duration of the note before it.
func BuildNotes(m *Module) []ChannelNotes {
	type timedEvent struct {
		time float64
		stop bool
		note NoteEvent
	}
	byChannel := make(map[int][]timedEvent)

	currentTime := 0.0
	for _, patternIdx := range m.Info.Order {
		if patternIdx >= len(m.Patterns) {
			continue
		}
		pat := m.Patterns[patternIdx]
		for _, ev := range pat.Events {
			t := currentTime + float64(ev.Row)/4.0
			if ev.VolumeStop {
				byChannel[ev.Channel] = append(byChannel[ev.Channel], timedEvent{time: t, stop: true})
				continue
			}
			if ev.Note == 0 || ev.Instrument == 0 {
				continue
			}
			byChannel[ev.Channel] = append(byChannel[ev.Channel], timedEvent{
				time: t,
				note: NoteEvent{
					Time:         t,
					Pitch:        ev.Note,
					Velocity:     velocityFor(m.Format, ev.Volume),
					Instrument:   ev.Instrument,
					Panning:      ev.Panning(),
					SampleOffset: ev.SampleOffset(),
				},
			})
		}
		currentTime += float64(pat.Rows) / 4.0
	}

	grouped := make(map[int]map[int][]NoteEvent)
	for channel, events := range byChannel {
		sort.SliceStable(events, func(i, j int) bool { return events[i].time < events[j].time })
		for i, ev := range events {
			if ev.stop {
				continue
			}
			note := ev.note
			note.Duration = maxNoteDuration
			if i+1 < len(events) {
				if gap := events[i+1].time - ev.time; gap < note.Duration {
					note.Duration = gap
				}
			}
			if grouped[channel] == nil {
				grouped[channel] = make(map[int][]NoteEvent)
			}
			grouped[channel][note.Instrument] = append(grouped[channel][note.Instrument], note)
		}
	}

	var out []ChannelNotes
	for channel, instruments := range grouped {
		for instrument, notes := range instruments {
			out = append(out, ChannelNotes{Channel: channel, Instrument: instrument, Events: notes})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].Instrument < out[j].Instrument
	})
	return out
}

// InstrumentsWithSampleOffset reports which instruments play a 9xx
// sample-offset command anywhere in the song. Those instruments need a
// device whose sample start can be automated.
func InstrumentsWithSampleOffset(m *Module) map[int]bool {
	out := make(map[int]bool)
	for _, patternIdx := range m.Info.Order {
		if patternIdx >= len(m.Patterns) {
			continue
		}
		for _, ev := range m.Patterns[patternIdx].Events {
			if ev.Instrument > 0 && ev.SampleOffset() >= 0 {
				out[ev.Instrument] = true
			}
		}
	}
	return out
}

// velocityFor maps tracker volume (0..64) to MIDI velocity. The two
// formats historically use slightly different curves.
func velocityFor(format Format, volume int) int {
	if format == FormatMOD {
		return volume * 127 / 64
	}
	v := volume * 2
	if v > 127 {
		v = 127
	}
	return v
}
