package converter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/tracker2live/pkg/tracker"
)

const ticksPerQuarter = 480

// ExportMIDI writes one Standard MIDI File per track plan into dir, for
// use outside Live. Beat times map directly onto quarter notes.
func ExportMIDI(plans []tracker.TrackPlan, bpm float64, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, plan := range plans {
		data, err := trackToSMF(plan.Notes, bpm)
		if err != nil {
			return fmt.Errorf("track %q: %w", plan.Name, err)
		}
		name := tracker.SanitizeSampleName(plan.Name)
		if name == "" {
			name = fmt.Sprintf("Track %d", i+1)
		}
		path := filepath.Join(dir, fmt.Sprintf("%02d - %s.mid", i+1, name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	fmt.Printf("  %d MIDI file(s) written to %s\n", len(plans), dir)
	return nil
}

func trackToSMF(notes []tracker.NoteEvent, bpm float64) ([]byte, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var track smf.Track

	if bpm <= 0 {
		bpm = 120
	}
	microsPerBeat := uint32(60000000.0 / bpm)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsPerBeat >> 16),
		byte(microsPerBeat >> 8),
		byte(microsPerBeat),
	}))
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	// Flatten note on/off pairs into a single tick-ordered stream; offs
	// sort before ons at the same tick so retriggers do not swallow the
	// new note.
	type midiEvent struct {
		tick uint32
		off  bool
		key  uint8
		vel  uint8
	}
	var events []midiEvent
	for _, n := range notes {
		if n.Pitch < 0 || n.Pitch > 127 {
			continue
		}
		vel := n.Velocity
		if vel < 1 {
			vel = 1
		}
		if vel > 127 {
			vel = 127
		}
		start := uint32(n.Time * ticksPerQuarter)
		end := uint32((n.Time + n.Duration) * ticksPerQuarter)
		if end <= start {
			end = start + 1
		}
		events = append(events, midiEvent{tick: start, key: uint8(n.Pitch), vel: uint8(vel)})
		events = append(events, midiEvent{tick: end, off: true, key: uint8(n.Pitch)})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var current uint32
	for _, ev := range events {
		delta := ev.tick - current
		if ev.off {
			track.Add(delta, midi.NoteOff(0, ev.key))
		} else {
			track.Add(delta, midi.NoteOn(0, ev.key, ev.vel))
		}
		current = ev.tick
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}
