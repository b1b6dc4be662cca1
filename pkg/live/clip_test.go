package live

import (
	"testing"

	"github.com/james-see/tracker2live/pkg/tracker"
)

func TestSetClipNotes(t *testing.T) {
	d, err := NewDocument()
	if err != nil {
		t.Fatal(err)
	}
	track := d.MidiTracks()[0]

	notes := []tracker.NoteEvent{
		{Time: 0, Pitch: 62, Velocity: 100, Duration: 1},
		{Time: 1, Pitch: 60, Velocity: 127, Duration: 0.5},
		{Time: 2, Pitch: 60, Velocity: 64, Duration: 1},
	}
	if err := SetClipNotes(track, notes); err != nil {
		t.Fatalf("SetClipNotes() error: %v", err)
	}

	clip := track.FindElement(".//MidiClip")
	if got := clip.FindElement("CurrentEnd").SelectAttrValue("Value", ""); got != "6" {
		t.Errorf("CurrentEnd = %s, want 6", got)
	}
	if got := clip.FindElement("Loop/LoopEnd").SelectAttrValue("Value", ""); got != "6" {
		t.Errorf("LoopEnd = %s, want 6", got)
	}
	if got := clip.FindElement("Loop/OutMarker").SelectAttrValue("Value", ""); got != "6" {
		t.Errorf("OutMarker = %s, want 6", got)
	}

	keyTracks := clip.FindElement(".//Notes/KeyTracks").SelectElements("KeyTrack")
	if len(keyTracks) != 2 {
		t.Fatalf("key tracks = %d, want 2", len(keyTracks))
	}
	// Pitches come out sorted.
	if got := keyTracks[0].FindElement("MidiKey").SelectAttrValue("Value", ""); got != "60" {
		t.Errorf("first key track pitch = %s, want 60", got)
	}
	if got := keyTracks[1].FindElement("MidiKey").SelectAttrValue("Value", ""); got != "62" {
		t.Errorf("second key track pitch = %s, want 62", got)
	}

	events := keyTracks[0].FindElement("Notes").SelectElements("MidiNoteEvent")
	if len(events) != 2 {
		t.Fatalf("pitch 60 events = %d, want 2", len(events))
	}
	ev := events[0]
	if ev.SelectAttrValue("Time", "") != "1" ||
		ev.SelectAttrValue("Duration", "") != "0.5" ||
		ev.SelectAttrValue("Velocity", "") != "127" ||
		ev.SelectAttrValue("OffVelocity", "") != "64" {
		t.Errorf("event attrs = %v", ev.Attr)
	}
}

func TestSetClipNotesReplacesExisting(t *testing.T) {
	d, _ := NewDocument()
	track := d.MidiTracks()[0]

	first := []tracker.NoteEvent{{Time: 0, Pitch: 60, Velocity: 100, Duration: 1}}
	second := []tracker.NoteEvent{{Time: 0, Pitch: 72, Velocity: 100, Duration: 1}}
	if err := SetClipNotes(track, first); err != nil {
		t.Fatal(err)
	}
	if err := SetClipNotes(track, second); err != nil {
		t.Fatal(err)
	}

	keyTracks := track.FindElement(".//Notes/KeyTracks").SelectElements("KeyTrack")
	if len(keyTracks) != 1 {
		t.Fatalf("key tracks = %d, want 1", len(keyTracks))
	}
	if got := keyTracks[0].FindElement("MidiKey").SelectAttrValue("Value", ""); got != "72" {
		t.Errorf("pitch = %s, want 72", got)
	}
}

func TestSetClipNotesEmpty(t *testing.T) {
	d, _ := NewDocument()
	track := d.MidiTracks()[0]
	if err := SetClipNotes(track, nil); err != nil {
		t.Errorf("empty notes should be a no-op, got %v", err)
	}
}

func TestSetClipNotesDropsOutOfRangePitches(t *testing.T) {
	d, _ := NewDocument()
	track := d.MidiTracks()[0]
	notes := []tracker.NoteEvent{
		{Time: 0, Pitch: 60, Velocity: 100, Duration: 1},
		{Time: 1, Pitch: 200, Velocity: 100, Duration: 1},
	}
	if err := SetClipNotes(track, notes); err != nil {
		t.Fatal(err)
	}
	keyTracks := track.FindElement(".//Notes/KeyTracks").SelectElements("KeyTrack")
	if len(keyTracks) != 1 {
		t.Errorf("key tracks = %d, want 1", len(keyTracks))
	}
}
