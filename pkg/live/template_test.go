package live

import (
	"testing"
)

func TestEnsureTracks(t *testing.T) {
	d, err := NewDocument()
	if err != nil {
		t.Fatal(err)
	}
	if err := d.EnsureTracks(3); err != nil {
		t.Fatalf("EnsureTracks() error: %v", err)
	}

	tracks := d.MidiTracks()
	if len(tracks) != 3 {
		t.Fatalf("MidiTracks() = %d, want 3", len(tracks))
	}

	// Clones get sequential names.
	for i, want := range []string{"", "Track 2", "Track 3"} {
		if i == 0 {
			continue
		}
		name := tracks[i].FindElement("Name/EffectiveName").SelectAttrValue("Value", "")
		if name != want {
			t.Errorf("track %d name = %q, want %q", i, name, want)
		}
	}

	// Track ids and automation target ids must be unique per track.
	seen := make(map[string]int)
	for i, track := range tracks {
		id := track.SelectAttrValue("Id", "")
		if id == "" {
			t.Errorf("track %d has no Id", i)
			continue
		}
		if prev, dup := seen[id]; dup {
			t.Errorf("tracks %d and %d share Id %s", prev, i, id)
		}
		seen[id] = i
	}
	panA := tracks[0].FindElement(".//Mixer/Pan/AutomationTarget").SelectAttrValue("Id", "")
	panB := tracks[1].FindElement(".//Mixer/Pan/AutomationTarget").SelectAttrValue("Id", "")
	if panA == panB {
		t.Errorf("clone shares pan automation target %s with original", panA)
	}

	// Clones sit before the return track.
	var order []string
	for _, el := range d.Tracks().ChildElements() {
		order = append(order, el.Tag)
	}
	sawReturn := false
	for _, tag := range order {
		if tag == "ReturnTrack" {
			sawReturn = true
		}
		if tag == "MidiTrack" && sawReturn {
			t.Errorf("MidiTrack after ReturnTrack in %v", order)
		}
	}
}

func TestEnsureTracksNoShrink(t *testing.T) {
	d, err := NewDocument()
	if err != nil {
		t.Fatal(err)
	}
	if err := d.EnsureTracks(1); err != nil {
		t.Fatalf("EnsureTracks() error: %v", err)
	}
	if got := len(d.MidiTracks()); got != 1 {
		t.Errorf("MidiTracks() = %d, want 1", got)
	}
}

func TestTrackSetters(t *testing.T) {
	d, err := NewDocument()
	if err != nil {
		t.Fatal(err)
	}
	track := d.MidiTracks()[0]

	SetTrackName(track, "Ch1 - kick")
	if got := track.FindElement("Name/EffectiveName").SelectAttrValue("Value", ""); got != "Ch1 - kick" {
		t.Errorf("name = %q", got)
	}

	SetTrackColor(track, 42)
	if got := track.FindElement("Color").SelectAttrValue("Value", ""); got != "42" {
		t.Errorf("track color = %q, want 42", got)
	}
	if got := track.FindElement(".//MidiClip/Color").SelectAttrValue("Value", ""); got != "42" {
		t.Errorf("clip color = %q, want 42", got)
	}

	DisarmTrack(track)
	if got := track.FindElement(".//Recorder/IsArmed").SelectAttrValue("Value", ""); got != "false" {
		t.Errorf("IsArmed = %q, want false", got)
	}

	FoldTrack(track)
	if got := track.FindElement("TrackUnfolded").SelectAttrValue("Value", ""); got != "false" {
		t.Errorf("TrackUnfolded = %q, want false", got)
	}
}
