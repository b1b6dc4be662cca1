package live

import (
	"sort"
	"strconv"

	"github.com/beevik/etree"

	"github.com/james-see/tracker2live/pkg/tracker"
)

// clipTail extends the clip end past the final note start.
const clipTail = 4.0

// SetClipNotes replaces the contents of the track's first MIDI clip
// with the given notes and stretches the clip to cover them. Notes are
// grouped into one KeyTrack per pitch, the layout Live uses.
func SetClipNotes(track *etree.Element, notes []tracker.NoteEvent) error {
	seq := track.FindElement(".//DeviceChain/MainSequencer")
	if seq == nil {
		return &StructuralError{Device: "clip", Path: "DeviceChain/MainSequencer"}
	}
	clip := seq.FindElement(".//MidiClip")
	if clip == nil {
		return &StructuralError{Device: "clip", Path: "MainSequencer/MidiClip"}
	}
	if len(notes) == 0 {
		return nil
	}

	end := 0.0
	for _, n := range notes {
		if n.Time > end {
			end = n.Time
		}
	}
	end += clipTail
	setValue(clip, "CurrentEnd", formatFloat(end))
	setValue(clip, "Loop/LoopEnd", formatFloat(end))
	setValue(clip, "Loop/OutMarker", formatFloat(end))

	keyTracks := clip.FindElement(".//Notes/KeyTracks")
	if keyTracks == nil {
		return &StructuralError{Device: "clip", Path: "Notes/KeyTracks"}
	}
	for _, child := range keyTracks.ChildElements() {
		keyTracks.RemoveChild(child)
	}

	byPitch := make(map[int][]tracker.NoteEvent)
	for _, n := range notes {
		if n.Pitch >= 0 && n.Pitch <= 127 {
			byPitch[n.Pitch] = append(byPitch[n.Pitch], n)
		}
	}
	pitches := make([]int, 0, len(byPitch))
	for p := range byPitch {
		pitches = append(pitches, p)
	}
	sort.Ints(pitches)

	for _, pitch := range pitches {
		keyTrack := keyTracks.CreateElement("KeyTrack")
		keyTrack.CreateAttr("Id", strconv.Itoa(pitch))

		notesEl := keyTrack.CreateElement("Notes")
		for _, n := range byPitch[pitch] {
			ev := notesEl.CreateElement("MidiNoteEvent")
			ev.CreateAttr("Time", formatFloat(n.Time))
			ev.CreateAttr("Duration", formatFloat(n.Duration))
			ev.CreateAttr("Velocity", strconv.Itoa(n.Velocity))
			ev.CreateAttr("OffVelocity", "64")
			ev.CreateAttr("NoteId", "0")
		}

		midiKey := keyTrack.CreateElement("MidiKey")
		midiKey.CreateAttr("Value", strconv.Itoa(pitch))
	}
	return nil
}
