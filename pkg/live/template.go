package live

import (
	"fmt"

	"github.com/beevik/etree"
)

// EnsureTracks grows the document to at least n MIDI tracks by cloning
// the first one. Clones get fresh identifiers and sequential names and
// are inserted before the return tracks, matching Live's track order.
func (d *Document) EnsureTracks(n int) error {
	tracks := d.Tracks()
	if tracks == nil {
		return &StructuralError{Device: "live set", Path: "LiveSet/Tracks"}
	}
	existing := d.MidiTracks()
	if len(existing) == 0 {
		return &StructuralError{Device: "live set", Path: "Tracks/MidiTrack"}
	}
	template := existing[0]

	for i := len(existing); i < n; i++ {
		clone := template.Copy()
		setValue(clone, "Name/EffectiveName", fmt.Sprintf("Track %d", i+1))
		RegenerateIDs(clone, d.IDs)

		if ret := tracks.SelectElement("ReturnTrack"); ret != nil {
			tracks.InsertChildAt(ret.Index(), clone)
		} else {
			tracks.AddChild(clone)
		}
	}
	return nil
}

// SetTrackName updates a track's visible name.
func SetTrackName(track *etree.Element, name string) {
	setValue(track, "Name/EffectiveName", name)
}

// SetTrackColor paints a track and its MIDI clip with the same palette
// color.
func SetTrackColor(track *etree.Element, color int) {
	setValue(track, "Color", fmt.Sprintf("%d", color))
	if clip := track.FindElement(".//MidiClip"); clip != nil {
		setValue(clip, "Color", fmt.Sprintf("%d", color))
	}
}

// DisarmTrack clears the record-arm flag.
func DisarmTrack(track *etree.Element) {
	setValue(track, ".//Recorder/IsArmed", "false")
}

// FoldTrack collapses a track in the arrangement view.
func FoldTrack(track *etree.Element) {
	setValue(track, "TrackUnfolded", "false")
}
