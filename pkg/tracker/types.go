// Package tracker decodes legacy tracker module formats (ProTracker MOD,
// FastTracker 2 XM) into a unified note/sample representation.
package tracker

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format represents a tracker file format
type Format string

const (
	FormatMOD     Format = "mod"
	FormatXM      Format = "xm"
	FormatUnknown Format = "unknown"
)

// ReferenceRate is the playback rate rendered samples are written at.
// 8363 Hz is the Amiga C-2 rate both formats are calibrated against.
const ReferenceRate = 8363

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mod":
		return FormatMOD
	case ".xm":
		return FormatXM
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content.
// XM files carry a 17-byte literal signature at offset 0; MOD files are
// identified by the 4-byte signature at offset 1080.
func DetectFormatFromContent(data []byte) Format {
	if len(data) >= 17 && string(data[:15]) == "Extended Module" {
		return FormatXM
	}
	if len(data) > 1084 {
		switch string(data[1080:1084]) {
		case "M.K.", "M!K!", "FLT4", "FLT8", "4CHN", "6CHN", "8CHN":
			return FormatMOD
		}
	}
	return FormatUnknown
}

// FormatError reports an unrecognized or corrupt module file. It is fatal
// for the file being decoded; siblings in a batch are unaffected.
type FormatError struct {
	Format Format
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Format, e.Reason)
}

// LoopKind is the sample loop mode carried by an instrument sample.
type LoopKind int

const (
	LoopNone LoopKind = iota
	LoopForward
	LoopPingPong
)

func (k LoopKind) String() string {
	switch k {
	case LoopForward:
		return "forward"
	case LoopPingPong:
		return "ping-pong"
	default:
		return "off"
	}
}

// RawEvent is one decoded pattern cell. Note is already a MIDI pitch
// (period/XM-note conversion happens in the decoders). A VolumeStop event
// carries no note and only bounds the duration of the preceding note on
// its channel.
type RawEvent struct {
	Row        int
	Channel    int
	Note       int // MIDI pitch, 0 when absent
	Instrument int // 1-based, 0 when absent
	Volume     int // 0..64
	EffectType int // -1 when absent
	EffectParam int
	VolumeStop bool
}

// SampleOffset returns the 9xx sample-offset payload, or -1 when the event
// does not carry the effect.
func (e RawEvent) SampleOffset() int {
	if e.EffectType == 0x09 {
		return e.EffectParam
	}
	return -1
}

// Panning returns the 8xx set-panning payload (0..255), or -1 when the
// event does not carry the effect.
func (e RawEvent) Panning() int {
	if e.EffectType == 0x08 {
		return e.EffectParam
	}
	return -1
}

// EnvelopePoint is one FT2 volume envelope point: a tick offset and a
// 0..64 amplitude.
type EnvelopePoint struct {
	Tick  int
	Value int
}

// VolumeEnvelope is the FT2 per-instrument volume envelope (up to 12
// points). Sustain holds the envelope at SustainPoint while a key is down.
type VolumeEnvelope struct {
	Enabled      bool
	Sustain      bool
	SustainPoint int
	Points       []EnvelopePoint
}

// Sample is one rendered instrument sample. PCM holds the decoded mono
// 16-bit waveform at ReferenceRate; Path is assigned once the WAV file has
// been written.
type Sample struct {
	Instrument   int // 1-based instrument number
	Slot         int // 1-based sample slot within the instrument
	Name         string
	Path         string
	RelativeNote int // semitone offset, XM only
	Finetune     int // -128..127
	LoopStart    int
	LoopLength   int
	Loop         LoopKind
	Volume       int // default volume 0..64
	Panning      int // default panning 0..255, 128 = center
	Frames       int // rendered length in frames
	Envelope     *VolumeEnvelope
	PCM          []int16
}

// Pattern is one decoded pattern: a fixed row count and the events found
// in it, in row/channel order.
type Pattern struct {
	Index  int
	Rows   int
	Events []RawEvent
}

// ModuleInfo carries module-level metadata.
type ModuleInfo struct {
	Title    string
	Channels int
	Order    []int // pattern play order
	Speed    int   // ticks per row
	BPM      int
}

// Module is a fully decoded tracker module.
type Module struct {
	Format   Format
	Info     ModuleInfo
	Samples  []Sample
	Patterns []Pattern
}

// SampleByInstrument returns the first sample slot of the given instrument,
// or nil when the instrument has no rendered sample.
func (m *Module) SampleByInstrument(instrument int) *Sample {
	for i := range m.Samples {
		if m.Samples[i].Instrument == instrument {
			return &m.Samples[i]
		}
	}
	return nil
}

// RealBPM returns the effective project tempo. Tracker BPM values are
// calibrated for speed 6; other speeds scale the real tempo accordingly.
func (m *Module) RealBPM() float64 {
	if m.Info.Speed <= 0 {
		return float64(m.Info.BPM)
	}
	return float64(m.Info.BPM) * 6.0 / float64(m.Info.Speed)
}

// Decode decodes a module from raw bytes, dispatching on the embedded
// signature.
func Decode(data []byte) (*Module, error) {
	switch DetectFormatFromContent(data) {
	case FormatXM:
		return DecodeXM(data)
	case FormatMOD:
		return DecodeMOD(data)
	}
	// MOD files without a recognized signature may still be legacy
	// 15-sample modules; DecodeMOD applies the fallback layout.
	if len(data) > 600 {
		return DecodeMOD(data)
	}
	return nil, &FormatError{Format: FormatUnknown, Reason: "no recognizable module signature"}
}
