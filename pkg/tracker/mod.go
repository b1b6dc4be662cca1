package tracker

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ProTracker period → MIDI note, PAL calibration. ProTracker C-1 maps to
// MIDI C-3 (48), hence the +24 semitone shift baked into the table.
var periodTable = map[int]int{
	// Octave 1
	856: 48, 808: 49, 762: 50, 720: 51, 678: 52, 640: 53,
	604: 54, 570: 55, 538: 56, 508: 57, 480: 58, 453: 59,
	// Octave 2
	428: 60, 404: 61, 381: 62, 360: 63, 339: 64, 320: 65,
	302: 66, 285: 67, 269: 68, 254: 69, 240: 70, 226: 71,
	// Octave 3
	214: 72, 202: 73, 190: 74, 180: 75, 170: 76, 160: 77,
	151: 78, 143: 79, 135: 80, 127: 81, 120: 82, 113: 83,
	// Octave 4 (extension)
	107: 84, 101: 85, 95: 86, 90: 87, 85: 88, 80: 89,
	76: 90, 71: 91, 67: 92, 64: 93, 60: 94, 57: 95,
}

// periodTolerance is the maximum distance from a table entry before the
// closed-form conversion takes over.
const periodTolerance = 10

// PeriodToMIDI converts an Amiga period value to a MIDI pitch. Standard
// periods hit the lookup table (nearest match within tolerance); anything
// else falls back to the PAL frequency formula. Returns 0 for period 0.
func PeriodToMIDI(period int) int {
	if period == 0 {
		return 0
	}
	closest, best := 0, math.MaxInt
	for p := range periodTable {
		if d := abs(p - period); d < best {
			closest, best = p, d
		}
	}
	if best > periodTolerance {
		freq := 7093789.2 / (float64(period) * 2)
		return int(math.Round(12*math.Log2(freq/440.0) + 69 + 24))
	}
	return periodTable[closest]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var modSignatures = map[string]int{
	"M.K.": 4, "M!K!": 4, "FLT4": 4,
	"FLT8": 8, "8CHN": 8,
	"6CHN": 6,
	"4CHN": 4,
}

const (
	modRowsPerPattern  = 64
	modSampleHeaderLen = 30
	modTitleLen        = 20
)

// DecodeMOD decodes a ProTracker module. The 4-byte signature at offset
// 1080 selects the 31-sample layout and channel count; files without a
// recognized signature use the legacy 15-sample/4-channel layout.
func DecodeMOD(data []byte) (*Module, error) {
	if len(data) < modTitleLen {
		return nil, &FormatError{Format: FormatMOD, Reason: "file too short"}
	}

	numSamples, numChannels := 15, 4
	if len(data) >= 1084 {
		if ch, ok := modSignatures[string(data[1080:1084])]; ok {
			numSamples, numChannels = 31, ch
		}
	}

	title := trimName(data[:modTitleLen])

	// Sample headers directly follow the title.
	headerEnd := modTitleLen + numSamples*modSampleHeaderLen
	if len(data) < headerEnd+2+128 {
		return nil, &FormatError{Format: FormatMOD, Reason: "truncated header"}
	}

	type modSampleHeader struct {
		name         string
		length       int
		finetune     int
		volume       int
		repeatStart  int
		repeatLength int
	}
	headers := make([]modSampleHeader, numSamples)
	for i := 0; i < numSamples; i++ {
		off := modTitleLen + i*modSampleHeaderLen
		h := modSampleHeader{
			name:         trimName(data[off : off+22]),
			length:       int(binary.BigEndian.Uint16(data[off+22:])) * 2,
			finetune:     int(data[off+24] & 0x0F),
			volume:       int(data[off+25]),
			repeatStart:  int(binary.BigEndian.Uint16(data[off+26:])) * 2,
			repeatLength: int(binary.BigEndian.Uint16(data[off+28:])) * 2,
		}
		// Finetune is a signed 4-bit nibble.
		if h.finetune > 7 {
			h.finetune -= 16
		}
		headers[i] = h
	}

	songLength := int(data[headerEnd])
	orderTable := data[headerEnd+2 : headerEnd+2+128]
	if songLength > 128 {
		songLength = 128
	}
	order := make([]int, songLength)
	numPatterns := 0
	for i := 0; i < songLength; i++ {
		order[i] = int(orderTable[i])
		if order[i]+1 > numPatterns {
			numPatterns = order[i] + 1
		}
	}

	patternStart := headerEnd + 2 + 128
	if numSamples == 31 {
		patternStart += 4 // signature
	}

	patterns := make([]Pattern, 0, numPatterns)
	cellLen := 4
	patternLen := modRowsPerPattern * numChannels * cellLen
	for p := 0; p < numPatterns; p++ {
		off := patternStart + p*patternLen
		if off+patternLen > len(data) {
			fmt.Printf("  warning: pattern %d truncated, skipping\n", p)
			patterns = append(patterns, Pattern{Index: p, Rows: modRowsPerPattern})
			continue
		}
		patterns = append(patterns, decodeMODPattern(p, data[off:off+patternLen], numChannels))
	}

	// Sample data follows the last pattern.
	samples := make([]Sample, 0, numSamples)
	off := patternStart + numPatterns*patternLen
	for i := 0; i < numSamples; i++ {
		h := headers[i]
		if h.length == 0 {
			continue
		}
		end := off + h.length
		if end > len(data) {
			end = len(data)
		}
		if end <= off {
			break
		}
		raw := data[off:end]
		off = end

		// 8-bit signed → 16-bit.
		pcm := make([]int16, len(raw))
		for k, b := range raw {
			pcm[k] = int16(int8(b)) * 256
		}

		s := Sample{
			Instrument: i + 1,
			Slot:       1,
			Name:       h.name,
			Finetune:   h.finetune,
			Volume:     h.volume,
			Panning:    128,
			Frames:     len(pcm),
			PCM:        pcm,
		}
		// Loop active when the repeat region spans more than one word.
		if h.repeatLength > 2 {
			s.Loop = LoopForward
			s.LoopStart = h.repeatStart
			s.LoopLength = h.repeatLength
		}
		samples = append(samples, s)
	}

	info := ModuleInfo{
		Title:    title,
		Channels: numChannels,
		Order:    order,
		Speed:    6,
		BPM:      125,
	}
	scanMODTempo(&info, patterns)

	return &Module{Format: FormatMOD, Info: info, Samples: samples, Patterns: patterns}, nil
}

// decodeMODPattern unpacks one 64-row pattern. Cells are 4 packed bytes:
//
//	byte 0: sssspppp  sample high nibble, period bits 8..11
//	byte 1: pppppppp  period low byte
//	byte 2: sssseeee  sample low nibble, effect type
//	byte 3: xxxxxxxx  effect parameter
func decodeMODPattern(index int, data []byte, numChannels int) Pattern {
	pat := Pattern{Index: index, Rows: modRowsPerPattern}
	for row := 0; row < modRowsPerPattern; row++ {
		for ch := 0; ch < numChannels; ch++ {
			off := (row*numChannels + ch) * 4
			b0, b1, b2, b3 := data[off], data[off+1], data[off+2], data[off+3]

			period := int(b0&0x0F)<<8 | int(b1)
			sample := int(b0&0xF0) | int(b2>>4)
			effect := int(b2 & 0x0F)
			param := int(b3)

			switch {
			case period > 0 && sample > 0:
				midi := PeriodToMIDI(period)
				if midi == 0 {
					continue
				}
				pat.Events = append(pat.Events, RawEvent{
					Row: row, Channel: ch,
					Note: midi, Instrument: sample,
					Volume:     64,
					EffectType: effect, EffectParam: param,
				})
			case effect == 0x0F && param > 0:
				// Set speed/tempo, retained without a note.
				pat.Events = append(pat.Events, RawEvent{
					Row: row, Channel: ch,
					Volume:     64,
					EffectType: effect, EffectParam: param,
				})
			case effect == 0x0C && param == 0:
				// C00 stops the running note on this channel.
				pat.Events = append(pat.Events, RawEvent{
					Row: row, Channel: ch,
					EffectType: effect, EffectParam: param,
					VolumeStop: true,
				})
			}
		}
	}
	return pat
}

// scanMODTempo finds the earliest F command in the first ten played
// patterns. Params ≤ 0x1F set speed, larger values set BPM; the first
// match wins.
func scanMODTempo(info *ModuleInfo, patterns []Pattern) {
	order := info.Order
	if len(order) > 10 {
		order = order[:10]
	}
	for _, idx := range order {
		if idx >= len(patterns) {
			continue
		}
		for _, ev := range patterns[idx].Events {
			if ev.EffectType != 0x0F || ev.EffectParam <= 0 {
				continue
			}
			if ev.EffectParam <= 0x1F {
				info.Speed = ev.EffectParam
			} else {
				info.BPM = ev.EffectParam
			}
			return
		}
	}
}

func trimName(b []byte) string {
	return strings.TrimRight(strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7E {
			return -1
		}
		return r
	}, string(b)), " \x00")
}
