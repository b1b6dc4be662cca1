package tracker

import (
	"encoding/binary"
	"fmt"
)

const xmSignature = "Extended Module: "

// byteReader is a bounds-checked cursor over the raw file. Reads past the
// end latch err and return zero values, so callers can batch reads and
// check once.
type byteReader struct {
	data []byte
	pos  int
	err  error
}

func (r *byteReader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("unexpected end of data reading %s at offset %d", what, r.pos)
	}
}

func (r *byteReader) u8(what string) int {
	if r.err != nil || r.pos+1 > len(r.data) {
		r.fail(what)
		return 0
	}
	v := int(r.data[r.pos])
	r.pos++
	return v
}

func (r *byteReader) i8(what string) int {
	return int(int8(r.u8(what)))
}

func (r *byteReader) u16(what string) int {
	if r.err != nil || r.pos+2 > len(r.data) {
		r.fail(what)
		return 0
	}
	v := int(binary.LittleEndian.Uint16(r.data[r.pos:]))
	r.pos += 2
	return v
}

func (r *byteReader) u32(what string) int {
	if r.err != nil || r.pos+4 > len(r.data) {
		r.fail(what)
		return 0
	}
	v := int(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return v
}

func (r *byteReader) bytes(n int, what string) []byte {
	if n < 0 || r.err != nil || r.pos+n > len(r.data) {
		r.fail(what)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *byteReader) skip(n int) {
	if n <= 0 || r.err != nil {
		return
	}
	if r.pos+n > len(r.data) {
		r.pos = len(r.data)
		return
	}
	r.pos += n
}

// DecodeXM decodes a FastTracker 2 Extended Module.
func DecodeXM(data []byte) (*Module, error) {
	if len(data) < 80 || string(data[:len(xmSignature)]) != xmSignature {
		return nil, &FormatError{Format: FormatXM, Reason: "missing Extended Module signature"}
	}

	r := &byteReader{data: data}
	r.skip(17)
	title := trimName(r.bytes(20, "module name"))
	r.skip(1)  // 0x1A
	r.skip(20) // tracker name
	r.skip(2)  // version

	headerSize := r.u32("header size")
	songLength := r.u16("song length")
	r.skip(2) // restart position
	numChannels := r.u16("channel count")
	numPatterns := r.u16("pattern count")
	numInstruments := r.u16("instrument count")
	r.skip(2) // flags
	speed := r.u16("default speed")
	bpm := r.u16("default bpm")
	orderTable := r.bytes(256, "pattern order")
	if r.err != nil {
		return nil, &FormatError{Format: FormatXM, Reason: r.err.Error()}
	}
	if songLength > 256 {
		songLength = 256
	}
	order := make([]int, songLength)
	for i := range order {
		order[i] = int(orderTable[i])
	}

	// Pattern data starts right after the extensible header.
	r.pos = 60 + headerSize

	patterns := make([]Pattern, 0, numPatterns)
	for i := 0; i < numPatterns; i++ {
		headerLen := r.u32("pattern header length")
		r.skip(1) // packing type
		rows := r.u16("row count")
		packedSize := r.u16("packed size")
		r.skip(headerLen - 9)
		packed := r.bytes(packedSize, "pattern data")
		if r.err != nil {
			fmt.Printf("  warning: pattern %d: %v, skipping\n", i, r.err)
			r.err = nil
			patterns = append(patterns, Pattern{Index: i, Rows: 64})
			continue
		}
		patterns = append(patterns, decodeXMPattern(i, packed, rows, numChannels))
	}

	samples := decodeXMInstruments(r, numInstruments)

	return &Module{
		Format: FormatXM,
		Info: ModuleInfo{
			Title:    title,
			Channels: numChannels,
			Order:    order,
			Speed:    speed,
			BPM:      bpm,
		},
		Samples:  samples,
		Patterns: patterns,
	}, nil
}

// decodeXMPattern unpacks one pattern. Cells are either 5 raw bytes or
// packed behind a flag byte (bit 7 set) selecting which of
// note/instrument/volume/effect-type/effect-param follow.
func decodeXMPattern(index int, data []byte, rows, numChannels int) Pattern {
	pat := Pattern{Index: index, Rows: rows}
	pos := 0
	for row := 0; row < rows; row++ {
		for ch := 0; ch < numChannels; ch++ {
			if pos >= len(data) {
				return pat
			}
			note, instrument := 0, 0
			volume, effectType, effectParam := -1, -1, 0

			head := data[pos]
			pos++
			if head&0x80 != 0 {
				if head&0x01 != 0 && pos < len(data) {
					note = int(data[pos])
					pos++
				}
				if head&0x02 != 0 && pos < len(data) {
					instrument = int(data[pos])
					pos++
				}
				if head&0x04 != 0 && pos < len(data) {
					volume = int(data[pos])
					pos++
				}
				if head&0x08 != 0 && pos < len(data) {
					effectType = int(data[pos])
					pos++
				}
				if head&0x10 != 0 && pos < len(data) {
					effectParam = int(data[pos])
					pos++
				}
			} else {
				note = int(head)
				if pos+3 < len(data) {
					instrument = int(data[pos])
					volume = int(data[pos+1])
					effectType = int(data[pos+2])
					effectParam = int(data[pos+3])
					pos += 4
				}
			}

			// Volume column is meaningful only in 0x10..0x50 (linear
			// 0..64); everything else is a column command and ignored.
			decodedVolume := -1
			if volume >= 0x10 && volume <= 0x50 {
				decodedVolume = volume - 0x10
			}

			switch {
			case note > 0 && note < 97 && instrument > 0:
				vol := 64
				if decodedVolume >= 0 {
					vol = decodedVolume
				}
				pat.Events = append(pat.Events, RawEvent{
					Row: row, Channel: ch,
					Note:       note - 1 + 12,
					Instrument: instrument,
					Volume:     vol,
					EffectType: effectType, EffectParam: effectParam,
				})
			case decodedVolume == 0:
				// Volume column 0 without a note stops the running note.
				pat.Events = append(pat.Events, RawEvent{
					Row: row, Channel: ch,
					EffectType: -1,
					VolumeStop: true,
				})
			}
		}
	}
	return pat
}

// XM instrument header offsets, relative to the instrument start.
const (
	xmInstName        = 4
	xmInstNumSamples  = 27
	xmInstVolEnvelope = 129
	xmInstNumVolPts   = 225
	xmInstVolSustain  = 227
	xmInstVolType     = 233
	xmSampleHeaderLen = 40
)

func decodeXMInstruments(r *byteReader, numInstruments int) []Sample {
	var samples []Sample
	for inst := 1; inst <= numInstruments; inst++ {
		instStart := r.pos
		instHeaderSize := r.u32("instrument header size")
		if r.err != nil {
			fmt.Printf("  warning: instrument %d: %v, stopping\n", inst, r.err)
			break
		}
		if instHeaderSize < 29 {
			r.pos = instStart + instHeaderSize
			continue
		}
		header := r.data[instStart:]
		name := ""
		if len(header) >= xmInstName+22 {
			name = trimName(header[xmInstName : xmInstName+22])
		}
		numSamples := 0
		if len(header) >= xmInstNumSamples+2 {
			numSamples = int(binary.LittleEndian.Uint16(header[xmInstNumSamples:]))
		}
		if numSamples <= 0 || numSamples >= 256 {
			r.pos = instStart + instHeaderSize
			continue
		}

		envelope := decodeXMEnvelope(header, instHeaderSize)

		// Sample headers follow the instrument header, data follows the
		// headers.
		r.pos = instStart + instHeaderSize
		type xmSampleHeader struct {
			length, loopStart, loopLength int
			volume, finetune              int
			kind, panning, relativeNote   int
			name                          string
		}
		headers := make([]xmSampleHeader, 0, numSamples)
		for j := 0; j < numSamples; j++ {
			h := xmSampleHeader{
				length:       r.u32("sample length"),
				loopStart:    r.u32("loop start"),
				loopLength:   r.u32("loop length"),
				volume:       r.u8("sample volume"),
				finetune:     r.i8("finetune"),
				kind:         r.u8("sample type"),
				panning:      r.u8("panning"),
				relativeNote: r.i8("relative note"),
			}
			r.skip(1) // reserved
			h.name = trimName(r.bytes(22, "sample name"))
			headers = append(headers, h)
		}
		if r.err != nil {
			fmt.Printf("  warning: instrument %d: %v, stopping\n", inst, r.err)
			break
		}

		for j, h := range headers {
			if h.length <= 0 || h.length >= 10_000_000 {
				continue
			}
			raw := r.bytes(h.length, "sample data")
			if r.err != nil {
				fmt.Printf("  warning: instrument %d sample %d: %v\n", inst, j+1, r.err)
				r.err = nil
				break
			}
			is16bit := h.kind&0x10 != 0
			pcm := deltaDecode(raw, is16bit)

			frames := len(pcm)
			loopStart, loopLength := h.loopStart, h.loopLength
			if is16bit {
				loopStart /= 2
				loopLength /= 2
			}
			sampleName := h.name
			if sampleName == "" {
				sampleName = name
			}

			samples = append(samples, Sample{
				Instrument:   inst,
				Slot:         j + 1,
				Name:         sampleName,
				RelativeNote: h.relativeNote,
				Finetune:     h.finetune,
				LoopStart:    loopStart,
				LoopLength:   loopLength,
				Loop:         LoopKind(h.kind & 0x03),
				Volume:       h.volume,
				Panning:      h.panning,
				Frames:       frames,
				Envelope:     envelope,
				PCM:          pcm,
			})
		}
	}
	return samples
}

// decodeXMEnvelope reads the 12-point FT2 volume envelope out of an
// instrument header. Returns nil when the header is too short to carry
// envelope data.
func decodeXMEnvelope(header []byte, instHeaderSize int) *VolumeEnvelope {
	if instHeaderSize < xmInstVolType+1 || len(header) < xmInstVolType+1 {
		return nil
	}
	numPoints := int(header[xmInstNumVolPts])
	if numPoints > 12 {
		return nil
	}
	points := make([]EnvelopePoint, numPoints)
	for p := 0; p < numPoints; p++ {
		off := xmInstVolEnvelope + p*4
		points[p] = EnvelopePoint{
			Tick:  int(binary.LittleEndian.Uint16(header[off:])),
			Value: int(binary.LittleEndian.Uint16(header[off+2:])),
		}
	}
	flags := header[xmInstVolType]
	return &VolumeEnvelope{
		Enabled:      numPoints > 0 && flags&0x01 != 0,
		Sustain:      flags&0x02 != 0,
		SustainPoint: int(header[xmInstVolSustain]),
		Points:       points,
	}
}

// deltaDecode reconstructs XM sample data. Samples are stored as deltas;
// the running sum wraps at 16 bits before reinterpreting as signed.
func deltaDecode(raw []byte, is16bit bool) []int16 {
	var deltas []int16
	if is16bit {
		deltas = make([]int16, len(raw)/2)
		for i := range deltas {
			deltas[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	} else {
		deltas = make([]int16, len(raw))
		for i, b := range raw {
			deltas[i] = int16(int8(b)) * 256
		}
	}
	out := make([]int16, len(deltas))
	current := 0
	for i, d := range deltas {
		current = (current + int(d)) & 0xFFFF
		out[i] = int16(uint16(current))
	}
	return out
}
