package tracker

import (
	"encoding/binary"
	"testing"
)

func TestPeriodToMIDI(t *testing.T) {
	tests := []struct {
		name     string
		period   int
		expected int
	}{
		{"C-1", 856, 48},
		{"C-2", 428, 60},
		{"C-3", 214, 72},
		{"B-3", 113, 83},
		{"highest", 57, 95},
		{"near table entry", 860, 48},
		{"near table entry low", 850, 48},
		{"zero period", 0, 0},
		{"off-table period", 2000, 117},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PeriodToMIDI(tt.period)
			if result != tt.expected {
				t.Errorf("PeriodToMIDI(%d) = %d, want %d", tt.period, result, tt.expected)
			}
		})
	}
}

// buildTestMOD assembles a minimal 4-channel M.K. module: one pattern,
// one sample, a C-2 note on channel 1, a speed command and a C00 stop.
func buildTestMOD() []byte {
	data := make([]byte, 1084+64*4*4+8)
	copy(data, "TEST SONG")

	// Sample 1 header at offset 20.
	copy(data[20:], "bass")
	binary.BigEndian.PutUint16(data[42:], 4) // length in words = 8 bytes
	data[44] = 0                             // finetune
	data[45] = 64                            // volume
	binary.BigEndian.PutUint16(data[46:], 0) // repeat start
	binary.BigEndian.PutUint16(data[48:], 1) // repeat length 2 bytes, no loop

	data[950] = 1 // song length
	// order[0] = 0 at offset 952
	copy(data[1080:], "M.K.")

	pat := data[1084:]
	// Row 0, channel 0: period 428 (C-2 -> MIDI 60), sample 1.
	pat[0] = 0x01
	pat[1] = 0xAC
	pat[2] = 0x10
	// Row 4, channel 0: F03 set speed 3.
	off := (4 * 4) * 4
	pat[off+2] = 0x0F
	pat[off+3] = 0x03
	// Row 8, channel 0: C00 volume stop.
	off = (8 * 4) * 4
	pat[off+2] = 0x0C

	// Sample data: 8 bytes of signed 8-bit PCM.
	sample := data[1084+64*4*4:]
	sample[0] = 0x40
	sample[1] = 0xC0
	return data
}

func TestDecodeMOD(t *testing.T) {
	m, err := DecodeMOD(buildTestMOD())
	if err != nil {
		t.Fatalf("DecodeMOD() error: %v", err)
	}

	if m.Format != FormatMOD {
		t.Errorf("Format = %v, want %v", m.Format, FormatMOD)
	}
	if m.Info.Title != "TEST SONG" {
		t.Errorf("Title = %q, want %q", m.Info.Title, "TEST SONG")
	}
	if m.Info.Channels != 4 {
		t.Errorf("Channels = %d, want 4", m.Info.Channels)
	}
	if len(m.Patterns) != 1 {
		t.Fatalf("patterns = %d, want 1", len(m.Patterns))
	}
	// F03 in the first played pattern sets speed, not BPM.
	if m.Info.Speed != 3 {
		t.Errorf("Speed = %d, want 3", m.Info.Speed)
	}
	if m.Info.BPM != 125 {
		t.Errorf("BPM = %d, want 125", m.Info.BPM)
	}

	events := m.Patterns[0].Events
	var note *RawEvent
	stops := 0
	for i := range events {
		if events[i].VolumeStop {
			stops++
		}
		if events[i].Note != 0 {
			note = &events[i]
		}
	}
	if note == nil {
		t.Fatal("no note event decoded")
	}
	if note.Note != 60 || note.Instrument != 1 || note.Row != 0 {
		t.Errorf("note = pitch %d inst %d row %d, want 60/1/0", note.Note, note.Instrument, note.Row)
	}
	if stops != 1 {
		t.Errorf("volume stops = %d, want 1", stops)
	}

	if len(m.Samples) != 1 {
		t.Fatalf("samples = %d, want 1", len(m.Samples))
	}
	s := m.Samples[0]
	if s.Name != "bass" || s.Frames != 8 || s.Volume != 64 {
		t.Errorf("sample = %q frames %d vol %d, want bass/8/64", s.Name, s.Frames, s.Volume)
	}
	if s.PCM[0] != 0x40*256 {
		t.Errorf("PCM[0] = %d, want %d", s.PCM[0], 0x40*256)
	}
	signedC0 := byte(0xC0)
	if s.PCM[1] != int16(int8(signedC0))*256 {
		t.Errorf("PCM[1] = %d, want %d", s.PCM[1], int16(int8(signedC0))*256)
	}
	if s.Loop != LoopNone {
		t.Errorf("Loop = %v, want off", s.Loop)
	}
}

func TestDecodeMODTooShort(t *testing.T) {
	if _, err := DecodeMOD([]byte("short")); err == nil {
		t.Error("DecodeMOD() on truncated data should fail")
	}
}

func TestScanMODTempo(t *testing.T) {
	tests := []struct {
		name      string
		param     int
		wantSpeed int
		wantBPM   int
	}{
		{"speed command", 0x03, 3, 125},
		{"boundary speed", 0x1F, 0x1F, 125},
		{"bpm command", 0xA0, 6, 0xA0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ModuleInfo{Order: []int{0}, Speed: 6, BPM: 125}
			patterns := []Pattern{{
				Index: 0, Rows: 64,
				Events: []RawEvent{{Row: 0, EffectType: 0x0F, EffectParam: tt.param}},
			}}
			scanMODTempo(&info, patterns)
			if info.Speed != tt.wantSpeed || info.BPM != tt.wantBPM {
				t.Errorf("speed/bpm = %d/%d, want %d/%d", info.Speed, info.BPM, tt.wantSpeed, tt.wantBPM)
			}
		})
	}
}

func TestRealBPM(t *testing.T) {
	m := &Module{Info: ModuleInfo{Speed: 3, BPM: 125}}
	if got := m.RealBPM(); got != 250 {
		t.Errorf("RealBPM() = %v, want 250", got)
	}
	m.Info.Speed = 6
	if got := m.RealBPM(); got != 125 {
		t.Errorf("RealBPM() = %v, want 125", got)
	}
}

func TestTrimName(t *testing.T) {
	tests := []struct {
		in       []byte
		expected string
	}{
		{[]byte("hello\x00\x00\x00"), "hello"},
		{[]byte("trailing   "), "trailing"},
		{[]byte{0x01, 'a', 0x02, 'b'}, "ab"},
		{[]byte{}, ""},
	}
	for _, tt := range tests {
		if got := trimName(tt.in); got != tt.expected {
			t.Errorf("trimName(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestDetectFormatFromContent(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"xm signature", []byte("Extended Module: something"), FormatXM},
		{"mod signature", buildTestMOD(), FormatMOD},
		{"short data", []byte{0x00, 0x01}, FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormatFromContent(tt.data); got != tt.expected {
				t.Errorf("DetectFormatFromContent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"song.mod", FormatMOD},
		{"SONG.MOD", FormatMOD},
		{"song.xm", FormatXM},
		{"song.it", FormatUnknown},
		{"song", FormatUnknown},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.filename); got != tt.expected {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, got, tt.expected)
		}
	}
}
