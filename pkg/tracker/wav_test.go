package tracker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeSampleName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"kick drum", "kick drum"},
		{"bass-01_a,b", "bass-01_a,b"},
		{"weird/name\\here", "weirdnamehere"},
		{"  padded  ", "padded"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeSampleName(tt.in); got != tt.expected {
			t.Errorf("SanitizeSampleName(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestRenderSamples(t *testing.T) {
	dir := t.TempDir()
	m := &Module{
		Format: FormatMOD,
		Samples: []Sample{
			{Instrument: 1, Slot: 1, Name: "kick", PCM: []int16{0, 100, -100}, Frames: 3},
			{Instrument: 2, Slot: 1, Name: "kick", PCM: []int16{50}, Frames: 1},
			{Instrument: 3, Slot: 1, Name: "", PCM: []int16{1, 2}, Frames: 2},
			{Instrument: 4, Slot: 1, Name: "empty"}, // no PCM, skipped
		},
	}

	if err := RenderSamples(m, dir); err != nil {
		t.Fatalf("RenderSamples() error: %v", err)
	}

	// Name collision gets a numeric suffix.
	if m.Samples[0].Name != "kick" || m.Samples[1].Name != "kick_2" {
		t.Errorf("names = %q, %q, want kick, kick_2", m.Samples[0].Name, m.Samples[1].Name)
	}
	// Unnamed MOD samples fall back to the instrument number.
	if m.Samples[2].Name != "Sample_03" {
		t.Errorf("fallback name = %q, want Sample_03", m.Samples[2].Name)
	}
	if m.Samples[3].Path != "" {
		t.Errorf("empty sample should not be rendered, got path %q", m.Samples[3].Path)
	}

	for _, s := range m.Samples[:3] {
		if s.Path == "" {
			t.Errorf("sample %d has no path", s.Instrument)
			continue
		}
		if filepath.Dir(s.Path) != dir {
			t.Errorf("sample path %q not under %q", s.Path, dir)
		}
		info, err := os.Stat(s.Path)
		if err != nil {
			t.Errorf("stat %q: %v", s.Path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%q is empty", s.Path)
		}
	}
}

func TestRenderSamplesXMFallbackName(t *testing.T) {
	dir := t.TempDir()
	m := &Module{
		Format: FormatXM,
		Samples: []Sample{
			{Instrument: 10, Slot: 2, Name: "", PCM: []int16{1}, Frames: 1},
		},
	}
	if err := RenderSamples(m, dir); err != nil {
		t.Fatalf("RenderSamples() error: %v", err)
	}
	if m.Samples[0].Name != "Instrument_0A_Sample_2" {
		t.Errorf("fallback name = %q, want Instrument_0A_Sample_2", m.Samples[0].Name)
	}
}
