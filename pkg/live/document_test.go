package live

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestNewDocument(t *testing.T) {
	d, err := NewDocument()
	if err != nil {
		t.Fatalf("NewDocument() error: %v", err)
	}
	if d.LiveSet() == nil {
		t.Fatal("LiveSet() = nil")
	}
	if got := len(d.MidiTracks()); got != 1 {
		t.Errorf("MidiTracks() = %d, want 1", got)
	}
	// The allocator must start past every template identifier.
	max := maxNumericID(d.LiveSet())
	if d.IDs.Peek() != max+1 {
		t.Errorf("IDs.Peek() = %d, want %d", d.IDs.Peek(), max+1)
	}
}

func TestLoadDocumentRejectsPlainFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.als")
	if err := os.WriteFile(path, []byte("<LiveSet/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDocument(path); err == nil {
		t.Error("LoadDocument() should reject uncompressed input")
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	d, err := NewDocument()
	if err != nil {
		t.Fatal(err)
	}
	d.IDs.Next()
	wantNext := d.IDs.Peek()

	path := filepath.Join(t.TempDir(), "set.als")
	if err := d.Write(path); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	loaded, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument() error: %v", err)
	}
	if got := len(loaded.MidiTracks()); got != 1 {
		t.Errorf("reloaded MidiTracks() = %d, want 1", got)
	}

	next := loaded.LiveSet().FindElement(".//NextPointeeId")
	if next == nil {
		t.Fatal("NextPointeeId missing after round trip")
	}
	if got := next.SelectAttrValue("Value", ""); got != strconv.Itoa(wantNext) {
		t.Errorf("NextPointeeId = %s, want %d", got, wantNext)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{0, "0"},
		{0.25, "0.25"},
		{250, "250"},
		{-0.5, "-0.5"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.expected {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
