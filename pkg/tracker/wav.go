package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SanitizeSampleName strips everything but letters, digits, spaces and
// the few punctuation marks that are safe in a filename.
func SanitizeSampleName(name string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_', r == ',':
			return r
		}
		return -1
	}, name))
}

// RenderSamples writes every decoded sample as a mono 16-bit WAV at
// ReferenceRate into dir. Sample names are sanitized (with a per-format
// fallback for unnamed samples) and suffixed _2, _3… on collision; each
// Sample gets its final Name and Path back.
func RenderSamples(m *Module, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating samples dir: %w", err)
	}

	used := make(map[string]bool)
	for i := range m.Samples {
		s := &m.Samples[i]
		if len(s.PCM) == 0 {
			continue
		}

		name := SanitizeSampleName(s.Name)
		if name == "" {
			if m.Format == FormatXM {
				name = fmt.Sprintf("Instrument_%02X_Sample_%d", s.Instrument, s.Slot)
			} else {
				name = fmt.Sprintf("Sample_%02d", s.Instrument)
			}
		}
		unique := name
		for counter := 2; used[unique]; counter++ {
			unique = fmt.Sprintf("%s_%d", name, counter)
		}
		used[unique] = true

		path := filepath.Join(dir, unique+".wav")
		if err := writeWAV(path, s.PCM); err != nil {
			return fmt.Errorf("sample %q: %w", unique, err)
		}
		s.Name = unique
		s.Path = path
	}
	return nil
}

func writeWAV(path string, pcm []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}
	enc := wav.NewEncoder(f, ReferenceRate, 16, 1, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: ReferenceRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
