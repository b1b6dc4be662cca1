package live

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/james-see/tracker2live/pkg/tracker"
)

const (
	// defaultSampleGain keeps headroom below full scale: tracker volume
	// 64 lands at -12 dB so velocity scaling cannot clip.
	defaultSampleGain = 0.25

	// velocityScale is the Vol<Vel amount applied to sampler devices.
	velocityScale = 0.35
)

// Sampler is the typed accessor for a track's MultiSampler device.
type Sampler struct {
	device *etree.Element
}

// FindSampler locates the MultiSampler (or a pre-existing
// OriginalSimpler) directly under the track's device chain.
func FindSampler(track *etree.Element) (*Sampler, error) {
	devices := track.FindElement(".//DeviceChain/DeviceChain/Devices")
	if devices == nil {
		return nil, &StructuralError{Device: "sampler", Path: "DeviceChain/Devices"}
	}
	device := devices.SelectElement("MultiSampler")
	if device == nil {
		device = devices.SelectElement("OriginalSimpler")
	}
	if device == nil {
		return nil, &StructuralError{Device: "sampler", Path: "Devices/MultiSampler"}
	}
	return &Sampler{device: device}, nil
}

// Populate loads a rendered sample into the device: file reference,
// root key, detune, gain, panning and loop points, with the device
// forced monophonic. The FT2 volume envelope maps onto the device ADSR
// when withEnvelope is set.
func (s *Sampler) Populate(sample *tracker.Sample, withEnvelope bool, bpm int) error {
	part := s.device.FindElement(".//Player/MultiSampleMap/SampleParts/MultiSamplePart")
	if part == nil {
		return &StructuralError{Device: "sampler", Path: "SampleParts/MultiSamplePart"}
	}
	populateSamplePart(part, sample)

	// Loop points live on the sample part; MOD/XM forward and ping-pong
	// modes map directly onto the part's sustain loop.
	if sample.Loop != tracker.LoopNone {
		loopEnd := sample.LoopStart + sample.LoopLength
		setValue(part, "SustainLoop/LoopOn", "true")
		setValue(part, "SustainLoop/Start", strconv.Itoa(sample.LoopStart))
		setValue(part, "SustainLoop/End", strconv.Itoa(loopEnd))
		setValue(part, "SustainLoop/Mode", strconv.Itoa(int(sample.Loop)))
	}

	setValue(s.device, ".//VolumeAndPan/VolumeVelScale/Manual", formatFloat(velocityScale))
	setValue(s.device, ".//NumVoices", "0") // 0 encodes a single voice

	if withEnvelope && sample.Envelope != nil && sample.Envelope.Enabled {
		if err := s.ConfigureEnvelope(sample.Envelope, bpm); err != nil {
			return err
		}
	}
	return nil
}

// populateSamplePart writes the sample metadata every device kind
// shares: file reference with checksum, name, root key, detune, gain,
// pan and end markers.
func populateSamplePart(part *etree.Element, sample *tracker.Sample) {
	if fileRef := part.FindElement(".//SampleRef/FileRef"); fileRef != nil {
		filename := filepath.Base(sample.Path)
		setValue(fileRef, "RelativePathType", "1")
		setValue(fileRef, "RelativePath", "Samples/"+filename)
		if abs, err := filepath.Abs(sample.Path); err == nil {
			setValue(fileRef, "Path", abs)
		}
		if data, err := os.ReadFile(sample.Path); err == nil {
			setValue(fileRef, "OriginalFileSize", strconv.Itoa(len(data)))
			setValue(fileRef, "OriginalCrc", strconv.Itoa(byteChecksum(data)))
		}
	}

	name := strings.TrimSuffix(filepath.Base(sample.Path), filepath.Ext(sample.Path))
	setValue(part, "Name", name)

	// Tracker relative note shifts playback the opposite way a root key
	// does: one semitone up means the root sits one semitone lower.
	setValue(part, "RootKey", strconv.Itoa(60-sample.RelativeNote))

	if sample.Finetune != 0 {
		setValue(part, "Detune", formatFloat(detuneCents(sample.Finetune)))
	}

	gain := float64(sample.Volume) / 64.0 * defaultSampleGain
	setValue(part, "Volume", formatFloat(gain))
	setValue(part, "Panorama", formatFloat(PanValue(sample.Panning)))

	if sample.Frames > 0 {
		last := strconv.Itoa(sample.Frames - 1)
		setValue(part, "SampleEnd", last)
		setValue(part, "SustainLoop/End", last)
		setValue(part, "ReleaseLoop/End", last)
	}
}

// detuneCents maps tracker finetune (-128..127, 1/128 semitone steps)
// to the device's ±50 cent detune range.
func detuneCents(finetune int) float64 {
	cents := float64(finetune) / 2.56
	if cents > 50 {
		cents = 50
	}
	if cents < -50 {
		cents = -50
	}
	return cents
}

// PanValue maps tracker panning (0..255, 128 center) to the -1..1 pan
// range.
func PanValue(panning int) float64 {
	v := (float64(panning) - 128) / 128.0
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return v
}

// byteChecksum is the additive checksum recorded next to sample file
// references.
func byteChecksum(data []byte) int {
	sum := 0
	for _, b := range data {
		sum += int(b)
	}
	return sum % 65536
}
