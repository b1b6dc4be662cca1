package live

import (
	"math"
	"testing"

	"github.com/james-see/tracker2live/pkg/tracker"
)

func TestApproximateADSRTwoPoints(t *testing.T) {
	env := &tracker.VolumeEnvelope{
		Enabled: true,
		Points: []tracker.EnvelopePoint{
			{Tick: 0, Value: 64},
			{Tick: 20, Value: 32},
		},
	}
	// At 125 BPM a tick is 20 ms.
	got := approximateADSR(env, 125)

	want := adsr{
		attackTime:   0.1,
		decayTime:    400,
		decayLevel:   1.0,
		decaySlope:   1,
		sustainLevel: 0.5,
		releaseTime:  50,
	}
	if got != want {
		t.Errorf("adsr = %+v, want %+v", got, want)
	}
}

func TestApproximateADSRWithSustain(t *testing.T) {
	env := &tracker.VolumeEnvelope{
		Enabled:      true,
		Sustain:      true,
		SustainPoint: 2,
		Points: []tracker.EnvelopePoint{
			{Tick: 0, Value: 0},
			{Tick: 10, Value: 64},
			{Tick: 30, Value: 48},
			{Tick: 50, Value: 0},
		},
	}
	got := approximateADSR(env, 125)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"attackTime", got.attackTime, 200},
		{"decayTime", got.decayTime, 400},
		{"decayLevel", got.decayLevel, 1.0},
		{"decaySlope", got.decaySlope, 0.5},
		{"sustainLevel", got.sustainLevel, 0.75},
		{"releaseTime", got.releaseTime, 400},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestApproximateADSRMidpoint(t *testing.T) {
	env := &tracker.VolumeEnvelope{
		Enabled: true,
		Points: []tracker.EnvelopePoint{
			{Tick: 0, Value: 0},
			{Tick: 10, Value: 64},
			{Tick: 30, Value: 32},
			{Tick: 50, Value: 0},
		},
	}
	got := approximateADSR(env, 125)

	// Peak at index 1; midpoint between peak and tail is index 2.
	if math.Abs(got.attackTime-200) > 1e-9 {
		t.Errorf("attackTime = %v, want 200", got.attackTime)
	}
	if math.Abs(got.sustainLevel-0.5) > 1e-9 {
		t.Errorf("sustainLevel = %v, want 0.5", got.sustainLevel)
	}
	if math.Abs(got.releaseTime-400) > 1e-9 {
		t.Errorf("releaseTime = %v, want 400", got.releaseTime)
	}
}

func TestConfigureEnvelope(t *testing.T) {
	d, err := NewDocument()
	if err != nil {
		t.Fatal(err)
	}
	sampler, err := FindSampler(d.MidiTracks()[0])
	if err != nil {
		t.Fatal(err)
	}

	env := &tracker.VolumeEnvelope{
		Enabled: true,
		Points: []tracker.EnvelopePoint{
			{Tick: 0, Value: 64},
			{Tick: 20, Value: 32},
		},
	}
	if err := sampler.ConfigureEnvelope(env, 125); err != nil {
		t.Fatalf("ConfigureEnvelope() error: %v", err)
	}

	envelope := sampler.device.FindElement(".//VolumeAndPan/Envelope")
	if got := envelope.FindElement("DecayTime/Manual").SelectAttrValue("Value", ""); got != "400" {
		t.Errorf("DecayTime = %s, want 400", got)
	}
	if got := envelope.FindElement("SustainLevel/Manual").SelectAttrValue("Value", ""); got != formatFloat(0.5) {
		t.Errorf("SustainLevel = %s, want 0.5", got)
	}
}

func TestConfigureEnvelopeDisabled(t *testing.T) {
	d, _ := NewDocument()
	sampler, err := FindSampler(d.MidiTracks()[0])
	if err != nil {
		t.Fatal(err)
	}
	env := &tracker.VolumeEnvelope{Enabled: false, Points: []tracker.EnvelopePoint{{Tick: 0, Value: 64}}}
	if err := sampler.ConfigureEnvelope(env, 125); err != nil {
		t.Errorf("disabled envelope should be a no-op, got %v", err)
	}
}
