package live

import (
	"github.com/james-see/tracker2live/pkg/tracker"
)

// adsr is the flattened envelope parameter set written to a device.
type adsr struct {
	attackTime, attackLevel, attackSlope float64
	decayTime, decayLevel, decaySlope    float64
	sustainLevel                         float64
	releaseTime, releaseLevel            float64
	releaseSlope                         float64
}

// ConfigureEnvelope approximates an FT2 volume envelope with the
// device's ADSR. Envelope ticks are row ticks: one tick is 2500/bpm
// milliseconds at the speed-6 calibration both formats use.
func (s *Sampler) ConfigureEnvelope(env *tracker.VolumeEnvelope, bpm int) error {
	if !env.Enabled || len(env.Points) == 0 {
		return nil
	}
	envelope := s.device.FindElement(".//VolumeAndPan/Envelope")
	if envelope == nil {
		return &StructuralError{Device: "sampler", Path: "VolumeAndPan/Envelope"}
	}

	params := approximateADSR(env, float64(bpm))

	set := func(name string, v float64) {
		setValue(envelope, name+"/Manual", formatFloat(v))
	}
	set("AttackTime", params.attackTime)
	set("AttackLevel", params.attackLevel)
	set("AttackSlope", params.attackSlope)
	set("DecayTime", params.decayTime)
	set("DecayLevel", params.decayLevel)
	set("DecaySlope", params.decaySlope)
	set("SustainLevel", params.sustainLevel)
	set("ReleaseTime", params.releaseTime)
	set("ReleaseLevel", params.releaseLevel)
	set("ReleaseSlope", params.releaseSlope)
	return nil
}

func approximateADSR(env *tracker.VolumeEnvelope, bpm float64) adsr {
	points := env.Points
	n := len(points)
	tickToMS := 2500.0 / bpm

	peakIdx := 0
	for i, p := range points {
		if p.Value > points[peakIdx].Value {
			peakIdx = i
		}
	}

	switch {
	case n == 2:
		// Two points: straight decay from the first level to the second.
		return adsr{
			attackTime:   0.1,
			decayTime:    maxf(1, float64(points[1].Tick)*tickToMS),
			decayLevel:   float64(points[0].Value) / 64.0,
			decaySlope:   1,
			sustainLevel: float64(points[1].Value) / 64.0,
			releaseTime:  50,
		}

	case env.Sustain && env.SustainPoint < n:
		// Sustain defined: attack to the peak, decay into the sustain
		// point, release over the tail.
		peak := points[peakIdx]
		sustain := points[env.SustainPoint]
		last := points[n-1]
		return adsr{
			attackTime:   maxf(0.1, float64(peak.Tick)*tickToMS),
			decayTime:    maxf(1, float64(sustain.Tick-peak.Tick)*tickToMS),
			decayLevel:   float64(peak.Value) / 64.0,
			decaySlope:   0.5,
			sustainLevel: float64(sustain.Value) / 64.0,
			releaseTime:  maxf(1, float64(last.Tick-sustain.Tick)*tickToMS),
		}

	default:
		// No sustain: treat the midpoint between peak and tail as the
		// sustain stage.
		peak := points[peakIdx]
		last := points[n-1]
		mid := points[(peakIdx+n-1)/2]
		return adsr{
			attackTime:   maxf(0.1, float64(peak.Tick)*tickToMS),
			decayTime:    maxf(1, float64(mid.Tick-peak.Tick)*tickToMS),
			decayLevel:   float64(peak.Value) / 64.0,
			decaySlope:   0.5,
			sustainLevel: float64(mid.Value) / 64.0,
			releaseTime:  maxf(1, float64(last.Tick-mid.Tick)*tickToMS),
		}
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
