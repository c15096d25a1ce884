// Package beep plays the short chimes heard outside a session: one on
// attaching to a game, one on losing it, and a double tone on errors.
// The session mixer owns an output stream while polling runs; these
// one-shots open their own and release it right away.
package beep

import "math"

var disabled bool

// Disable silences all chimes, for sim mode and tests.
func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Attach chime: high pitch, short
	attachFreq   = 1200
	attachVolume = 0.5
	attachDecay  = 60

	// Detach chime: medium pitch, slightly longer
	detachFreq   = 900
	detachVolume = 0.5
	detachDecay  = 40

	// Error chime: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

// tickSamples renders one decaying sine tone as interleaved stereo.
func tickSamples(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n*2)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		s := int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
		samples[i*2] = s
		samples[i*2+1] = s
	}
	return samples
}

func doubleBeepSamples(freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := tickSamples(freq, beepDur, volume, decay)
	gap := make([]int16, int(sampleRate*gapDur)*2)
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}
