// Package testutil provides deterministic signal generators and tolerance
// assertions shared by the module and engine tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine returns a sine wave starting at phase 0, so repeated
// runs produce identical samples.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise returns uniform white noise from a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// PulseTrain returns a signal with a single-sample unit pulse every period
// samples, starting at sample 0. Useful as a test clock or trigger source.
func PulseTrain(period, length int) []float64 {
	out := make([]float64, length)
	if period <= 0 {
		return out
	}
	for i := 0; i < length; i += period {
		out[i] = 1
	}
	return out
}
