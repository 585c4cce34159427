package modules

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/internal/testutil"
)

func newTestNoise(t *testing.T, seed int64) *Noise {
	t.Helper()
	return NewNoise("noise", seed, core.WithSampleRate(testRate), core.WithBlockSize(testBlock))
}

// TestNoise_AllColors_BoundedAndFinite renders a second of every color and
// checks the hard amplitude bounds.
func TestNoise_AllColors_BoundedAndFinite(t *testing.T) {
	g := newTestNoise(t, 42)

	res := render(t, g, []string{"white", "pink", "brown", "digital"}, int(testRate), testBlock, nil)

	for name, sig := range res {
		testutil.RequireFinite(t, sig)
		for i, v := range sig {
			if math.Abs(v) > 1 {
				t.Fatalf("%s[%d] = %v exceeds [-1, 1]", name, i, v)
			}
		}
	}
}

// TestNoise_SameSeed_SameStream verifies seeded reproducibility.
func TestNoise_SameSeed_SameStream(t *testing.T) {
	a := newTestNoise(t, 7)
	b := newTestNoise(t, 7)

	sa := render(t, a, []string{"white"}, 4*testBlock, testBlock, nil)["white"]
	sb := render(t, b, []string{"white"}, 4*testBlock, testBlock, nil)["white"]

	testutil.RequireSliceNearlyEqual(t, sa, sb, 0)
}

// TestNoise_PinkRunningSum_StaysConsistent verifies the Voss-McCartney
// incremental sum never drifts from the true sum of its rows, across many
// blocks and a reset.
func TestNoise_PinkRunningSum_StaysConsistent(t *testing.T) {
	g := newTestNoise(t, 3)

	for b := 0; b < 400; b++ {
		g.Process(testBlock)
		if !g.pinkSumConsistent(1e-9) {
			t.Fatalf("block %d: running sum diverged from row sum", b)
		}
	}

	g.Reset()
	g.Process(testBlock)
	if !g.pinkSumConsistent(1e-9) {
		t.Fatal("running sum diverged after reset")
	}
}

// TestNoise_Pink_RollsOffAgainstWhite compares high-band to low-band
// energy: pink noise must carry relatively less treble than white.
func TestNoise_Pink_RollsOffAgainstWhite(t *testing.T) {
	g := newTestNoise(t, 11)

	res := render(t, g, []string{"white", "pink"}, 8*int(testRate), testBlock, nil)

	ratio := func(sig []float64) float64 {
		// First difference boosts highs; its RMS relative to the signal
		// RMS is a crude spectral tilt measure.
		diff := make([]float64, len(sig)-1)
		for i := 1; i < len(sig); i++ {
			diff[i-1] = sig[i] - sig[i-1]
		}
		return rmsOf(diff) / rmsOf(sig)
	}

	white := ratio(res["white"])
	pink := ratio(res["pink"])

	if pink >= white*0.8 {
		t.Errorf("pink tilt %v not clearly below white tilt %v", pink, white)
	}
}

// TestNoise_Digital_HoldsBetweenUpdates verifies the digital output is
// piecewise constant with the configured hold period.
func TestNoise_Digital_HoldsBetweenUpdates(t *testing.T) {
	g := newTestNoise(t, 5)
	g.SetParameter("rate", 1000) // 48 samples per hold at 48 kHz

	sig := render(t, g, []string{"digital"}, int(testRate), testBlock, nil)["digital"]

	changes := 0
	for i := 1; i < len(sig); i++ {
		if sig[i] != sig[i-1] {
			changes++
		}
	}

	// Roughly one change per hold period.
	want := int(testRate) / 48
	if changes < want-10 || changes > want+10 {
		t.Errorf("digital output changed %d times, want ~%d", changes, want)
	}
}

// TestNoise_Brown_HasLowFrequencyBias verifies brown noise is smoother
// than its white source.
func TestNoise_Brown_HasLowFrequencyBias(t *testing.T) {
	g := newTestNoise(t, 9)

	res := render(t, g, []string{"white", "brown"}, 4*int(testRate), testBlock, nil)

	stepRMS := func(sig []float64) float64 {
		diff := make([]float64, len(sig)-1)
		for i := 1; i < len(sig); i++ {
			diff[i-1] = sig[i] - sig[i-1]
		}
		return rmsOf(diff) / rmsOf(sig)
	}

	if b, w := stepRMS(res["brown"]), stepRMS(res["white"]); b >= w*0.25 {
		t.Errorf("brown step ratio %v not well below white %v", b, w)
	}
}
