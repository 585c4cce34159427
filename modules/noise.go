package modules

import (
	"math/bits"
	"math/rand"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

const pinkRows = 16

// Noise generates four simultaneous noise colors from one seeded source:
// white (uniform), pink (Voss-McCartney running sum over 16 rows), brown
// (leaky-integrated white), and digital (sample-and-hold white at a
// settable rate).
type Noise struct {
	rack.Base

	white   *rack.Port
	pink    *rack.Port
	brown   *rack.Port
	digital *rack.Port

	pRate int

	rng *rand.Rand

	rows    [pinkRows]float64
	rowSum  float64
	counter uint32

	brownState float64

	holdValue float64
	holdAge   float64
}

// NewNoise creates a noise source. The same seed always yields the same
// sample stream.
func NewNoise(name string, seed int64, opts ...core.ProcessorOption) *Noise {
	g := &Noise{
		Base: rack.NewBase(name, opts...),
		rng:  rand.New(rand.NewSource(seed)),
	}

	g.white = g.AddOutput("white", rack.Audio)
	g.pink = g.AddOutput("pink", rack.Audio)
	g.brown = g.AddOutput("brown", rack.Audio)
	g.digital = g.AddOutput("digital", rack.Audio)

	g.pRate = g.RegisterParameter("rate", 1000, 1, 20000)

	return g
}

// Process renders one block of all four colors.
func (g *Noise) Process(n int) {
	holdPeriod := g.SampleRate() / g.Param(g.pRate)

	for i := 0; i < n; i++ {
		w := g.rng.Float64()*2 - 1
		g.white.SetValue(i, w)

		// One row changes per sample, picked by the trailing zeros of the
		// counter so row k updates every 2^k samples.
		g.counter++
		row := bits.TrailingZeros32(g.counter) % pinkRows
		g.rowSum -= g.rows[row]
		g.rows[row] = g.rng.Float64()*2 - 1
		g.rowSum += g.rows[row]
		g.pink.SetValue(i, (g.rowSum+w)/float64(pinkRows+1))

		g.brownState = core.Clamp(g.brownState*0.99+w*0.02, -1, 1)
		g.brown.SetValue(i, g.brownState)

		g.holdAge++
		if g.holdAge >= holdPeriod {
			g.holdAge -= holdPeriod
			g.holdValue = g.rng.Float64()*2 - 1
		}
		g.digital.SetValue(i, g.holdValue)
	}
}

// Reset clears generator state and all port buffers. The random stream is
// not rewound.
func (g *Noise) Reset() {
	g.Base.Reset()
	g.rows = [pinkRows]float64{}
	g.rowSum = 0
	g.counter = 0
	g.brownState = 0
	g.holdValue = 0
	g.holdAge = 0
}

// pinkSumConsistent reports whether the cached running sum matches the
// rows. Used by tests.
func (g *Noise) pinkSumConsistent(tolerance float64) bool {
	sum := 0.0
	for _, r := range g.rows {
		sum += r
	}
	return core.NearlyEqual(sum, g.rowSum, tolerance)
}
