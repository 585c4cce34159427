package modules

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// Scale selectors of the quantizer.
const (
	ScaleChromatic = iota
	ScaleMajor
	ScaleMinor
	ScaleMajorPentatonic
	ScaleMinorPentatonic
	ScaleWholeTone
)

// scaleTables holds scale degrees as semitone offsets from the root.
var scaleTables = [][]float64{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	{0, 2, 4, 5, 7, 9, 11},
	{0, 2, 3, 5, 7, 8, 10},
	{0, 2, 4, 7, 9},
	{0, 3, 5, 7, 10},
	{0, 2, 4, 6, 8, 10},
}

// Quantizer snaps a pitch CV, measured in semitones, to the nearest degree
// of the selected scale transposed by the root parameter. Glide smooths
// transitions between quantized values with a one-pole lag.
type Quantizer struct {
	rack.Base

	in  *rack.Port
	out *rack.Port

	pScale int
	pRoot  int
	pGlide int

	state float64
}

// NewQuantizer creates a pitch quantizer.
func NewQuantizer(name string, opts ...core.ProcessorOption) *Quantizer {
	q := &Quantizer{Base: rack.NewBase(name, opts...)}

	q.in = q.AddInput("in", rack.Control)
	q.out = q.AddOutput("out", rack.Control)

	q.pScale = q.RegisterParameter("scale", ScaleChromatic, ScaleChromatic, ScaleWholeTone)
	q.pRoot = q.RegisterParameter("root", 0, 0, 11)
	q.pGlide = q.RegisterParameter("glide", 0, 0, 1)

	return q
}

// Quantize snaps a semitone value to the scale and root currently set.
func (q *Quantizer) Quantize(v float64) float64 {
	scale := scaleTables[int(q.Param(q.pScale))]
	root := q.Param(q.pRoot)

	rel := v - root
	baseOct := math.Floor(rel / 12)

	best := rel
	bestDist := math.Inf(1)

	// The nearest degree can sit in the octave below or above the one the
	// input falls in, so all three are searched.
	for oct := baseOct - 1; oct <= baseOct+1; oct++ {
		for _, deg := range scale {
			cand := oct*12 + deg
			if d := math.Abs(cand - rel); d < bestDist {
				bestDist = d
				best = cand
			}
		}
	}

	return root + best
}

// Process renders one block of quantized CV.
func (q *Quantizer) Process(n int) {
	glide := q.Param(q.pGlide)
	coef := slewCoef(glide, q.SampleRate())

	for i := 0; i < n; i++ {
		target := q.Quantize(q.in.Value(i))
		q.state += coef * (target - q.state)
		q.out.SetValue(i, q.state)
	}

	q.state = core.FlushDenormals(q.state)
}

// Reset clears the glide state and all port buffers.
func (q *Quantizer) Reset() {
	q.Base.Reset()
	q.state = 0
}
