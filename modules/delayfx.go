package modules

import (
	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/delay"
	"github.com/cwbudde/algo-synth/rack"
)

const (
	maxDelaySeconds = 2.0
	minDelaySeconds = 0.0005
)

// Delay is a feedback delay line with a one-pole lowpass in the feedback
// path and two auxiliary taps at fixed fractions of the delay time. The
// time CV input modulates the delay time linearly around the parameter
// value. The tap is not interpolated, so slow time modulation steps in
// whole samples rather than pitch-shifting smoothly.
type Delay struct {
	rack.Base

	in     *rack.Port
	timeCV *rack.Port

	out  *rack.Port
	tapA *rack.Port
	tapB *rack.Port

	pTime     int
	pFeedback int
	pDamp     int
	pMix      int

	line    *delay.Line
	lpState float64
}

// NewDelay creates a delay effect with a two second maximum delay.
func NewDelay(name string, opts ...core.ProcessorOption) *Delay {
	d := &Delay{Base: rack.NewBase(name, opts...)}

	d.in = d.AddInput("in", rack.Audio)
	d.timeCV = d.AddInput("time", rack.Control)

	d.out = d.AddOutput("out", rack.Audio)
	d.tapA = d.AddOutput("tapA", rack.Audio)
	d.tapB = d.AddOutput("tapB", rack.Audio)

	d.pTime = d.RegisterParameter("time", 0.25, minDelaySeconds, maxDelaySeconds)
	d.pFeedback = d.RegisterParameter("feedback", 0.3, 0, 0.99)
	d.pDamp = d.RegisterParameter("damp", 0.2, 0, 0.95)
	d.pMix = d.RegisterParameter("mix", 0.5, 0, 1)

	size := int(maxDelaySeconds*d.SampleRate()) + 1
	d.line, _ = delay.New(size)

	return d
}

// Process renders one block of the delayed signal.
func (d *Delay) Process(n int) {
	sr := d.SampleRate()

	baseTime := d.Param(d.pTime)
	feedback := d.Param(d.pFeedback)
	mix := d.Param(d.pMix)
	lpCoef := core.Clamp(1-d.Param(d.pDamp), 0.05, 1)

	for i := 0; i < n; i++ {
		t := core.Clamp(baseTime*(1+d.timeCV.Value(i)), minDelaySeconds, maxDelaySeconds)
		samples := t * sr

		wet := d.line.ReadNearest(samples)

		d.lpState += lpCoef * (wet - d.lpState)
		d.line.Write(d.in.Value(i) + d.lpState*feedback)

		dry := d.in.Value(i)
		d.out.SetValue(i, (1-mix)*dry+mix*wet)
		d.tapA.SetValue(i, d.line.ReadNearest(samples*0.5))
		d.tapB.SetValue(i, d.line.ReadNearest(samples*0.75))
	}

	d.lpState = core.FlushDenormals(d.lpState)
}

// Reset clears the delay buffer, the feedback filter, and all port
// buffers.
func (d *Delay) Reset() {
	d.Base.Reset()
	d.line.Reset()
	d.lpState = 0
}
