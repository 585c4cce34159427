package modules

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// SVF is a Chamberlin state-variable filter producing simultaneous
// lowpass, highpass, bandpass, and notch outputs. Cutoff is modulated in
// octaves by the CV input; optional drive applies tanh saturation before
// the integrators. Every output passes through a cubic soft clip so the
// filter stays bounded as resonance approaches self-oscillation.
type SVF struct {
	rack.Base

	in *rack.Port
	cv *rack.Port

	lp *rack.Port
	hp *rack.Port
	bp *rack.Port
	nt *rack.Port

	pCutoff    int
	pResonance int
	pCVDepth   int
	pDrive     int

	lpState float64
	bpState float64
}

// NewSVF creates a state-variable filter.
func NewSVF(name string, opts ...core.ProcessorOption) *SVF {
	f := &SVF{Base: rack.NewBase(name, opts...)}

	f.in = f.AddInput("in", rack.Audio)
	f.cv = f.AddInput("cutoff", rack.Control)

	f.lp = f.AddOutput("lowpass", rack.Audio)
	f.hp = f.AddOutput("highpass", rack.Audio)
	f.bp = f.AddOutput("bandpass", rack.Audio)
	f.nt = f.AddOutput("notch", rack.Audio)

	f.pCutoff = f.RegisterParameter("cutoff", 1000, 20, 20000)
	f.pResonance = f.RegisterParameter("resonance", 0, 0, 1)
	f.pCVDepth = f.RegisterParameter("cvDepth", 1, -10, 10)
	f.pDrive = f.RegisterParameter("drive", 0, 0, 10)

	return f
}

// Process filters one block.
func (f *SVF) Process(n int) {
	sr := f.SampleRate()
	cutoff := f.Param(f.pCutoff)
	depth := f.Param(f.pCVDepth)
	drive := f.Param(f.pDrive)

	q := math.Max(1-f.Param(f.pResonance), 0.01)

	for i := 0; i < n; i++ {
		cut := cutoff * pow2(f.cv.Value(i)*depth)

		fc := math.Min(2*math.Sin(math.Pi*cut/sr), 0.99)
		if fc < 0 {
			fc = 0
		}

		x := f.in.Value(i)
		if drive > 0 {
			x = math.Tanh(x * (1 + drive))
		}

		hp := x - f.lpState - q*f.bpState
		f.bpState += fc * hp
		f.lpState += fc * f.bpState
		notch := hp + f.lpState

		f.lp.SetValue(i, core.SoftClip(f.lpState))
		f.hp.SetValue(i, core.SoftClip(hp))
		f.bp.SetValue(i, core.SoftClip(f.bpState))
		f.nt.SetValue(i, core.SoftClip(notch))
	}

	f.lpState = core.FlushDenormals(f.lpState)
	f.bpState = core.FlushDenormals(f.bpState)
}

// Reset clears filter state and all port buffers.
func (f *SVF) Reset() {
	f.Base.Reset()
	f.lpState = 0
	f.bpState = 0
}
