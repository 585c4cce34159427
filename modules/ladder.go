package modules

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// ladderStateLimit bounds each integrator stage against blow-up at extreme
// resonance and drive.
const ladderStateLimit = 32.0

// Ladder is a four-stage transistor-ladder lowpass with per-stage tanh
// saturation and resonance feedback from the last stage, the second filter
// family next to the SVF. Resonance above ~4 self-oscillates; the stage
// clip and output soft clip keep it bounded.
type Ladder struct {
	rack.Base

	in *rack.Port
	cv *rack.Port

	out *rack.Port

	pCutoff    int
	pResonance int
	pCVDepth   int
	pDrive     int

	stage    [4]float64
	tanhLast [3]float64
}

// NewLadder creates a ladder filter.
func NewLadder(name string, opts ...core.ProcessorOption) *Ladder {
	f := &Ladder{Base: rack.NewBase(name, opts...)}

	f.in = f.AddInput("in", rack.Audio)
	f.cv = f.AddInput("cutoff", rack.Control)

	f.out = f.AddOutput("out", rack.Audio)

	f.pCutoff = f.RegisterParameter("cutoff", 1000, 20, 20000)
	f.pResonance = f.RegisterParameter("resonance", 0, 0, 4)
	f.pCVDepth = f.RegisterParameter("cvDepth", 1, -10, 10)
	f.pDrive = f.RegisterParameter("drive", 1, 0.1, 10)

	return f
}

// Process filters one block.
func (f *Ladder) Process(n int) {
	sr := f.SampleRate()
	nyquist := sr * 0.5

	cutoff := f.Param(f.pCutoff)
	depth := f.Param(f.pCVDepth)
	drive := f.Param(f.pDrive)
	feedback := f.Param(f.pResonance)

	for i := 0; i < n; i++ {
		cut := core.Clamp(cutoff*pow2(f.cv.Value(i)*depth), 20, nyquist*0.95)
		g := 1 - math.Exp(-2*math.Pi*cut/sr)

		x := f.in.Value(i)*drive - feedback*f.stage[3]

		t0 := tanhApprox(x)
		f.stage[0] = clipLadderState(f.stage[0] + g*(t0-f.tanhLast[0]))
		f.tanhLast[0] = tanhApprox(f.stage[0])

		f.stage[1] = clipLadderState(f.stage[1] + g*(f.tanhLast[0]-f.tanhLast[1]))
		f.tanhLast[1] = tanhApprox(f.stage[1])

		f.stage[2] = clipLadderState(f.stage[2] + g*(f.tanhLast[1]-f.tanhLast[2]))
		f.tanhLast[2] = tanhApprox(f.stage[2])

		f.stage[3] = clipLadderState(f.stage[3] + g*(f.tanhLast[2]-tanhApprox(f.stage[3])))

		f.out.SetValue(i, core.SoftClip(f.stage[3]))
	}

	for i := range f.stage {
		f.stage[i] = core.FlushDenormals(f.stage[i])
	}
}

// Reset clears ladder state and all port buffers.
func (f *Ladder) Reset() {
	f.Base.Reset()
	f.stage = [4]float64{}
	f.tanhLast = [3]float64{}
}

func clipLadderState(v float64) float64 {
	if v > ladderStateLimit {
		return ladderStateLimit
	}
	if v < -ladderStateLimit {
		return -ladderStateLimit
	}
	return v
}
