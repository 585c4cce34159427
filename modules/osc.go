package modules

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

const (
	oscMinFreq = 20.0
	// triLeak keeps the square-wave integrator from accumulating DC.
	triLeak = 0.999
)

// Oscillator is a VCO with four simultaneous outputs: band-limited sine,
// PolyBLEP-corrected sawtooth and pulse, and a triangle obtained by leaky
// integration of the naive square (integration is its own band-limiting).
//
// Pitch per sample: frequency * 2^(detune/1200) * 2^(v/oct CV) scaled by
// linear FM, clamped to [20 Hz, Nyquist]. A rising edge on the sync input
// hard-resets the phase.
type Oscillator struct {
	rack.Base

	voct *rack.Port
	fm   *rack.Port
	sync *rack.Port
	pwm  *rack.Port

	sine *rack.Port
	saw  *rack.Port
	puls *rack.Port
	tri  *rack.Port

	pFreq    int
	pDetune  int
	pFMDepth int
	pWidth   int

	phase    float64
	triState float64
	syncEdge edgeDetector
}

// NewOscillator creates a VCO.
func NewOscillator(name string, opts ...core.ProcessorOption) *Oscillator {
	o := &Oscillator{Base: rack.NewBase(name, opts...)}

	o.voct = o.AddInput("voct", rack.Control)
	o.fm = o.AddInput("fm", rack.Audio)
	o.sync = o.AddInput("sync", rack.Audio)
	o.pwm = o.AddInput("pwm", rack.Control)

	o.sine = o.AddOutput("sine", rack.Audio)
	o.saw = o.AddOutput("saw", rack.Audio)
	o.puls = o.AddOutput("pulse", rack.Audio)
	o.tri = o.AddOutput("triangle", rack.Audio)

	o.pFreq = o.RegisterParameter("frequency", 440, oscMinFreq, 20000)
	o.pDetune = o.RegisterParameter("detune", 0, -1200, 1200)
	o.pFMDepth = o.RegisterParameter("fmDepth", 0, 0, 1)
	o.pWidth = o.RegisterParameter("pulseWidth", 0.5, 0.05, 0.95)

	return o
}

// Phase returns the current accumulator position in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

// Process renders one block of all four waveforms.
func (o *Oscillator) Process(n int) {
	sr := o.SampleRate()
	nyquist := sr * 0.5

	base := o.Param(o.pFreq) * pow2(o.Param(o.pDetune)/1200)
	fmDepth := o.Param(o.pFMDepth)
	baseWidth := o.Param(o.pWidth)

	for i := 0; i < n; i++ {
		freq := base * pow2(o.voct.Value(i)) * (1 + o.fm.Value(i)*fmDepth)
		freq = core.Clamp(freq, oscMinFreq, nyquist)

		inc := freq / sr

		if o.syncEdge.rising(o.sync.Value(i)) {
			o.phase = 0
		}

		width := core.Clamp(baseWidth+o.pwm.Value(i), 0.05, 0.95)

		o.sine.SetValue(i, math.Sin(2*math.Pi*o.phase))

		o.saw.SetValue(i, 2*o.phase-1-polyBLEP(o.phase, inc))

		pv := -1.0
		if o.phase < width {
			pv = 1.0
		}
		pv += polyBLEP(o.phase, inc)
		pv -= polyBLEP(wrapPhase(o.phase+1-width), inc)
		o.puls.SetValue(i, pv)

		sq := -1.0
		if o.phase < 0.5 {
			sq = 1.0
		}
		o.triState = triLeak*o.triState + 4*inc*sq
		o.tri.SetValue(i, o.triState)

		o.phase += inc
		if o.phase >= 1 {
			o.phase -= 1
		}
	}
}

// Reset clears phase, integrator state, and all port buffers.
func (o *Oscillator) Reset() {
	o.Base.Reset()
	o.phase = 0
	o.triState = 0
	o.syncEdge.reset()
}

// polyBLEP returns the band-limited step residual for a discontinuity at
// phase 0 (equivalently 1). t is the phase in [0, 1), dt the per-sample
// phase increment.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}

	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}

	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}

	return 0
}

func wrapPhase(p float64) float64 {
	if p >= 1 {
		return p - 1
	}
	return p
}
