package modules

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// Slew is a slew limiter (portamento) with independent rise and fall
// times. The default shape is a one-pole lag that settles within the
// configured time; linear mode moves at a constant rate of one unit per
// configured time instead. A time of zero passes the input through.
type Slew struct {
	rack.Base

	in  *rack.Port
	out *rack.Port

	pRise   int
	pFall   int
	pLinear int

	state float64
}

// NewSlew creates a slew limiter.
func NewSlew(name string, opts ...core.ProcessorOption) *Slew {
	s := &Slew{Base: rack.NewBase(name, opts...)}

	s.in = s.AddInput("in", rack.Control)
	s.out = s.AddOutput("out", rack.Control)

	s.pRise = s.RegisterParameter("rise", 0.1, 0, 10)
	s.pFall = s.RegisterParameter("fall", 0.1, 0, 10)
	s.pLinear = s.RegisterParameter("linear", 0, 0, 1)

	return s
}

// Value returns the current slewed level.
func (s *Slew) Value() float64 { return s.state }

// Process renders one block.
func (s *Slew) Process(n int) {
	sr := s.SampleRate()

	rise := s.Param(s.pRise)
	fall := s.Param(s.pFall)
	linear := s.Param(s.pLinear) >= 0.5

	riseCoef := slewCoef(rise, sr)
	fallCoef := slewCoef(fall, sr)

	riseRate := slewRate(rise, sr)
	fallRate := slewRate(fall, sr)

	for i := 0; i < n; i++ {
		target := s.in.Value(i)
		delta := target - s.state

		switch {
		case delta > 0:
			if linear {
				s.state += math.Min(delta, riseRate)
			} else {
				s.state += riseCoef * delta
			}
		case delta < 0:
			if linear {
				s.state += math.Max(delta, -fallRate)
			} else {
				s.state += fallCoef * delta
			}
		}

		s.out.SetValue(i, s.state)
	}

	s.state = core.FlushDenormals(s.state)
}

// slewCoef converts a lag time to a one-pole coefficient. Zero means
// instantaneous.
func slewCoef(time, sampleRate float64) float64 {
	if time <= 0 {
		return 1
	}
	return 1 - math.Exp(-5/(time*sampleRate))
}

// slewRate converts a time to a per-sample linear rate of one unit per
// `time` seconds.
func slewRate(time, sampleRate float64) float64 {
	if time <= 0 {
		return math.Inf(1)
	}
	return 1 / (time * sampleRate)
}

// Reset clears the slew state and all port buffers.
func (s *Slew) Reset() {
	s.Base.Reset()
	s.state = 0
}
