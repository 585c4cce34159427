package modules

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// SampleHold captures the in value on rising edges of the trig input and
// holds it until the next edge. In track mode the output follows the input
// while the trigger is high and freezes when it falls. Captured values can
// be dithered with white noise and snapped to a semitone grid (twelfths of
// a unit, matching octave-per-unit pitch CV).
type SampleHold struct {
	rack.Base

	in   *rack.Port
	trig *rack.Port

	out *rack.Port

	pTrack    int
	pNoise    int
	pQuantize int

	held float64
	rng  *rand.Rand

	trigEdge edgeDetector
}

// NewSampleHold creates a sample-and-hold. The seed drives the capture
// noise.
func NewSampleHold(name string, seed int64, opts ...core.ProcessorOption) *SampleHold {
	s := &SampleHold{
		Base: rack.NewBase(name, opts...),
		rng:  rand.New(rand.NewSource(seed)),
	}

	s.in = s.AddInput("in", rack.Control)
	s.trig = s.AddInput("trig", rack.Trigger)

	s.out = s.AddOutput("out", rack.Control)

	s.pTrack = s.RegisterParameter("track", 0, 0, 1)
	s.pNoise = s.RegisterParameter("noise", 0, 0, 1)
	s.pQuantize = s.RegisterParameter("quantize", 0, 0, 1)

	return s
}

// Process renders one block.
func (s *SampleHold) Process(n int) {
	track := s.Param(s.pTrack) >= 0.5
	noise := s.Param(s.pNoise)
	quantize := s.Param(s.pQuantize) >= 0.5

	for i := 0; i < n; i++ {
		high := s.trig.Value(i) >= gateThreshold

		if track {
			if high {
				s.held = s.capture(s.in.Value(i), noise, quantize)
			}
		} else if s.trigEdge.rising(s.trig.Value(i)) {
			s.held = s.capture(s.in.Value(i), noise, quantize)
		}

		s.out.SetValue(i, s.held)
	}
}

func (s *SampleHold) capture(v, noise float64, quantize bool) float64 {
	if noise > 0 {
		v += noise * (s.rng.Float64()*2 - 1)
	}
	if quantize {
		v = math.Round(v*12) / 12
	}
	return v
}

// Reset clears the held value and all port buffers.
func (s *SampleHold) Reset() {
	s.Base.Reset()
	s.held = 0
	s.trigEdge.reset()
}
