package modules

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

const sequencerSteps = 16

// Playback orders of the sequencer.
const (
	SeqForward = iota
	SeqBackward
	SeqPingPong
	SeqRandom
)

type seqStep struct {
	cv      float64
	gateLen float64
	enabled bool
}

// Sequencer is a 16-step CV and gate sequencer. Steps advance on rising
// edges of the clock input; disabled steps are skipped. The gate output
// stays high for the step's gate-length fraction of the measured clock
// period, and the eoc output pulses when the pattern wraps.
type Sequencer struct {
	rack.Base

	clock *rack.Port
	reset *rack.Port

	cv   *rack.Port
	gate *rack.Port
	eoc  *rack.Port

	pLength int
	pMode   int

	steps [sequencerSteps]seqStep

	pos     int
	dir     int
	started bool

	// period is the distance in samples between the last two clock edges,
	// used to convert gate-length fractions into sample counts.
	period  float64
	edgeAge int

	gateRemaining int
	currentCV     float64

	rng *rand.Rand

	clockEdge edgeDetector
	resetEdge edgeDetector
}

// NewSequencer creates a step sequencer. The seed drives the random
// playback mode so sequences are reproducible.
func NewSequencer(name string, seed int64, opts ...core.ProcessorOption) *Sequencer {
	s := &Sequencer{
		Base: rack.NewBase(name, opts...),
		dir:  1,
		rng:  rand.New(rand.NewSource(seed)),
	}

	s.clock = s.AddInput("clock", rack.Trigger)
	s.reset = s.AddInput("reset", rack.Trigger)

	s.cv = s.AddOutput("cv", rack.Control)
	s.gate = s.AddOutput("gate", rack.Gate)
	s.eoc = s.AddOutput("eoc", rack.Trigger)

	s.pLength = s.RegisterParameter("length", 8, 1, sequencerSteps)
	s.pMode = s.RegisterParameter("mode", SeqForward, SeqForward, SeqRandom)

	// Until two clock edges have been seen, assume eighth notes at 120 BPM.
	s.period = s.SampleRate() * 0.25

	for i := range s.steps {
		s.steps[i] = seqStep{cv: 0, gateLen: 0.5, enabled: true}
	}

	return s
}

// SetStep programs step i with a CV value, a gate-length fraction of the
// clock period in [0, 1], and an enabled flag. Not safe to call while the
// engine is processing.
func (s *Sequencer) SetStep(i int, cv, gateLen float64, enabled bool) error {
	if i < 0 || i >= sequencerSteps {
		return fmt.Errorf("modules: sequencer step %d out of range [0, %d)", i, sequencerSteps)
	}

	s.steps[i] = seqStep{
		cv:      cv,
		gateLen: core.Clamp(gateLen, 0, 1),
		enabled: enabled,
	}

	return nil
}

// Pos returns the current step index.
func (s *Sequencer) Pos() int { return s.pos }

// Process renders one block of CV, gate, and end-of-cycle pulses.
func (s *Sequencer) Process(n int) {
	length := int(s.Param(s.pLength))
	mode := int(s.Param(s.pMode))

	for i := 0; i < n; i++ {
		s.eoc.SetValue(i, 0)
		s.edgeAge++

		if s.resetEdge.rising(s.reset.Value(i)) {
			s.started = false
			s.dir = 1
			s.gateRemaining = 0
		}

		if s.clockEdge.rising(s.clock.Value(i)) {
			if s.started && s.edgeAge > 0 {
				s.period = float64(s.edgeAge)
			}
			s.edgeAge = 0

			if s.advance(length, mode) {
				s.eoc.SetValue(i, 1)
			}
		}

		s.cv.SetValue(i, s.currentCV)

		if s.gateRemaining > 0 {
			s.gateRemaining--
			s.gate.SetValue(i, 1)
		} else {
			s.gate.SetValue(i, 0)
		}
	}
}

// advance moves to the next enabled step and latches its CV and gate.
// It reports whether the pattern wrapped around.
func (s *Sequencer) advance(length, mode int) bool {
	wrapped := false

	if !s.started {
		s.started = true
		s.pos = 0
		s.dir = 1
		if !s.steps[0].enabled {
			if next, ok := s.nextEnabled(length, mode); ok {
				s.pos = next
			} else {
				return false
			}
		}
	} else {
		next, ok := s.nextEnabled(length, mode)
		if !ok {
			return false
		}

		switch mode {
		case SeqBackward:
			wrapped = next > s.pos
		case SeqPingPong, SeqRandom:
			// Ping-pong wraps when it bounces off the bottom; random has
			// no cycle and never wraps.
			wrapped = mode == SeqPingPong && next > s.pos && s.pos == 0
		default:
			wrapped = next < s.pos
		}

		s.pos = next
	}

	step := s.steps[s.pos]
	s.currentCV = step.cv

	s.gateRemaining = int(step.gateLen * s.period)
	if step.gateLen > 0 && s.gateRemaining < 1 {
		s.gateRemaining = 1
	}

	return wrapped
}

// nextEnabled finds the next enabled step in playback order, trying at
// most one full pattern length before giving up.
func (s *Sequencer) nextEnabled(length, mode int) (int, bool) {
	pos := s.pos
	dir := s.dir

	for try := 0; try < sequencerSteps; try++ {
		switch mode {
		case SeqForward:
			pos = (pos + 1) % length
		case SeqBackward:
			pos--
			if pos < 0 {
				pos = length - 1
			}
		case SeqPingPong:
			if length == 1 {
				pos = 0
				break
			}
			pos += dir
			if pos >= length {
				pos = length - 2
				dir = -1
			} else if pos < 0 {
				pos = 1
				dir = 1
			}
		case SeqRandom:
			pos = s.rng.Intn(length)
		}

		if pos < length && s.steps[pos].enabled {
			s.dir = dir
			return pos, true
		}
	}

	return s.pos, false
}

// Reset rewinds the sequencer and clears all port buffers.
func (s *Sequencer) Reset() {
	s.Base.Reset()
	s.pos = 0
	s.dir = 1
	s.started = false
	s.period = s.SampleRate() * 0.25
	s.edgeAge = 0
	s.gateRemaining = 0
	s.currentCV = 0
	s.clockEdge.reset()
	s.resetEdge.reset()
}
