package modules

import (
	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// Clock is the master timing source: a BPM phase accumulator with swing,
// cascaded /2 /4 /8 dividers, a ×2 multiplier firing on the half-phase
// wrap, and an external-sync mode that replaces the internal accumulator
// with rising-edge detection on the sync input. A rising edge on the reset
// input zeroes all phase and counter state and emits a pulse on resetOut.
type Clock struct {
	rack.Base

	sync  *rack.Port
	reset *rack.Port

	beat     *rack.Port
	div2     *rack.Port
	div4     *rack.Port
	div8     *rack.Port
	x2       *rack.Port
	resetOut *rack.Port

	pBPM      int
	pSwing    int
	pExternal int

	phase     float64
	halfDone  bool
	beatCount int

	syncEdge  edgeDetector
	resetEdge edgeDetector
}

// NewClock creates a clock module.
func NewClock(name string, opts ...core.ProcessorOption) *Clock {
	c := &Clock{Base: rack.NewBase(name, opts...)}

	c.sync = c.AddInput("sync", rack.Trigger)
	c.reset = c.AddInput("reset", rack.Trigger)

	c.beat = c.AddOutput("beat", rack.Trigger)
	c.div2 = c.AddOutput("div2", rack.Trigger)
	c.div4 = c.AddOutput("div4", rack.Trigger)
	c.div8 = c.AddOutput("div8", rack.Trigger)
	c.x2 = c.AddOutput("x2", rack.Trigger)
	c.resetOut = c.AddOutput("resetOut", rack.Trigger)

	c.pBPM = c.RegisterParameter("bpm", 120, 20, 300)
	c.pSwing = c.RegisterParameter("swing", 0, 0, 0.5)
	c.pExternal = c.RegisterParameter("externalSync", 0, 0, 1)

	return c
}

// Process renders one block of clock pulses.
func (c *Clock) Process(n int) {
	sr := c.SampleRate()
	bpm := c.Param(c.pBPM)
	swing := c.Param(c.pSwing)
	external := c.Param(c.pExternal) >= 0.5

	for i := 0; i < n; i++ {
		c.beat.SetValue(i, 0)
		c.div2.SetValue(i, 0)
		c.div4.SetValue(i, 0)
		c.div8.SetValue(i, 0)
		c.x2.SetValue(i, 0)
		c.resetOut.SetValue(i, 0)

		if c.resetEdge.rising(c.reset.Value(i)) {
			c.phase = 0
			c.halfDone = false
			c.beatCount = 0
			c.resetOut.SetValue(i, 1)
			continue
		}

		if external {
			// Internal phase is frozen; the sync input is the beat.
			if c.syncEdge.rising(c.sync.Value(i)) {
				c.tick(i)
				c.x2.SetValue(i, 1)
			}
			continue
		}

		// Swing stretches every other beat and shrinks the rest.
		scale := 1 - swing
		if c.beatCount%2 == 1 {
			scale = 1 + swing
		}

		c.phase += bpm / 60 / sr / scale

		if c.phase >= 0.5 && !c.halfDone {
			c.halfDone = true
			c.x2.SetValue(i, 1)
		}

		if c.phase >= 1 {
			c.phase -= 1
			c.halfDone = false
			c.tick(i)
			c.x2.SetValue(i, 1)
		}
	}
}

// tick emits a beat pulse at sample i and advances the divider cascade.
func (c *Clock) tick(i int) {
	c.beat.SetValue(i, 1)
	c.beatCount++

	if c.beatCount%2 == 0 {
		c.div2.SetValue(i, 1)
	}
	if c.beatCount%4 == 0 {
		c.div4.SetValue(i, 1)
	}
	if c.beatCount%8 == 0 {
		c.div8.SetValue(i, 1)
	}
}

// Reset zeroes all phase and counter state and clears port buffers.
func (c *Clock) Reset() {
	c.Base.Reset()
	c.phase = 0
	c.halfDone = false
	c.beatCount = 0
	c.syncEdge.reset()
	c.resetEdge.reset()
}
