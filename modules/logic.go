package modules

import (
	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// Logic combines two gate inputs through boolean operators and derives
// edge and flip-flop signals from the first input. All comparisons use the
// shared 0.5 gate threshold. The flip-flop toggles on rising edges of a
// and clears on a rising edge of the reset input.
type Logic struct {
	rack.Base

	a     *rack.Port
	b     *rack.Port
	reset *rack.Port

	and  *rack.Port
	or   *rack.Port
	xor  *rack.Port
	not  *rack.Port
	ff   *rack.Port
	rise *rack.Port
	fall *rack.Port

	ffState bool

	aEdge     edgeDetector
	resetEdge edgeDetector
}

// NewLogic creates a gate logic module.
func NewLogic(name string, opts ...core.ProcessorOption) *Logic {
	l := &Logic{Base: rack.NewBase(name, opts...)}

	l.a = l.AddInput("a", rack.Gate)
	l.b = l.AddInput("b", rack.Gate)
	l.reset = l.AddInput("reset", rack.Trigger)

	l.and = l.AddOutput("and", rack.Gate)
	l.or = l.AddOutput("or", rack.Gate)
	l.xor = l.AddOutput("xor", rack.Gate)
	l.not = l.AddOutput("not", rack.Gate)
	l.ff = l.AddOutput("flipflop", rack.Gate)
	l.rise = l.AddOutput("rise", rack.Trigger)
	l.fall = l.AddOutput("fall", rack.Trigger)

	return l
}

// Process renders one block of derived gates.
func (l *Logic) Process(n int) {
	for i := 0; i < n; i++ {
		av := l.a.Value(i) >= gateThreshold
		bv := l.b.Value(i) >= gateThreshold

		rising, falling := l.aEdge.step(l.a.Value(i))

		if l.resetEdge.rising(l.reset.Value(i)) {
			l.ffState = false
		} else if rising {
			l.ffState = !l.ffState
		}

		l.and.SetValue(i, gateValue(av && bv))
		l.or.SetValue(i, gateValue(av || bv))
		l.xor.SetValue(i, gateValue(av != bv))
		l.not.SetValue(i, gateValue(!av))
		l.ff.SetValue(i, gateValue(l.ffState))
		l.rise.SetValue(i, gateValue(rising))
		l.fall.SetValue(i, gateValue(falling))
	}
}

// Reset clears the flip-flop, edge state, and all port buffers.
func (l *Logic) Reset() {
	l.Base.Reset()
	l.ffState = false
	l.aEdge.reset()
	l.resetEdge.reset()
}

func gateValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
