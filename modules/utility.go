package modules

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// Attenuverter scales a signal by a gain that may be negative and adds a
// DC offset. With gain 1 and offset 0 it is a pass-through, handy as a
// buffered multiple.
type Attenuverter struct {
	rack.Base

	in  *rack.Port
	out *rack.Port

	pGain   int
	pOffset int
}

// NewAttenuverter creates an attenuverter.
func NewAttenuverter(name string, opts ...core.ProcessorOption) *Attenuverter {
	a := &Attenuverter{Base: rack.NewBase(name, opts...)}

	a.in = a.AddInput("in", rack.Control)
	a.out = a.AddOutput("out", rack.Control)

	a.pGain = a.RegisterParameter("gain", 1, -2, 2)
	a.pOffset = a.RegisterParameter("offset", 0, -10, 10)

	return a
}

// Process renders one block.
func (a *Attenuverter) Process(n int) {
	gain := a.Param(a.pGain)
	offset := a.Param(a.pOffset)

	dst := a.out.Block()[:n]
	vecmath.ScaleBlock(dst, a.in.Block()[:n], gain)

	if offset != 0 {
		for i := range dst {
			dst[i] += offset
		}
	}

	a.out.SyncScalar()
}

// Multiply outputs the per-sample product of its two inputs, usable as a
// ring modulator on audio or a VCA on control signals.
type Multiply struct {
	rack.Base

	a *rack.Port
	b *rack.Port

	out *rack.Port
}

// NewMultiply creates a multiplier.
func NewMultiply(name string, opts ...core.ProcessorOption) *Multiply {
	m := &Multiply{Base: rack.NewBase(name, opts...)}

	m.a = m.AddInput("a", rack.Audio)
	m.b = m.AddInput("b", rack.Audio)

	m.out = m.AddOutput("out", rack.Audio)

	return m
}

// Process renders one block.
func (m *Multiply) Process(n int) {
	vecmath.MulBlock(m.out.Block()[:n], m.a.Block()[:n], m.b.Block()[:n])
	m.out.SyncScalar()
}
