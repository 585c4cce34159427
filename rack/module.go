package rack

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
)

// Module is one signal-processing unit in a patch. Ports and parameters
// are fixed at construction time; Process is invoked once per block by the
// engine and must be allocation-free and lock-free.
type Module interface {
	Name() string
	Inputs() []*Port
	Outputs() []*Port
	Input(name string) *Port
	Output(name string) *Port
	SetParameter(name string, value float64)
	GetParameter(name string) float64
	Process(sampleCount int)
	Reset()
}

// param is one fixed parameter slot. The value lives in an atomic
// float-bits cell so a control thread may write while the audio thread
// reads mid-block without tearing.
type param struct {
	name          string
	def, min, max float64
	bits          atomic.Uint64
}

// Base carries the port and parameter bookkeeping shared by every module.
// Concrete modules embed it, register ports and parameters in their
// constructor, and implement Process.
type Base struct {
	name    string
	cfg     core.ProcessorConfig
	inputs  []*Port
	outputs []*Port
	params  []*param
	byName  map[string]int
}

// NewBase returns an initialized Base for the given module name.
func NewBase(name string, opts ...core.ProcessorOption) Base {
	return Base{
		name:   name,
		cfg:    core.ApplyProcessorOptions(opts...),
		byName: make(map[string]int),
	}
}

// Name returns the module name.
func (b *Base) Name() string { return b.name }

// Config returns the processor configuration the module was built with.
func (b *Base) Config() core.ProcessorConfig { return b.cfg }

// SampleRate returns the configured sample rate in Hz.
func (b *Base) SampleRate() float64 { return b.cfg.SampleRate }

// BlockSize returns the configured block size in samples.
func (b *Base) BlockSize() int { return b.cfg.BlockSize }

// AddInput registers an input port. Construction-time only.
func (b *Base) AddInput(name string, typ SignalType) *Port {
	p := newPort(name, typ, In, b.cfg.BlockSize)
	b.inputs = append(b.inputs, p)
	return p
}

// AddOutput registers an output port. Construction-time only.
func (b *Base) AddOutput(name string, typ SignalType) *Port {
	p := newPort(name, typ, Out, b.cfg.BlockSize)
	b.outputs = append(b.outputs, p)
	return p
}

// Inputs returns the module's input ports in registration order.
func (b *Base) Inputs() []*Port { return b.inputs }

// Outputs returns the module's output ports in registration order.
func (b *Base) Outputs() []*Port { return b.outputs }

// Input returns the named input port, or nil.
func (b *Base) Input(name string) *Port {
	for _, p := range b.inputs {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Output returns the named output port, or nil.
func (b *Base) Output(name string) *Port {
	for _, p := range b.outputs {
		if p.name == name {
			return p
		}
	}
	return nil
}

// RegisterParameter adds a parameter slot and returns its index. The
// default is clamped into [min, max]. Construction-time only; Process
// implementations read the slot by index via Param.
func (b *Base) RegisterParameter(name string, def, min, max float64) int {
	def = core.Clamp(def, min, max)

	p := &param{name: name, def: def, min: min, max: max}
	p.bits.Store(math.Float64bits(def))

	idx := len(b.params)
	b.params = append(b.params, p)
	b.byName[name] = idx

	return idx
}

// SetParameter clamps value into the parameter's range and stores it
// atomically. Writes to unknown names are dropped. Never returns an error;
// safe to call from a control thread while Process runs.
func (b *Base) SetParameter(name string, value float64) {
	idx, ok := b.byName[name]
	if !ok {
		return
	}

	p := b.params[idx]
	if math.IsNaN(value) {
		value = p.def
	}

	p.bits.Store(math.Float64bits(core.Clamp(value, p.min, p.max)))
}

// GetParameter returns the current value, or 0 for unknown names.
func (b *Base) GetParameter(name string) float64 {
	idx, ok := b.byName[name]
	if !ok {
		return 0
	}
	return math.Float64frombits(b.params[idx].bits.Load())
}

// Param reads the parameter at the given registration index. This is the
// hot-path accessor: no map lookup, one atomic load.
func (b *Base) Param(idx int) float64 {
	return math.Float64frombits(b.params[idx].bits.Load())
}

// Reset clears every port buffer. Modules with internal state override
// Reset and call this first.
func (b *Base) Reset() {
	for _, p := range b.inputs {
		p.Clear()
	}
	for _, p := range b.outputs {
		p.Clear()
	}
}
