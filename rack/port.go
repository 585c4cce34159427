package rack

import "github.com/cwbudde/algo-synth/dsp/core"

// SignalType classifies what a port carries. All four types use full-rate
// per-sample buffers; the distinction exists for patching validation, not
// storage.
type SignalType int

const (
	// Audio is a full-bandwidth signal, nominally within [-1, 1].
	Audio SignalType = iota
	// Control is a slowly varying modulation signal (CV).
	Control
	// Gate is a binary sustain signal, high while held.
	Gate
	// Trigger is a short pulse marking an instantaneous event.
	Trigger
)

func (t SignalType) String() string {
	switch t {
	case Audio:
		return "audio"
	case Control:
		return "control"
	case Gate:
		return "gate"
	case Trigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// compatibleSignal reports whether an output of type src may feed an input
// of type dst. Identical types always match; Audio and Control interchange
// (both are plain full-rate floats), as do Gate and Trigger (both are
// threshold/edge signals). Continuous and event signals never mix.
func compatibleSignal(src, dst SignalType) bool {
	if src == dst {
		return true
	}

	continuous := func(t SignalType) bool { return t == Audio || t == Control }
	if continuous(src) && continuous(dst) {
		return true
	}

	return !continuous(src) && !continuous(dst)
}

// Direction tags a port as a module input or output.
type Direction int

const (
	// In marks a port read by its module.
	In Direction = iota
	// Out marks a port written by its module.
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Port is a typed signal endpoint owning one block-sized sample buffer.
// Ports are created by their module at construction time and live exactly
// as long as it. A connected input does not copy: it reads the upstream
// output's buffer for the current block through a binding the engine
// refreshes on every topology change.
type Port struct {
	name   string
	typ    SignalType
	dir    Direction
	buf    []float64
	scalar float64
	src    []float64 // bound upstream buffer; nil when unconnected
}

func newPort(name string, typ SignalType, dir Direction, blockSize int) *Port {
	return &Port{
		name: name,
		typ:  typ,
		dir:  dir,
		buf:  make([]float64, blockSize),
	}
}

// Name returns the port name, unique within its direction on the module.
func (p *Port) Name() string { return p.name }

// Type returns the signal type the port carries.
func (p *Port) Type() SignalType { return p.typ }

// Direction reports whether the port is an input or an output.
func (p *Port) Direction() Direction { return p.dir }

// Connected reports whether an input port has an upstream binding.
// Always false for outputs; fan-out is tracked by the engine, not here.
func (p *Port) Connected() bool { return p.src != nil }

// Len returns the port buffer length (the block size).
func (p *Port) Len() int { return len(p.buf) }

// Value returns the signal at sample i of the current block. A connected
// input reads the upstream output's buffer; anything else reads the port's
// own buffer. An unconnected, unwritten input reads 0.
func (p *Port) Value(i int) float64 {
	if p.src != nil {
		return p.src[i]
	}
	return p.buf[i]
}

// Scalar returns the per-block scalar view of the port: sample 0 of the
// effective buffer. Control-rate consumers use this instead of scanning
// the whole block.
func (p *Port) Scalar() float64 {
	if p.src != nil {
		return p.src[0]
	}
	return p.scalar
}

// SetValue writes sample i of the port's own buffer and refreshes the
// scalar cache when i is 0. External collaborators use this to push gate,
// trigger, and CV values into designated inputs before a block runs.
func (p *Port) SetValue(i int, v float64) {
	p.buf[i] = v
	if i == 0 {
		p.scalar = v
	}
}

// Block returns the effective sample buffer for the current block: the
// bound upstream buffer for a connected input, the port's own buffer
// otherwise. Input blocks are read-only; output blocks may be filled with
// block operations, followed by SyncScalar. Callers must not retain or
// resize the slice.
func (p *Port) Block() []float64 {
	if p.src != nil {
		return p.src
	}
	return p.buf
}

// SyncScalar refreshes the scalar cache from the port's own buffer, for
// modules that fill an output with block operations instead of SetValue.
func (p *Port) SyncScalar() {
	if len(p.buf) > 0 {
		p.scalar = p.buf[0]
	}
}

// Fill writes v into every sample of the port's own buffer.
func (p *Port) Fill(v float64) {
	core.Fill(p.buf, v)
	p.scalar = v
}

// Clear zeroes the buffer and the scalar cache.
func (p *Port) Clear() {
	core.Zero(p.buf)
	p.scalar = 0
}

func (p *Port) bind(src []float64) { p.src = src }

func (p *Port) unbind() { p.src = nil }
