package rack

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/core"
)

// portRef addresses one port by module index and port position. Connections
// are stored as index pairs into the engine-owned module arena, never as
// raw port pointers, so removing a module cannot leave a dangling edge.
type portRef struct {
	module int
	port   int
}

// connection is a directed edge from an output port to an input port.
type connection struct {
	src portRef
	dst portRef
}

// Engine owns the module set and connection set of one patch, keeps a
// cached topological evaluation order, and drives block processing.
//
// Topology methods (AddModule, RemoveModule, Connect, Disconnect) must not
// run concurrently with Process; call them between blocks. Parameter writes
// on individual modules are safe at any time.
type Engine struct {
	cfg     core.ProcessorConfig
	modules []Module
	index   map[Module]int
	conns   []connection
	order   []Module
}

// New creates an empty engine for the given processing configuration.
func New(opts ...core.ProcessorOption) *Engine {
	return &Engine{
		cfg:   core.ApplyProcessorOptions(opts...),
		index: make(map[Module]int),
	}
}

// Config returns the engine processing configuration.
func (e *Engine) Config() core.ProcessorConfig { return e.cfg }

// Modules returns the registered modules in insertion order.
func (e *Engine) Modules() []Module {
	out := make([]Module, len(e.modules))
	copy(out, e.modules)
	return out
}

// Order returns a copy of the cached evaluation order.
func (e *Engine) Order() []Module {
	out := make([]Module, len(e.order))
	copy(out, e.order)
	return out
}

// AddModule registers a module with the patch. The module's port buffers
// must match the engine block size.
func (e *Engine) AddModule(m Module) error {
	if m == nil {
		return fmt.Errorf("rack: add: %w: nil module", ErrUnknownModule)
	}

	if _, ok := e.index[m]; ok {
		return fmt.Errorf("rack: add %q: %w", m.Name(), ErrDuplicateModule)
	}

	for _, p := range m.Inputs() {
		if p.Len() != e.cfg.BlockSize {
			return fmt.Errorf("rack: add %q: input %q sized %d, engine block %d: %w",
				m.Name(), p.Name(), p.Len(), e.cfg.BlockSize, ErrBlockSizeMismatch)
		}
	}

	for _, p := range m.Outputs() {
		if p.Len() != e.cfg.BlockSize {
			return fmt.Errorf("rack: add %q: output %q sized %d, engine block %d: %w",
				m.Name(), p.Name(), p.Len(), e.cfg.BlockSize, ErrBlockSizeMismatch)
		}
	}

	e.index[m] = len(e.modules)
	e.modules = append(e.modules, m)
	e.recompute()

	return nil
}

// RemoveModule detaches every connection touching the module and removes
// it from the patch.
func (e *Engine) RemoveModule(m Module) error {
	idx, ok := e.index[m]
	if !ok {
		return fmt.Errorf("rack: remove: %w", ErrUnknownModule)
	}

	kept := e.conns[:0]
	for _, c := range e.conns {
		if c.src.module == idx || c.dst.module == idx {
			continue
		}

		if c.src.module > idx {
			c.src.module--
		}
		if c.dst.module > idx {
			c.dst.module--
		}

		kept = append(kept, c)
	}
	e.conns = kept

	e.modules = append(e.modules[:idx], e.modules[idx+1:]...)
	delete(e.index, m)
	for i, mod := range e.modules {
		e.index[mod] = i
	}

	e.recompute()

	return nil
}

// Connect wires the named output of src to the named input of dst,
// overwriting any existing connection on that input. It fails without
// mutating the patch if a port is unknown, the signal types are
// incompatible, or the edge would create a cycle spanning more than one
// module. Connecting a module to itself is legal and yields one block of
// feedback latency.
func (e *Engine) Connect(src Module, output string, dst Module, input string) error {
	srcIdx, ok := e.index[src]
	if !ok {
		return fmt.Errorf("rack: connect: source: %w", ErrUnknownModule)
	}

	dstIdx, ok := e.index[dst]
	if !ok {
		return fmt.Errorf("rack: connect: destination: %w", ErrUnknownModule)
	}

	srcPort, srcPos := findPort(src.Outputs(), output)
	if srcPort == nil {
		return fmt.Errorf("rack: connect: %q has no output %q: %w", src.Name(), output, ErrUnknownPort)
	}

	dstPort, dstPos := findPort(dst.Inputs(), input)
	if dstPort == nil {
		return fmt.Errorf("rack: connect: %q has no input %q: %w", dst.Name(), input, ErrUnknownPort)
	}

	if !compatibleSignal(srcPort.Type(), dstPort.Type()) {
		return fmt.Errorf("rack: connect %q.%s (%s) -> %q.%s (%s): %w",
			src.Name(), output, srcPort.Type(), dst.Name(), input, dstPort.Type(), ErrTypeMismatch)
	}

	cand := connection{
		src: portRef{module: srcIdx, port: srcPos},
		dst: portRef{module: dstIdx, port: dstPos},
	}

	if srcIdx != dstIdx && e.wouldCycle(cand) {
		return fmt.Errorf("rack: connect %q -> %q: %w", src.Name(), dst.Name(), ErrGraphCycle)
	}

	// One upstream source per input: overwrite, never sum.
	kept := e.conns[:0]
	for _, c := range e.conns {
		if c.dst == cand.dst {
			continue
		}
		kept = append(kept, c)
	}
	e.conns = append(kept, cand)

	e.recompute()

	return nil
}

// Disconnect removes the connection feeding the named input, if any.
func (e *Engine) Disconnect(dst Module, input string) error {
	if _, ok := e.index[dst]; !ok {
		return fmt.Errorf("rack: disconnect: %w", ErrUnknownModule)
	}

	dstPort, dstPos := findPort(dst.Inputs(), input)
	if dstPort == nil {
		return fmt.Errorf("rack: disconnect: %q has no input %q: %w", dst.Name(), input, ErrUnknownPort)
	}

	ref := portRef{module: e.index[dst], port: dstPos}

	kept := e.conns[:0]
	for _, c := range e.conns {
		if c.dst == ref {
			continue
		}
		kept = append(kept, c)
	}
	e.conns = kept

	e.recompute()

	return nil
}

// Process runs one block: every module exactly once, in cached topological
// order. sampleCount must equal the block size the patch was built for.
func (e *Engine) Process(sampleCount int) error {
	if sampleCount != e.cfg.BlockSize {
		return fmt.Errorf("rack: process %d samples, patch built for %d: %w",
			sampleCount, e.cfg.BlockSize, ErrBlockSizeMismatch)
	}

	for _, m := range e.order {
		m.Process(sampleCount)
	}

	return nil
}

// Reset clears every module's buffers and internal state without touching
// the topology.
func (e *Engine) Reset() {
	for _, m := range e.modules {
		m.Reset()
	}
}

// wouldCycle reports whether adding cand to the current connection set
// leaves a module unreachable by Kahn's algorithm. Self-edges never count.
func (e *Engine) wouldCycle(cand connection) bool {
	n := len(e.modules)
	indegree := make([]int, n)
	outgoing := make([][]int, n)

	addEdge := func(c connection) {
		if c.src.module == c.dst.module {
			return
		}
		outgoing[c.src.module] = append(outgoing[c.src.module], c.dst.module)
		indegree[c.dst.module]++
	}

	for _, c := range e.conns {
		if c.dst == cand.dst {
			continue // about to be overwritten
		}
		addEdge(c)
	}
	addEdge(cand)

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		for _, to := range outgoing[id] {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	return visited != n
}

// recompute rebuilds the cached topological order and refreshes every
// input-port binding. The connection set is guaranteed acyclic here;
// Connect rejects cycles before committing.
func (e *Engine) recompute() {
	n := len(e.modules)
	indegree := make([]int, n)
	outgoing := make([][]int, n)

	for _, c := range e.conns {
		if c.src.module == c.dst.module {
			continue
		}
		outgoing[c.src.module] = append(outgoing[c.src.module], c.dst.module)
		indegree[c.dst.module]++
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]Module, 0, n)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		order = append(order, e.modules[id])
		for _, to := range outgoing[id] {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	e.order = order

	for _, m := range e.modules {
		for _, p := range m.Inputs() {
			p.unbind()
		}
	}

	for _, c := range e.conns {
		srcPort := e.modules[c.src.module].Outputs()[c.src.port]
		dstPort := e.modules[c.dst.module].Inputs()[c.dst.port]
		dstPort.bind(srcPort.buf)
	}
}

func findPort(ports []*Port, name string) (*Port, int) {
	for i, p := range ports {
		if p.Name() == name {
			return p, i
		}
	}
	return nil, -1
}
