// Package rack implements the signal-routing core of the modular synthesis
// engine: typed ports, the module contract, and the engine that owns the
// patch topology and drives block processing.
//
// A patch is built once (AddModule, Connect), then Engine.Process is called
// repeatedly from a single real-time thread. Modules exchange full-rate
// sample buffers through ports; an input port holds at most one upstream
// connection, while an output port fans out freely. The engine keeps a
// cached topological order over the cross-module connection graph and
// rejects any Connect call that would introduce a cycle, so an input port
// always reads samples its upstream module produced earlier in the same
// block.
//
// Parameter writes are safe from a concurrent control thread: each module
// parameter is a single atomically swapped float64 cell. Topology changes
// are not; they must happen between Process calls.
package rack
