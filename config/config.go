// Package config hosts compiler-internal tuning constants: these are for
// the pass implementations themselves, not user-facing settings. The
// command-line and embedding glue that would expose user-facing options
// lives outside this module.
package config

// CallRevisitThreshold is how many times LowerToFSM's subgraph slicer
// may walk through the same Call node while building one subgraph before
// it stops and records a state-transition boundary instead: at most one
// traversal per call site per subgraph.
const CallRevisitThreshold = 1

// MaxFixedPointIterations caps the number of times a fixed-point loop
// may re-run chasing its did-work flag before treating the lack of
// convergence as a fatal error.
const MaxFixedPointIterations = 64

// DefaultBitWidth is the bit-width assigned to a Var when no narrower
// width is specified, matching ir.DefaultWidth.
const DefaultBitWidth = 32

// MemoryPrefix, OutputPrefix, StatePrefix, and StateVarName name the
// registers and state-machine bookkeeping that emitctx.New copies into
// every emitctx.Context for the (out-of-scope) HDL emitter.
const (
	MemoryPrefix = "mem_"
	OutputPrefix = "out_"
	StatePrefix  = "state_"
	StateVarName = "state"
)

// ControlSignals names the fixed set of control lines every emitted FSM
// module exposes.
var ControlSignals = []string{"clock", "reset", "start", "ready", "valid", "done"}
