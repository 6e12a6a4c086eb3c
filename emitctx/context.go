// Package emitctx defines the record a (not-yet-written, out-of-scope)
// HDL emitter would consume: everything about a lowered module's naming
// and register-file shape that the passes in rewrite and lower compute
// but have no further use for themselves.
package emitctx

import "github.com/worldofkerry/tohdl/config"

// Context is populated incrementally as the pipeline runs:
// rewrite.UseMemory grows Memories.Count as it discovers subgraph
// boundaries, and the pipeline grows Outputs.Count as it discovers
// Yield/Return arity. The rest is fixed naming: module name, input
// list, register-file prefixes, state-variable naming, control
// signals.
type Context struct {
	ModuleName string
	Inputs     []string

	Memories RegisterFile
	Outputs  RegisterFile

	StateVarName string
	StatePrefix  string

	ControlSignals []string
}

// RegisterFile names a contiguous bank of registers (mem_0..mem_{k-1} or
// out_0..out_{k-1}) by a shared prefix and count.
type RegisterFile struct {
	Prefix string
	Count  int
}

// New returns a Context seeded with the fixed naming conventions from
// package config; Memories.Count and Outputs.Count start at zero and are
// grown via Grow as passes discover how many registers they need.
func New(moduleName string, inputs []string) *Context {
	return &Context{
		ModuleName:     moduleName,
		Inputs:         append([]string(nil), inputs...),
		Memories:       RegisterFile{Prefix: config.MemoryPrefix},
		Outputs:        RegisterFile{Prefix: config.OutputPrefix},
		StateVarName:   config.StateVarName,
		StatePrefix:    config.StatePrefix,
		ControlSignals: append([]string(nil), config.ControlSignals...),
	}
}

// Grow raises a RegisterFile's Count to need if it is not already at
// least that large.
func (rf *RegisterFile) Grow(need int) {
	if need > rf.Count {
		rf.Count = need
	}
}
