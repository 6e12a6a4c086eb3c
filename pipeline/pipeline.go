// Package pipeline composes the passes in ir, ssa, lower, rewrite, and
// dce into one ordered transform sequence: Compile is the whole
// compiler middle end, and Pass/Manager give that composition a named,
// reusable shape rather than one long function body.
package pipeline

import (
	"github.com/worldofkerry/tohdl/config"
	"github.com/worldofkerry/tohdl/ir"
)

// Pass is one named, idempotent-when-exhausted transform: a function
// that mutates g in place and reports whether it did any work, the same
// shape ssa.InsertFunc, ssa.InsertCall, ssa.FixBranch, and
// ssa.ExplicitReturn already return.
type Pass struct {
	Name string
	Run  func(g *ir.Graph) bool
}

// Manager is an ordered sequential composition of Passes: Apply invokes
// each in order, and ApplyToFixedPoint repeats the list until a full
// round reports no work. A flat list is enough here because every pass
// shares the one mutable *ir.Graph rather than threading typed results
// to each other.
type Manager struct {
	Passes []Pass
}

// Apply runs every pass once, in order.
func (m *Manager) Apply(g *ir.Graph) {
	for _, p := range m.Passes {
		p.Run(g)
	}
}

// ApplyToFixedPoint repeats the whole ordered list until a full round
// does no work, capped at config.MaxFixedPointIterations rounds.
func (m *Manager) ApplyToFixedPoint(g *ir.Graph) {
	for round := 0; ; round++ {
		did := false
		for _, p := range m.Passes {
			if p.Run(g) {
				did = true
			}
		}
		if !did {
			return
		}
		if round+1 >= config.MaxFixedPointIterations {
			ir.FailGraph("pipeline.Manager", "passes %v did not reach a fixed point", m.names())
		}
	}
}

func (m *Manager) names() []string {
	out := make([]string, len(m.Passes))
	for i, p := range m.Passes {
		out[i] = p.Name
	}
	return out
}
