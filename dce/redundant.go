package dce

import (
	"github.com/worldofkerry/tohdl/config"
	"github.com/worldofkerry/tohdl/ir"
)

const passRedundant = "dce.RemoveRedundantCalls"

// RemoveRedundantCalls collapses every paramless Func that still has at
// least one predecessor: once RemoveUnreadVars (or trivial-phi
// elimination during SSA construction) has stripped every parameter from
// a join, the Func and its predecessor Call nodes carry no dataflow at
// all and are pure control-flow scaffolding left behind by an earlier
// pass. A Func with no predecessors is a subgraph's own entry, never a
// stranded join, and is left alone. Each matching predecessor Call is
// spliced out first, then the now-direct-predecessor Func itself, both
// through the graph's reattach-on-removal primitive.
func RemoveRedundantCalls(g *ir.Graph) bool {
	anyRemoved := false
	for iter := 0; ; iter++ {
		var targets []ir.NodeID
		for _, id := range g.Nodes() {
			fn, ok := g.Node(id).(*ir.Func)
			if !ok || len(fn.Params) != 0 {
				continue
			}
			if len(g.Preds(id)) == 0 {
				continue
			}
			targets = append(targets, id)
		}
		if len(targets) == 0 {
			return anyRemoved
		}

		for _, id := range targets {
			for _, p := range g.Preds(id) {
				g.RemoveNodeAndReattach(p)
			}
			g.RemoveNodeAndReattach(id)
			anyRemoved = true
		}
		if iter > config.MaxFixedPointIterations {
			ir.FailGraph(passRedundant, "call removal did not reach a fixed point")
		}
	}
}
