package ssa

import "github.com/worldofkerry/tohdl/ir"

// ExplicitReturn ensures every leaf node (one with no successors) is a
// Return, inserting an empty one after any leaf that is not. Downstream
// passes (lower.LowerToFSM in particular) rely on every path through the
// graph ending at a Return to know where a subgraph's output values come
// from; a Yield or a bare Assign left dangling at the end of the graph
// would otherwise have no well-defined exit value.
func ExplicitReturn(g *ir.Graph) bool {
	didWork := false
	for _, id := range g.Nodes() {
		if len(g.Succs(id)) > 0 {
			continue
		}
		if _, ok := g.Node(id).(*ir.Return); ok {
			continue
		}
		g.InsertSucc(&ir.Return{}, id, ir.None)
		didWork = true
	}
	return didWork
}
