package ssa

import "github.com/worldofkerry/tohdl/ir"

// InsertCall ensures every predecessor of a Func node is itself a Call
// node, inserting an empty Call between any predecessor that is not.
// Combined with InsertFunc, repeated application in any order reaches a
// fixed point: every Func's predecessors are all Calls.
func InsertCall(g *ir.Graph) bool {
	didWork := false
	for _, id := range g.Nodes() {
		if _, ok := g.Node(id).(*ir.Func); !ok {
			continue
		}
		for _, p := range g.Preds(id) {
			if _, ok := g.Node(p).(*ir.Call); ok {
				continue
			}
			didWork = true
			label := g.RemoveEdge(p, id)
			call := g.AddNode(&ir.Call{})
			g.AddEdge(p, call, label)
			g.AddEdge(call, id, ir.None)
		}
	}
	return didWork
}
