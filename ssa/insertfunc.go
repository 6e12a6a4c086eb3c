// Package ssa turns a bare CFG into one in SSA form: it inserts the
// Func/Call join/split scaffolding and then performs the Braun et al.
// on-the-fly renaming that turns that scaffolding into real phi
// functions.
package ssa

import "github.com/worldofkerry/tohdl/ir"

// InsertFunc ensures every node with more than one predecessor is
// preceded by a Func join node, except where the node is itself a Func
// (already a join) or every predecessor is already a Call (that merge
// point is InsertCall's job to finish, once the Func created on an
// earlier call already covers it). Applying it twice in a row is a
// no-op: every multi-pred node left after one run is a Func.
func InsertFunc(g *ir.Graph) bool {
	didWork := false
	for _, id := range g.Nodes() {
		preds := g.Preds(id)
		if len(preds) <= 1 {
			continue
		}
		if _, isFunc := g.Node(id).(*ir.Func); isFunc {
			continue
		}
		if allCalls(g, preds) {
			continue
		}

		didWork = true
		fn := g.AddNode(&ir.Func{})
		for _, p := range preds {
			label := g.RemoveEdge(p, id)
			g.AddEdge(p, fn, label)
		}
		g.AddEdge(fn, id, ir.None)
	}
	return didWork
}

// Scaffold runs InsertFunc and InsertCall together to a fixed point.
// InsertFunc alone leaves each Func it creates with the same non-Call
// predecessors the merged node used to have; InsertCall in the same
// round converts those predecessors to Calls, and the loop repeats until
// neither pass finds anything left to do.
func Scaffold(g *ir.Graph) {
	for {
		a := InsertFunc(g)
		b := InsertCall(g)
		if !a && !b {
			return
		}
	}
}

func allCalls(g *ir.Graph, ids []ir.NodeID) bool {
	for _, id := range ids {
		if _, ok := g.Node(id).(*ir.Call); !ok {
			return false
		}
	}
	return true
}
