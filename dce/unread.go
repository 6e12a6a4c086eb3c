// Package dce removes dead structure left over once a subgraph's
// dataflow has been committed to straight-line assigns: RemoveUnreadVars
// deletes variables nothing reads, and RemoveRedundantCalls collapses the
// Func/Call shell left behind when a join's last phi parameter is
// deleted.
package dce

import "github.com/worldofkerry/tohdl/ir"

const passUnread = "dce.RemoveUnreadVars"

// RemoveUnreadVars deletes every variable defined in g with zero
// references, including phi parameters whose call-argument slot has no
// downstream consumer. A Func's parameter is removed in lockstep with
// the matching argument slot on every predecessor Call, since the two
// must move together or the positional phi duality breaks; every other
// node variant defers to its own UndefineVar, which reports whether the
// whole node becomes eligible for removal (Memory's always refuses,
// preserving the subgraph's register-file boundary unconditionally).
//
// The reference-count map is seeded once, then a worklist of
// currently-zero variables is drained until no new variable reaches
// zero.
func RemoveUnreadVars(g *ir.Graph) bool {
	refs, defSite := referenceCounts(g)

	var worklist []ir.Var
	queued := map[ir.Var]bool{}
	enqueue := func(v ir.Var) {
		if refs[v] == 0 && !queued[v] {
			queued[v] = true
			worklist = append(worklist, v)
		}
	}
	for v := range defSite {
		enqueue(v)
	}

	anyRemoved := false
	budget := 2*len(defSite) + g.Len() + 1
	for len(worklist) > 0 {
		budget--
		if budget < 0 {
			ir.FailGraph(passUnread, "did not reach a fixed point")
		}

		v := worklist[0]
		worklist = worklist[1:]
		queued[v] = false

		d, ok := defSite[v]
		if !ok || refs[v] != 0 {
			continue
		}

		if fn, isFunc := g.Node(d).(*ir.Func); isFunc {
			idx := paramIndex(fn, v)
			if idx < 0 {
				continue
			}
			removeFuncParam(g, d, fn, idx, refs, enqueue)
			delete(defSite, v)
			anyRemoved = true
			continue
		}

		n := g.Node(d)
		referenced := n.ReferencedVars()
		if !n.UndefineVar(v) {
			continue
		}
		g.RemoveNodeAndReattach(d)
		delete(defSite, v)
		anyRemoved = true
		for _, rv := range referenced {
			refs[rv]--
			enqueue(rv)
		}
	}
	return anyRemoved
}

// referenceCounts walks every node once, returning how many times each
// declared variable is read elsewhere and which node declares it. Every
// pass up to this one maintains the SSA invariant that a variable is
// declared exactly once; a second DeclaredVars sighting overwrites the
// first here rather than being flagged, since validating that invariant
// is an earlier pass's responsibility, not this one's.
func referenceCounts(g *ir.Graph) (map[ir.Var]int, map[ir.Var]ir.NodeID) {
	refs := make(map[ir.Var]int)
	defSite := make(map[ir.Var]ir.NodeID)
	for _, id := range g.Nodes() {
		n := g.Node(id)
		for _, v := range n.DeclaredVars() {
			defSite[v] = id
			if _, ok := refs[v]; !ok {
				refs[v] = 0
			}
		}
		for _, v := range n.ReferencedVars() {
			refs[v]++
		}
	}
	return refs, defSite
}

func paramIndex(fn *ir.Func, v ir.Var) int {
	for i, p := range fn.Params {
		if p == v {
			return i
		}
	}
	return -1
}

// removeFuncParam deletes fn's i-th parameter and the matching i-th
// argument from every predecessor Call, decrementing (and re-enqueuing)
// the reference count of each removed argument value, since that
// argument itself just lost a use.
func removeFuncParam(g *ir.Graph, funcID ir.NodeID, fn *ir.Func, idx int, refs map[ir.Var]int, enqueue func(ir.Var)) {
	fn.Params = append(fn.Params[:idx:idx], fn.Params[idx+1:]...)
	for _, p := range g.Preds(funcID) {
		call, ok := g.Node(p).(*ir.Call)
		if !ok {
			ir.Fail(passUnread, funcID, "predecessor %d of join is not a Call", p)
		}
		arg := call.Args[idx]
		call.Args = append(call.Args[:idx:idx], call.Args[idx+1:]...)
		refs[arg]--
		enqueue(arg)
	}
}
