// Package lower slices a single, fully built CFG into the per-state
// subgraphs an FSM-style hardware emitter needs: LowerToFSM walks the
// graph from its entry, copying nodes into a fresh subgraph until it
// reaches a terminal node or a Call site it has already passed through
// as many times as config.CallRevisitThreshold allows, at which point it
// records a boundary instead of continuing — that boundary becomes a
// state transition once every reachable subgraph has been discovered.
package lower

import (
	"fmt"
	"math"
	"sort"

	"github.com/worldofkerry/tohdl/config"
	"github.com/worldofkerry/tohdl/ir"
)

const passLower = "lower.LowerToFSM"

// boundary records a Call node, copied into a subgraph under construction,
// whose walk was cut short: target names the node in the original graph
// that the Call would otherwise have led to.
type boundary struct {
	NewNode ir.NodeID
	Target  ir.NodeID
}

// ExternalCall names one subgraph-to-subgraph transition: Node, inside
// Subgraph, is a Call left with no successor of its own; reaching it means
// control passes to NextSubgraph.
type ExternalCall struct {
	Subgraph     int
	Node         ir.NodeID
	NextSubgraph int
}

// Result is the output of slicing one CFG into FSM states.
type Result struct {
	Subgraphs     []*ir.Graph
	ExternalCalls []ExternalCall
}

// LowerToFSM splits g into per-state subgraphs. It assumes g is already in
// SSA form (ssa.BuildSSA has run), so every variable in g has exactly one
// definition; the copies therefore never need a second renaming pass —
// names stay unique across all subgraphs — and the variables each state
// must receive through the register file reduce to a liveness question
// answered by stateInputs below.
//
// Each boundary Call keeps the phi arguments it carried in the reference
// graph (those line up positionally with its target Func's parameters) and
// is extended with the target state's remaining live-in variables, while
// the target's entry Func gains the same variables as extra parameters, so
// caller and callee agree slot for slot on what crosses the boundary.
func LowerToFSM(g *ir.Graph) *Result {
	splitTermNodes(g)

	nodeToSubgraph := map[ir.NodeID]int{}
	var subgraphs []*ir.Graph
	type located struct {
		subgraph int
		b        boundary
	}
	var boundaries []located

	worklist := []ir.NodeID{g.Entry()}
	queued := map[ir.NodeID]bool{g.Entry(): true}

	for len(worklist) > 0 {
		node := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		newGraph := ir.NewGraph(fmt.Sprintf("%s.state%d", g.Name, len(subgraphs)))
		var found []boundary
		entry := recurse(g, node, newGraph, map[ir.NodeID]int{}, &found)
		newGraph.SetEntry(entry)
		if _, ok := newGraph.Node(entry).(*ir.Func); !ok {
			ir.Fail(passLower, entry, "subgraph entry is not a Func")
		}

		idx := len(subgraphs)
		subgraphs = append(subgraphs, newGraph)
		nodeToSubgraph[node] = idx

		for _, b := range found {
			boundaries = append(boundaries, located{idx, b})
			if !queued[b.Target] {
				queued[b.Target] = true
				worklist = append(worklist, b.Target)
			}
		}
	}

	result := &Result{Subgraphs: subgraphs}
	for _, loc := range boundaries {
		next, ok := nodeToSubgraph[loc.b.Target]
		if !ok {
			ir.Fail(passLower, loc.b.Target, "boundary call target was never sliced into a subgraph")
		}
		result.ExternalCalls = append(result.ExternalCalls, ExternalCall{
			Subgraph:     loc.subgraph,
			Node:         loc.b.NewNode,
			NextSubgraph: next,
		})
	}

	liveIn := stateInputs(result)
	for i, sub := range subgraphs {
		fn := sub.Node(sub.Entry()).(*ir.Func)
		fn.Params = append(fn.Params, sortedVars(liveIn[i])...)
	}
	for _, ec := range result.ExternalCalls {
		call := subgraphs[ec.Subgraph].Node(ec.Node).(*ir.Call)
		call.Args = append(call.Args, sortedVars(liveIn[ec.NextSubgraph])...)
	}
	return result
}

// splitTermNodes gives every Return or Yield node that still has
// successors (a Yield feeding more work, or a Return standing in for a
// nested call's completion) a Call/Func pair to land on, so recurse can
// always treat "successor of a terminal node" as a Call.
func splitTermNodes(g *ir.Graph) {
	for _, id := range g.Nodes() {
		switch g.Node(id).(type) {
		case *ir.Return, *ir.Yield:
		default:
			continue
		}
		succs := g.SuccEdges(id)
		if len(succs) == 0 {
			continue
		}

		call := g.AddNode(&ir.Call{})
		fn := g.AddNode(&ir.Func{})
		g.AddEdge(id, call, ir.None)
		g.AddEdge(call, fn, ir.None)
		for _, se := range succs {
			g.RemoveEdge(id, se.To)
			g.AddEdge(fn, se.To, se.Label)
		}
	}
}

// recurse copies the region reachable from src in ref into dst, cutting
// at terminal nodes and at Call sites already traversed
// config.CallRevisitThreshold times on the current path. Every visit
// copies afresh — a node reachable along two paths is duplicated, so each
// subgraph comes out a tree and every copied join Func has exactly one
// predecessor Call, which is what lets Nonblocking later fold each pair
// with a per-path substitution map. visited counts traversals along the
// current path only; a cut Call keeps the (already SSA'd) arguments its
// original carried.
func recurse(ref *ir.Graph, src ir.NodeID, dst *ir.Graph, visited map[ir.NodeID]int, boundaries *[]boundary) ir.NodeID {
	switch n := ref.Node(src).(type) {
	case *ir.Return, *ir.Yield:
		newNode := dst.AddNode(n.Clone())
		succs := ref.Succs(src)
		if len(succs) == 0 {
			return newNode
		}
		if len(succs) != 1 {
			ir.Fail(passLower, src, "terminal node has %d successors, want 0 or 1", len(succs))
		}
		successor := succs[0]
		if _, ok := ref.Node(successor).(*ir.Call); !ok {
			ir.Fail(passLower, successor, "terminal node's successor is not a Call")
		}
		nv := cloneVisited(visited)
		nv[successor] = math.MaxInt
		newSucc := recurse(ref, successor, dst, nv, boundaries)
		dst.AddEdge(newNode, newSucc, ir.None)
		return newNode

	case *ir.Call:
		newNode := dst.AddNode(n.Clone())
		count := visited[src]
		if count < config.CallRevisitThreshold {
			nv := cloneVisited(visited)
			nv[src] = count + 1
			for _, s := range ref.Succs(src) {
				ns := recurse(ref, s, dst, nv, boundaries)
				dst.AddEdge(newNode, ns, ir.None)
			}
			return newNode
		}

		succs := ref.Succs(src)
		if len(succs) != 1 {
			ir.Fail(passLower, src, "boundary call has %d successors, want 1", len(succs))
		}
		*boundaries = append(*boundaries, boundary{NewNode: newNode, Target: succs[0]})
		return newNode

	default:
		newNode := dst.AddNode(n.Clone())
		for _, se := range ref.SuccEdges(src) {
			ns := recurse(ref, se.To, dst, visited, boundaries)
			dst.AddEdge(newNode, ns, se.Label)
		}
		return newNode
	}
}

// stateInputs computes, for every subgraph, the variables it must receive
// through the register file when it becomes the active state: everything
// read on some path from its entry before being written on that path,
// minus the entry Func's own parameters. A boundary Call counts as
// reading its target state's inputs in addition to its own arguments, so
// the sets feed each other across subgraphs and are iterated to a fixed
// point (they only ever grow, and are bounded by the variables in the
// whole graph). This is what the per-subgraph trial rename in the slicing
// walk would have discovered, computed once over the finished copies
// instead of once per cut.
func stateInputs(r *Result) []map[ir.Var]bool {
	targets := make([]map[ir.NodeID]int, len(r.Subgraphs))
	for i := range targets {
		targets[i] = map[ir.NodeID]int{}
	}
	for _, ec := range r.ExternalCalls {
		targets[ec.Subgraph][ec.Node] = ec.NextSubgraph
	}

	liveIn := make([]map[ir.Var]bool, len(r.Subgraphs))
	for i := range liveIn {
		liveIn[i] = map[ir.Var]bool{}
	}

	for round := 0; ; round++ {
		changed := false
		for i, sub := range r.Subgraphs {
			got := liveAtEntry(sub, targets[i], liveIn)
			if !sameVarSet(got, liveIn[i]) {
				liveIn[i] = got
				changed = true
			}
		}
		if !changed {
			return liveIn
		}
		if round > config.MaxFixedPointIterations {
			ir.FailGraph(passLower, "state input sets did not converge")
		}
	}
}

// liveAtEntry runs a backward use-before-def liveness over one subgraph
// (a tree, so every node is visited exactly once) and returns the live
// set at its entry.
func liveAtEntry(sub *ir.Graph, targets map[ir.NodeID]int, liveIn []map[ir.Var]bool) map[ir.Var]bool {
	var live func(id ir.NodeID) map[ir.Var]bool
	live = func(id ir.NodeID) map[ir.Var]bool {
		out := map[ir.Var]bool{}
		for _, s := range sub.Succs(id) {
			for v := range live(s) {
				out[v] = true
			}
		}
		n := sub.Node(id)
		for _, v := range n.DeclaredVars() {
			delete(out, v)
		}
		for _, v := range n.ReferencedVars() {
			out[v] = true
		}
		if next, ok := targets[id]; ok {
			for v := range liveIn[next] {
				out[v] = true
			}
		}
		return out
	}
	return live(sub.Entry())
}

func sameVarSet(a, b map[ir.Var]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if !b[v] {
			return false
		}
	}
	return true
}

func sortedVars(set map[ir.Var]bool) []ir.Var {
	vars := make([]ir.Var, 0, len(set))
	for v := range set {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

func cloneVisited(m map[ir.NodeID]int) map[ir.NodeID]int {
	nm := make(map[ir.NodeID]int, len(m))
	for k, v := range m {
		nm[k] = v
	}
	return nm
}
