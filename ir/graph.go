package ir

import (
	"fmt"
	"sort"
)

// NodeID identifies a node within a Graph. IDs are never reused within a
// Graph's lifetime, so a stale NodeID is always detectable (Graph.Node
// panics rather than silently returning a different node).
type NodeID int

// SuccEdge pairs a successor NodeID with the Edge label of the edge
// reaching it.
type SuccEdge struct {
	To    NodeID
	Label Edge
}

// Graph is a mutable control-flow graph: an arena of nodes keyed by a
// stable NodeID, plus an adjacency list of labeled directed edges and a
// distinguished entry node. It is the single mutable value every pass in
// this repository takes as input and returns as output: each pass holds
// exclusive access for the duration of its call and leaves the Graph in
// a new, still-valid state.
type Graph struct {
	Name string

	entry NodeID
	next  NodeID
	nodes map[NodeID]Node
	succs map[NodeID][]SuccEdge
	preds map[NodeID][]NodeID
}

// NewGraph returns an empty graph with no entry set; the front end (or a
// test helper) is expected to AddNode an entry Func and call SetEntry.
func NewGraph(name string) *Graph {
	return &Graph{
		Name:  name,
		nodes: make(map[NodeID]Node),
		succs: make(map[NodeID][]SuccEdge),
		preds: make(map[NodeID][]NodeID),
	}
}

func (g *Graph) Entry() NodeID { return g.entry }

func (g *Graph) SetEntry(id NodeID) { g.entry = id }

// Node returns the node stored at id. It panics if id does not name a
// live node, since every caller in this codebase first obtains id from
// the graph itself; a stale index is a programming error, not a
// recoverable condition.
func (g *Graph) Node(id NodeID) Node {
	n, ok := g.nodes[id]
	if !ok {
		panic(fmt.Sprintf("ir: no such node %d", id))
	}
	return n
}

// SetNode replaces the payload at id in place, preserving its edges and
// identity.
func (g *Graph) SetNode(id NodeID, n Node) {
	g.mustExist(id)
	g.nodes[id] = n
}

func (g *Graph) mustExist(id NodeID) {
	if _, ok := g.nodes[id]; !ok {
		panic(fmt.Sprintf("ir: no such node %d", id))
	}
}

// AddNode allocates a new NodeID for n and returns it. The new node has
// no edges.
func (g *Graph) AddNode(n Node) NodeID {
	id := g.next
	g.next++
	g.nodes[id] = n
	return id
}

// Nodes returns every live NodeID, sorted for deterministic iteration.
// Callers that mutate the graph while iterating must take this snapshot
// first.
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Graph) Len() int { return len(g.nodes) }

// AddEdge adds a directed edge from -> to labeled label.
func (g *Graph) AddEdge(from, to NodeID, label Edge) {
	g.mustExist(from)
	g.mustExist(to)
	g.succs[from] = append(g.succs[from], SuccEdge{To: to, Label: label})
	g.preds[to] = append(g.preds[to], from)
}

// RemoveEdge deletes the (first) edge from -> to and returns its label.
// It panics if no such edge exists.
func (g *Graph) RemoveEdge(from, to NodeID) Edge {
	ses := g.succs[from]
	for i, se := range ses {
		if se.To == to {
			g.succs[from] = append(ses[:i:i], ses[i+1:]...)
			g.removePred(to, from)
			return se.Label
		}
	}
	panic(fmt.Sprintf("ir: no edge %d -> %d", from, to))
}

func (g *Graph) removePred(to, from NodeID) {
	preds := g.preds[to]
	for i, p := range preds {
		if p == from {
			g.preds[to] = append(preds[:i:i], preds[i+1:]...)
			return
		}
	}
}

// Edge reports the label of the edge from -> to, if one exists.
func (g *Graph) Edge(from, to NodeID) (Edge, bool) {
	for _, se := range g.succs[from] {
		if se.To == to {
			return se.Label, true
		}
	}
	return None, false
}

// SuccEdges returns id's outgoing edges in insertion order.
func (g *Graph) SuccEdges(id NodeID) []SuccEdge {
	return append([]SuccEdge(nil), g.succs[id]...)
}

// Succs returns id's successor NodeIDs in insertion order.
func (g *Graph) Succs(id NodeID) []NodeID {
	ses := g.succs[id]
	out := make([]NodeID, len(ses))
	for i, se := range ses {
		out[i] = se.To
	}
	return out
}

// Preds returns id's predecessor NodeIDs in insertion order.
func (g *Graph) Preds(id NodeID) []NodeID {
	return append([]NodeID(nil), g.preds[id]...)
}

// RemoveNode deletes id and every edge incident to it, without
// reattaching its predecessors to its successors. Use RemoveNodeAndReattach
// to splice id out of the graph instead.
func (g *Graph) RemoveNode(id NodeID) {
	for _, p := range append([]NodeID(nil), g.preds[id]...) {
		g.RemoveEdge(p, id)
	}
	for _, s := range g.Succs(id) {
		g.RemoveEdge(id, s)
	}
	delete(g.nodes, id)
	delete(g.succs, id)
	delete(g.preds, id)
}

// RemoveNodeAndReattach removes id, reconnecting each predecessor to each
// successor with the label the predecessor's edge to id carried. If id
// was the graph's entry, the entry moves to its predecessor when it has
// exactly one, or, when it has none, to its successor when it has exactly
// one; any other shape (several predecessors, or no predecessor and zero
// or several successors) panics, since no unambiguous new entry exists.
func (g *Graph) RemoveNodeAndReattach(id NodeID) {
	preds := g.Preds(id)
	succs := g.Succs(id)

	for _, p := range preds {
		label := g.RemoveEdge(p, id)
		for _, s := range succs {
			g.AddEdge(p, s, label)
		}
	}
	for _, s := range succs {
		g.RemoveEdge(id, s)
	}
	delete(g.nodes, id)
	delete(g.succs, id)
	delete(g.preds, id)

	if id == g.entry {
		switch {
		case len(preds) > 0:
			if len(preds) != 1 {
				panic("ir: removed entry node has more than one predecessor")
			}
			g.entry = preds[0]
		case len(succs) == 1:
			g.entry = succs[0]
		default:
			panic("ir: removed entry node leaves an ambiguous new entry")
		}
	}
}

// InsertBefore allocates n, splices it in front of before along edge
// label, and rewires every existing predecessor of before to target n
// instead (each keeping its own original label). Returns n's NodeID.
func (g *Graph) InsertBefore(n Node, before NodeID, label Edge) NodeID {
	id := g.AddNode(n)
	for _, p := range g.Preds(before) {
		pl := g.RemoveEdge(p, before)
		g.AddEdge(p, id, pl)
	}
	g.AddEdge(id, before, label)
	return id
}

// InsertAfter allocates n, splices it immediately after idx along edge
// label, and rewires every existing successor of idx to follow n instead.
func (g *Graph) InsertAfter(n Node, idx NodeID, label Edge) NodeID {
	id := g.AddNode(n)
	for _, se := range g.SuccEdges(idx) {
		g.RemoveEdge(idx, se.To)
		g.AddEdge(id, se.To, se.Label)
	}
	g.AddEdge(idx, id, label)
	return id
}

// InsertSucc allocates n as a brand-new successor of idx; idx retains any
// existing successors.
func (g *Graph) InsertSucc(n Node, idx NodeID, label Edge) NodeID {
	id := g.AddNode(n)
	g.AddEdge(idx, id, label)
	return id
}

// DFS returns every node reachable from source, in pre-order, visiting
// each node once.
func (g *Graph) DFS(source NodeID) []NodeID {
	var visited []NodeID
	seen := map[NodeID]bool{}
	stack := []NodeID{source}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		visited = append(visited, n)
		stack = append(stack, g.Succs(n)...)
	}
	return visited
}

// Exits returns every node with no successors.
func (g *Graph) Exits() []NodeID {
	var exits []NodeID
	for _, id := range g.Nodes() {
		if len(g.succs[id]) == 0 {
			exits = append(exits, id)
		}
	}
	return exits
}
