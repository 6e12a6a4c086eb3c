package rewrite

import "github.com/worldofkerry/tohdl/ir"

const passNonblocking = "rewrite.Nonblocking"

// Nonblocking folds every internal Func/Call join in g into straight-line
// Assigns. It walks g from its entry threading a substitution mapping of
// not-yet-committed lvalue -> rvalue pairs: an Assign's effect is nonblocking
// (the lvalue only takes its new value on the next clock edge), so any
// combinational read of that variable later in the same cycle must see the
// rvalue expression inlined, not the variable itself. Memory nodes are
// boundary register loads and stores but assign all the same, so they feed
// the mapping exactly like an Assign does.
//
// Reaching a Call/Func pair fuses it: each param gets a fresh Assign whose
// rvalue is the matching arg's current substitution (or the arg itself, if
// never reassigned on this path), the pair is removed, and the walk
// continues past it with the mapping extended by the new copies — a later
// read of a param must see the value that flowed through the join, for the
// same next-clock-edge reason as any other assign on the path.
//
// g must come out of lower.LowerToFSM: its slicing copies a node once per
// path, so every subgraph is a tree, every join Func has exactly one
// predecessor Call, and no node is ever reached twice by this walk.
func Nonblocking(g *ir.Graph) {
	onStack := map[ir.NodeID]bool{}
	walk(g, g.Entry(), map[ir.Var]ir.Expr{}, onStack)
}

func walk(g *ir.Graph, id ir.NodeID, mapping map[ir.Var]ir.Expr, onStack map[ir.NodeID]bool) {
	if onStack[id] {
		ir.Fail(passNonblocking, id, "walk revisited a node already on its own path; g is not acyclic")
	}
	onStack[id] = true
	defer delete(onStack, id)

	n := g.Node(id)
	for _, ep := range n.ReferencedExprs() {
		*ep = (*ep).Substitute(mapping)
	}

	switch nd := n.(type) {
	case *ir.Assign:
		next := cloneMapping(mapping)
		next[nd.LValue] = nd.RValue
		for _, s := range g.Succs(id) {
			walk(g, s, next, onStack)
		}

	case *ir.Memory:
		next := cloneMapping(mapping)
		next[nd.LValue] = nd.RValue
		for _, s := range g.Succs(id) {
			walk(g, s, next, onStack)
		}

	case *ir.Call:
		foldCall(g, id, nd, mapping, onStack)

	default:
		for _, s := range g.Succs(id) {
			walk(g, s, cloneMapping(mapping), onStack)
		}
	}
}

// foldCall replaces a Call and its joined Func with one Assign per param,
// then continues the walk past the Func's original successors with the
// mapping extended by the new copies. The rvalues are all resolved against
// the mapping as it stood before the fold, so a join whose args permute
// its own params (a loop-carried swap) reads every old value, not a value
// another slot just produced.
func foldCall(g *ir.Graph, id ir.NodeID, call *ir.Call, mapping map[ir.Var]ir.Expr, onStack map[ir.NodeID]bool) {
	succs := g.Succs(id)
	if len(succs) == 0 {
		return
	}
	funcID := succs[0]
	fn, ok := g.Node(funcID).(*ir.Func)
	if !ok {
		ir.Fail(passNonblocking, funcID, "call's successor is not a join Func")
	}
	if len(fn.Params) != len(call.Args) {
		ir.Fail(passNonblocking, id, "call has %d args but its Func has %d params", len(call.Args), len(fn.Params))
	}

	continuation := append([]ir.NodeID(nil), g.Succs(funcID)...)

	next := cloneMapping(mapping)
	anchor := id
	for i, p := range fn.Params {
		rvalue := ir.Expr(ir.NewVarRef(call.Args[i]))
		if mapped, ok := mapping[call.Args[i]]; ok {
			rvalue = mapped
		}
		anchor = g.InsertAfter(&ir.Assign{LValue: p, RValue: rvalue}, anchor, ir.None)
		next[p] = rvalue
	}

	g.RemoveNodeAndReattach(funcID)
	g.RemoveNodeAndReattach(id)

	for _, s := range continuation {
		walk(g, s, cloneMapping(next), onStack)
	}
}

func cloneMapping(m map[ir.Var]ir.Expr) map[ir.Var]ir.Expr {
	nm := make(map[ir.Var]ir.Expr, len(m))
	for k, v := range m {
		nm[k] = v
	}
	return nm
}
