package ssa

import (
	"fmt"

	"github.com/worldofkerry/tohdl/ir"
)

const passSSA = "ssa.BuildSSA"

// BuildSSA renames every variable in g into SSA form in place, assuming
// InsertFunc and InsertCall have already been run to a fixed point (every
// Func's predecessors are Calls, and no other node has more than one
// predecessor). It follows Braun, Buchwald, Hack, Leißa, Mehofer &
// Scheiblich's "Simple and Efficient Construction of Static Single
// Assignment Form": variables are renamed by a demand-driven recursive
// walk over predecessors rather than by first computing dominance
// frontiers, and a join only grows a phi operand (here: a Func parameter,
// mirrored into each predecessor Call's argument list) the first time
// some later read actually needs one.
//
// Because the CFG here is already fully built before SSA construction
// runs, every block is effectively "sealed" from the start in the Braun
// paper's sense: there is no incremental construction and therefore no
// incomplete-phi bookkeeping. A join can only be revisited for the same
// (node, variable) pair through a loop back edge, and that case is
// exactly what eager phi registration (writing the new phi before
// recursing into its operands) is for: it turns the second visit into a
// cache hit instead of infinite recursion.
func BuildSSA(g *ir.Graph) {
	r := newRenamer(g)
	for _, id := range g.Nodes() {
		r.ensureProcessed(id)
	}
	eliminateTrivialPhis(g)
}

// renamer holds the per-node, per-base-name current-definition cache and
// the next free version counter for each base name.
type renamer struct {
	g        *ir.Graph
	defs     map[ir.NodeID]map[string]ir.Var
	versions map[string]int
	state    map[ir.NodeID]int // 0 unvisited, 1 in progress, 2 done
}

const (
	stateUnvisited = iota
	stateInProgress
	stateDone
)

func newRenamer(g *ir.Graph) *renamer {
	return &renamer{
		g:        g,
		defs:     make(map[ir.NodeID]map[string]ir.Var),
		versions: make(map[string]int),
		state:    make(map[ir.NodeID]int),
	}
}

func (r *renamer) setDef(node ir.NodeID, base string, v ir.Var) {
	m := r.defs[node]
	if m == nil {
		m = make(map[string]ir.Var)
		r.defs[node] = m
	}
	m[base] = v
}

func (r *renamer) freshVersion(like ir.Var) ir.Var {
	base := like.Base()
	r.versions[base]++
	nv := like
	nv.Name = fmt.Sprintf("%s%s%d", base, ir.VersionSep, r.versions[base])
	return nv
}

// ensureProcessed renames node's own declarations and rewrites its own
// referenced expressions exactly once. It is idempotent and safe to call
// re-entrantly: a node in progress (its own RValue reading the very
// variable it is about to redefine, e.g. "i = i + 1") reports itself as
// already handled without recursing, so the read falls through to the
// ordinary predecessor lookup and correctly observes the value reaching
// the node rather than the value the node is still in the middle of
// producing.
func (r *renamer) ensureProcessed(node ir.NodeID) {
	switch r.state[node] {
	case stateDone, stateInProgress:
		return
	}
	r.state[node] = stateInProgress
	defer func() { r.state[node] = stateDone }()

	n := r.g.Node(node)
	for _, ep := range n.ReferencedExprs() {
		*ep = r.rewriteExpr(*ep, node)
	}
	switch nd := n.(type) {
	case *ir.Assign:
		nd.LValue = r.define(node, nd.LValue)
	case *ir.Memory:
		nd.LValue = r.define(node, nd.LValue)
	}
}

func (r *renamer) define(node ir.NodeID, old ir.Var) ir.Var {
	nv := r.freshVersion(old)
	r.setDef(node, old.Base(), nv)
	return nv
}

func (r *renamer) rewriteExpr(e ir.Expr, node ir.NodeID) ir.Expr {
	mapping := make(map[ir.Var]ir.Expr)
	for _, v := range e.Vars() {
		if _, done := mapping[v]; done {
			continue
		}
		mapping[v] = ir.NewVarRef(r.readVariable(v.Base(), node))
	}
	return e.Substitute(mapping)
}

// readVariable resolves the SSA value of base reaching node, renaming
// node itself first if it has not been visited yet.
func (r *renamer) readVariable(base string, node ir.NodeID) ir.Var {
	r.ensureProcessed(node)
	if v, ok := r.defs[node][base]; ok {
		return v
	}

	preds := r.g.Preds(node)
	switch {
	case len(preds) == 0:
		if node != r.g.Entry() {
			ir.Fail(passSSA, node, "variable %q has no reaching definition", base)
		}
		entry := r.g.Node(node).(*ir.Func)
		for _, p := range entry.Params {
			if p.Base() == base {
				r.setDef(node, base, p)
				return p
			}
		}
		ir.Fail(passSSA, node, "undefined variable %q", base)
		panic("unreachable")
	case len(preds) == 1:
		val := r.readVariable(base, preds[0])
		r.setDef(node, base, val)
		return val
	default:
		fn, ok := r.g.Node(node).(*ir.Func)
		if !ok {
			ir.Fail(passSSA, node, "node with %d predecessors is not a join", len(preds))
		}
		return r.addPhi(node, fn, base, preds)
	}
}

// addPhi grows fn by one parameter for base and mirrors the corresponding
// operand into every predecessor Call's argument list at the same index,
// preserving the positional Func/Call duality. The new
// parameter is written into the definition cache before its operands are
// read, so a loop-carried reference to the same (node, base) pair
// observes the phi itself instead of recursing forever around the back
// edge.
func (r *renamer) addPhi(node ir.NodeID, fn *ir.Func, base string, preds []ir.NodeID) ir.Var {
	var like ir.Var
	if len(fn.Params) > 0 {
		like = fn.Params[0]
	} else {
		like = ir.NewVar(base)
	}
	like.Name = base
	phi := r.freshVersion(like)
	fn.Params = append(fn.Params, phi)
	r.setDef(node, base, phi)

	for _, p := range preds {
		call := mustCall(r.g, node, p)
		call.Args = append(call.Args, r.readVariable(base, p))
	}
	return phi
}

func mustCall(g *ir.Graph, join, pred ir.NodeID) *ir.Call {
	call, ok := g.Node(pred).(*ir.Call)
	if !ok {
		ir.Fail(passSSA, join, "predecessor %d of join is not a Call", pred)
	}
	return call
}

// eliminateTrivialPhis removes Func parameters whose operands, across all
// predecessor Calls, are all equal to each other (ignoring self-reference
// through a loop back edge) — the value passing through the join carries
// no new information, so the parameter and its matching Call arguments
// are deleted and every other use of the phi variable is rewritten to the
// single surviving value. Removing one trivial phi can make another
// trivial (the value it used to merge no longer varies once its own
// redundant source is gone), so the sweep repeats to a fixed point.
func eliminateTrivialPhis(g *ir.Graph) {
	for iter := 0; ; iter++ {
		changed := false
		for _, id := range g.Nodes() {
			if id == g.Entry() {
				continue
			}
			fn, ok := g.Node(id).(*ir.Func)
			if !ok {
				continue
			}
			preds := g.Preds(id)

			var idxs []int
			var replacements []ir.Var
			for idx, param := range fn.Params {
				same, ok := trivialOperand(g, id, preds, idx, param)
				if ok {
					idxs = append(idxs, idx)
					replacements = append(replacements, same)
				}
			}
			for k := len(idxs) - 1; k >= 0; k-- {
				old := fn.Params[idxs[k]]
				removeParamAt(g, id, fn, preds, idxs[k])
				renameVarEverywhere(g, old, replacements[k])
				changed = true
			}
		}
		if !changed {
			return
		}
		if iter > g.Len() {
			ir.FailGraph(passSSA, "trivial-phi elimination did not converge")
		}
	}
}

func trivialOperand(g *ir.Graph, join ir.NodeID, preds []ir.NodeID, idx int, param ir.Var) (ir.Var, bool) {
	var same ir.Var
	set := false
	for _, p := range preds {
		call := mustCall(g, join, p)
		op := call.Args[idx]
		if op == param {
			continue
		}
		if set && op != same {
			return ir.Var{}, false
		}
		same, set = op, true
	}
	return same, set
}

func removeParamAt(g *ir.Graph, join ir.NodeID, fn *ir.Func, preds []ir.NodeID, idx int) {
	fn.Params = append(fn.Params[:idx:idx], fn.Params[idx+1:]...)
	for _, p := range preds {
		call := mustCall(g, join, p)
		call.Args = append(call.Args[:idx:idx], call.Args[idx+1:]...)
	}
}

func renameVarEverywhere(g *ir.Graph, old, replacement ir.Var) {
	for _, id := range g.Nodes() {
		n := g.Node(id)
		for _, ep := range n.ReferencedExprs() {
			(*ep).VisitVars(func(v *ir.Var) {
				if *v == old {
					*v = replacement
				}
			})
		}
		if call, ok := n.(*ir.Call); ok {
			for i, a := range call.Args {
				if a == old {
					call.Args[i] = replacement
				}
			}
		}
	}
}
