package ssa

import "github.com/worldofkerry/tohdl/ir"

// RevertSSA undoes BuildSSA on a not-yet-lowered graph: every variable's
// version suffix is stripped, and the phi lists that BuildSSA grew are
// emptied again — once all versions of a variable collapse back to its
// base name, a join's parameter and every operand feeding it are the
// same variable, so the slots carry nothing. The entry Func keeps its
// parameters, each with any version suffix stripped. The result is the graph
// Scaffold would have produced from the original input, so running
// BuildSSA again reconstructs SSA form from scratch.
func RevertSSA(g *ir.Graph) {
	strip := func(v ir.Var) ir.Var { return v.WithName(v.Base()) }

	for _, id := range g.Nodes() {
		n := g.Node(id)
		for _, ep := range n.ReferencedExprs() {
			(*ep).VisitVars(func(v *ir.Var) { *v = strip(*v) })
		}
		switch nd := n.(type) {
		case *ir.Assign:
			nd.LValue = strip(nd.LValue)
		case *ir.Memory:
			nd.LValue = strip(nd.LValue)
		case *ir.Func:
			if id == g.Entry() {
				for i, p := range nd.Params {
					nd.Params[i] = strip(p)
				}
			} else {
				nd.Params = nil
			}
		case *ir.Call:
			nd.Args = nil
		}
	}
}
