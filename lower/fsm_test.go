package lower_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/worldofkerry/tohdl/ir"
	"github.com/worldofkerry/tohdl/lower"
	"github.com/worldofkerry/tohdl/ssa"
)

// TestLowerToFSMSplitsLoopIntoTwoStates builds a tiny self-looping
// function:
//
//	entry(i) -> branch(i<10) -true-> i2=i+1 -\ (back edge, via the SSA
//	                        -false-> return(i) join the loop re-enters)
//
// and checks that, once the join's Call is revisited past the configured
// threshold, LowerToFSM cuts the walk there and records a transition back
// to the subgraph containing that join.
func TestLowerToFSMSplitsLoopIntoTwoStates(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("loop")
	entry := g.AddNode(&ir.Func{Params: []ir.Var{ir.NewVar("i")}})
	g.SetEntry(entry)
	branch := g.AddNode(&ir.Branch{Cond: ir.NewBinExpr(ir.NewVarRef(ir.NewVar("i")), ir.Lt, ir.NewIntLit(10))})
	bump := g.AddNode(&ir.Assign{LValue: ir.NewVar("i"), RValue: ir.NewBinExpr(ir.NewVarRef(ir.NewVar("i")), ir.Add, ir.NewIntLit(1))})
	ret := g.AddNode(&ir.Return{Values: []ir.Expr{ir.NewVarRef(ir.NewVar("i"))}})

	g.AddEdge(entry, branch, ir.None)
	g.AddEdge(branch, bump, ir.True)
	g.AddEdge(branch, ret, ir.False)
	g.AddEdge(bump, branch, ir.None)

	ssa.Scaffold(g)
	ssa.BuildSSA(g)

	result := lower.LowerToFSM(g)

	require.GreaterOrEqual(t, len(result.Subgraphs), 2, "a self-looping function must slice into at least two states")
	require.NotEmpty(t, result.ExternalCalls, "the back edge must surface as a cross-state transition")

	for _, call := range result.ExternalCalls {
		require.Less(t, call.Subgraph, len(result.Subgraphs))
		require.Less(t, call.NextSubgraph, len(result.Subgraphs))
		sub := result.Subgraphs[call.Subgraph]
		_, ok := sub.Node(call.Node).(*ir.Call)
		require.True(t, ok, "ExternalCall.Node must name a Call node in its own subgraph")
	}
}

// TestLowerToFSMNestedLoops stacks two while loops with a yield in the
// inner body:
//
//	while a < n:
//	    b = 0
//	    while b < a:
//	        yield b
//	        b = b + 1
//	    a = a + 1
//
// Both loops must lie in a strongly connected region, the back edges
// must surface as state transitions, and loop-carried values must ride
// at least one transition's argument list.
func TestLowerToFSMNestedLoops(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("nested")
	entry := g.AddNode(&ir.Func{Params: []ir.Var{ir.NewVar("a"), ir.NewVar("n")}})
	g.SetEntry(entry)
	outer := g.AddNode(&ir.Branch{Cond: ir.NewBinExpr(ir.NewVarRef(ir.NewVar("a")), ir.Lt, ir.NewVarRef(ir.NewVar("n")))})
	resetB := g.AddNode(&ir.Assign{LValue: ir.NewVar("b"), RValue: ir.NewIntLit(0)})
	inner := g.AddNode(&ir.Branch{Cond: ir.NewBinExpr(ir.NewVarRef(ir.NewVar("b")), ir.Lt, ir.NewVarRef(ir.NewVar("a")))})
	yield := g.AddNode(&ir.Yield{Values: []ir.Expr{ir.NewVarRef(ir.NewVar("b"))}})
	bumpB := g.AddNode(&ir.Assign{LValue: ir.NewVar("b"), RValue: ir.NewBinExpr(ir.NewVarRef(ir.NewVar("b")), ir.Add, ir.NewIntLit(1))})
	bumpA := g.AddNode(&ir.Assign{LValue: ir.NewVar("a"), RValue: ir.NewBinExpr(ir.NewVarRef(ir.NewVar("a")), ir.Add, ir.NewIntLit(1))})
	ret := g.AddNode(&ir.Return{})

	g.AddEdge(entry, outer, ir.None)
	g.AddEdge(outer, resetB, ir.True)
	g.AddEdge(outer, ret, ir.False)
	g.AddEdge(resetB, inner, ir.None)
	g.AddEdge(inner, yield, ir.True)
	g.AddEdge(yield, bumpB, ir.None)
	g.AddEdge(bumpB, inner, ir.None) // inner back edge
	g.AddEdge(inner, bumpA, ir.False)
	g.AddEdge(bumpA, outer, ir.None) // outer back edge

	ssa.Scaffold(g)
	ssa.BuildSSA(g)

	loops := ir.NaturalLoops(g)
	require.NotEmpty(t, loops, "two stacked whiles must form at least one strongly connected region")
	var members []ir.NodeID
	for _, l := range loops {
		members = append(members, l.Members...)
	}
	require.Contains(t, members, outer)
	require.Contains(t, members, inner)

	result := lower.LowerToFSM(g)

	require.GreaterOrEqual(t, len(result.Subgraphs), 2, "the yield and the back edges must slice the body into several states")
	require.NotEmpty(t, result.ExternalCalls)

	var sawCarriedArgs bool
	for _, call := range result.ExternalCalls {
		require.Less(t, call.Subgraph, len(result.Subgraphs))
		require.Less(t, call.NextSubgraph, len(result.Subgraphs))
		sub := result.Subgraphs[call.Subgraph]
		boundary, ok := sub.Node(call.Node).(*ir.Call)
		require.True(t, ok, "ExternalCall.Node must name a Call node in its own subgraph")
		if len(boundary.Args) > 0 {
			sawCarriedArgs = true
		}
	}
	require.True(t, sawCarriedArgs, "loop-carried values must ride a state transition's argument list")
}
