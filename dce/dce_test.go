package dce_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/worldofkerry/tohdl/dce"
	"github.com/worldofkerry/tohdl/ir"
)

func varRef(name string) ir.Expr { return ir.NewVarRef(ir.NewVar(name)) }

// TestRemoveUnreadVarsDropsDeadAssign builds `a = 5; b = 10; return b`
// and checks that the assign producing the unread `a` disappears while
// `b`'s definition survives.
func TestRemoveUnreadVarsDropsDeadAssign(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("dead_assign")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	a := g.AddNode(&ir.Assign{LValue: ir.NewVar("a"), RValue: ir.NewIntLit(5)})
	b := g.AddNode(&ir.Assign{LValue: ir.NewVar("b"), RValue: ir.NewIntLit(10)})
	ret := g.AddNode(&ir.Return{Values: []ir.Expr{varRef("b")}})
	g.AddEdge(entry, a, ir.None)
	g.AddEdge(a, b, ir.None)
	g.AddEdge(b, ret, ir.None)

	changed := dce.RemoveUnreadVars(g)
	require.True(t, changed)

	require.Equal(t, []ir.NodeID{b}, g.Succs(entry))
	bNode := g.Node(b).(*ir.Assign)
	require.Equal(t, "b", bNode.LValue.Name)

	require.False(t, dce.RemoveUnreadVars(g), "second run should be a no-op")
}

// TestRemoveUnreadVarsDropsPhiParamAndMatchingArgs builds a join whose
// phi parameter is never read downstream and checks the parameter and
// both predecessors' matching argument slots disappear together,
// preserving the Func/Call positional duality.
func TestRemoveUnreadVarsDropsPhiParamAndMatchingArgs(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("dead_phi")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	branch := g.AddNode(&ir.Branch{Cond: ir.NewIntLit(1)})
	c1 := g.AddNode(&ir.Call{Args: []ir.Var{ir.NewVar("x.1")}})
	c2 := g.AddNode(&ir.Call{Args: []ir.Var{ir.NewVar("x.2")}})
	join := g.AddNode(&ir.Func{Params: []ir.Var{ir.NewVar("x.3")}})
	ret := g.AddNode(&ir.Return{}) // does not read x.3

	g.AddEdge(entry, branch, ir.None)
	g.AddEdge(branch, c1, ir.True)
	g.AddEdge(branch, c2, ir.False)
	g.AddEdge(c1, join, ir.None)
	g.AddEdge(c2, join, ir.None)
	g.AddEdge(join, ret, ir.None)

	require.True(t, dce.RemoveUnreadVars(g))

	joinNode := g.Node(join).(*ir.Func)
	require.Empty(t, joinNode.Params)
	require.Empty(t, g.Node(c1).(*ir.Call).Args)
	require.Empty(t, g.Node(c2).(*ir.Call).Args)
}

// TestRemoveRedundantCallsCollapsesEmptyJoin builds the same paramless
// join (as if RemoveUnreadVars had already stripped it) and checks the
// Func and both predecessor Calls disappear, with branch wired straight
// to the old join's successor.
func TestRemoveRedundantCallsCollapsesEmptyJoin(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("empty_join")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	branch := g.AddNode(&ir.Branch{Cond: ir.NewIntLit(1)})
	c1 := g.AddNode(&ir.Call{})
	c2 := g.AddNode(&ir.Call{})
	join := g.AddNode(&ir.Func{})
	ret := g.AddNode(&ir.Return{})

	g.AddEdge(entry, branch, ir.None)
	g.AddEdge(branch, c1, ir.True)
	g.AddEdge(branch, c2, ir.False)
	g.AddEdge(c1, join, ir.None)
	g.AddEdge(c2, join, ir.None)
	g.AddEdge(join, ret, ir.None)

	require.True(t, dce.RemoveRedundantCalls(g))

	succs := g.Succs(branch)
	require.Len(t, succs, 2)
	for _, s := range succs {
		require.Equal(t, ret, s)
	}
	require.False(t, dce.RemoveRedundantCalls(g), "second run should be a no-op")
}

// TestRemoveRedundantCallsLeavesSubgraphEntryAlone checks that a
// paramless Func with no predecessors — a subgraph's own entry — is
// never collapsed, since it has nothing to reattach to.
func TestRemoveRedundantCallsLeavesSubgraphEntryAlone(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("entry_only")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	ret := g.AddNode(&ir.Return{})
	g.AddEdge(entry, ret, ir.None)

	require.False(t, dce.RemoveRedundantCalls(g))
	require.Equal(t, entry, g.Entry())
}
