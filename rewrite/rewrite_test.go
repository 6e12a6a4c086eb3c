package rewrite_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/worldofkerry/tohdl/emitctx"
	"github.com/worldofkerry/tohdl/ir"
	"github.com/worldofkerry/tohdl/lower"
	"github.com/worldofkerry/tohdl/rewrite"
)

func varRef(name string) ir.Expr { return ir.NewVarRef(ir.NewVar(name)) }

// TestUseMemoryMaterializesBoundary checks that a subgraph's entry
// parameters become register loads, a leaf Call's arguments become
// register stores, and the context's register file grows to the wider of
// the two.
func TestUseMemoryMaterializesBoundary(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("state0")
	entry := g.AddNode(&ir.Func{Params: []ir.Var{ir.NewVar("i.1"), ir.NewVar("n.1")}})
	g.SetEntry(entry)
	leaf := g.AddNode(&ir.Call{Args: []ir.Var{ir.NewVar("i.2"), ir.NewVar("n.1")}})
	g.AddEdge(entry, leaf, ir.None)

	ctx := emitctx.New("state0", []string{"i", "n"})
	rewrite.UseMemory(g, ctx)

	require.Equal(t, 2, ctx.Memories.Count)
	require.Empty(t, g.Node(entry).(*ir.Func).Params)
	require.Empty(t, g.Node(leaf).(*ir.Call).Args)

	var got []string
	for id := entry; ; {
		succs := g.Succs(id)
		if len(succs) == 0 {
			break
		}
		id = succs[0]
		got = append(got, g.Node(id).String())
	}
	want := []string{
		"mem i.1 = mem_0",
		"mem n.1 = mem_1",
		"mem mem_0 = i.2",
		"mem mem_1 = n.1",
		"call()",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("boundary sequence mismatch (-want +got):\n%s", diff)
	}
}

// TestNonblockingFoldsJoinAndPropagates runs Nonblocking over a
// straight-line Call/Func join and checks the pair is replaced by an
// Assign whose value, and every later read of it, is the substituted
// expression rather than the variable.
func TestNonblockingFoldsJoinAndPropagates(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("fold")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	def := g.AddNode(&ir.Assign{LValue: ir.NewVar("a.1"), RValue: ir.NewIntLit(5)})
	call := g.AddNode(&ir.Call{Args: []ir.Var{ir.NewVar("a.1")}})
	join := g.AddNode(&ir.Func{Params: []ir.Var{ir.NewVar("x.1")}})
	ret := g.AddNode(&ir.Return{Values: []ir.Expr{varRef("x.1")}})

	g.AddEdge(entry, def, ir.None)
	g.AddEdge(def, call, ir.None)
	g.AddEdge(call, join, ir.None)
	g.AddEdge(join, ret, ir.None)

	rewrite.Nonblocking(g)

	retNode := g.Node(ret).(*ir.Return)
	require.Equal(t, "5", retNode.Values[0].String(), "the folded copy must substitute forward into the return")

	var sawFold bool
	for _, id := range g.Nodes() {
		switch n := g.Node(id).(type) {
		case *ir.Call:
			t.Fatalf("call node %d survived Nonblocking", id)
		case *ir.Func:
			if id != entry {
				t.Fatalf("join node %d survived Nonblocking", id)
			}
		case *ir.Assign:
			if n.LValue.Name == "x.1" {
				sawFold = true
				require.Equal(t, "5", n.RValue.String())
			}
		}
	}
	require.True(t, sawFold, "the join must fold into an assign of its param")
}

// TestNonblockingResolvesDiamondArms runs Nonblocking over the two arms
// of a lowered diamond (each arm carrying its own copy of the join and
// return, the shape LowerToFSM produces) and checks each arm ends up as
// straight-line assigns returning its own value.
func TestNonblockingResolvesDiamondArms(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("diamond")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	branch := g.AddNode(&ir.Branch{Cond: ir.NewBinExpr(varRef("c"), ir.Lt, ir.NewIntLit(0))})
	g.AddEdge(entry, branch, ir.None)

	arm := func(label ir.Edge, assignVar string, value int64, phiVar string) ir.NodeID {
		def := g.AddNode(&ir.Assign{LValue: ir.NewVar(assignVar), RValue: ir.NewIntLit(value)})
		call := g.AddNode(&ir.Call{Args: []ir.Var{ir.NewVar(assignVar)}})
		join := g.AddNode(&ir.Func{Params: []ir.Var{ir.NewVar(phiVar)}})
		ret := g.AddNode(&ir.Return{Values: []ir.Expr{varRef(phiVar)}})
		g.AddEdge(branch, def, label)
		g.AddEdge(def, call, ir.None)
		g.AddEdge(call, join, ir.None)
		g.AddEdge(join, ret, ir.None)
		return ret
	}
	retTrue := arm(ir.True, "x.1", 1, "x.3")
	retFalse := arm(ir.False, "x.2", 2, "x.4")

	rewrite.Nonblocking(g)

	require.Equal(t, "1", g.Node(retTrue).(*ir.Return).Values[0].String())
	require.Equal(t, "2", g.Node(retFalse).(*ir.Return).Values[0].String())
	for _, id := range g.Nodes() {
		if _, ok := g.Node(id).(*ir.Call); ok {
			t.Fatalf("call node %d survived Nonblocking", id)
		}
	}
}

// TestInsertNextStateReplacesBoundaryCall checks the drained boundary
// Call is swapped, in place, for a NextState marker naming the target
// state.
func TestInsertNextStateReplacesBoundaryCall(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("state0")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	yield := g.AddNode(&ir.Yield{Values: []ir.Expr{ir.NewIntLit(1)}})
	boundary := g.AddNode(&ir.Call{})
	g.AddEdge(entry, yield, ir.None)
	g.AddEdge(yield, boundary, ir.None)

	rewrite.InsertNextState([]*ir.Graph{g}, []lower.ExternalCall{
		{Subgraph: 0, Node: boundary, NextSubgraph: 1},
	})

	next, ok := g.Node(boundary).(*ir.NextState)
	require.True(t, ok)
	require.Equal(t, 1, next.Target)
}
