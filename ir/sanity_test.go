package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/worldofkerry/tohdl/ir"
)

func TestSanityCheckAcceptsWellFormedGraph(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("ok")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	branch := g.AddNode(&ir.Branch{Cond: ir.NewVarRef(ir.NewVar("c"))})
	r1 := g.AddNode(&ir.Return{})
	r2 := g.AddNode(&ir.Return{})
	g.AddEdge(entry, branch, ir.None)
	g.AddEdge(branch, r1, ir.True)
	g.AddEdge(branch, r2, ir.False)

	require.NoError(t, ir.SanityCheck(g))
}

func TestSanityCheckRejectsHalfBranch(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("half")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	branch := g.AddNode(&ir.Branch{Cond: ir.NewVarRef(ir.NewVar("c"))})
	r1 := g.AddNode(&ir.Return{})
	g.AddEdge(entry, branch, ir.None)
	g.AddEdge(branch, r1, ir.True)

	err := ir.SanityCheck(g)
	require.Error(t, err)
	require.Contains(t, err.Error(), "branch")
}

func TestSanityCheckRejectsArityMismatch(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("arity")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	call := g.AddNode(&ir.Call{Args: []ir.Var{ir.NewVar("a.1")}})
	join := g.AddNode(&ir.Func{Params: []ir.Var{ir.NewVar("x.1"), ir.NewVar("y.1")}})
	ret := g.AddNode(&ir.Return{})
	g.AddEdge(entry, call, ir.None)
	g.AddEdge(call, join, ir.None)
	g.AddEdge(join, ret, ir.None)

	err := ir.SanityCheck(g)
	require.Error(t, err)
	require.Contains(t, err.Error(), "args")
}

func TestSanityCheckRejectsUnreachableNode(t *testing.T) {
	t.Parallel()

	g := ir.NewGraph("island")
	entry := g.AddNode(&ir.Func{})
	g.SetEntry(entry)
	g.AddNode(&ir.Return{}) // never wired in

	err := ir.SanityCheck(g)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unreachable")
}
