// Package rewrite turns a lowered, per-state subgraph's SSA/phi
// scaffolding into register-transfer level form: UseMemory gives a
// subgraph's boundaries a named register-file interface, and Nonblocking
// folds everything internal to the boundary into straight-line assigns
// with nonblocking (next-cycle) semantics.
package rewrite

import (
	"fmt"

	"github.com/worldofkerry/tohdl/config"
	"github.com/worldofkerry/tohdl/emitctx"
	"github.com/worldofkerry/tohdl/ir"
)

const passMemory = "rewrite.UseMemory"

// UseMemory gives a subgraph's boundary an explicit register-file
// interface: the entry Func's parameters become loads from mem_i, and any
// leaf Call's (a subgraph-boundary Call left with no local successor by
// lower.LowerToFSM) arguments become stores to mem_i. ctx.Memories is
// grown to the widest boundary this subgraph exposes.
//
// Internal Func/Call joins — anything with both predecessors and
// successors — are left untouched here; folding those into straight-line
// code is Nonblocking's job, which needs the phi scaffolding intact to
// know which value flows from which predecessor.
func UseMemory(g *ir.Graph, ctx *emitctx.Context) {
	entry := g.Entry()
	fn, ok := g.Node(entry).(*ir.Func)
	if !ok {
		ir.Fail(passMemory, entry, "subgraph entry is not a Func")
	}
	loadMemory(g, ctx, entry, fn.Params)
	fn.Params = nil

	for _, id := range g.Nodes() {
		call, ok := g.Node(id).(*ir.Call)
		if !ok || len(g.Succs(id)) > 0 {
			continue
		}
		storeMemory(g, ctx, id, call.Args)
		call.Args = nil
	}
}

func memVar(i int) ir.Var {
	return ir.NewVar(fmt.Sprintf("%s%d", config.MemoryPrefix, i))
}

func loadMemory(g *ir.Graph, ctx *emitctx.Context, after ir.NodeID, params []ir.Var) {
	ctx.Memories.Grow(len(params))
	cur := after
	for i, p := range params {
		mem := &ir.Memory{LValue: p, RValue: ir.NewVarRef(memVar(i))}
		cur = g.InsertAfter(mem, cur, ir.None)
	}
}

func storeMemory(g *ir.Graph, ctx *emitctx.Context, before ir.NodeID, args []ir.Var) {
	ctx.Memories.Grow(len(args))
	front := before
	for i := len(args) - 1; i >= 0; i-- {
		mem := &ir.Memory{LValue: memVar(i), RValue: ir.NewVarRef(args[i])}
		front = g.InsertBefore(mem, front, ir.None)
	}
}
