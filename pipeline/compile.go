package pipeline

import (
	"github.com/worldofkerry/tohdl/dce"
	"github.com/worldofkerry/tohdl/emitctx"
	"github.com/worldofkerry/tohdl/ir"
	"github.com/worldofkerry/tohdl/lower"
	"github.com/worldofkerry/tohdl/rewrite"
	"github.com/worldofkerry/tohdl/ssa"
)

// Result is everything the (out-of-scope) HDL emitter needs: the ordered
// per-state subgraphs, the transition table (whose recorded nodes are
// NextState markers by the time Compile returns), and the naming context
// accumulated while lowering.
type Result struct {
	Subgraphs     []*ir.Graph
	ExternalCalls []lower.ExternalCall
	Context       *emitctx.Context
}

// Compile runs the full pass sequence over g, a front-end-produced CFG
// whose entry is a Func naming the source function's parameters and
// whose other nodes are Assign, Branch, Yield, and Return. FixBranch
// and ExplicitReturn repair the two corners a front end tends to leave
// open (an if with a missing arm, control falling off the end without a
// terminator). moduleName and inputs seed the emitctx.Context handed to
// the emitter.
func Compile(moduleName string, inputs []string, g *ir.Graph) *Result {
	ssa.FixBranch(g)
	ssa.ExplicitReturn(g)
	ssa.Scaffold(g)
	ssa.BuildSSA(g)
	ir.MustSanityCheck("pipeline.Compile", g)

	// A join can come out of BuildSSA's trivial-phi elimination with
	// every parameter removed but the Func/Call shell still standing;
	// squash that shell before slicing so LowerToFSM never has to reason
	// about a state transition that carries no data.
	dce.RemoveRedundantCalls(g)

	lowered := lower.LowerToFSM(g)

	// Stripping an unread phi parameter can leave its join paramless and
	// therefore redundant; collapsing a redundant join can in turn zero
	// out the reference count of whatever fed its Call arguments. The two
	// passes are run to a fixed point together rather than once each.
	cleanup := &Manager{Passes: []Pass{
		{Name: "dce.RemoveUnreadVars", Run: dce.RemoveUnreadVars},
		{Name: "dce.RemoveRedundantCalls", Run: dce.RemoveRedundantCalls},
	}}

	ctx := emitctx.New(moduleName, inputs)
	for _, sub := range lowered.Subgraphs {
		rewrite.UseMemory(sub, ctx)
		growOutputs(sub, ctx)
	}

	// Boundary calls carry no data once UseMemory has drained them into
	// register stores; what remains of each is the target state index,
	// which InsertNextState materializes as a NextState marker in place.
	rewrite.InsertNextState(lowered.Subgraphs, lowered.ExternalCalls)

	for _, sub := range lowered.Subgraphs {
		rewrite.Nonblocking(sub)
		cleanup.ApplyToFixedPoint(sub)
	}

	return &Result{
		Subgraphs:     lowered.Subgraphs,
		ExternalCalls: lowered.ExternalCalls,
		Context:       ctx,
	}
}

// growOutputs raises ctx.Outputs.Count to the widest Yield or Return
// value tuple found in sub.
func growOutputs(sub *ir.Graph, ctx *emitctx.Context) {
	for _, id := range sub.Nodes() {
		switch n := sub.Node(id).(type) {
		case *ir.Yield:
			ctx.Outputs.Grow(len(n.Values))
		case *ir.Return:
			ctx.Outputs.Grow(len(n.Values))
		}
	}
}
