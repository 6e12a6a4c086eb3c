package rewrite

import (
	"github.com/worldofkerry/tohdl/ir"
	"github.com/worldofkerry/tohdl/lower"
)

const passNextState = "rewrite.InsertNextState"

// InsertNextState replaces every boundary Call recorded by lower.LowerToFSM
// with a NextState marker carrying the target subgraph's index, so the
// emitter can set the state register without consulting the transition
// table node by node. It must run after UseMemory has drained each
// boundary's arguments into register stores: at that point the Call
// payload carries no data and exists only to mark where control leaves
// the state. Replacement goes through Graph.SetNode, so the NodeIDs in
// the ExternalCall table stay valid.
func InsertNextState(subgraphs []*ir.Graph, calls []lower.ExternalCall) {
	for _, ec := range calls {
		g := subgraphs[ec.Subgraph]
		call, ok := g.Node(ec.Node).(*ir.Call)
		if !ok {
			ir.Fail(passNextState, ec.Node, "recorded boundary node is not a Call")
		}
		if len(call.Args) != 0 {
			ir.Fail(passNextState, ec.Node, "boundary call still carries %d args; UseMemory must run first", len(call.Args))
		}
		if len(g.Succs(ec.Node)) != 0 {
			ir.Fail(passNextState, ec.Node, "boundary call has successors inside its own subgraph")
		}
		g.SetNode(ec.Node, &ir.NextState{Target: ec.NextSubgraph})
	}
}
