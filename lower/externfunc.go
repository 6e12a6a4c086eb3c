package lower

import "github.com/worldofkerry/tohdl/ir"

// InlineExternalFunc would splice callee's subgraph into caller at
// callNode/funcNode, replacing an ExternalCall transition with the
// callee's own nodes so the two states fuse into one. Nothing in this
// pipeline calls it: LowerToFSM's external-call table is consumed as-is
// by the (out-of-scope) emitter, which targets transitions between states
// rather than a single flattened graph. It is kept as a named extension
// point rather than removed outright, since a future cross-state
// optimization pass is the obvious place multi-state inlining would live.
func InlineExternalFunc(callNode, funcNode ir.NodeID, caller *ir.Graph, callee *ir.Graph) error {
	return ir.ErrNotImplemented
}
