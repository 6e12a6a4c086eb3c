package ssa

import "github.com/worldofkerry/tohdl/ir"

const passFixBranch = "ssa.FixBranch"

// FixBranch ensures every Branch node has exactly one True and one False
// successor, inserting an empty Return on whichever side is missing. A
// Branch with zero successors (a conditional whose both arms fell off the
// end of the source) gets both arms synthesized; one with a single
// successor gets the other arm's opposite label filled in.
func FixBranch(g *ir.Graph) bool {
	didWork := false
	for _, id := range g.Nodes() {
		if _, ok := g.Node(id).(*ir.Branch); !ok {
			continue
		}
		succs := g.SuccEdges(id)
		switch len(succs) {
		case 0:
			g.InsertSucc(&ir.Return{}, id, ir.True)
			g.InsertSucc(&ir.Return{}, id, ir.False)
			didWork = true
		case 1:
			switch succs[0].Label {
			case ir.True:
				g.InsertSucc(&ir.Return{}, id, ir.False)
			case ir.False:
				g.InsertSucc(&ir.Return{}, id, ir.True)
			default:
				ir.Fail(passFixBranch, id, "branch's lone successor carries a non-branch edge label")
			}
			didWork = true
		case 2:
			// already well-formed
		default:
			ir.Fail(passFixBranch, id, "branch has %d successors, expected at most 2", len(succs))
		}
	}
	return didWork
}
