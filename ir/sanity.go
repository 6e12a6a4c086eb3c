package ir

import (
	"errors"
	"fmt"
	"strings"
)

// sanity collects invariant violations across one whole check so a
// corrupt graph reports everything wrong with it at once rather than
// only the first defect found.
type sanity struct {
	g    *Graph
	errs []string
}

func (s *sanity) errorf(format string, args ...interface{}) {
	s.errs = append(s.errs, fmt.Sprintf(format, args...))
}

// SanityCheck verifies the structural invariants every pass relies on:
// the entry is live and reaches every node, each Branch has exactly one
// True and one False successor and nothing else, every other node's
// outgoing edges are unconditional, a join Func's predecessors are all
// Calls whose argument count matches the Func's parameter count, and a
// Call has at most one successor. It returns an error naming every
// violation found, or nil for a well-formed graph.
func SanityCheck(g *Graph) error {
	s := &sanity{g: g}

	if _, ok := g.nodes[g.entry]; !ok {
		s.errorf("entry %d is not a live node", g.entry)
		return errors.New(strings.Join(s.errs, "; "))
	}

	reachable := map[NodeID]bool{}
	for _, id := range g.DFS(g.entry) {
		reachable[id] = true
	}
	for _, id := range g.Nodes() {
		if !reachable[id] {
			s.errorf("node %d (%s) is unreachable from the entry", id, g.Node(id))
		}
		s.checkNode(id)
	}

	if len(s.errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(s.errs, "; "))
}

func (s *sanity) checkNode(id NodeID) {
	g := s.g
	switch n := g.Node(id).(type) {
	case *Branch:
		var trues, falses, others int
		for _, se := range g.SuccEdges(id) {
			switch se.Label {
			case True:
				trues++
			case False:
				falses++
			default:
				others++
			}
		}
		if trues != 1 || falses != 1 || others != 0 {
			s.errorf("branch %d has %d true, %d false, %d unlabeled successors", id, trues, falses, others)
		}

	case *Func:
		for _, p := range g.Preds(id) {
			call, ok := g.Node(p).(*Call)
			if !ok {
				s.errorf("predecessor %d of join %d is not a Call", p, id)
				continue
			}
			if len(call.Args) != len(n.Params) {
				s.errorf("call %d has %d args but join %d has %d params", p, len(call.Args), id, len(n.Params))
			}
		}
		s.checkUnconditional(id)

	case *Call:
		if succs := g.Succs(id); len(succs) > 1 {
			s.errorf("call %d has %d successors, want at most 1", id, len(succs))
		}
		s.checkUnconditional(id)

	default:
		s.checkUnconditional(id)
	}
}

func (s *sanity) checkUnconditional(id NodeID) {
	for _, se := range s.g.SuccEdges(id) {
		if se.Label != None {
			s.errorf("non-branch node %d carries a %s-labeled edge to %d", id, se.Label, se.To)
		}
	}
}

// MustSanityCheck is SanityCheck for callers inside the pipeline, where
// a malformed graph is an earlier pass's bug: it panics with a PassError
// naming the calling pass.
func MustSanityCheck(pass string, g *Graph) {
	if err := SanityCheck(g); err != nil {
		FailGraph(pass, "%s", err)
	}
}
