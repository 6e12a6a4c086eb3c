package ir

import (
	"errors"
	"fmt"
)

// ErrNotImplemented is returned by extension points the pipeline declares
// but does not yet fill in, rather than either panicking or silently
// doing nothing.
var ErrNotImplemented = errors.New("ir: not implemented")

// PassError reports a fatal, unrecoverable condition discovered by a
// pass: a violated structural precondition, a node variant the pass does
// not know how to handle, or a fixed-point loop that failed to converge.
// It names the offending pass and node so the message is actionable
// without a debugger.
type PassError struct {
	Pass    string
	Node    NodeID
	HasNode bool
	Msg     string
}

func (e *PassError) Error() string {
	if e.HasNode {
		return fmt.Sprintf("%s: node %d: %s", e.Pass, e.Node, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Pass, e.Msg)
}

// Fail panics with a PassError identifying pass and node. Passes use this
// for every invariant violation; the pipeline is fail-fast, so there is
// no recoverable error return for these conditions.
func Fail(pass string, node NodeID, format string, args ...interface{}) {
	panic(&PassError{Pass: pass, Node: node, HasNode: true, Msg: fmt.Sprintf(format, args...)})
}

// FailGraph is like Fail but for violations not tied to a single node
// (e.g. a fixed-point iteration cap).
func FailGraph(pass string, format string, args ...interface{}) {
	panic(&PassError{Pass: pass, Msg: fmt.Sprintf(format, args...)})
}
