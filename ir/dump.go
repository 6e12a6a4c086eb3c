package ir

import (
	"fmt"
	"io"
)

// WriteTo renders a human-readable disassembly of g: for each node, a
// line giving its NodeID and predecessor/successor counts, a line with
// its String(), and one line per outgoing edge. It
// exists for debugging pass output, not as a stable serialization
// format.
func (g *Graph) WriteTo(w io.Writer) (int64, error) {
	var n int64
	write := func(format string, args ...interface{}) {
		written, _ := fmt.Fprintf(w, format, args...)
		n += int64(written)
	}

	write("# Graph: %s\n", g.Name)
	for _, id := range g.Nodes() {
		marker := ""
		if id == g.entry {
			marker = " (entry)"
		}
		write("%d:%s P:%d S:%d\n", id, marker, len(g.preds[id]), len(g.succs[id]))
		write("\t%s\n", g.Node(id))
		for _, se := range g.succs[id] {
			if se.Label == None {
				write("\t-> %d\n", se.To)
			} else {
				write("\t-> %d [%s]\n", se.To, se.Label)
			}
		}
	}
	return n, nil
}
