package ir

// Loop describes one strongly-connected region of the graph in the
// vocabulary of https://llvm.org/docs/LoopTerminology.html: Entering
// edges arrive from outside the loop into a Header; Exiting edges leave
// loop Members for a node outside the loop (Exit); Latches are the
// in-loop predecessors of a Header, i.e. the back edges.
type Loop struct {
	Entering []NodeID
	Exit     []NodeID
	Header   []NodeID
	Exiting  []NodeID
	Latches  []NodeID
	Members  []NodeID
}

// NaturalLoops finds every strongly-connected component of g with more
// than one member and reports it as a Loop. A member is a Header when it
// has a predecessor outside the component or is the graph's entry. It is
// a read-only analysis, not a transform: lower's tests use it to check
// that both loops of a nested-loop graph lie in a strongly-connected
// region, independently of LowerToFSM itself.
//
// SCCs are found with Tarjan's algorithm rather than a dependency, since
// verifying the exact API of an unfamiliar third-party graph library
// without network access risks getting it wrong; this is a well-known,
// small algorithm better hand-written here than guessed at.
func NaturalLoops(g *Graph) []Loop {
	sccs := tarjanSCC(g)

	var loops []Loop
	for _, scc := range sccs {
		if len(scc) <= 1 {
			continue
		}
		inSCC := make(map[NodeID]bool, len(scc))
		for _, n := range scc {
			inSCC[n] = true
		}

		var entering, header, exit, exiting, latches []NodeID
		for _, n := range scc {
			if n == g.entry {
				// Control enters the graph here, so the entry heads its
				// loop even without an outside predecessor.
				header = append(header, n)
			}
			for _, p := range g.Preds(n) {
				if !inSCC[p] {
					header = append(header, n)
					entering = append(entering, p)
				}
			}
			for _, s := range g.Succs(n) {
				if !inSCC[s] {
					exit = append(exit, s)
					exiting = append(exiting, n)
				}
			}
		}
		for _, h := range header {
			for _, p := range g.Preds(h) {
				if inSCC[p] {
					latches = append(latches, p)
				}
			}
		}
		loops = append(loops, Loop{
			Entering: entering,
			Exit:     exit,
			Header:   header,
			Exiting:  exiting,
			Latches:  latches,
			Members:  scc,
		})
	}
	return loops
}

// tarjanSCC returns the strongly-connected components of g, each as a
// slice of NodeIDs, in no particular order.
func tarjanSCC(g *Graph) [][]NodeID {
	var (
		index   = 0
		stack   []NodeID
		onStack = map[NodeID]bool{}
		indices = map[NodeID]int{}
		lowlink = map[NodeID]int{}
		sccs    [][]NodeID
	)

	var strongconnect func(v NodeID)
	strongconnect = func(v NodeID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Succs(v) {
			if _, visited := indices[w]; !visited {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []NodeID
			for {
				n := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[n] = false
				scc = append(scc, n)
				if n == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, id := range g.Nodes() {
		if _, visited := indices[id]; !visited {
			strongconnect(id)
		}
	}
	return sccs
}
