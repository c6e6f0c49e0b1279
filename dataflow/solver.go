package dataflow

// GraphEdge is a directed edge of a solvable graph.
type GraphEdge[Node any] interface {
	Source() Node
	Target() Node
}

// Graph is the shape the worklist solver needs: a finite node set with a
// distinguished entry and exit and per-node edge lists. ir.CFG satisfies it
// with Node = *ir.Stmt; the inter-procedural CFG satisfies it across
// methods.
type Graph[Node comparable, Edge GraphEdge[Node]] interface {
	Nodes() []Node
	Entry() Node
	Exit() Node
	InEdgesOf(Node) []Edge
	OutEdgesOf(Node) []Edge
}

// Analysis is the capability set a dataflow problem supplies to the solver.
type Analysis[Node comparable, Edge GraphEdge[Node], Fact any] interface {
	// IsForward reports the analysis direction.
	IsForward() bool
	// NewBoundaryFact returns the fact for the boundary node.
	NewBoundaryFact() Fact
	// NewInitialFact returns the fact every other node starts with.
	NewInitialFact() Fact
	// MeetInto merges src into into, mutating into.
	MeetInto(src, into Fact)
	// TransferNode recomputes out from in (or in from out, backward) and
	// reports whether the output fact changed.
	TransferNode(node Node, in, out Fact) bool
	// NeedTransferEdge reports whether e carries a non-identity transfer.
	NeedTransferEdge(e Edge) bool
	// TransferEdge applies e's transfer to the fact flowing along it.
	TransferEdge(e Edge, out Fact) Fact
}

// Result holds the per-node in and out facts of a completed analysis.
type Result[Node comparable, Fact any] struct {
	in  map[Node]Fact
	out map[Node]Fact
}

// NewResult wraps precomputed fact maps; solvers outside this package (the
// inter-procedural propagator owns its own worklist) publish their facts
// through it.
func NewResult[Node comparable, Fact any](in, out map[Node]Fact) *Result[Node, Fact] {
	return &Result[Node, Fact]{in: in, out: out}
}

// InFact returns the fact at n's entry.
func (r *Result[Node, Fact]) InFact(n Node) Fact { return r.in[n] }

// OutFact returns the fact at n's exit.
func (r *Result[Node, Fact]) OutFact(n Node) Fact { return r.out[n] }

// Solve runs the worklist algorithm to fixpoint and returns the facts.
// Termination follows from the finite ascending-chain property of the fact
// lattice and monotone transfers; visiting order does not affect the result.
func Solve[Node comparable, Edge GraphEdge[Node], Fact any](
	g Graph[Node, Edge],
	a Analysis[Node, Edge, Fact],
) *Result[Node, Fact] {
	r := &Result[Node, Fact]{
		in:  make(map[Node]Fact),
		out: make(map[Node]Fact),
	}
	boundary := g.Entry()
	if !a.IsForward() {
		boundary = g.Exit()
	}
	for _, n := range g.Nodes() {
		if n == boundary {
			// Two independent copies: the boundary's output is seeded with
			// the boundary fact and never recomputed.
			r.in[n] = a.NewBoundaryFact()
			r.out[n] = a.NewBoundaryFact()
			continue
		}
		r.in[n] = a.NewInitialFact()
		r.out[n] = a.NewInitialFact()
	}

	wl := newWorklist[Node]()
	for _, n := range g.Nodes() {
		if n != boundary {
			wl.push(n)
		}
	}

	for !wl.empty() {
		n := wl.pop()
		in, out := r.in[n], r.out[n]
		if !a.IsForward() {
			in, out = out, in
		}
		for _, e := range inEdges(g, a, n) {
			src := sourceOut(r, a, e)
			if a.NeedTransferEdge(e) {
				src = a.TransferEdge(e, src)
			}
			a.MeetInto(src, in)
		}
		if a.TransferNode(n, in, out) {
			for _, e := range outEdges(g, a, n) {
				tgt := e.Target()
				if !a.IsForward() {
					tgt = e.Source()
				}
				if tgt != boundary {
					wl.push(tgt)
				}
			}
		}
	}
	return r
}

func inEdges[Node comparable, Edge GraphEdge[Node], Fact any](
	g Graph[Node, Edge], a Analysis[Node, Edge, Fact], n Node,
) []Edge {
	if a.IsForward() {
		return g.InEdgesOf(n)
	}
	return g.OutEdgesOf(n)
}

func outEdges[Node comparable, Edge GraphEdge[Node], Fact any](
	g Graph[Node, Edge], a Analysis[Node, Edge, Fact], n Node,
) []Edge {
	if a.IsForward() {
		return g.OutEdgesOf(n)
	}
	return g.InEdgesOf(n)
}

func sourceOut[Node comparable, Fact any, Edge GraphEdge[Node]](
	r *Result[Node, Fact], a Analysis[Node, Edge, Fact], e Edge,
) Fact {
	if a.IsForward() {
		return r.out[e.Source()]
	}
	return r.in[e.Target()]
}

// worklist is a FIFO queue backed by a membership set so a node is enqueued
// at most once at a time.
type worklist[T comparable] struct {
	queue  []T
	queued map[T]bool
}

func newWorklist[T comparable]() *worklist[T] {
	return &worklist[T]{queued: make(map[T]bool)}
}

func (w *worklist[T]) push(n T) {
	if w.queued[n] {
		return
	}
	w.queued[n] = true
	w.queue = append(w.queue, n)
}

func (w *worklist[T]) pop() T {
	n := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.queued, n)
	return n
}

func (w *worklist[T]) empty() bool { return len(w.queue) == 0 }
