package ir

// CFGEdgeKind labels a control-flow edge. Dead-code detection uses the label
// to follow only the branch selected by a constant condition.
type CFGEdgeKind uint8

const (
	EdgeFall CFGEdgeKind = iota
	EdgeGoto
	EdgeIfTrue
	EdgeIfFalse
	EdgeSwitchCase
	EdgeSwitchDefault
)

// CFGEdge is a directed control-flow edge.
type CFGEdge struct {
	kind      CFGEdgeKind
	source    *Stmt
	target    *Stmt
	caseValue int32
}

// Kind returns the edge label.
func (e *CFGEdge) Kind() CFGEdgeKind { return e.kind }

// Source returns the edge source.
func (e *CFGEdge) Source() *Stmt { return e.source }

// Target returns the edge target.
func (e *CFGEdge) Target() *Stmt { return e.target }

// CaseValue returns the matched constant for EdgeSwitchCase edges.
func (e *CFGEdge) CaseValue() int32 { return e.caseValue }

// CFG is a per-method control-flow graph with synthetic entry and exit nodes.
type CFG struct {
	ir    *IR
	entry *Stmt
	exit  *Stmt
	nodes []*Stmt
	succs map[*Stmt][]*CFGEdge
	preds map[*Stmt][]*CFGEdge
}

// IR returns the owning method body.
func (g *CFG) IR() *IR { return g.ir }

// Entry returns the synthetic entry node.
func (g *CFG) Entry() *Stmt { return g.entry }

// Exit returns the synthetic exit node.
func (g *CFG) Exit() *Stmt { return g.exit }

// Nodes returns every node including entry and exit.
func (g *CFG) Nodes() []*Stmt { return g.nodes }

// OutEdgesOf returns the outgoing edges of n.
func (g *CFG) OutEdgesOf(n *Stmt) []*CFGEdge { return g.succs[n] }

// InEdgesOf returns the incoming edges of n.
func (g *CFG) InEdgesOf(n *Stmt) []*CFGEdge { return g.preds[n] }

// SuccsOf returns the successor nodes of n.
func (g *CFG) SuccsOf(n *Stmt) []*Stmt {
	edges := g.succs[n]
	out := make([]*Stmt, len(edges))
	for i, e := range edges {
		out[i] = e.target
	}
	return out
}

// PredsOf returns the predecessor nodes of n.
func (g *CFG) PredsOf(n *Stmt) []*Stmt {
	edges := g.preds[n]
	out := make([]*Stmt, len(edges))
	for i, e := range edges {
		out[i] = e.source
	}
	return out
}

func (g *CFG) addEdge(kind CFGEdgeKind, src, tgt *Stmt, caseValue int32) {
	e := &CFGEdge{kind: kind, source: src, target: tgt, caseValue: caseValue}
	g.succs[src] = append(g.succs[src], e)
	g.preds[tgt] = append(g.preds[tgt], e)
}
