package pta

import (
	"github.com/seclab/argus/callgraph"
	"github.com/seclab/argus/ir"
)

// CSEdge is a resolved call edge between contextualized entities.
type CSEdge struct {
	Kind   ir.CallKind
	Site   *CSCallSite
	Callee *CSMethod
}

type csEdgeKey struct {
	site   *CSCallSite
	callee *CSMethod
}

// CSCallGraph is the contextualized call graph built on the fly by the
// solver.
type CSCallGraph struct {
	entry     *CSMethod
	methods   []*CSMethod
	reachable map[*CSMethod]bool
	edges     map[csEdgeKey]bool
	edgeList  []*CSEdge
	calleesOf map[*CSCallSite][]*CSEdge
	callersOf map[*CSMethod][]*CSEdge
}

// NewCSCallGraph returns an empty graph rooted at entry.
func NewCSCallGraph(entry *CSMethod) *CSCallGraph {
	return &CSCallGraph{
		entry:     entry,
		reachable: make(map[*CSMethod]bool),
		edges:     make(map[csEdgeKey]bool),
		calleesOf: make(map[*CSCallSite][]*CSEdge),
		callersOf: make(map[*CSMethod][]*CSEdge),
	}
}

// Entry returns the contextualized entry method.
func (g *CSCallGraph) Entry() *CSMethod { return g.entry }

// AddReachable marks m reachable, reporting whether it was new.
func (g *CSCallGraph) AddReachable(m *CSMethod) bool {
	if g.reachable[m] {
		return false
	}
	g.reachable[m] = true
	g.methods = append(g.methods, m)
	return true
}

// Contains reports whether m is reachable.
func (g *CSCallGraph) Contains(m *CSMethod) bool { return g.reachable[m] }

// Reachable returns the reachable contextualized methods in discovery order.
func (g *CSCallGraph) Reachable() []*CSMethod { return g.methods }

// AddEdge inserts e, reporting whether it was new.
func (g *CSCallGraph) AddEdge(e *CSEdge) bool {
	k := csEdgeKey{site: e.Site, callee: e.Callee}
	if g.edges[k] {
		return false
	}
	g.edges[k] = true
	g.edgeList = append(g.edgeList, e)
	g.calleesOf[e.Site] = append(g.calleesOf[e.Site], e)
	g.callersOf[e.Callee] = append(g.callersOf[e.Callee], e)
	return true
}

// Edges returns every edge in insertion order.
func (g *CSCallGraph) Edges() []*CSEdge { return g.edgeList }

// EdgesOf returns the edges leaving site.
func (g *CSCallGraph) EdgesOf(site *CSCallSite) []*CSEdge { return g.calleesOf[site] }

// CallersOf returns the edges into m.
func (g *CSCallGraph) CallersOf(m *CSMethod) []*CSEdge { return g.callersOf[m] }

// NumEdges returns the edge count.
func (g *CSCallGraph) NumEdges() int { return len(g.edgeList) }

// Collapse projects the contextualized graph onto plain methods and call
// sites, the view consumed by the inter-procedural propagator.
func (g *CSCallGraph) Collapse() *callgraph.Graph {
	out := callgraph.NewGraph(g.entry.Method())
	for _, m := range g.methods {
		out.AddReachable(m.Method())
	}
	for _, e := range g.edgeList {
		out.AddEdge(e.Kind, e.Site.Site(), e.Callee.Method())
	}
	return out
}
