// Package callgraph defines the call graph produced by the class-hierarchy
// builder. The points-to solver keeps its own contextualized graph
// (pta.CSCallGraph) and collapses it into this form.
package callgraph

import (
	"github.com/seclab/argus/ir"
)

// Edge is a resolved call from a call site to a callee.
type Edge struct {
	Kind     ir.CallKind
	CallSite *ir.Stmt
	Callee   *ir.Method
}

type edgeKey struct {
	site   *ir.Stmt
	callee *ir.Method
}

// Graph is a call graph over methods. Edges and the reachable set only ever
// grow.
type Graph struct {
	entry     *ir.Method
	methods   []*ir.Method
	reachable map[*ir.Method]bool
	calleesOf map[*ir.Stmt][]*Edge
	callersOf map[*ir.Method][]*Edge
	edges     map[edgeKey]bool
}

// NewGraph returns an empty graph with the designated entry method.
func NewGraph(entry *ir.Method) *Graph {
	return &Graph{
		entry:     entry,
		reachable: make(map[*ir.Method]bool),
		calleesOf: make(map[*ir.Stmt][]*Edge),
		callersOf: make(map[*ir.Method][]*Edge),
		edges:     make(map[edgeKey]bool),
	}
}

// Entry returns the entry method.
func (g *Graph) Entry() *ir.Method { return g.entry }

// AddReachable marks m reachable and reports whether it was new.
func (g *Graph) AddReachable(m *ir.Method) bool {
	if g.reachable[m] {
		return false
	}
	g.reachable[m] = true
	g.methods = append(g.methods, m)
	return true
}

// Contains reports whether m is reachable.
func (g *Graph) Contains(m *ir.Method) bool { return g.reachable[m] }

// Reachable returns the reachable methods in discovery order.
func (g *Graph) Reachable() []*ir.Method { return g.methods }

// AddEdge inserts a call edge and reports whether it was new.
func (g *Graph) AddEdge(kind ir.CallKind, site *ir.Stmt, callee *ir.Method) bool {
	k := edgeKey{site: site, callee: callee}
	if g.edges[k] {
		return false
	}
	g.edges[k] = true
	e := &Edge{Kind: kind, CallSite: site, Callee: callee}
	g.calleesOf[site] = append(g.calleesOf[site], e)
	g.callersOf[callee] = append(g.callersOf[callee], e)
	return true
}

// CalleesOf returns the callees resolved at the given call site.
func (g *Graph) CalleesOf(site *ir.Stmt) []*ir.Method {
	edges := g.calleesOf[site]
	out := make([]*ir.Method, len(edges))
	for i, e := range edges {
		out[i] = e.Callee
	}
	return out
}

// CallersOf returns the edges targeting m.
func (g *Graph) CallersOf(m *ir.Method) []*Edge { return g.callersOf[m] }

// EdgesOf returns the edges leaving the given call site.
func (g *Graph) EdgesOf(site *ir.Stmt) []*Edge { return g.calleesOf[site] }

// ForEachEdge visits every edge, grouped by call site in method discovery
// order within a site.
func (g *Graph) ForEachEdge(visit func(*Edge)) {
	for _, m := range g.methods {
		body := m.IR()
		if body == nil {
			continue
		}
		for _, s := range body.Stmts() {
			for _, e := range g.calleesOf[s] {
				visit(e)
			}
		}
	}
}

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int { return len(g.edges) }
