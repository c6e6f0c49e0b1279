// Package interproc implements the inter-procedural control-flow graph and
// whole-program constant propagation over it, using points-to results to
// see through heap loads and stores.
package interproc

import (
	"github.com/seclab/argus/callgraph"
	"github.com/seclab/argus/ir"
)

// EdgeKind labels an ICFG edge.
type EdgeKind uint8

const (
	// Normal is an intra-procedural edge not leaving a call site.
	Normal EdgeKind = iota
	// CallToReturn skips a call site to its return site inside the caller.
	CallToReturn
	// Call connects a call site to a callee entry.
	Call
	// Return connects a callee exit to a return site of a call site.
	Return
)

// Edge is a directed ICFG edge.
type Edge struct {
	kind     EdgeKind
	source   *ir.Stmt
	target   *ir.Stmt
	callSite *ir.Stmt
	callee   *ir.Method
	retVars  []*ir.Var
}

// Kind returns the edge label.
func (e *Edge) Kind() EdgeKind { return e.kind }

// Source implements dataflow.GraphEdge.
func (e *Edge) Source() *ir.Stmt { return e.source }

// Target implements dataflow.GraphEdge.
func (e *Edge) Target() *ir.Stmt { return e.target }

// CallSite returns the invoke this Call/CallToReturn/Return edge belongs
// to, nil for Normal edges.
func (e *Edge) CallSite() *ir.Stmt { return e.callSite }

// Callee returns the target method of a Call edge.
func (e *Edge) Callee() *ir.Method { return e.callee }

// ReturnVars returns the callee's return variables on a Return edge.
func (e *Edge) ReturnVars() []*ir.Var { return e.retVars }

// ICFG is the union of the reachable methods' CFGs plus call and return
// edges, rooted at the entry method.
type ICFG struct {
	cg    *callgraph.Graph
	nodes []*ir.Stmt
	entry *ir.Stmt
	exit  *ir.Stmt
	in    map[*ir.Stmt][]*Edge
	out   map[*ir.Stmt][]*Edge
}

// BuildICFG assembles the ICFG for a completed call graph.
func BuildICFG(cg *callgraph.Graph) *ICFG {
	g := &ICFG{
		cg:  cg,
		in:  make(map[*ir.Stmt][]*Edge),
		out: make(map[*ir.Stmt][]*Edge),
	}
	entryBody := cg.Entry().IR()
	g.entry = entryBody.CFG().Entry()
	g.exit = entryBody.CFG().Exit()

	for _, m := range cg.Reachable() {
		body := m.IR()
		if body == nil {
			continue
		}
		cfg := body.CFG()
		g.nodes = append(g.nodes, cfg.Nodes()...)
		for _, n := range cfg.Nodes() {
			for _, ce := range cfg.OutEdgesOf(n) {
				kind := Normal
				var site *ir.Stmt
				if n.Kind() == ir.Invoke {
					kind = CallToReturn
					site = n
				}
				g.addEdge(&Edge{kind: kind, source: n, target: ce.Target(), callSite: site})
			}
		}
	}

	for _, m := range cg.Reachable() {
		body := m.IR()
		if body == nil {
			continue
		}
		cfg := body.CFG()
		for _, s := range body.Stmts() {
			if s.Kind() != ir.Invoke {
				continue
			}
			for _, callee := range cg.CalleesOf(s) {
				calleeBody := callee.IR()
				if calleeBody == nil {
					continue
				}
				calleeCFG := calleeBody.CFG()
				g.addEdge(&Edge{
					kind:     Call,
					source:   s,
					target:   calleeCFG.Entry(),
					callSite: s,
					callee:   callee,
				})
				for _, retSite := range cfg.SuccsOf(s) {
					g.addEdge(&Edge{
						kind:     Return,
						source:   calleeCFG.Exit(),
						target:   retSite,
						callSite: s,
						retVars:  calleeBody.ReturnVars(),
					})
				}
			}
		}
	}
	return g
}

func (g *ICFG) addEdge(e *Edge) {
	g.out[e.source] = append(g.out[e.source], e)
	g.in[e.target] = append(g.in[e.target], e)
}

// Nodes implements dataflow.Graph.
func (g *ICFG) Nodes() []*ir.Stmt { return g.nodes }

// Entry implements dataflow.Graph: the entry method's CFG entry.
func (g *ICFG) Entry() *ir.Stmt { return g.entry }

// Exit implements dataflow.Graph: the entry method's CFG exit.
func (g *ICFG) Exit() *ir.Stmt { return g.exit }

// InEdgesOf implements dataflow.Graph.
func (g *ICFG) InEdgesOf(n *ir.Stmt) []*Edge { return g.in[n] }

// OutEdgesOf implements dataflow.Graph.
func (g *ICFG) OutEdgesOf(n *ir.Stmt) []*Edge { return g.out[n] }

// CallGraph returns the underlying call graph.
func (g *ICFG) CallGraph() *callgraph.Graph { return g.cg }
