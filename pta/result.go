package pta

import (
	"github.com/seclab/argus/callgraph"
	"github.com/seclab/argus/ir"
)

// Result is the completed points-to analysis: contextualized points-to
// sets, the call graph, and arbitrary keyed payloads attached by plugins
// (the taint analysis stores its flows here).
type Result struct {
	mgr      *Manager
	heap     *HeapModel
	cg       *CSCallGraph
	payloads map[string]any
}

// Vars returns the variables that received at least one contextualized
// instance during the analysis, in discovery order.
func (r *Result) Vars() []*ir.Var {
	seen := make(map[*ir.Var]bool)
	var vars []*ir.Var
	r.mgr.CSVars(func(cv *CSVar) {
		if !seen[cv.Var()] {
			seen[cv.Var()] = true
			vars = append(vars, cv.Var())
		}
	})
	return vars
}

// PointsTo returns the objects v may point to, merged over contexts.
func (r *Result) PointsTo(v *ir.Var) []*Obj {
	seen := make(map[*Obj]bool)
	var objs []*Obj
	r.mgr.CSVars(func(cv *CSVar) {
		if cv.Var() != v {
			return
		}
		for _, co := range cv.PointsToSet().Objects() {
			if !seen[co.Obj()] {
				seen[co.Obj()] = true
				objs = append(objs, co.Obj())
			}
		}
	})
	return objs
}

// PointsToCS returns the contextualized points-to set of cv.
func (r *Result) PointsToCS(cv *CSVar) []*CSObj { return cv.PointsToSet().Objects() }

// ForEachVarObj visits every (variable, object) points-to pair, contexts
// merged. The alias map of the inter-procedural propagator is built from
// this traversal.
func (r *Result) ForEachVarObj(visit func(v *ir.Var, o *Obj)) {
	type pair struct {
		v *ir.Var
		o *Obj
	}
	seen := make(map[pair]bool)
	r.mgr.CSVars(func(cv *CSVar) {
		for _, co := range cv.PointsToSet().Objects() {
			p := pair{v: cv.Var(), o: co.Obj()}
			if !seen[p] {
				seen[p] = true
				visit(p.v, p.o)
			}
		}
	})
}

// FieldPointsTo returns the objects field f of base's pointees may hold,
// merged over contexts.
func (r *Result) FieldPointsTo(base *ir.Var, f *ir.Field) []*Obj {
	seen := make(map[*Obj]bool)
	var objs []*Obj
	r.mgr.CSVars(func(cv *CSVar) {
		if cv.Var() != base {
			return
		}
		for _, co := range cv.PointsToSet().Objects() {
			fp := r.mgr.InstanceFieldOf(co, f)
			for _, held := range fp.PointsToSet().Objects() {
				if !seen[held.Obj()] {
					seen[held.Obj()] = true
					objs = append(objs, held.Obj())
				}
			}
		}
	})
	return objs
}

// ArrayPointsTo returns the objects the elements of base's pointees may
// hold, merged over contexts.
func (r *Result) ArrayPointsTo(base *ir.Var) []*Obj {
	seen := make(map[*Obj]bool)
	var objs []*Obj
	r.mgr.CSVars(func(cv *CSVar) {
		if cv.Var() != base {
			return
		}
		for _, co := range cv.PointsToSet().Objects() {
			ap := r.mgr.ArrayIndexOf(co)
			for _, held := range ap.PointsToSet().Objects() {
				if !seen[held.Obj()] {
					seen[held.Obj()] = true
					objs = append(objs, held.Obj())
				}
			}
		}
	})
	return objs
}

// CSManager returns the interning manager.
func (r *Result) CSManager() *Manager { return r.mgr }

// CallGraph returns the contextualized call graph.
func (r *Result) CallGraph() *CSCallGraph { return r.cg }

// CallGraphCI returns the context-insensitive projection of the call graph.
func (r *Result) CallGraphCI() *callgraph.Graph { return r.cg.Collapse() }

// SetPayload attaches an arbitrary keyed payload.
func (r *Result) SetPayload(key string, val any) { r.payloads[key] = val }

// Payload retrieves a keyed payload, nil if absent.
func (r *Result) Payload(key string) any { return r.payloads[key] }
