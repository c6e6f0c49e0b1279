package pta

import (
	"io"
	"log"

	"github.com/seclab/argus/callgraph"
	"github.com/seclab/argus/ir"
)

// ID is the analysis identifier.
const ID = "pta"

// Solver is the Andersen-style points-to solver. Context sensitivity is
// entirely in the selector: the ci policy yields the context-insensitive
// analysis, every other policy contextualizes methods and the heap.
//
// The solver is single-threaded; all mutation of points-to sets, the
// pointer-flow graph and the call graph happens inside Solve.
type Solver struct {
	hierarchy ir.ClassHierarchy
	selector  ContextSelector
	mgr       *Manager
	heap      *HeapModel
	cg        *CSCallGraph
	logger    *log.Logger
	plugins   []Plugin

	// Pointer-flow graph: adjacency by pointer id.
	succs   [][]Pointer
	edgeSet map[[2]int]bool

	// Worklist collapsing entries per pointer by merging deltas.
	queue   []Pointer
	pending map[Pointer]*PointsToSet
}

// NewSolver creates a solver with the given context policy id (see
// SelectorByID). A nil logger discards debug output.
func NewSolver(h ir.ClassHierarchy, policy string, logger *log.Logger) (*Solver, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	mgr := NewManager()
	selector, err := SelectorByID(policy, mgr)
	if err != nil {
		return nil, err
	}
	return &Solver{
		hierarchy: h,
		selector:  selector,
		mgr:       mgr,
		heap:      NewHeapModel(),
		logger:    logger,
		edgeSet:   make(map[[2]int]bool),
		pending:   make(map[Pointer]*PointsToSet),
	}, nil
}

// AddPlugin registers a plugin before Solve.
func (s *Solver) AddPlugin(p Plugin) { s.plugins = append(s.plugins, p) }

// CSManager returns the interning manager, for plugins.
func (s *Solver) CSManager() *Manager { return s.mgr }

// Heap returns the heap model, for plugins.
func (s *Solver) Heap() *HeapModel { return s.heap }

// Hierarchy returns the class hierarchy oracle.
func (s *Solver) Hierarchy() ir.ClassHierarchy { return s.hierarchy }

// Solve runs the analysis from entry to fixpoint.
func (s *Solver) Solve(entry *ir.Method) *Result {
	csEntry := s.mgr.CSMethodOf(s.mgr.EmptyContext(), entry)
	s.cg = NewCSCallGraph(csEntry)
	s.addReachable(csEntry)

	for len(s.queue) > 0 {
		p := s.queue[0]
		s.queue = s.queue[1:]
		pts := s.pending[p]
		delete(s.pending, p)

		delta := s.propagate(p, pts)
		if delta.IsEmpty() {
			continue
		}
		if cv, ok := p.(*CSVar); ok {
			for _, obj := range delta.Objects() {
				s.processInstanceAccess(cv, obj)
				s.processCall(cv, obj)
			}
		}
	}

	r := &Result{
		mgr:      s.mgr,
		heap:     s.heap,
		cg:       s.cg,
		payloads: make(map[string]any),
	}
	for _, p := range s.plugins {
		p.OnFinish(r)
	}
	return r
}

// AddPointsTo enqueues objs for p. Exported for plugins seeding taint
// objects.
func (s *Solver) AddPointsTo(p Pointer, objs ...*CSObj) {
	pend, ok := s.pending[p]
	if !ok {
		pend = NewPointsToSet()
		s.pending[p] = pend
		s.queue = append(s.queue, p)
	}
	for _, o := range objs {
		pend.Add(o)
	}
}

func (s *Solver) addPointsToSet(p Pointer, pts *PointsToSet) {
	s.AddPointsTo(p, pts.Objects()...)
}

// AddPFGEdge adds src → dst to the pointer-flow graph and floods dst with
// src's current points-to set. Exported for plugins wiring transfer edges.
func (s *Solver) AddPFGEdge(src, dst Pointer) {
	k := [2]int{src.ID(), dst.ID()}
	if s.edgeSet[k] {
		return
	}
	s.edgeSet[k] = true
	for len(s.succs) <= src.ID() {
		s.succs = append(s.succs, nil)
	}
	s.succs[src.ID()] = append(s.succs[src.ID()], dst)
	if !src.PointsToSet().IsEmpty() {
		s.addPointsToSet(dst, src.PointsToSet())
	}
}

func (s *Solver) succsOf(p Pointer) []Pointer {
	if p.ID() < len(s.succs) {
		return s.succs[p.ID()]
	}
	return nil
}

// propagate commits pts into pt(p) and floods the delta to PFG successors.
func (s *Solver) propagate(p Pointer, pts *PointsToSet) *PointsToSet {
	delta := p.PointsToSet().AddAll(pts)
	if delta.IsEmpty() {
		return delta
	}
	for _, plugin := range s.plugins {
		plugin.OnPropagate(p, delta)
	}
	for _, succ := range s.succsOf(p) {
		s.addPointsToSet(succ, delta)
	}
	return delta
}

// addReachable makes csm reachable and processes each of its statements
// exactly once per contextualized method.
func (s *Solver) addReachable(csm *CSMethod) {
	if !s.cg.AddReachable(csm) {
		return
	}
	body := csm.Method().IR()
	if body == nil {
		s.logger.Printf("pta: no IR for %s", csm)
		return
	}
	ctx := csm.Context()
	for _, st := range body.Stmts() {
		switch st.Kind() {
		case ir.New:
			obj := s.heap.ObjAt(st)
			hctx := s.selector.SelectHeap(csm, obj)
			csObj := s.mgr.CSObjOf(hctx, obj)
			s.AddPointsTo(s.mgr.CSVarOf(ctx, st.Def()), csObj)
		case ir.Copy:
			s.AddPFGEdge(s.mgr.CSVarOf(ctx, st.Src()), s.mgr.CSVarOf(ctx, st.Def()))
		case ir.LoadField:
			if st.FieldRef().IsStatic() {
				s.AddPFGEdge(s.mgr.StaticFieldOf(st.FieldRef()), s.mgr.CSVarOf(ctx, st.Def()))
			}
		case ir.StoreField:
			if st.FieldRef().IsStatic() {
				s.AddPFGEdge(s.mgr.CSVarOf(ctx, st.Src()), s.mgr.StaticFieldOf(st.FieldRef()))
			}
		case ir.Invoke:
			if st.IsStaticCall() {
				s.processStaticCall(csm, st)
			}
		}
	}
}

func (s *Solver) processStaticCall(csm *CSMethod, site *ir.Stmt) {
	ref := site.Callee()
	callee := ref.Class().DeclaredMethod(ref.Subsignature())
	if callee == nil {
		s.logger.Printf("pta: unresolved static call %s", ref)
		return
	}
	csSite := s.mgr.CSCallSiteOf(csm, site)
	ctx := s.selector.SelectCall(csSite, callee)
	s.addCallEdge(&CSEdge{Kind: ir.CallStatic, Site: csSite, Callee: s.mgr.CSMethodOf(ctx, callee)})
}

// processCall resolves the instance calls on recv against a newly arrived
// receiver object.
func (s *Solver) processCall(recv *CSVar, recvObj *CSObj) {
	for _, site := range recv.Var().Invokes() {
		callee := s.resolveInstance(site, recvObj)
		if callee == nil {
			s.logger.Printf("pta: unresolved %s call %s on %s", site.CallKind(), site.Callee(), recvObj)
			continue
		}
		container := s.mgr.CSMethodOf(recv.Context(), site.Method())
		csSite := s.mgr.CSCallSiteOf(container, site)
		ctx := s.selector.SelectReceiver(csSite, recvObj, callee)
		csCallee := s.mgr.CSMethodOf(ctx, callee)
		if body := callee.IR(); body != nil && body.This() != nil {
			s.AddPointsTo(s.mgr.CSVarOf(ctx, body.This()), recvObj)
		}
		s.addCallEdge(&CSEdge{Kind: site.CallKind(), Site: csSite, Callee: csCallee})
	}
}

func (s *Solver) resolveInstance(site *ir.Stmt, recvObj *CSObj) *ir.Method {
	ref := site.Callee()
	switch site.CallKind() {
	case ir.CallSpecial:
		return callgraph.Dispatch(ref.Class(), ref.Subsignature())
	case ir.CallVirtual, ir.CallInterface:
		cls := recvObj.Obj().Type().Class()
		if cls == nil {
			return nil
		}
		return callgraph.Dispatch(cls, ref.Subsignature())
	default:
		return nil
	}
}

// addCallEdge inserts the edge; on a new edge it notifies plugins, makes the
// callee reachable and wires arguments and returns.
func (s *Solver) addCallEdge(e *CSEdge) {
	if !s.cg.AddEdge(e) {
		return
	}
	for _, plugin := range s.plugins {
		plugin.OnNewCallEdge(e)
	}
	s.addReachable(e.Callee)

	body := e.Callee.Method().IR()
	if body == nil {
		return
	}
	site := e.Site.Site()
	callerCtx := e.Site.Context()
	calleeCtx := e.Callee.Context()
	params := body.Params()
	for i, arg := range site.Args() {
		if i < len(params) {
			s.AddPFGEdge(s.mgr.CSVarOf(callerCtx, arg), s.mgr.CSVarOf(calleeCtx, params[i]))
		}
	}
	if lhs := site.Def(); lhs != nil {
		for _, ret := range body.ReturnVars() {
			s.AddPFGEdge(s.mgr.CSVarOf(calleeCtx, ret), s.mgr.CSVarOf(callerCtx, lhs))
		}
	}
}

// processInstanceAccess wires the field and array accesses of recv's method
// against a newly arrived base object.
func (s *Solver) processInstanceAccess(recv *CSVar, baseObj *CSObj) {
	ctx := recv.Context()
	v := recv.Var()
	for _, st := range v.StoreFields() {
		s.AddPFGEdge(s.mgr.CSVarOf(ctx, st.Src()), s.mgr.InstanceFieldOf(baseObj, st.FieldRef()))
	}
	for _, ld := range v.LoadFields() {
		s.AddPFGEdge(s.mgr.InstanceFieldOf(baseObj, ld.FieldRef()), s.mgr.CSVarOf(ctx, ld.Def()))
	}
	for _, st := range v.StoreArrays() {
		s.AddPFGEdge(s.mgr.CSVarOf(ctx, st.Src()), s.mgr.ArrayIndexOf(baseObj))
	}
	for _, ld := range v.LoadArrays() {
		s.AddPFGEdge(s.mgr.ArrayIndexOf(baseObj), s.mgr.CSVarOf(ctx, ld.Def()))
	}
}
