package taint

import (
	"fmt"
	"io"
	"log"

	"github.com/seclab/argus/ir"
	"github.com/seclab/argus/pta"
)

// ID is the analysis identifier.
const ID = "taint"

// FlowsKey is the points-to result payload key under which the detected
// flows are stored.
const FlowsKey = "taint-flows"

// Flow is one detected source-to-sink flow: taint produced at Source
// reached argument Index of the call at Sink.
type Flow struct {
	Source *ir.Stmt
	Sink   *ir.Stmt
	Index  int
}

func (f Flow) String() string {
	return fmt.Sprintf("TaintFlow{%s/%d -> %s/%d arg %d}",
		f.Source.Method().Name(), f.Source.Line(),
		f.Sink.Method().Name(), f.Sink.Line(), f.Index)
}

// tag is the mock-object payload identifying a taint mark: the producing
// source call and the taint type label. Relabeling keeps the source call
// and swaps the label.
type tag struct {
	call *ir.Stmt
	typ  string
}

// ClassLookup resolves class names from the configuration against the
// loaded program. *ir.Hierarchy satisfies it.
type ClassLookup interface {
	ClassByName(name string) *ir.Class
}

// transferRule is a resolved transfer on one method.
type transferRule struct {
	from loc
	to   loc
	typ  string
}

// tfgEdge is an edge of the taint-flow graph; taint crossing it is
// relabeled to typ when typ is non-empty.
type tfgEdge struct {
	to  pta.Pointer
	typ string
}

type tfgKey struct {
	from pta.Pointer
	to   pta.Pointer
	typ  string
}

// Plugin integrates taint propagation into the points-to worklist. Register
// it on the solver before Solve.
type Plugin struct {
	solver *pta.Solver
	logger *log.Logger

	sources   map[*ir.Method]string
	sinks     map[*ir.Method][]int
	transfers map[*ir.Method][]transferRule

	tfgSuccs map[pta.Pointer][]tfgEdge
	tfgEdges map[tfgKey]bool
}

// NewPlugin resolves cfg against the program and returns the plugin.
// Methods named in the configuration but absent from the program are
// logged and skipped; a syntactically bad entry is ErrInvalidConfig.
func NewPlugin(solver *pta.Solver, cfg *Config, classes ClassLookup, logger *log.Logger) (*Plugin, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	p := &Plugin{
		solver:    solver,
		logger:    logger,
		sources:   make(map[*ir.Method]string),
		sinks:     make(map[*ir.Method][]int),
		transfers: make(map[*ir.Method][]transferRule),
		tfgSuccs:  make(map[pta.Pointer][]tfgEdge),
		tfgEdges:  make(map[tfgKey]bool),
	}
	resolve := func(sig string) (*ir.Method, error) {
		className, subsig, err := parseMethodSig(sig)
		if err != nil {
			return nil, err
		}
		cls := classes.ClassByName(className)
		if cls == nil {
			logger.Printf("taint: unknown class in config: %s", className)
			return nil, nil
		}
		m := cls.DeclaredMethod(subsig)
		if m == nil {
			logger.Printf("taint: unknown method in config: %s", sig)
		}
		return m, nil
	}
	for _, s := range cfg.Sources {
		m, err := resolve(s.Method)
		if err != nil {
			return nil, err
		}
		if m != nil {
			p.sources[m] = s.Type
		}
	}
	for _, s := range cfg.Sinks {
		m, err := resolve(s.Method)
		if err != nil {
			return nil, err
		}
		if m != nil {
			p.sinks[m] = append(p.sinks[m], s.Index)
		}
	}
	for _, t := range cfg.Transfers {
		m, err := resolve(t.Method)
		if err != nil {
			return nil, err
		}
		from, err := parseLoc(t.From)
		if err != nil {
			return nil, err
		}
		to, err := parseLoc(t.To)
		if err != nil {
			return nil, err
		}
		if m != nil {
			p.transfers[m] = append(p.transfers[m], transferRule{from: from, to: to, typ: t.Type})
		}
	}
	return p, nil
}

// isTaint reports whether co is a taint mark: a manager-issued mock object
// in the empty context.
func isTaint(co *pta.CSObj) bool {
	_, ok := co.Obj().Payload().(tag)
	return ok && co.Context().Len() == 0
}

// makeTaint interns the taint mark for (sourceCall, typ) with the given
// declared type, always in the empty context.
func (p *Plugin) makeTaint(sourceCall *ir.Stmt, typ string, declared *ir.Type) *pta.CSObj {
	mgr := p.solver.CSManager()
	obj := p.solver.Heap().MockObj(tag{call: sourceCall, typ: typ}, declared)
	return mgr.CSObjOf(mgr.EmptyContext(), obj)
}

// OnNewCallEdge implements pta.Plugin: seed source results and wire
// transfer edges.
func (p *Plugin) OnNewCallEdge(e *pta.CSEdge) {
	callee := e.Callee.Method()
	site := e.Site.Site()
	callerCtx := e.Site.Context()
	mgr := p.solver.CSManager()

	if typ, ok := p.sources[callee]; ok {
		if lhs := site.Def(); lhs != nil {
			mark := p.makeTaint(site, typ, lhs.Type())
			p.solver.AddPointsTo(mgr.CSVarOf(callerCtx, lhs), mark)
		}
	}

	for _, rule := range p.transfers[callee] {
		from := p.pointerAt(site, callerCtx, rule.from)
		to := p.pointerAt(site, callerCtx, rule.to)
		if from == nil || to == nil {
			continue
		}
		p.addTFGEdge(from, to, rule.typ)
	}
}

// pointerAt maps a transfer endpoint to the contextualized pointer at a
// call site, nil when the site has no such position.
func (p *Plugin) pointerAt(site *ir.Stmt, ctx *pta.Context, l loc) pta.Pointer {
	mgr := p.solver.CSManager()
	switch l.kind {
	case locBase:
		if base := site.Base(); base != nil {
			return mgr.CSVarOf(ctx, base)
		}
	case locResult:
		if lhs := site.Def(); lhs != nil {
			return mgr.CSVarOf(ctx, lhs)
		}
	case locArg:
		if args := site.Args(); l.arg < len(args) {
			return mgr.CSVarOf(ctx, args[l.arg])
		}
	}
	return nil
}

// addTFGEdge inserts a taint-flow edge and immediately forwards the taint
// already sitting at its source.
func (p *Plugin) addTFGEdge(from, to pta.Pointer, typ string) {
	k := tfgKey{from: from, to: to, typ: typ}
	if p.tfgEdges[k] {
		return
	}
	p.tfgEdges[k] = true
	e := tfgEdge{to: to, typ: typ}
	p.tfgSuccs[from] = append(p.tfgSuccs[from], e)
	p.forward(from.PointsToSet().Objects(), e)
}

// forward relabels taint marks across e and enqueues them at its target.
func (p *Plugin) forward(objs []*pta.CSObj, e tfgEdge) {
	for _, co := range objs {
		if !isTaint(co) {
			continue
		}
		t := co.Obj().Payload().(tag)
		typ := e.typ
		if typ == "" {
			typ = t.typ
		}
		p.solver.AddPointsTo(e.to, p.makeTaint(t.call, typ, co.Obj().Type()))
	}
}

// OnPropagate implements pta.Plugin: forward the taint subset of the delta
// through the taint-flow graph.
func (p *Plugin) OnPropagate(ptr pta.Pointer, delta *pta.PointsToSet) {
	for _, e := range p.tfgSuccs[ptr] {
		p.forward(delta.Objects(), e)
	}
}

// OnFinish implements pta.Plugin: collect source-to-sink flows and store
// them as a result payload.
func (p *Plugin) OnFinish(r *pta.Result) {
	mgr := p.solver.CSManager()
	var flows []Flow
	seen := make(map[Flow]bool)
	for _, e := range r.CallGraph().Edges() {
		indices, ok := p.sinks[e.Callee.Method()]
		if !ok {
			continue
		}
		site := e.Site.Site()
		args := site.Args()
		for _, i := range indices {
			if i >= len(args) {
				continue
			}
			arg := mgr.CSVarOf(e.Site.Context(), args[i])
			for _, co := range arg.PointsToSet().Objects() {
				if !isTaint(co) {
					continue
				}
				t := co.Obj().Payload().(tag)
				f := Flow{Source: t.call, Sink: site, Index: i}
				if !seen[f] {
					seen[f] = true
					flows = append(flows, f)
				}
			}
		}
	}
	p.logger.Printf("taint: %d flows detected", len(flows))
	r.SetPayload(FlowsKey, flows)
}

// FlowsOf extracts the detected flows from a completed points-to result.
func FlowsOf(r *pta.Result) []Flow {
	flows, _ := r.Payload(FlowsKey).([]Flow)
	return flows
}
