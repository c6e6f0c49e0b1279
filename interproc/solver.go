package interproc

import (
	"io"
	"log"

	"github.com/seclab/argus/constprop"
	"github.com/seclab/argus/dataflow"
	"github.com/seclab/argus/ir"
	"github.com/seclab/argus/pta"
)

// ID is the analysis identifier.
const ID = "inter-constprop"

type fieldKey struct {
	obj *pta.Obj
	f   *ir.Field
}

type arrayKey struct {
	obj *pta.Obj
	idx dataflow.Value // Const or NAC, never Undef
}

// Solver runs whole-program constant propagation over the ICFG. The shared
// heap-value map lives here and nowhere else; loads read it through the
// points-to alias sets, stores meet-update it and re-enqueue dependent
// loads.
type Solver struct {
	icfg   *ICFG
	pts    *pta.Result
	logger *log.Logger

	in  map[*ir.Stmt]*dataflow.CPFact
	out map[*ir.Stmt]*dataflow.CPFact

	queue  []*ir.Stmt
	queued map[*ir.Stmt]bool

	staticVals   map[*ir.Field]dataflow.Value
	fieldVals    map[fieldKey]dataflow.Value
	arrayVals    map[arrayKey]dataflow.Value
	arrayBuckets map[*pta.Obj][]dataflow.Value

	aliases     map[*pta.Obj][]*ir.Var
	staticLoads map[*ir.Field][]*ir.Stmt
	inGraph     map[*ir.Stmt]bool
	pointsTo    map[*ir.Var][]*pta.Obj
}

// NewSolver precomputes the alias sets and the static-load index. A nil
// logger discards debug output.
func NewSolver(icfg *ICFG, pts *pta.Result, logger *log.Logger) *Solver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Solver{
		icfg:         icfg,
		pts:          pts,
		logger:       logger,
		in:           make(map[*ir.Stmt]*dataflow.CPFact),
		out:          make(map[*ir.Stmt]*dataflow.CPFact),
		queued:       make(map[*ir.Stmt]bool),
		staticVals:   make(map[*ir.Field]dataflow.Value),
		fieldVals:    make(map[fieldKey]dataflow.Value),
		arrayVals:    make(map[arrayKey]dataflow.Value),
		arrayBuckets: make(map[*pta.Obj][]dataflow.Value),
		aliases:      make(map[*pta.Obj][]*ir.Var),
		staticLoads:  make(map[*ir.Field][]*ir.Stmt),
		inGraph:      make(map[*ir.Stmt]bool),
		pointsTo:     make(map[*ir.Var][]*pta.Obj),
	}
	pts.ForEachVarObj(func(v *ir.Var, o *pta.Obj) {
		s.aliases[o] = append(s.aliases[o], v)
		s.pointsTo[v] = append(s.pointsTo[v], o)
	})
	for _, n := range icfg.Nodes() {
		s.inGraph[n] = true
		if n.Kind() == ir.LoadField && n.FieldRef().IsStatic() {
			f := n.FieldRef()
			s.staticLoads[f] = append(s.staticLoads[f], n)
		}
	}
	return s
}

// Aliases returns the variables whose points-to set contains o.
func (s *Solver) Aliases(o *pta.Obj) []*ir.Var { return s.aliases[o] }

func (s *Solver) push(n *ir.Stmt) {
	if s.queued[n] || !s.inGraph[n] {
		return
	}
	s.queued[n] = true
	s.queue = append(s.queue, n)
}

// Solve runs the set-queue worklist to fixpoint.
func (s *Solver) Solve() *dataflow.Result[*ir.Stmt, *dataflow.CPFact] {
	boundary := s.icfg.Entry()
	entryCP := constprop.NewAnalysis(s.icfg.CallGraph().Entry().IR().CFG())
	for _, n := range s.icfg.Nodes() {
		if n == boundary {
			s.in[n] = entryCP.NewBoundaryFact()
			s.out[n] = entryCP.NewBoundaryFact()
			continue
		}
		s.in[n] = dataflow.NewCPFact()
		s.out[n] = dataflow.NewCPFact()
	}
	for _, n := range s.icfg.Nodes() {
		if n != boundary {
			s.push(n)
		}
	}

	for len(s.queue) > 0 {
		n := s.queue[0]
		s.queue = s.queue[1:]
		delete(s.queued, n)

		in := s.in[n]
		for _, e := range s.icfg.InEdgesOf(n) {
			constprop.MeetInto(s.transferEdge(e, s.out[e.Source()]), in)
		}
		if s.transferNode(n, in, s.out[n]) {
			for _, e := range s.icfg.OutEdgesOf(n) {
				if e.Target() != boundary {
					s.push(e.Target())
				}
			}
		}
	}
	return dataflow.NewResult(s.in, s.out)
}

// transferEdge applies the four ICFG edge transfers.
func (s *Solver) transferEdge(e *Edge, out *dataflow.CPFact) *dataflow.CPFact {
	switch e.Kind() {
	case Normal:
		return out.Copy()
	case CallToReturn:
		f := out.Copy()
		if lhs := e.CallSite().Def(); lhs != nil {
			f.Remove(lhs)
		}
		return f
	case Call:
		f := dataflow.NewCPFact()
		args := e.CallSite().Args()
		for i, p := range e.Callee().IR().Params() {
			if i < len(args) && constprop.CanHoldInt(p) {
				f.Update(p, out.Get(args[i]))
			}
		}
		return f
	default: // Return
		f := dataflow.NewCPFact()
		if lhs := e.CallSite().Def(); lhs != nil && constprop.CanHoldInt(lhs) {
			v := dataflow.Undef
			for _, rv := range e.ReturnVars() {
				v = dataflow.MeetValue(v, out.Get(rv))
			}
			f.Update(lhs, v)
		}
		return f
	}
}

// transferNode dispatches on the node kind. Call sites are identity; the
// kill of their lhs is on the CallToReturn edge.
func (s *Solver) transferNode(n *ir.Stmt, in, out *dataflow.CPFact) bool {
	if n.Kind() == ir.Invoke {
		return out.CopyFrom(in)
	}
	return s.transferNonCall(n, in, out)
}

func (s *Solver) transferNonCall(n *ir.Stmt, in, out *dataflow.CPFact) bool {
	switch n.Kind() {
	case ir.LoadField:
		if def := n.Def(); constprop.CanHoldInt(def) {
			tmp := in.Copy()
			tmp.Update(def, s.loadFieldValue(n))
			return out.CopyFrom(tmp)
		}
	case ir.LoadArray:
		if def := n.Def(); constprop.CanHoldInt(def) {
			tmp := in.Copy()
			tmp.Update(def, s.loadArrayValue(n, in))
			return out.CopyFrom(tmp)
		}
	case ir.StoreField:
		s.processStoreField(n, in)
	case ir.StoreArray:
		s.processStoreArray(n, in)
	}
	return constprop.TransferAssign(n, in, out)
}

// loadFieldValue reads the heap-value map for x = base.f or x = C.f.
func (s *Solver) loadFieldValue(n *ir.Stmt) dataflow.Value {
	f := n.FieldRef()
	if f.IsStatic() {
		return s.staticVals[f]
	}
	v := dataflow.Undef
	for _, obj := range s.pointsTo[n.Base()] {
		v = dataflow.MeetValue(v, s.fieldVals[fieldKey{obj: obj, f: f}])
	}
	return v
}

// loadArrayValue reads every compatible index bucket: the same constant
// plus the NAC bucket, or all buckets when the load index is NAC. An Undef
// index means the load is on an unreachable path and sees nothing.
func (s *Solver) loadArrayValue(n *ir.Stmt, in *dataflow.CPFact) dataflow.Value {
	iL := in.Get(n.ArrayIndex())
	if iL.IsUndef() {
		return dataflow.Undef
	}
	v := dataflow.Undef
	for _, obj := range s.pointsTo[n.Base()] {
		if iL.IsNAC() {
			for _, idx := range s.arrayBuckets[obj] {
				v = dataflow.MeetValue(v, s.arrayVals[arrayKey{obj: obj, idx: idx}])
			}
			continue
		}
		v = dataflow.MeetValue(v, s.arrayVals[arrayKey{obj: obj, idx: iL}])
		v = dataflow.MeetValue(v, s.arrayVals[arrayKey{obj: obj, idx: dataflow.NAC}])
	}
	return v
}

// processStoreField meet-updates the field buckets and re-enqueues the
// loads that can observe them.
func (s *Solver) processStoreField(n *ir.Stmt, in *dataflow.CPFact) {
	y := n.Src()
	if !constprop.CanHoldInt(y) {
		return
	}
	v := in.Get(y)
	f := n.FieldRef()
	if f.IsStatic() {
		merged := dataflow.MeetValue(s.staticVals[f], v)
		if merged != s.staticVals[f] {
			s.staticVals[f] = merged
			for _, ld := range s.staticLoads[f] {
				s.push(ld)
			}
		}
		return
	}
	for _, obj := range s.pointsTo[n.Base()] {
		k := fieldKey{obj: obj, f: f}
		merged := dataflow.MeetValue(s.fieldVals[k], v)
		if merged == s.fieldVals[k] {
			continue
		}
		s.fieldVals[k] = merged
		for _, alias := range s.aliases[obj] {
			for _, ld := range alias.LoadFields() {
				if ld.FieldRef() == f {
					s.push(ld)
				}
			}
		}
	}
}

// processStoreArray meet-updates the (obj, index) bucket. Undef indexes
// never write: the store is on an unreachable path.
func (s *Solver) processStoreArray(n *ir.Stmt, in *dataflow.CPFact) {
	y := n.Src()
	if !constprop.CanHoldInt(y) {
		return
	}
	iS := in.Get(n.ArrayIndex())
	if iS.IsUndef() {
		return
	}
	v := in.Get(y)
	for _, obj := range s.pointsTo[n.Base()] {
		k := arrayKey{obj: obj, idx: iS}
		old, present := s.arrayVals[k]
		merged := dataflow.MeetValue(old, v)
		if present && merged == old {
			continue
		}
		if !present {
			s.arrayBuckets[obj] = append(s.arrayBuckets[obj], iS)
		}
		s.arrayVals[k] = merged
		for _, alias := range s.aliases[obj] {
			for _, ld := range alias.LoadArrays() {
				s.push(ld)
			}
		}
	}
}
