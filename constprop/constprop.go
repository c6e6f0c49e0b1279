// Package constprop implements intra-procedural integer constant propagation
// on the three-point lattice of package dataflow.
package constprop

import (
	"fmt"

	"github.com/seclab/argus/dataflow"
	"github.com/seclab/argus/ir"
)

// ID is the analysis identifier.
const ID = "constprop"

// CanHoldInt reports whether v's declared type is tracked by the lattice:
// byte, short, int, char or boolean.
func CanHoldInt(v *ir.Var) bool { return v.Type().IsIntLike() }

// Evaluate computes the abstract value of exp under the fact in.
func Evaluate(exp ir.Exp, in *dataflow.CPFact) dataflow.Value {
	switch e := exp.(type) {
	case *ir.Var:
		return in.Get(e)
	case ir.IntLiteral:
		return dataflow.ConstOf(int32(e))
	case *ir.Binary:
		a, b := in.Get(e.L), in.Get(e.R)
		// Division and remainder by a known zero are unreachable in any
		// concrete run, so the join contributes nothing: Undef even when
		// the dividend is NAC.
		if (e.Op == ir.Div || e.Op == ir.Rem) && b.IsConstant() && b.Const() == 0 {
			return dataflow.Undef
		}
		if a.IsNAC() || b.IsNAC() {
			return dataflow.NAC
		}
		if a.IsUndef() || b.IsUndef() {
			return dataflow.Undef
		}
		return dataflow.ConstOf(apply(e.Op, a.Const(), b.Const()))
	default:
		panic(fmt.Sprintf("constprop: unexpected expression %T", exp))
	}
}

// apply performs the concrete operation with wrapping 32-bit signed
// arithmetic. Shift counts are masked to the low five bits; comparisons
// yield 0 or 1.
func apply(op ir.BinaryOp, a, b int32) int32 {
	switch op {
	case ir.Add:
		return a + b
	case ir.Sub:
		return a - b
	case ir.Mul:
		return a * b
	case ir.Div:
		return a / b
	case ir.Rem:
		return a % b
	case ir.And:
		return a & b
	case ir.Or:
		return a | b
	case ir.Xor:
		return a ^ b
	case ir.Shl:
		return a << (uint32(b) & 31)
	case ir.Shr:
		return a >> (uint32(b) & 31)
	case ir.UShr:
		return int32(uint32(a) >> (uint32(b) & 31))
	case ir.Eq:
		return b2i(a == b)
	case ir.Ne:
		return b2i(a != b)
	case ir.Lt:
		return b2i(a < b)
	case ir.Gt:
		return b2i(a > b)
	case ir.Le:
		return b2i(a <= b)
	case ir.Ge:
		return b2i(a >= b)
	}
	panic(fmt.Sprintf("constprop: unexpected operator %d", op))
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Analysis is the forward constant-propagation problem for one method.
type Analysis struct {
	cfg *ir.CFG
}

// NewAnalysis returns the problem over cfg.
func NewAnalysis(cfg *ir.CFG) *Analysis { return &Analysis{cfg: cfg} }

// IsForward implements dataflow.Analysis.
func (*Analysis) IsForward() bool { return true }

// NewBoundaryFact implements dataflow.Analysis: every int-holding parameter
// starts at NAC.
func (a *Analysis) NewBoundaryFact() *dataflow.CPFact {
	fact := dataflow.NewCPFact()
	for _, p := range a.cfg.IR().Params() {
		if CanHoldInt(p) {
			fact.Update(p, dataflow.NAC)
		}
	}
	return fact
}

// NewInitialFact implements dataflow.Analysis.
func (*Analysis) NewInitialFact() *dataflow.CPFact { return dataflow.NewCPFact() }

// MeetInto implements dataflow.Analysis.
func (*Analysis) MeetInto(src, into *dataflow.CPFact) { MeetInto(src, into) }

// MeetInto merges src into into variable by variable. Shared with the
// inter-procedural propagator.
func MeetInto(src, into *dataflow.CPFact) {
	src.ForEach(func(v *ir.Var, val dataflow.Value) {
		into.Update(v, dataflow.MeetValue(val, into.Get(v)))
	})
}

// TransferNode implements dataflow.Analysis.
func (*Analysis) TransferNode(s *ir.Stmt, in, out *dataflow.CPFact) bool {
	return TransferAssign(s, in, out)
}

// TransferAssign applies the assignment transfer shared with the
// inter-procedural propagator: gen the evaluated rhs for int-holding
// definitions, kill non-int definitions, identity otherwise.
func TransferAssign(s *ir.Stmt, in, out *dataflow.CPFact) bool {
	tmp := in.Copy()
	if def := s.Def(); def != nil {
		switch s.Kind() {
		case ir.Assign, ir.Copy:
			if CanHoldInt(def) {
				tmp.Update(def, Evaluate(s.RHS(), in))
			} else {
				tmp.Remove(def)
			}
		default:
			// Loads, news and invokes define values the intra-procedural
			// analysis cannot see through.
			if CanHoldInt(def) {
				tmp.Update(def, dataflow.NAC)
			} else {
				tmp.Remove(def)
			}
		}
	}
	return out.CopyFrom(tmp)
}

// NeedTransferEdge implements dataflow.Analysis.
func (*Analysis) NeedTransferEdge(*ir.CFGEdge) bool { return false }

// TransferEdge implements dataflow.Analysis.
func (*Analysis) TransferEdge(_ *ir.CFGEdge, out *dataflow.CPFact) *dataflow.CPFact { return out }

// Solve runs the analysis over cfg.
func Solve(cfg *ir.CFG) *dataflow.Result[*ir.Stmt, *dataflow.CPFact] {
	return dataflow.Solve[*ir.Stmt, *ir.CFGEdge, *dataflow.CPFact](cfg, NewAnalysis(cfg))
}
