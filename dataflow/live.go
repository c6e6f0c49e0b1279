package dataflow

import "github.com/seclab/argus/ir"

// VarSet is a set-valued fact over variables.
type VarSet struct {
	m map[*ir.Var]struct{}
}

// NewVarSet returns an empty set fact.
func NewVarSet() *VarSet { return &VarSet{m: make(map[*ir.Var]struct{})} }

// Add inserts v and reports whether the set grew.
func (s *VarSet) Add(v *ir.Var) bool {
	if _, ok := s.m[v]; ok {
		return false
	}
	s.m[v] = struct{}{}
	return true
}

// Remove drops v.
func (s *VarSet) Remove(v *ir.Var) { delete(s.m, v) }

// Contains reports membership.
func (s *VarSet) Contains(v *ir.Var) bool {
	_, ok := s.m[v]
	return ok
}

// Union merges other into s and reports whether s grew.
func (s *VarSet) Union(other *VarSet) bool {
	grew := false
	for v := range other.m {
		if s.Add(v) {
			grew = true
		}
	}
	return grew
}

// Copy returns an independent copy.
func (s *VarSet) Copy() *VarSet {
	c := NewVarSet()
	for v := range s.m {
		c.m[v] = struct{}{}
	}
	return c
}

// Equals reports structural equality.
func (s *VarSet) Equals(other *VarSet) bool {
	if len(s.m) != len(other.m) {
		return false
	}
	for v := range s.m {
		if _, ok := other.m[v]; !ok {
			return false
		}
	}
	return true
}

// Len returns the set size.
func (s *VarSet) Len() int { return len(s.m) }

// LiveVars is the backward live-variable analysis. Its result feeds the
// dead-assignment half of dead-code detection.
type LiveVars struct{}

// NewLiveVars returns the analysis.
func NewLiveVars() *LiveVars { return &LiveVars{} }

// IsForward implements Analysis.
func (*LiveVars) IsForward() bool { return false }

// NewBoundaryFact implements Analysis.
func (*LiveVars) NewBoundaryFact() *VarSet { return NewVarSet() }

// NewInitialFact implements Analysis.
func (*LiveVars) NewInitialFact() *VarSet { return NewVarSet() }

// MeetInto implements Analysis: meet is set union.
func (*LiveVars) MeetInto(src, into *VarSet) { into.Union(src) }

// TransferNode implements Analysis. Backward: in receives the fact after the
// statement, out the fact before it.
func (*LiveVars) TransferNode(s *ir.Stmt, in, out *VarSet) bool {
	next := in.Copy()
	if def := s.Def(); def != nil {
		next.Remove(def)
	}
	for _, u := range s.Uses() {
		next.Add(u)
	}
	if next.Equals(out) {
		return false
	}
	*out = *next
	return true
}

// NeedTransferEdge implements Analysis.
func (*LiveVars) NeedTransferEdge(*ir.CFGEdge) bool { return false }

// TransferEdge implements Analysis.
func (*LiveVars) TransferEdge(_ *ir.CFGEdge, out *VarSet) *VarSet { return out }
