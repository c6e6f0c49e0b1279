package dataflow

import (
	"sort"
	"strings"

	"github.com/seclab/argus/ir"
)

// CPFact maps variables to lattice values. Absent variables are Undef.
type CPFact struct {
	m map[*ir.Var]Value
}

// NewCPFact returns an empty fact.
func NewCPFact() *CPFact {
	return &CPFact{m: make(map[*ir.Var]Value)}
}

// Get returns the value bound to v, Undef if absent.
func (f *CPFact) Get(v *ir.Var) Value { return f.m[v] }

// Update binds v to val and reports whether the binding changed. Binding
// Undef removes the entry, keeping absent-means-Undef canonical.
func (f *CPFact) Update(v *ir.Var, val Value) bool {
	old, present := f.m[v]
	if val.IsUndef() {
		if present {
			delete(f.m, v)
			return true
		}
		return false
	}
	if present && old == val {
		return false
	}
	f.m[v] = val
	return true
}

// Remove drops the binding for v.
func (f *CPFact) Remove(v *ir.Var) { delete(f.m, v) }

// Copy returns an independent copy of f.
func (f *CPFact) Copy() *CPFact {
	c := NewCPFact()
	for v, val := range f.m {
		c.m[v] = val
	}
	return c
}

// CopyFrom replaces f's content with other's and reports whether f changed.
func (f *CPFact) CopyFrom(other *CPFact) bool {
	if f.Equals(other) {
		return false
	}
	f.m = make(map[*ir.Var]Value, len(other.m))
	for v, val := range other.m {
		f.m[v] = val
	}
	return true
}

// Equals reports structural equality.
func (f *CPFact) Equals(other *CPFact) bool {
	if len(f.m) != len(other.m) {
		return false
	}
	for v, val := range f.m {
		if other.m[v] != val {
			return false
		}
	}
	return true
}

// ForEach visits every binding.
func (f *CPFact) ForEach(visit func(v *ir.Var, val Value)) {
	for v, val := range f.m {
		visit(v, val)
	}
}

func (f *CPFact) String() string {
	entries := make([]string, 0, len(f.m))
	for v, val := range f.m {
		entries = append(entries, v.Name()+"="+val.String())
	}
	sort.Strings(entries)
	return "{" + strings.Join(entries, ", ") + "}"
}
