package dataflow

import (
	"testing"

	"github.com/seclab/argus/ir"
)

func testVars(t *testing.T, n int) []*ir.Var {
	t.Helper()

	h := ir.NewHierarchy()
	cls := h.NewClass("Facts")
	m := h.NewMethod(cls, "m", "void m()", ir.Static())
	b := ir.NewBuilder(m)
	vars := make([]*ir.Var, n)
	for i := range vars {
		vars[i] = b.Local("v", ir.IntType())
	}
	b.ReturnVoid()
	b.Finish()
	return vars
}

func TestCPFactDefaultsToUndef(t *testing.T) {
	t.Parallel()

	vars := testVars(t, 1)
	f := NewCPFact()
	if !f.Get(vars[0]).IsUndef() {
		t.Fatalf("absent binding should read as UNDEF")
	}
}

func TestCPFactUpdateReportsChange(t *testing.T) {
	t.Parallel()

	vars := testVars(t, 1)
	f := NewCPFact()
	if !f.Update(vars[0], ConstOf(1)) {
		t.Fatalf("first update should change the fact")
	}
	if f.Update(vars[0], ConstOf(1)) {
		t.Fatalf("idempotent update should not report change")
	}
	if !f.Update(vars[0], NAC) {
		t.Fatalf("raising to NAC should report change")
	}
}

func TestCPFactUpdateUndefRemoves(t *testing.T) {
	t.Parallel()

	vars := testVars(t, 1)
	f := NewCPFact()
	f.Update(vars[0], ConstOf(3))
	if !f.Update(vars[0], Undef) {
		t.Fatalf("binding to UNDEF should change the fact")
	}
	empty := NewCPFact()
	if !f.Equals(empty) {
		t.Fatalf("UNDEF binding should leave the fact canonical, got %s", f)
	}
}

func TestCPFactCopyIsIndependent(t *testing.T) {
	t.Parallel()

	vars := testVars(t, 2)
	f := NewCPFact()
	f.Update(vars[0], ConstOf(1))
	c := f.Copy()
	c.Update(vars[1], ConstOf(2))
	if !f.Get(vars[1]).IsUndef() {
		t.Fatalf("mutating the copy leaked into the original")
	}
}

func TestCPFactCopyFrom(t *testing.T) {
	t.Parallel()

	vars := testVars(t, 1)
	src := NewCPFact()
	src.Update(vars[0], ConstOf(9))
	dst := NewCPFact()
	if !dst.CopyFrom(src) {
		t.Fatalf("copying distinct content should report change")
	}
	if dst.CopyFrom(src) {
		t.Fatalf("copying equal content should not report change")
	}
	if dst.Get(vars[0]) != ConstOf(9) {
		t.Fatalf("content not copied: %s", dst)
	}
}

func TestVarSetOps(t *testing.T) {
	t.Parallel()

	vars := testVars(t, 2)
	s := NewVarSet()
	if !s.Add(vars[0]) || s.Add(vars[0]) {
		t.Fatalf("Add should report growth exactly once")
	}
	other := NewVarSet()
	other.Add(vars[1])
	if !s.Union(other) {
		t.Fatalf("union with new member should grow")
	}
	if !s.Contains(vars[0]) || !s.Contains(vars[1]) || s.Len() != 2 {
		t.Fatalf("set content wrong")
	}
}
