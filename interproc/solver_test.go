package interproc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seclab/argus/dataflow"
	"github.com/seclab/argus/ir"
	"github.com/seclab/argus/pta"
)

func solveInter(t *testing.T, h *ir.Hierarchy, entry *ir.Method) (*dataflow.Result[*ir.Stmt, *dataflow.CPFact], *Solver) {
	t.Helper()

	ptSolver, err := pta.NewSolver(h, "ci", nil)
	if err != nil {
		t.Fatalf("pta solver: %v", err)
	}
	pts := ptSolver.Solve(entry)
	icfg := BuildICFG(pts.CallGraphCI())
	s := NewSolver(icfg, pts, nil)
	return s.Solve(), s
}

func exitFact(res *dataflow.Result[*ir.Stmt, *dataflow.CPFact], m *ir.Method) *dataflow.CPFact {
	return res.InFact(m.IR().CFG().Exit())
}

func TestConstantFlowsThroughCall(t *testing.T) {
	t.Parallel()

	h := ir.NewHierarchy()
	cls := h.NewClass("Main")
	id := h.NewMethod(cls, "id", "int id(int)", ir.Static())
	ib := ir.NewBuilder(id)
	p := ib.Param("p", ir.IntType())
	ib.Return(p)
	ib.Finish()

	mainM := h.NewMethod(cls, "main", "void main()", ir.Static())
	b := ir.NewBuilder(mainM)
	a := b.Local("a", ir.IntType())
	r := b.Local("r", ir.IntType())
	b.AssignLit(a, 3)
	b.InvokeStatic(r, ir.RefOf(id), a)
	b.ReturnVoid()
	b.Finish()

	res, _ := solveInter(t, h, mainM)
	exit := exitFact(res, mainM)
	require.Equal(t, dataflow.ConstOf(3), exit.Get(r), "constant should survive the call round trip")
}

func TestTwoCallSitesJoinAtParameter(t *testing.T) {
	t.Parallel()

	h := ir.NewHierarchy()
	cls := h.NewClass("Main")
	id := h.NewMethod(cls, "id", "int id(int)", ir.Static())
	ib := ir.NewBuilder(id)
	p := ib.Param("p", ir.IntType())
	ib.Return(p)
	ib.Finish()

	mainM := h.NewMethod(cls, "main", "void main()", ir.Static())
	b := ir.NewBuilder(mainM)
	a1 := b.Local("a1", ir.IntType())
	a2 := b.Local("a2", ir.IntType())
	r1 := b.Local("r1", ir.IntType())
	r2 := b.Local("r2", ir.IntType())
	b.AssignLit(a1, 1)
	b.AssignLit(a2, 2)
	b.InvokeStatic(r1, ir.RefOf(id), a1)
	b.InvokeStatic(r2, ir.RefOf(id), a2)
	b.ReturnVoid()
	b.Finish()

	res, _ := solveInter(t, h, mainM)
	exit := exitFact(res, mainM)
	// Context-insensitive ICFG: both constants join at id's parameter.
	require.True(t, exit.Get(r1).IsNAC())
	require.True(t, exit.Get(r2).IsNAC())
}

func TestInstanceFieldThroughAlias(t *testing.T) {
	t.Parallel()

	h := ir.NewHierarchy()
	box := h.NewClass("Box")
	val := h.NewField(box, "v", ir.IntType(), false)
	cls := h.NewClass("Main")
	mainM := h.NewMethod(cls, "main", "void main()", ir.Static())
	b := ir.NewBuilder(mainM)
	o := b.Local("o", box.Type())
	alias := b.Local("alias", box.Type())
	t5 := b.Local("t5", ir.IntType())
	w := b.Local("w", ir.IntType())
	b.New(o, box.Type())
	b.Copy(alias, o)
	b.AssignLit(t5, 5)
	b.StoreField(alias, val, t5)
	b.LoadField(w, o, val)
	b.ReturnVoid()
	b.Finish()

	res, solver := solveInter(t, h, mainM)
	exit := exitFact(res, mainM)
	require.Equal(t, dataflow.ConstOf(5), exit.Get(w), "store through an alias must reach the load")

	// Alias map invariant: both o and alias point to the allocation.
	pts := solver.pts
	objs := pts.PointsTo(o)
	require.Len(t, objs, 1)
	require.ElementsMatch(t, []*ir.Var{o, alias}, solver.Aliases(objs[0]))
}

func TestConflictingStoresJoinToNAC(t *testing.T) {
	t.Parallel()

	h := ir.NewHierarchy()
	box := h.NewClass("Box")
	val := h.NewField(box, "v", ir.IntType(), false)
	cls := h.NewClass("Main")
	mainM := h.NewMethod(cls, "main", "void main()", ir.Static())
	b := ir.NewBuilder(mainM)
	o := b.Local("o", box.Type())
	t5 := b.Local("t5", ir.IntType())
	t7 := b.Local("t7", ir.IntType())
	w := b.Local("w", ir.IntType())
	b.New(o, box.Type())
	b.AssignLit(t5, 5)
	b.AssignLit(t7, 7)
	b.StoreField(o, val, t5)
	b.StoreField(o, val, t7)
	b.LoadField(w, o, val)
	b.ReturnVoid()
	b.Finish()

	res, _ := solveInter(t, h, mainM)
	require.True(t, exitFact(res, mainM).Get(w).IsNAC(), "conflicting stores must join to NAC")
}

func TestStaticFieldPropagation(t *testing.T) {
	t.Parallel()

	h := ir.NewHierarchy()
	holder := h.NewClass("Holder")
	shared := h.NewField(holder, "s", ir.IntType(), true)
	cls := h.NewClass("Main")
	mainM := h.NewMethod(cls, "main", "void main()", ir.Static())
	b := ir.NewBuilder(mainM)
	t4 := b.Local("t4", ir.IntType())
	x := b.Local("x", ir.IntType())
	b.AssignLit(t4, 4)
	b.StoreStatic(shared, t4)
	b.LoadStatic(x, shared)
	b.ReturnVoid()
	b.Finish()

	res, _ := solveInter(t, h, mainM)
	require.Equal(t, dataflow.ConstOf(4), exitFact(res, mainM).Get(x))
}

func TestArrayIndexCompatibility(t *testing.T) {
	t.Parallel()

	h := ir.NewHierarchy()
	arrType := ir.ArrayOf(ir.IntType())
	cls := h.NewClass("Main")

	build := func(name string, storeNAC bool) *ir.Method {
		m := h.NewMethod(cls, name, "void "+name+"(int)", ir.Static())
		b := ir.NewBuilder(m)
		unknown := b.Param("unknown", ir.IntType())
		arr := b.Local("arr", arrType)
		i0 := b.Local("i0", ir.IntType())
		i1 := b.Local("i1", ir.IntType())
		c1 := b.Local("c1", ir.IntType())
		c2 := b.Local("c2", ir.IntType())
		x := b.Local("x", ir.IntType())
		b.New(arr, arrType)
		b.AssignLit(i0, 0)
		b.AssignLit(i1, 1)
		b.AssignLit(c1, 11)
		b.AssignLit(c2, 22)
		b.StoreArray(arr, i0, c1)
		b.StoreArray(arr, i1, c2)
		if storeNAC {
			b.StoreArray(arr, unknown, c2)
		}
		b.LoadArray(x, arr, i0)
		b.ReturnVoid()
		b.Finish()
		return m
	}

	// Distinct constant indexes do not interfere.
	m1 := build("m1", false)
	res, _ := solveInter(t, h, m1)
	x1 := m1.IR().Vars()[6]
	require.Equal(t, dataflow.ConstOf(11), exitFact(res, m1).Get(x1))

	// A store at an unknown index is visible to every load.
	m2 := build("m2", true)
	res2, _ := solveInter(t, h, m2)
	x2 := m2.IR().Vars()[6]
	require.True(t, exitFact(res2, m2).Get(x2).IsNAC())
}
