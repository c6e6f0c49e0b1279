package argus_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/seclab/argus"
	"github.com/seclab/argus/constprop"
	"github.com/seclab/argus/dataflow"
	"github.com/seclab/argus/deadcode"
	"github.com/seclab/argus/interproc"
	"github.com/seclab/argus/ir"
	"github.com/seclab/argus/pta"
	"github.com/seclab/argus/taint"
)

func newManager(cfg *argus.Config, h *ir.Hierarchy) *argus.Manager {
	m, err := argus.NewManager(cfg, h, nil)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("intra-procedural constant propagation", func() {
	It("folds straight-line arithmetic and branches", func() {
		h := ir.NewHierarchy()
		cls := h.NewClass("Main")
		mainM := h.NewMethod(cls, "main", "void main()", ir.Static())
		b := ir.NewBuilder(mainM)
		p0 := b.Local("p0", ir.IntType())
		p1 := b.Local("p1", ir.IntType())
		x := b.Local("x", ir.IntType())
		y := b.Local("y", ir.IntType())
		two := b.Local("two", ir.IntType())
		b.AssignLit(p0, 1)
		b.AssignLit(p1, 2)
		b.AssignBin(x, ir.Add, p0, p1)
		b.AssignLit(two, 2)
		b.If(ir.Gt, x, two, "then")
		b.AssignLit(y, 0)
		b.Goto("end")
		b.Label("then")
		then := b.Copy(y, x)
		b.Label("end")
		b.ReturnVoid()
		body := b.Finish()

		results := newManager(nil, h).IntraConstProp()
		res := results[mainM]
		exit := res.InFact(body.CFG().Exit())
		Expect(exit.Get(x)).To(Equal(dataflow.ConstOf(3)))
		Expect(res.OutFact(then).Get(y)).To(Equal(dataflow.ConstOf(3)))
	})

	It("treats division by a known zero as unreachable", func() {
		h := ir.NewHierarchy()
		cls := h.NewClass("Main")
		mainM := h.NewMethod(cls, "m", "void m(int)", ir.Static())
		b := ir.NewBuilder(mainM)
		a := b.Param("a", ir.IntType())
		zero := b.Local("zero", ir.IntType())
		c := b.Local("c", ir.IntType())
		b.AssignLit(zero, 0)
		b.AssignBin(c, ir.Div, a, zero)
		b.ReturnVoid()
		body := b.Finish()

		res := newManager(nil, h).IntraConstProp()[mainM]
		exit := res.InFact(body.CFG().Exit())
		Expect(exit.Get(a).IsNAC()).To(BeTrue())
		Expect(exit.Get(c).IsUndef()).To(BeTrue())
	})
})

var _ = Describe("class-hierarchy call graphs", func() {
	It("resolves a virtual call over the subtype closure, deduplicated", func() {
		h := ir.NewHierarchy()
		a := h.NewClass("A")
		bCls := h.NewClass("B", ir.Extends(a))
		h.NewClass("C", ir.Extends(bCls))
		aFoo := h.NewMethod(a, "foo", "void foo()")
		ab := ir.NewBuilder(aFoo)
		ab.ReturnVoid()
		ab.Finish()
		bFoo := h.NewMethod(bCls, "foo", "void foo()")
		bb := ir.NewBuilder(bFoo)
		bb.ReturnVoid()
		bb.Finish()

		mainCls := h.NewClass("Main")
		mainM := h.NewMethod(mainCls, "main", "void main()", ir.Static())
		b := ir.NewBuilder(mainM)
		x := b.Local("x", a.Type())
		b.New(x, a.Type())
		call := b.InvokeVirtual(nil, x, ir.NewMethodRef(a, "foo", "void foo()"))
		b.ReturnVoid()
		b.Finish()

		g := newManager(nil, h).BuildCallGraph(mainM)
		Expect(g.CalleesOf(call)).To(ConsistOf(aFoo, bFoo))
	})
})

var _ = Describe("points-to analysis", func() {
	It("sees stores through aliases context-insensitively", func() {
		h := ir.NewHierarchy()
		xCls := h.NewClass("X")
		yCls := h.NewClass("Y")
		f := h.NewField(xCls, "f", yCls.Type(), false)

		mainCls := h.NewClass("Main")
		mainM := h.NewMethod(mainCls, "main", "void main()", ir.Static())
		b := ir.NewBuilder(mainM)
		a := b.Local("a", xCls.Type())
		bb := b.Local("b", xCls.Type())
		tv := b.Local("t", yCls.Type())
		c := b.Local("c", yCls.Type())
		b.New(a, xCls.Type())
		b.Copy(bb, a)
		yAlloc := b.New(tv, yCls.Type())
		b.StoreField(a, f, tv)
		b.LoadField(c, bb, f)
		b.ReturnVoid()
		b.Finish()

		res, err := newManager(nil, h).PointsTo(mainM)
		Expect(err).NotTo(HaveOccurred())
		objs := res.PointsTo(c)
		Expect(objs).To(HaveLen(1))
		Expect(objs[0].Site()).To(Equal(yAlloc))
	})

	It("distinguishes receivers under 1-obj where 1-call merges", func() {
		build := func() (*ir.Hierarchy, *ir.Method, *ir.Var, *ir.Field) {
			h := ir.NewHierarchy()
			obj := h.NewClass("Object")
			list := h.NewClass("List")
			elem := h.NewField(list, "elem", obj.Type(), false)
			doAdd := h.NewMethod(list, "doAdd", "void doAdd(Object)")
			db := ir.NewBuilder(doAdd)
			dp := db.Param("o", obj.Type())
			db.StoreField(db.This(), elem, dp)
			db.ReturnVoid()
			db.Finish()
			add := h.NewMethod(list, "add", "void add(Object)")
			ab := ir.NewBuilder(add)
			ap := ab.Param("o", obj.Type())
			ab.InvokeVirtual(nil, ab.This(), ir.RefOf(doAdd), ap)
			ab.ReturnVoid()
			ab.Finish()
			aCls := h.NewClass("A", ir.Extends(obj))
			bCls := h.NewClass("B", ir.Extends(obj))
			mainCls := h.NewClass("Main")
			mainM := h.NewMethod(mainCls, "main", "void main()", ir.Static())
			mb := ir.NewBuilder(mainM)
			l1 := mb.Local("l1", list.Type())
			l2 := mb.Local("l2", list.Type())
			o1 := mb.Local("o1", aCls.Type())
			o2 := mb.Local("o2", bCls.Type())
			mb.New(l1, list.Type())
			mb.New(l2, list.Type())
			mb.New(o1, aCls.Type())
			mb.New(o2, bCls.Type())
			mb.InvokeVirtual(nil, l1, ir.RefOf(add), o1)
			mb.InvokeVirtual(nil, l2, ir.RefOf(add), o2)
			mb.ReturnVoid()
			mb.Finish()
			return h, mainM, l1, elem
		}

		h, mainM, l1, elem := build()
		objCfg := argus.NewConfig()
		objCfg.PTAPolicy = "1-obj"
		res, err := newManager(objCfg, h).PointsTo(mainM)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.FieldPointsTo(l1, elem)).To(HaveLen(1))

		h2, mainM2, l12, elem2 := build()
		callCfg := argus.NewConfig()
		callCfg.PTAPolicy = "1-call"
		res2, err := newManager(callCfg, h2).PointsTo(mainM2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res2.FieldPointsTo(l12, elem2)).To(HaveLen(2))
	})
})

var _ = Describe("taint analysis", func() {
	It("reports a source-to-sink flow configured via YAML", func() {
		h := ir.NewHierarchy()
		str := h.NewClass("String")
		s := h.NewClass("S")
		src := h.NewMethod(s, "src", "String src()", ir.Static(), ir.Native())
		sink := h.NewMethod(s, "sink", "void sink(String)", ir.Static(), ir.Native())

		mainCls := h.NewClass("Main")
		mainM := h.NewMethod(mainCls, "main", "void main()", ir.Static())
		b := ir.NewBuilder(mainM)
		x := b.Local("x", str.Type())
		srcCall := b.InvokeStatic(x, ir.RefOf(src))
		sinkCall := b.InvokeStatic(nil, ir.RefOf(sink), x)
		b.ReturnVoid()
		b.Finish()

		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "taint.yaml")
		Expect(os.WriteFile(path, []byte(`
sources:
  - method: "<S: String src()>"
    type: "raw"
sinks:
  - method: "<S: void sink(String)>"
    index: 0
`), 0o600)).To(Succeed())

		cfg := argus.NewConfig()
		cfg.PTAPolicy = "2-call"
		cfg.TaintConfig = path
		out, err := newManager(cfg, h).Run(taint.ID, mainM)
		Expect(err).NotTo(HaveOccurred())
		flows := out.([]taint.Flow)
		Expect(flows).To(HaveLen(1))
		Expect(flows[0].Source).To(Equal(srcCall))
		Expect(flows[0].Sink).To(Equal(sinkCall))
		Expect(flows[0].Index).To(Equal(0))
	})
})

var _ = Describe("inter-procedural constant propagation", func() {
	It("carries a constant through a call and back", func() {
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
		body := b.Finish()

		res, _, err := newManager(nil, h).InterConstProp(mainM)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.InFact(body.CFG().Exit()).Get(r)).To(Equal(dataflow.ConstOf(3)))
	})
})

var _ = Describe("dead-code detection", func() {
	It("prunes the branch a constant condition cannot take", func() {
		h := ir.NewHierarchy()
		cls := h.NewClass("Main")
		mainM := h.NewMethod(cls, "main", "void main()", ir.Static())
		b := ir.NewBuilder(mainM)
		x := b.Local("x", ir.IntType())
		y := b.Local("y", ir.IntType())
		two := b.Local("two", ir.IntType())
		ret := b.Local("ret", ir.IntType())
		b.AssignLit(x, 3)
		b.AssignLit(two, 2)
		b.If(ir.Gt, x, two, "then")
		elseStmt := b.AssignLit(y, 0)
		b.Goto("end")
		b.Label("then")
		b.Copy(y, x)
		b.Label("end")
		b.AssignBin(ret, ir.Div, y, y)
		b.ReturnVoid()
		b.Finish()

		out, err := newManager(nil, h).Run(deadcode.ID, mainM)
		Expect(err).NotTo(HaveOccurred())
		dead := out.(map[*ir.Method][]*ir.Stmt)[mainM]
		Expect(dead).To(HaveLen(2))
		Expect(dead[0]).To(Equal(elseStmt))
	})
})

var _ = Describe("analysis registry", func() {
	It("dispatches every published id", func() {
		h := ir.NewHierarchy()
		cls := h.NewClass("Main")
		mainM := h.NewMethod(cls, "main", "void main()", ir.Static())
		b := ir.NewBuilder(mainM)
		b.ReturnVoid()
		b.Finish()

		m := newManager(nil, h)
		for _, id := range []string{constprop.ID, argus.CHAID, pta.ID, interproc.ID, taint.ID, deadcode.ID} {
			_, err := m.Run(id, mainM)
			Expect(err).NotTo(HaveOccurred(), "analysis %q", id)
		}
	})
})
