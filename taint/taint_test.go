package taint

import (
	"testing"

	"github.com/seclab/argus/ir"
	"github.com/seclab/argus/pta"
)

// buildSourceSink assembles:
//
//	x = S.src(); S.sink(x);
//
// with src and sink declared native on class S.
func buildSourceSink(t *testing.T) (*ir.Hierarchy, *ir.Method, *ir.Stmt, *ir.Stmt) {
	t.Helper()

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
	return h, mainM, srcCall, sinkCall
}

func runTaint(t *testing.T, h *ir.Hierarchy, cfg *Config, entry *ir.Method) []Flow {
	t.Helper()

	solver, err := pta.NewSolver(h, "2-call", nil)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	plugin, err := NewPlugin(solver, cfg, h, nil)
	if err != nil {
		t.Fatalf("NewPlugin: %v", err)
	}
	solver.AddPlugin(plugin)
	return FlowsOf(solver.Solve(entry))
}

func TestSourceToSinkFlow(t *testing.T) {
	t.Parallel()

	h, mainM, srcCall, sinkCall := buildSourceSink(t)
	cfg := &Config{
		Sources: []Source{{Method: "<S: String src()>", Type: "raw"}},
		Sinks:   []Sink{{Method: "<S: void sink(String)>", Index: 0}},
	}
	flows := runTaint(t, h, cfg, mainM)
	if len(flows) != 1 {
		t.Fatalf("want exactly one flow, got %v", flows)
	}
	f := flows[0]
	if f.Source != srcCall || f.Sink != sinkCall || f.Index != 0 {
		t.Fatalf("flow endpoints wrong: %+v", f)
	}
}

func TestNoFlowWithoutSource(t *testing.T) {
	t.Parallel()

	h, mainM, _, _ := buildSourceSink(t)
	cfg := &Config{
		Sinks: []Sink{{Method: "<S: void sink(String)>", Index: 0}},
	}
	if flows := runTaint(t, h, cfg, mainM); len(flows) != 0 {
		t.Fatalf("want no flows, got %v", flows)
	}
}

func TestTransferCarriesTaintThroughResult(t *testing.T) {
	t.Parallel()

	h := ir.NewHierarchy()
	str := h.NewClass("String")
	concat := h.NewMethod(str, "concat", "String concat(String)", ir.Native())
	s := h.NewClass("S")
	src := h.NewMethod(s, "src", "String src()", ir.Static(), ir.Native())
	sink := h.NewMethod(s, "sink", "void sink(String)", ir.Static(), ir.Native())

	mainCls := h.NewClass("Main")
	mainM := h.NewMethod(mainCls, "main", "void main()", ir.Static())
	b := ir.NewBuilder(mainM)
	x := b.Local("x", str.Type())
	suffix := b.Local("suffix", str.Type())
	y := b.Local("y", str.Type())
	srcCall := b.InvokeStatic(x, ir.RefOf(src))
	b.New(suffix, str.Type())
	b.InvokeVirtual(y, x, ir.RefOf(concat), suffix)
	sinkCall := b.InvokeStatic(nil, ir.RefOf(sink), y)
	b.ReturnVoid()
	b.Finish()

	cfg := &Config{
		Sources: []Source{{Method: "<S: String src()>", Type: "raw"}},
		Sinks:   []Sink{{Method: "<S: void sink(String)>", Index: 0}},
		Transfers: []Transfer{
			{Method: "<String: String concat(String)>", From: "base", To: "result", Type: "derived"},
		},
	}
	flows := runTaint(t, h, cfg, mainM)
	if len(flows) != 1 {
		t.Fatalf("want one flow through the transfer, got %v", flows)
	}
	if flows[0].Source != srcCall || flows[0].Sink != sinkCall {
		t.Fatalf("flow endpoints wrong: %+v", flows[0])
	}
}

func TestUnknownConfigEntriesAreSkipped(t *testing.T) {
	t.Parallel()

	h, mainM, _, _ := buildSourceSink(t)
	cfg := &Config{
		Sources: []Source{
			{Method: "<S: String src()>", Type: "raw"},
			{Method: "<Ghost: String spook()>", Type: "raw"},
		},
		Sinks: []Sink{{Method: "<S: void sink(String)>", Index: 0}},
	}
	flows := runTaint(t, h, cfg, mainM)
	if len(flows) != 1 {
		t.Fatalf("unknown classes must not break resolution, got %v", flows)
	}
}
