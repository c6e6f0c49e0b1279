package callgraph

import (
	"fmt"

	"github.com/zboralski/lattice"

	"github.com/seclab/argus/ir"
)

// ToLattice exports the reachable call graph as a lattice interchange graph
// for downstream tooling (visualization, clustering).
func ToLattice(g *Graph) *lattice.Graph {
	lg := &lattice.Graph{}
	for _, m := range g.Reachable() {
		lg.Nodes = append(lg.Nodes, m.Signature())
	}
	g.ForEachEdge(func(e *Edge) {
		lg.Edges = append(lg.Edges, lattice.Edge{
			Caller: e.CallSite.Method().Signature(),
			Callee: e.Callee.Signature(),
		})
	})
	lg.Dedup()
	return lg
}

// CFGToLattice exports the per-method CFGs of the reachable methods. Each
// statement maps to one block; If edges carry "T"/"F" conditions, call sites
// become block call entries.
func CFGToLattice(g *Graph) *lattice.CFGGraph {
	cg := &lattice.CFGGraph{}
	for _, m := range g.Reachable() {
		body := m.IR()
		if body == nil {
			continue
		}
		cg.Funcs = append(cg.Funcs, funcCFG(body))
	}
	return cg
}

func funcCFG(body *ir.IR) *lattice.FuncCFG {
	cfg := body.CFG()
	lcfg := &lattice.FuncCFG{Name: body.Method().Signature()}
	for _, s := range body.Stmts() {
		blk := &lattice.BasicBlock{
			ID:    s.Index(),
			Start: s.Index(),
			End:   s.Index() + 1,
			Term:  s.Kind() == ir.Return,
		}
		for _, e := range cfg.OutEdgesOf(s) {
			if e.Target() == cfg.Exit() {
				continue
			}
			succ := lattice.Successor{BlockID: e.Target().Index()}
			switch e.Kind() {
			case ir.EdgeIfTrue:
				succ.Cond = "T"
			case ir.EdgeIfFalse:
				succ.Cond = "F"
			case ir.EdgeSwitchCase:
				succ.Cond = fmt.Sprintf("%d", e.CaseValue())
			}
			blk.Succs = append(blk.Succs, succ)
		}
		if s.Kind() == ir.Invoke {
			blk.Calls = append(blk.Calls, lattice.CallSite{
				Offset: s.Index(),
				Callee: s.Callee().String(),
			})
		}
		lcfg.Blocks = append(lcfg.Blocks, blk)
	}
	return lcfg
}
