// Package deadcode detects unreachable statements and dead assignments in a
// method body, driven by constant-propagation and live-variable facts.
package deadcode

import (
	"sort"

	"github.com/seclab/argus/constprop"
	"github.com/seclab/argus/dataflow"
	"github.com/seclab/argus/ir"
)

// ID is the analysis identifier.
const ID = "deadcode"

// Detect returns the dead statements of body in program order: statements
// unreachable from the entry under constant-guided branching, plus
// reachable assignments whose target is not live and whose rhs cannot
// raise or allocate.
func Detect(
	body *ir.IR,
	constants *dataflow.Result[*ir.Stmt, *dataflow.CPFact],
	live *dataflow.Result[*ir.Stmt, *dataflow.VarSet],
) []*ir.Stmt {
	cfg := body.CFG()
	reachable := make(map[*ir.Stmt]bool)
	queue := []*ir.Stmt{cfg.Entry()}
	reachable[cfg.Entry()] = true

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range liveOutEdges(cfg, n, constants) {
			if !reachable[e.Target()] {
				reachable[e.Target()] = true
				queue = append(queue, e.Target())
			}
		}
	}

	var dead []*ir.Stmt
	for _, s := range body.Stmts() {
		switch {
		case !reachable[s]:
			dead = append(dead, s)
		case isDeadAssign(s, live.OutFact(s)):
			dead = append(dead, s)
		}
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i].Index() < dead[j].Index() })
	return dead
}

// liveOutEdges returns the edges a concrete execution could take from n,
// pruning branches decided by a constant condition.
func liveOutEdges(
	cfg *ir.CFG,
	n *ir.Stmt,
	constants *dataflow.Result[*ir.Stmt, *dataflow.CPFact],
) []*ir.CFGEdge {
	edges := cfg.OutEdgesOf(n)
	switch n.Kind() {
	case ir.If:
		cond := constprop.Evaluate(n.Cond(), constants.InFact(n))
		if !cond.IsConstant() {
			return edges
		}
		want := ir.EdgeIfFalse
		if cond.Const() != 0 {
			want = ir.EdgeIfTrue
		}
		return edgesOfKind(edges, func(e *ir.CFGEdge) bool { return e.Kind() == want })
	case ir.Switch:
		key := constants.InFact(n).Get(n.SwitchKey())
		if !key.IsConstant() {
			return edges
		}
		matched := edgesOfKind(edges, func(e *ir.CFGEdge) bool {
			return e.Kind() == ir.EdgeSwitchCase && e.CaseValue() == key.Const()
		})
		if len(matched) > 0 {
			return matched
		}
		return edgesOfKind(edges, func(e *ir.CFGEdge) bool { return e.Kind() == ir.EdgeSwitchDefault })
	default:
		return edges
	}
}

func edgesOfKind(edges []*ir.CFGEdge, keep func(*ir.CFGEdge) bool) []*ir.CFGEdge {
	var out []*ir.CFGEdge
	for _, e := range edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// isDeadAssign reports whether s assigns a variable nobody reads through a
// rhs with no observable effect. News, casts, field and array accesses and
// DIV/REM arithmetic all have effects (allocation or possible exceptions)
// and are kept.
func isDeadAssign(s *ir.Stmt, liveOut *dataflow.VarSet) bool {
	def := s.Def()
	if def == nil || liveOut.Contains(def) {
		return false
	}
	switch s.Kind() {
	case ir.Copy:
		return true
	case ir.Assign:
		if bin, ok := s.RHS().(*ir.Binary); ok {
			return bin.Op != ir.Div && bin.Op != ir.Rem
		}
		return true
	default:
		return false
	}
}
