package callgraph

import (
	"io"
	"log"

	"github.com/seclab/argus/ir"
)

// Dispatch finds the concrete method a receiver of type c runs for the given
// subsignature: the first non-abstract declaration found walking up the
// superclass chain, nil if none.
func Dispatch(c *ir.Class, subsig string) *ir.Method {
	for ; c != nil; c = c.Super() {
		if m := c.DeclaredMethod(subsig); m != nil && !m.IsAbstract() {
			return m
		}
	}
	return nil
}

// Resolve computes the possible callees of a call site under class-hierarchy
// analysis.
func Resolve(h ir.ClassHierarchy, call *ir.Stmt) []*ir.Method {
	ref := call.Callee()
	switch call.CallKind() {
	case ir.CallStatic:
		if m := ref.Class().DeclaredMethod(ref.Subsignature()); m != nil {
			return []*ir.Method{m}
		}
		return nil
	case ir.CallSpecial:
		if m := Dispatch(ref.Class(), ref.Subsignature()); m != nil {
			return []*ir.Method{m}
		}
		return nil
	case ir.CallVirtual, ir.CallInterface:
		return resolveHierarchy(h, ref)
	default:
		// Dynamic call sites have no statically resolvable target.
		return nil
	}
}

// resolveHierarchy BFSes the subtype closure of the declared class,
// dispatching at every visited type. For interfaces the closure also expands
// through sub-interfaces and direct implementors.
func resolveHierarchy(h ir.ClassHierarchy, ref *ir.MethodRef) []*ir.Method {
	var callees []*ir.Method
	seenMethod := make(map[*ir.Method]bool)
	seenClass := make(map[*ir.Class]bool)

	queue := []*ir.Class{ref.Class()}
	seenClass[ref.Class()] = true
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if m := Dispatch(c, ref.Subsignature()); m != nil && !seenMethod[m] {
			seenMethod[m] = true
			callees = append(callees, m)
		}
		expand := func(cs []*ir.Class) {
			for _, sub := range cs {
				if !seenClass[sub] {
					seenClass[sub] = true
					queue = append(queue, sub)
				}
			}
		}
		expand(h.DirectSubclassesOf(c))
		if c.IsInterface() {
			expand(h.DirectSubinterfacesOf(c))
			expand(h.DirectImplementorsOf(c))
		}
	}
	return callees
}

// Builder constructs a whole-program call graph by reachability from an
// entry method using class-hierarchy analysis.
type Builder struct {
	hierarchy ir.ClassHierarchy
	logger    *log.Logger
}

// NewBuilder returns a CHA builder. A nil logger discards debug output.
func NewBuilder(h ir.ClassHierarchy, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Builder{hierarchy: h, logger: logger}
}

// Build runs the reachability worklist from entry.
func (b *Builder) Build(entry *ir.Method) *Graph {
	g := NewGraph(entry)
	var worklist []*ir.Method
	enqueue := func(m *ir.Method) {
		if g.AddReachable(m) {
			worklist = append(worklist, m)
		}
	}
	enqueue(entry)

	for len(worklist) > 0 {
		m := worklist[0]
		worklist = worklist[1:]
		body := m.IR()
		if body == nil {
			// Native or abstract target: reachable but not expandable.
			b.logger.Printf("cha: no IR for %s, skipping body", m)
			continue
		}
		for _, s := range body.Stmts() {
			if s.Kind() != ir.Invoke {
				continue
			}
			callees := Resolve(b.hierarchy, s)
			if len(callees) == 0 {
				b.logger.Printf("cha: unresolved call %s at %s", s.Callee(), s)
				continue
			}
			for _, callee := range callees {
				g.AddEdge(s.CallKind(), s, callee)
				enqueue(callee)
			}
		}
	}
	return g
}
