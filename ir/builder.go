package ir

import "fmt"

// NewMethodRef creates a method reference for a call site.
func NewMethodRef(c *Class, name, subsig string) *MethodRef {
	return &MethodRef{class: c, name: name, subsig: subsig}
}

// RefOf creates a method reference resolving trivially to m.
func RefOf(m *Method) *MethodRef {
	return &MethodRef{class: m.class, name: m.name, subsig: m.subsig}
}

// Builder assembles a method body statement by statement and finishes it into
// an immutable IR with its CFG. Control flow targets are named labels; a
// label binds to the next appended statement.
//
// Builder methods panic on malformed input (an invoke with an impossible
// call kind, an unbound label). Those are front-end bugs, not analysis-time
// conditions.
type Builder struct {
	method  *Method
	this    *Var
	params  []*Var
	vars    []*Var
	stmts   []*Stmt
	pending []string
	labels  map[string]int
	patches []patch
	line    int
}

type patch struct {
	stmt  *Stmt
	label string
	kind  patchKind
	pos   int
}

type patchKind uint8

const (
	patchGoto patchKind = iota
	patchIfTrue
	patchCase
	patchDefault
)

// NewBuilder starts a body for m.
func NewBuilder(m *Method) *Builder {
	b := &Builder{method: m, labels: make(map[string]int)}
	if !m.isStatic {
		b.this = b.Local("this", m.class.typ)
	}
	return b
}

// Local declares a fresh local variable.
func (b *Builder) Local(name string, typ *Type) *Var {
	v := &Var{name: name, method: b.method, typ: typ}
	b.vars = append(b.vars, v)
	return v
}

// Param declares a parameter variable.
func (b *Builder) Param(name string, typ *Type) *Var {
	v := b.Local(name, typ)
	b.params = append(b.params, v)
	return v
}

// This returns the receiver variable of an instance method.
func (b *Builder) This() *Var { return b.this }

// Line sets the source line recorded on subsequently appended statements.
func (b *Builder) Line(n int) *Builder {
	b.line = n
	return b
}

// Label binds name to the next appended statement.
func (b *Builder) Label(name string) {
	b.pending = append(b.pending, name)
}

func (b *Builder) append(s *Stmt) *Stmt {
	s.method = b.method
	s.index = len(b.stmts)
	if b.line > 0 {
		s.line = b.line
	} else {
		s.line = s.index + 1
	}
	for _, name := range b.pending {
		b.labels[name] = s.index
	}
	b.pending = b.pending[:0]
	b.stmts = append(b.stmts, s)
	return s
}

// Nop appends a no-op statement.
func (b *Builder) Nop() *Stmt { return b.append(&Stmt{kind: Nop}) }

// New appends x = new typ.
func (b *Builder) New(x *Var, typ *Type) *Stmt {
	return b.append(&Stmt{kind: New, lhs: x, newType: typ})
}

// Copy appends x = y.
func (b *Builder) Copy(x, y *Var) *Stmt {
	return b.append(&Stmt{kind: Copy, lhs: x, src: y, rhs: y})
}

// AssignLit appends x = literal.
func (b *Builder) AssignLit(x *Var, val int32) *Stmt {
	return b.append(&Stmt{kind: Assign, lhs: x, rhs: IntLiteral(val)})
}

// AssignBin appends x = l op r.
func (b *Builder) AssignBin(x *Var, op BinaryOp, l, r *Var) *Stmt {
	return b.append(&Stmt{kind: Assign, lhs: x, rhs: &Binary{Op: op, L: l, R: r}})
}

// LoadField appends x = base.f.
func (b *Builder) LoadField(x, base *Var, f *Field) *Stmt {
	return b.append(&Stmt{kind: LoadField, lhs: x, base: base, field: f})
}

// LoadStatic appends x = C.f.
func (b *Builder) LoadStatic(x *Var, f *Field) *Stmt {
	return b.append(&Stmt{kind: LoadField, lhs: x, field: f})
}

// StoreField appends base.f = y.
func (b *Builder) StoreField(base *Var, f *Field, y *Var) *Stmt {
	return b.append(&Stmt{kind: StoreField, base: base, field: f, src: y})
}

// StoreStatic appends C.f = y.
func (b *Builder) StoreStatic(f *Field, y *Var) *Stmt {
	return b.append(&Stmt{kind: StoreField, field: f, src: y})
}

// LoadArray appends x = base[i].
func (b *Builder) LoadArray(x, base, i *Var) *Stmt {
	return b.append(&Stmt{kind: LoadArray, lhs: x, base: base, arrIdx: i})
}

// StoreArray appends base[i] = y.
func (b *Builder) StoreArray(base, i, y *Var) *Stmt {
	return b.append(&Stmt{kind: StoreArray, base: base, arrIdx: i, src: y})
}

// Invoke appends a call statement. lhs and base may be nil where the kind
// allows it. The kind must be one of the five canonical classifications;
// anything else panics with ErrUnknownCallKind.
func (b *Builder) Invoke(lhs *Var, kind CallKind, base *Var, callee *MethodRef, args ...*Var) *Stmt {
	switch kind {
	case CallStatic:
		if base != nil {
			panic(fmt.Errorf("%w: static invoke with receiver %s", ErrUnknownCallKind, base))
		}
	case CallSpecial, CallVirtual, CallInterface, CallDynamic:
		if base == nil && kind != CallDynamic {
			panic(fmt.Errorf("%w: %s invoke without receiver", ErrUnknownCallKind, kind))
		}
	default:
		panic(fmt.Errorf("%w: %d", ErrUnknownCallKind, kind))
	}
	return b.append(&Stmt{kind: Invoke, lhs: lhs, callKind: kind, base: base, callee: callee, args: args})
}

// InvokeStatic appends lhs = C.m(args).
func (b *Builder) InvokeStatic(lhs *Var, callee *MethodRef, args ...*Var) *Stmt {
	return b.Invoke(lhs, CallStatic, nil, callee, args...)
}

// InvokeVirtual appends lhs = base.m(args) with virtual dispatch.
func (b *Builder) InvokeVirtual(lhs, base *Var, callee *MethodRef, args ...*Var) *Stmt {
	return b.Invoke(lhs, CallVirtual, base, callee, args...)
}

// InvokeInterface appends lhs = base.m(args) with interface dispatch.
func (b *Builder) InvokeInterface(lhs, base *Var, callee *MethodRef, args ...*Var) *Stmt {
	return b.Invoke(lhs, CallInterface, base, callee, args...)
}

// InvokeSpecial appends lhs = base.m(args) with special (exact) dispatch.
func (b *Builder) InvokeSpecial(lhs, base *Var, callee *MethodRef, args ...*Var) *Stmt {
	return b.Invoke(lhs, CallSpecial, base, callee, args...)
}

// If appends "if l op r goto label"; fallthrough otherwise.
func (b *Builder) If(op BinaryOp, l, r *Var, label string) *Stmt {
	s := b.append(&Stmt{kind: If, cond: &Binary{Op: op, L: l, R: r}})
	b.patches = append(b.patches, patch{stmt: s, label: label, kind: patchIfTrue})
	return s
}

// Goto appends an unconditional jump.
func (b *Builder) Goto(label string) *Stmt {
	s := b.append(&Stmt{kind: Goto})
	b.patches = append(b.patches, patch{stmt: s, label: label, kind: patchGoto})
	return s
}

// Switch appends a table switch over key. caseValues and caseLabels run in
// parallel; defaultLabel receives everything else.
func (b *Builder) Switch(key *Var, caseValues []int32, caseLabels []string, defaultLabel string) *Stmt {
	if len(caseValues) != len(caseLabels) {
		panic(fmt.Errorf("ir: switch with %d values but %d labels", len(caseValues), len(caseLabels)))
	}
	s := b.append(&Stmt{
		kind:        Switch,
		key:         key,
		caseValues:  caseValues,
		caseTargets: make([]int, len(caseValues)),
	})
	for i, label := range caseLabels {
		b.patches = append(b.patches, patch{stmt: s, label: label, kind: patchCase, pos: i})
	}
	b.patches = append(b.patches, patch{stmt: s, label: defaultLabel, kind: patchDefault})
	return s
}

// Return appends "return v".
func (b *Builder) Return(v *Var) *Stmt {
	return b.append(&Stmt{kind: Return, ret: v})
}

// ReturnVoid appends a valueless return.
func (b *Builder) ReturnVoid() *Stmt {
	return b.append(&Stmt{kind: Return})
}

// Finish resolves labels, builds the CFG, records variable use sites and
// attaches the finished IR to the method.
func (b *Builder) Finish() *IR {
	// A trailing label binds to the synthetic exit.
	for _, name := range b.pending {
		b.labels[name] = len(b.stmts)
	}
	b.pending = nil

	for _, p := range b.patches {
		idx, ok := b.labels[p.label]
		if !ok {
			panic(fmt.Errorf("ir: unbound label %q in %s", p.label, b.method))
		}
		switch p.kind {
		case patchGoto, patchIfTrue:
			p.stmt.target = idx
		case patchCase:
			p.stmt.caseTargets[p.pos] = idx
		case patchDefault:
			p.stmt.defaultTarget = idx
		}
	}

	r := &IR{
		method: b.method,
		this:   b.this,
		params: b.params,
		vars:   b.vars,
		stmts:  b.stmts,
	}
	for _, s := range b.stmts {
		switch s.kind {
		case Return:
			if s.ret != nil {
				r.retVars = append(r.retVars, s.ret)
			}
		case Invoke:
			if s.base != nil {
				s.base.invokes = append(s.base.invokes, s)
			}
		case LoadField:
			if s.base != nil {
				s.base.loadFields = append(s.base.loadFields, s)
			}
		case StoreField:
			if s.base != nil {
				s.base.storeFields = append(s.base.storeFields, s)
			}
		case LoadArray:
			s.base.loadArrays = append(s.base.loadArrays, s)
		case StoreArray:
			s.base.storeArrays = append(s.base.storeArrays, s)
		}
	}
	r.cfg = buildCFG(r)
	b.method.ir = r
	return r
}

func buildCFG(r *IR) *CFG {
	g := &CFG{
		ir:    r,
		entry: &Stmt{kind: Nop, index: -1, method: r.method},
		exit:  &Stmt{kind: Nop, index: len(r.stmts), method: r.method},
		succs: make(map[*Stmt][]*CFGEdge),
		preds: make(map[*Stmt][]*CFGEdge),
	}
	g.nodes = append(g.nodes, g.entry)
	g.nodes = append(g.nodes, r.stmts...)
	g.nodes = append(g.nodes, g.exit)

	// nodeAt maps a resolved target index to its node; one past the last
	// statement is the exit.
	nodeAt := func(idx int) *Stmt {
		if idx >= len(r.stmts) {
			return g.exit
		}
		return r.stmts[idx]
	}

	if len(r.stmts) == 0 {
		g.addEdge(EdgeFall, g.entry, g.exit, 0)
		return g
	}
	g.addEdge(EdgeFall, g.entry, r.stmts[0], 0)

	for i, s := range r.stmts {
		switch s.kind {
		case If:
			g.addEdge(EdgeIfTrue, s, nodeAt(s.target), 0)
			g.addEdge(EdgeIfFalse, s, nodeAt(i+1), 0)
		case Goto:
			g.addEdge(EdgeGoto, s, nodeAt(s.target), 0)
		case Switch:
			for ci, tgt := range s.caseTargets {
				g.addEdge(EdgeSwitchCase, s, nodeAt(tgt), s.caseValues[ci])
			}
			g.addEdge(EdgeSwitchDefault, s, nodeAt(s.defaultTarget), 0)
		case Return:
			g.addEdge(EdgeFall, s, g.exit, 0)
		default:
			g.addEdge(EdgeFall, s, nodeAt(i+1), 0)
		}
	}
	return g
}
