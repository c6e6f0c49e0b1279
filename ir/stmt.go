package ir

import (
	"errors"
	"fmt"
)

// ErrUnknownCallKind reports an Invoke that satisfies none of the known call
// kinds. IR construction fails fast on it; the engines never see such a
// statement.
var ErrUnknownCallKind = errors.New("ir: unknown call kind")

// CallKind classifies an invoke site.
type CallKind uint8

const (
	CallStatic CallKind = iota
	CallSpecial
	CallVirtual
	CallInterface
	CallDynamic
)

func (k CallKind) String() string {
	switch k {
	case CallStatic:
		return "STATIC"
	case CallSpecial:
		return "SPECIAL"
	case CallVirtual:
		return "VIRTUAL"
	case CallInterface:
		return "INTERFACE"
	case CallDynamic:
		return "DYNAMIC"
	}
	return fmt.Sprintf("CallKind(%d)", uint8(k))
}

// BinaryOp enumerates the integer binary operators.
type BinaryOp uint8

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Rem
	And
	Or
	Xor
	Shl
	Shr  // arithmetic right shift
	UShr // logical right shift
	Eq
	Ne
	Lt
	Gt
	Le
	Ge
)

// IsComparison reports whether the operator yields a 0/1 result.
func (op BinaryOp) IsComparison() bool { return op >= Eq }

// Exp is a right-hand-side expression: a variable, an integer literal or a
// binary over two variables. Anything else the front-end lowers to one of
// these or leaves as an opaque statement.
type Exp interface{ expr() }

// IntLiteral is a 32-bit integer literal expression.
type IntLiteral int32

func (IntLiteral) expr() {}

// Binary is a two-operand integer expression.
type Binary struct {
	Op BinaryOp
	L  *Var
	R  *Var
}

func (*Binary) expr() {}

func (*Var) expr() {}

// StmtKind discriminates statements. The engines match on the kind instead of
// dispatching through a visitor.
type StmtKind uint8

const (
	Nop StmtKind = iota
	New
	Copy
	Assign
	LoadField
	StoreField
	LoadArray
	StoreArray
	Invoke
	If
	Switch
	Goto
	Return
)

func (k StmtKind) String() string {
	names := [...]string{
		"Nop", "New", "Copy", "Assign", "LoadField", "StoreField",
		"LoadArray", "StoreArray", "Invoke", "If", "Switch", "Goto", "Return",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("StmtKind(%d)", uint8(k))
}

// Stmt is a single three-address statement. Which fields are meaningful
// depends on Kind; accessors return the zero value for kinds that do not
// carry them.
type Stmt struct {
	kind   StmtKind
	index  int
	line   int
	method *Method

	lhs     *Var
	rhs     Exp
	src     *Var
	base    *Var
	field   *Field
	arrIdx  *Var
	newType *Type

	callKind CallKind
	callee   *MethodRef
	args     []*Var

	cond *Binary
	key  *Var

	target        int
	caseValues    []int32
	caseTargets   []int
	defaultTarget int

	ret *Var
}

// Kind returns the statement kind.
func (s *Stmt) Kind() StmtKind { return s.kind }

// Index returns the statement's position in its method body.
func (s *Stmt) Index() int { return s.index }

// Line returns the source line number, 0 if unknown.
func (s *Stmt) Line() int { return s.line }

// Method returns the containing method.
func (s *Stmt) Method() *Method { return s.method }

// Def returns the variable defined by this statement, nil if none.
func (s *Stmt) Def() *Var { return s.lhs }

// RHS returns the assigned expression for Assign statements.
func (s *Stmt) RHS() Exp { return s.rhs }

// Src returns the source variable of Copy, StoreField and StoreArray.
func (s *Stmt) Src() *Var { return s.src }

// Base returns the instance base variable: field/array base or invoke
// receiver. Nil for static accesses and static invokes.
func (s *Stmt) Base() *Var { return s.base }

// FieldRef returns the accessed field for Load/StoreField.
func (s *Stmt) FieldRef() *Field { return s.field }

// ArrayIndex returns the index variable for Load/StoreArray.
func (s *Stmt) ArrayIndex() *Var { return s.arrIdx }

// NewType returns the allocated type for New.
func (s *Stmt) NewType() *Type { return s.newType }

// CallKind returns the invoke classification.
func (s *Stmt) CallKind() CallKind { return s.callKind }

// Callee returns the invoke's method reference.
func (s *Stmt) Callee() *MethodRef { return s.callee }

// Args returns the invoke's argument variables, receiver excluded.
func (s *Stmt) Args() []*Var { return s.args }

// IsStaticCall reports whether this is a static invoke.
func (s *Stmt) IsStaticCall() bool { return s.kind == Invoke && s.callKind == CallStatic }

// Cond returns the branch condition for If.
func (s *Stmt) Cond() *Binary { return s.cond }

// SwitchKey returns the scrutinee variable for Switch.
func (s *Stmt) SwitchKey() *Var { return s.key }

// CaseValues returns the case constants for Switch.
func (s *Stmt) CaseValues() []int32 { return s.caseValues }

// ReturnVar returns the returned variable, nil for void returns.
func (s *Stmt) ReturnVar() *Var { return s.ret }

// Uses returns the variables read by this statement.
func (s *Stmt) Uses() []*Var {
	var uses []*Var
	add := func(vs ...*Var) {
		for _, v := range vs {
			if v != nil {
				uses = append(uses, v)
			}
		}
	}
	switch s.kind {
	case Copy:
		add(s.src)
	case Assign:
		if bin, ok := s.rhs.(*Binary); ok {
			add(bin.L, bin.R)
		} else if v, ok := s.rhs.(*Var); ok {
			add(v)
		}
	case LoadField:
		add(s.base)
	case StoreField:
		add(s.base, s.src)
	case LoadArray:
		add(s.base, s.arrIdx)
	case StoreArray:
		add(s.base, s.arrIdx, s.src)
	case Invoke:
		add(s.base)
		add(s.args...)
	case If:
		add(s.cond.L, s.cond.R)
	case Switch:
		add(s.key)
	case Return:
		add(s.ret)
	}
	return uses
}

func (s *Stmt) String() string {
	return fmt.Sprintf("%s[%d]@%s", s.kind, s.index, s.method.name)
}
