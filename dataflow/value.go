// Package dataflow provides the integer constant lattice, dataflow facts and
// a generic worklist solver shared by the intra- and inter-procedural
// analyses.
package dataflow

import "fmt"

type valueKind uint8

const (
	undef valueKind = iota
	constant
	nac
)

// Value is an element of the three-point constant lattice: Undef (bottom),
// a 32-bit constant, or NAC (top, "not a constant"). The zero Value is
// Undef. Values are immutable.
type Value struct {
	kind valueKind
	c    int32
}

// Undef is the lattice bottom: no information.
var Undef = Value{}

// NAC is the lattice top: not a constant.
var NAC = Value{kind: nac}

// ConstOf returns the lattice element for constant i.
func ConstOf(i int32) Value { return Value{kind: constant, c: i} }

// IsUndef reports whether v is the bottom element.
func (v Value) IsUndef() bool { return v.kind == undef }

// IsNAC reports whether v is the top element.
func (v Value) IsNAC() bool { return v.kind == nac }

// IsConstant reports whether v holds a constant.
func (v Value) IsConstant() bool { return v.kind == constant }

// Const returns the held constant. Calling it on a non-constant is a bug in
// the caller.
func (v Value) Const() int32 {
	if v.kind != constant {
		panic(fmt.Sprintf("dataflow: Const() on %s", v))
	}
	return v.c
}

func (v Value) String() string {
	switch v.kind {
	case undef:
		return "UNDEF"
	case nac:
		return "NAC"
	default:
		return fmt.Sprintf("%d", v.c)
	}
}

// MeetValue computes the greatest lower bound of a and b.
func MeetValue(a, b Value) Value {
	switch {
	case a.IsNAC() || b.IsNAC():
		return NAC
	case a.IsUndef():
		return b
	case b.IsUndef():
		return a
	case a.c == b.c:
		return a
	default:
		return NAC
	}
}
