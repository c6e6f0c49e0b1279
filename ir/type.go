// Package ir defines the intermediate representation contract between the
// class-hierarchy/IR front-end and the analysis engines. The front-end loads
// classes and lowers method bodies into three-address statements; everything
// in this package is treated as immutable once a method's IR is finished.
package ir

// PrimKind enumerates the primitive kinds of the analyzed language.
type PrimKind uint8

const (
	Byte PrimKind = iota
	Short
	Int
	Char
	Boolean
	Long
	Float
	Double
)

// TypeKind discriminates the three type shapes.
type TypeKind uint8

const (
	PrimType TypeKind = iota
	ClassType
	ArrayType
)

// Type is a declared type. Primitive types are interned singletons; class
// types are owned by their Class; array types are interned per element type.
type Type struct {
	kind  TypeKind
	prim  PrimKind
	class *Class
	elem  *Type
	name  string
}

var primTypes = func() [8]*Type {
	names := [8]string{"byte", "short", "int", "char", "boolean", "long", "float", "double"}
	var ts [8]*Type
	for k, n := range names {
		ts[k] = &Type{kind: PrimType, prim: PrimKind(k), name: n}
	}
	return ts
}()

var arrayTypes = map[*Type]*Type{}

// PrimOf returns the interned primitive type for k.
func PrimOf(k PrimKind) *Type { return primTypes[k] }

// IntType returns the interned 32-bit integer type.
func IntType() *Type { return primTypes[Int] }

// ArrayOf returns the interned array type with the given element type.
func ArrayOf(elem *Type) *Type {
	if t, ok := arrayTypes[elem]; ok {
		return t
	}
	t := &Type{kind: ArrayType, elem: elem, name: elem.name + "[]"}
	arrayTypes[elem] = t
	return t
}

// Kind returns the type shape.
func (t *Type) Kind() TypeKind { return t.kind }

// Prim returns the primitive kind; only meaningful for PrimType.
func (t *Type) Prim() PrimKind { return t.prim }

// Class returns the declaring class for ClassType, nil otherwise.
func (t *Type) Class() *Class { return t.class }

// Elem returns the element type for ArrayType, nil otherwise.
func (t *Type) Elem() *Type { return t.elem }

// Name returns the source-level type name.
func (t *Type) Name() string { return t.name }

// IsIntLike reports whether values of this type are held in 32-bit integer
// registers: byte, short, int, char and boolean.
func (t *Type) IsIntLike() bool {
	if t == nil || t.kind != PrimType {
		return false
	}
	switch t.prim {
	case Byte, Short, Int, Char, Boolean:
		return true
	}
	return false
}
