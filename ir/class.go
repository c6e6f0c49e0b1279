package ir

import "fmt"

// Class is a loaded class or interface.
type Class struct {
	name        string
	super       *Class
	interfaces  []*Class
	isInterface bool
	isAbstract  bool
	methods     map[string]*Method
	methodList  []*Method
	fields      map[string]*Field
	typ         *Type
}

// Name returns the fully qualified class name.
func (c *Class) Name() string { return c.name }

// Super returns the direct superclass, nil at the hierarchy root.
func (c *Class) Super() *Class { return c.super }

// Interfaces returns the directly implemented (or extended) interfaces.
func (c *Class) Interfaces() []*Class { return c.interfaces }

// IsInterface reports whether this class is an interface.
func (c *Class) IsInterface() bool { return c.isInterface }

// IsAbstract reports whether this class is abstract.
func (c *Class) IsAbstract() bool { return c.isAbstract }

// Type returns the reference type of this class.
func (c *Class) Type() *Type { return c.typ }

// DeclaredMethod returns the method declared directly on this class with the
// given subsignature, or nil.
func (c *Class) DeclaredMethod(subsig string) *Method { return c.methods[subsig] }

// DeclaredField returns the field declared directly on this class, or nil.
func (c *Class) DeclaredField(name string) *Field { return c.fields[name] }

// Methods returns the declared methods in declaration order.
func (c *Class) Methods() []*Method { return c.methodList }

func (c *Class) String() string { return c.name }

// Field is a resolved instance or static field.
type Field struct {
	class  *Class
	name   string
	typ    *Type
	static bool
}

// Class returns the declaring class.
func (f *Field) Class() *Class { return f.class }

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Type returns the declared field type.
func (f *Field) Type() *Type { return f.typ }

// IsStatic reports whether the field is static.
func (f *Field) IsStatic() bool { return f.static }

func (f *Field) String() string { return f.class.name + "." + f.name }

// Method is a declared method, with or without a body.
type Method struct {
	class      *Class
	name       string
	subsig     string
	isStatic   bool
	isAbstract bool
	isNative   bool
	ir         *IR
}

// Class returns the declaring class.
func (m *Method) Class() *Class { return m.class }

// Name returns the simple method name.
func (m *Method) Name() string { return m.name }

// Subsignature returns the canonical subsignature used for dispatch,
// e.g. "int foo(int,int)".
func (m *Method) Subsignature() string { return m.subsig }

// IsStatic reports whether the method is static.
func (m *Method) IsStatic() bool { return m.isStatic }

// IsAbstract reports whether the method is abstract.
func (m *Method) IsAbstract() bool { return m.isAbstract }

// IsNative reports whether the method is native.
func (m *Method) IsNative() bool { return m.isNative }

// IR returns the method body, or nil for abstract/native methods.
func (m *Method) IR() *IR { return m.ir }

// Signature returns the fully qualified signature for display.
func (m *Method) Signature() string {
	return fmt.Sprintf("<%s: %s>", m.class.name, m.subsig)
}

func (m *Method) String() string { return m.Signature() }

// MethodRef names the target of an invoke before resolution: the declaring
// class recorded at the call site plus the subsignature.
type MethodRef struct {
	class  *Class
	name   string
	subsig string
}

// Class returns the class named at the call site.
func (r *MethodRef) Class() *Class { return r.class }

// Name returns the simple method name.
func (r *MethodRef) Name() string { return r.name }

// Subsignature returns the dispatch subsignature.
func (r *MethodRef) Subsignature() string { return r.subsig }

func (r *MethodRef) String() string {
	return fmt.Sprintf("<%s: %s>", r.class.name, r.subsig)
}
