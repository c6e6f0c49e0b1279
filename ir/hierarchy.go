package ir

// ClassHierarchy is the oracle over the loaded class universe. The analysis
// engines only need the downward subtype queries; the upward walk goes
// through Class.Super directly.
type ClassHierarchy interface {
	// DirectSubclassesOf returns the classes whose direct superclass is c.
	DirectSubclassesOf(c *Class) []*Class
	// DirectSubinterfacesOf returns the interfaces directly extending i.
	DirectSubinterfacesOf(i *Class) []*Class
	// DirectImplementorsOf returns the classes directly implementing i.
	DirectImplementorsOf(i *Class) []*Class
}

// Hierarchy is an in-memory ClassHierarchy populated through a builder API.
// Front-ends fill it while loading classes; tests use it to assemble small
// programs.
type Hierarchy struct {
	classes       map[string]*Class
	classList     []*Class
	subclasses    map[*Class][]*Class
	subinterfaces map[*Class][]*Class
	implementors  map[*Class][]*Class
}

// NewHierarchy returns an empty hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		classes:       make(map[string]*Class),
		subclasses:    make(map[*Class][]*Class),
		subinterfaces: make(map[*Class][]*Class),
		implementors:  make(map[*Class][]*Class),
	}
}

// ClassOpt configures a class under construction.
type ClassOpt func(*Class)

// Abstract marks the class abstract.
func Abstract() ClassOpt { return func(c *Class) { c.isAbstract = true } }

// Interface marks the class as an interface.
func Interface() ClassOpt { return func(c *Class) { c.isInterface = true; c.isAbstract = true } }

// Extends sets the direct superclass.
func Extends(super *Class) ClassOpt { return func(c *Class) { c.super = super } }

// Implements adds directly implemented (or, for interfaces, extended)
// interfaces.
func Implements(ifaces ...*Class) ClassOpt {
	return func(c *Class) { c.interfaces = append(c.interfaces, ifaces...) }
}

// NewClass creates and registers a class.
func (h *Hierarchy) NewClass(name string, opts ...ClassOpt) *Class {
	c := &Class{
		name:    name,
		methods: make(map[string]*Method),
		fields:  make(map[string]*Field),
	}
	c.typ = &Type{kind: ClassType, class: c, name: name}
	for _, opt := range opts {
		opt(c)
	}
	h.classes[name] = c
	h.classList = append(h.classList, c)
	if c.super != nil {
		h.subclasses[c.super] = append(h.subclasses[c.super], c)
	}
	for _, i := range c.interfaces {
		if c.isInterface {
			h.subinterfaces[i] = append(h.subinterfaces[i], c)
		} else {
			h.implementors[i] = append(h.implementors[i], c)
		}
	}
	return c
}

// ClassByName looks up a registered class.
func (h *Hierarchy) ClassByName(name string) *Class { return h.classes[name] }

// Classes returns every registered class in registration order.
func (h *Hierarchy) Classes() []*Class { return h.classList }

// MethodOpt configures a method under construction.
type MethodOpt func(*Method)

// Static marks the method static.
func Static() MethodOpt { return func(m *Method) { m.isStatic = true } }

// AbstractMethod marks the method abstract (no body).
func AbstractMethod() MethodOpt { return func(m *Method) { m.isAbstract = true } }

// Native marks the method native (no analyzable body).
func Native() MethodOpt { return func(m *Method) { m.isNative = true } }

// NewMethod declares a method on c with the given subsignature,
// e.g. NewMethod(c, "foo", "int foo(int)").
func (h *Hierarchy) NewMethod(c *Class, name, subsig string, opts ...MethodOpt) *Method {
	m := &Method{class: c, name: name, subsig: subsig}
	for _, opt := range opts {
		opt(m)
	}
	c.methods[subsig] = m
	c.methodList = append(c.methodList, m)
	return m
}

// NewField declares a field on c.
func (h *Hierarchy) NewField(c *Class, name string, typ *Type, static bool) *Field {
	f := &Field{class: c, name: name, typ: typ, static: static}
	c.fields[name] = f
	return f
}

// DirectSubclassesOf implements ClassHierarchy.
func (h *Hierarchy) DirectSubclassesOf(c *Class) []*Class { return h.subclasses[c] }

// DirectSubinterfacesOf implements ClassHierarchy.
func (h *Hierarchy) DirectSubinterfacesOf(i *Class) []*Class { return h.subinterfaces[i] }

// DirectImplementorsOf implements ClassHierarchy.
func (h *Hierarchy) DirectImplementorsOf(i *Class) []*Class { return h.implementors[i] }
