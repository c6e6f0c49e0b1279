package pta

import (
	"fmt"

	"github.com/seclab/argus/ir"
)

// Pointer is a node of the pointer-flow graph. Each pointer owns a monotone
// points-to set and a stable integer id assigned by the manager.
type Pointer interface {
	ID() int
	PointsToSet() *PointsToSet
	String() string
}

type pointerBase struct {
	id  int
	pts *PointsToSet
}

// ID returns the arena id.
func (p *pointerBase) ID() int { return p.id }

// PointsToSet returns the pointer's points-to set.
func (p *pointerBase) PointsToSet() *PointsToSet { return p.pts }

// CSVar is a local variable paired with a context.
type CSVar struct {
	pointerBase
	ctx *Context
	v   *ir.Var
}

// Context returns the variable's context.
func (cv *CSVar) Context() *Context { return cv.ctx }

// Var returns the underlying variable.
func (cv *CSVar) Var() *ir.Var { return cv.v }

func (cv *CSVar) String() string { return cv.ctx.String() + ":" + cv.v.String() }

// StaticFieldPtr is a static field. Static state is context-free even under
// context sensitivity.
type StaticFieldPtr struct {
	pointerBase
	f *ir.Field
}

// Field returns the static field.
func (sf *StaticFieldPtr) Field() *ir.Field { return sf.f }

func (sf *StaticFieldPtr) String() string { return sf.f.String() }

// InstanceFieldPtr is a field of an abstract heap object.
type InstanceFieldPtr struct {
	pointerBase
	base *CSObj
	f    *ir.Field
}

// Base returns the holding object.
func (ip *InstanceFieldPtr) Base() *CSObj { return ip.base }

// Field returns the accessed field.
func (ip *InstanceFieldPtr) Field() *ir.Field { return ip.f }

func (ip *InstanceFieldPtr) String() string { return ip.base.String() + "." + ip.f.Name() }

// ArrayIndexPtr models every element of an abstract array object as one
// pointer.
type ArrayIndexPtr struct {
	pointerBase
	base *CSObj
}

// Base returns the array object.
func (ap *ArrayIndexPtr) Base() *CSObj { return ap.base }

func (ap *ArrayIndexPtr) String() string { return ap.base.String() + "[*]" }

// CSObj is a heap object paired with a heap context.
type CSObj struct {
	ctx *Context
	obj *Obj
	id  int
}

// Context returns the heap context.
func (co *CSObj) Context() *Context { return co.ctx }

// Obj returns the underlying object.
func (co *CSObj) Obj() *Obj { return co.obj }

func (co *CSObj) String() string { return co.ctx.String() + ":" + co.obj.String() }

// CSCallSite is a call site paired with the context of its containing
// method.
type CSCallSite struct {
	ctx       *Context
	site      *ir.Stmt
	container *CSMethod
}

// Context returns the caller context.
func (cs *CSCallSite) Context() *Context { return cs.ctx }

// Site returns the invoke statement.
func (cs *CSCallSite) Site() *ir.Stmt { return cs.site }

// Container returns the contextualized containing method.
func (cs *CSCallSite) Container() *CSMethod { return cs.container }

func (cs *CSCallSite) String() string { return cs.ctx.String() + ":" + cs.site.String() }

// CSMethod is a method paired with a context.
type CSMethod struct {
	ctx *Context
	m   *ir.Method
}

// Context returns the method context.
func (cm *CSMethod) Context() *Context { return cm.ctx }

// Method returns the underlying method.
func (cm *CSMethod) Method() *ir.Method { return cm.m }

func (cm *CSMethod) String() string { return cm.ctx.String() + ":" + cm.m.String() }

type varKey struct {
	ctx *Context
	v   *ir.Var
}

type objKey struct {
	ctx *Context
	obj *Obj
}

type siteKey struct {
	ctx  *Context
	site *ir.Stmt
}

type methodKey struct {
	ctx *Context
	m   *ir.Method
}

type instFieldKey struct {
	base *CSObj
	f    *ir.Field
}

// Manager interns every contextualized entity so that (ctx, entity) pairs
// are pointer-comparable, and assigns stable ids to pointers for the
// adjacency arenas.
type Manager struct {
	pool *contextPool

	vars         map[varKey]*CSVar
	objs         map[objKey]*CSObj
	sites        map[siteKey]*CSCallSite
	methods      map[methodKey]*CSMethod
	staticFields map[*ir.Field]*StaticFieldPtr
	instFields   map[instFieldKey]*InstanceFieldPtr
	arrayIndexes map[*CSObj]*ArrayIndexPtr

	pointers []Pointer
	csObjs   []*CSObj
}

// NewManager returns an empty manager with a fresh context pool.
func NewManager() *Manager {
	return &Manager{
		pool:         newContextPool(),
		vars:         make(map[varKey]*CSVar),
		objs:         make(map[objKey]*CSObj),
		sites:        make(map[siteKey]*CSCallSite),
		methods:      make(map[methodKey]*CSMethod),
		staticFields: make(map[*ir.Field]*StaticFieldPtr),
		instFields:   make(map[instFieldKey]*InstanceFieldPtr),
		arrayIndexes: make(map[*CSObj]*ArrayIndexPtr),
	}
}

// EmptyContext returns the unique empty context.
func (m *Manager) EmptyContext() *Context { return m.pool.Empty() }

func (m *Manager) register(p Pointer, set func(id int)) {
	set(len(m.pointers))
	m.pointers = append(m.pointers, p)
}

// CSVarOf interns the contextualized variable (ctx, v).
func (m *Manager) CSVarOf(ctx *Context, v *ir.Var) *CSVar {
	k := varKey{ctx: ctx, v: v}
	if cv, ok := m.vars[k]; ok {
		return cv
	}
	cv := &CSVar{ctx: ctx, v: v}
	cv.pts = NewPointsToSet()
	m.register(cv, func(id int) { cv.id = id })
	m.vars[k] = cv
	return cv
}

// CSObjOf interns the contextualized object (ctx, obj).
func (m *Manager) CSObjOf(ctx *Context, obj *Obj) *CSObj {
	k := objKey{ctx: ctx, obj: obj}
	if co, ok := m.objs[k]; ok {
		return co
	}
	co := &CSObj{ctx: ctx, obj: obj, id: len(m.csObjs)}
	m.csObjs = append(m.csObjs, co)
	m.objs[k] = co
	return co
}

// CSCallSiteOf interns the contextualized call site.
func (m *Manager) CSCallSiteOf(container *CSMethod, site *ir.Stmt) *CSCallSite {
	k := siteKey{ctx: container.ctx, site: site}
	if cs, ok := m.sites[k]; ok {
		return cs
	}
	cs := &CSCallSite{ctx: container.ctx, site: site, container: container}
	m.sites[k] = cs
	return cs
}

// CSMethodOf interns the contextualized method (ctx, method).
func (m *Manager) CSMethodOf(ctx *Context, method *ir.Method) *CSMethod {
	k := methodKey{ctx: ctx, m: method}
	if cm, ok := m.methods[k]; ok {
		return cm
	}
	cm := &CSMethod{ctx: ctx, m: method}
	m.methods[k] = cm
	return cm
}

// StaticFieldOf interns the pointer for a static field.
func (m *Manager) StaticFieldOf(f *ir.Field) *StaticFieldPtr {
	if sf, ok := m.staticFields[f]; ok {
		return sf
	}
	sf := &StaticFieldPtr{f: f}
	sf.pts = NewPointsToSet()
	m.register(sf, func(id int) { sf.id = id })
	m.staticFields[f] = sf
	return sf
}

// InstanceFieldOf interns the pointer for base.f.
func (m *Manager) InstanceFieldOf(base *CSObj, f *ir.Field) *InstanceFieldPtr {
	k := instFieldKey{base: base, f: f}
	if ip, ok := m.instFields[k]; ok {
		return ip
	}
	ip := &InstanceFieldPtr{base: base, f: f}
	ip.pts = NewPointsToSet()
	m.register(ip, func(id int) { ip.id = id })
	m.instFields[k] = ip
	return ip
}

// ArrayIndexOf interns the pointer for base[*].
func (m *Manager) ArrayIndexOf(base *CSObj) *ArrayIndexPtr {
	if ap, ok := m.arrayIndexes[base]; ok {
		return ap
	}
	ap := &ArrayIndexPtr{base: base}
	ap.pts = NewPointsToSet()
	m.register(ap, func(id int) { ap.id = id })
	m.arrayIndexes[base] = ap
	return ap
}

// Pointers returns the pointer arena in id order.
func (m *Manager) Pointers() []Pointer { return m.pointers }

// CSVars visits every interned contextualized variable.
func (m *Manager) CSVars(visit func(*CSVar)) {
	for _, p := range m.pointers {
		if cv, ok := p.(*CSVar); ok {
			visit(cv)
		}
	}
}

func (m *Manager) String() string {
	return fmt.Sprintf("Manager{%d pointers, %d objs}", len(m.pointers), len(m.csObjs))
}
