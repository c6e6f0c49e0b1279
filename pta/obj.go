// Package pta implements Andersen-style points-to analysis over a
// pointer-flow graph with on-the-fly call-graph construction. One solver
// serves both the context-insensitive and the context-sensitive analyses;
// the context policy is a pluggable selector.
package pta

import (
	"fmt"

	"github.com/seclab/argus/ir"
)

// Obj is an abstract heap object. Allocation-site objects are interned per
// New statement; mock objects (taint markers and other analysis-made
// objects) are interned per (payload, type).
type Obj struct {
	typ     *ir.Type
	site    *ir.Stmt
	payload any
}

// Type returns the declared type of the object.
func (o *Obj) Type() *ir.Type { return o.typ }

// Site returns the allocation site, nil for mock objects.
func (o *Obj) Site() *ir.Stmt { return o.site }

// Payload returns the analysis-specific payload of a mock object, nil for
// allocation-site objects.
func (o *Obj) Payload() any { return o.payload }

// ContainerType returns the type declaring the allocation, used by type
// sensitivity. Mock objects fall back to their own type.
func (o *Obj) ContainerType() *ir.Type {
	if o.site != nil {
		return o.site.Method().Class().Type()
	}
	return o.typ
}

func (o *Obj) String() string {
	if o.site != nil {
		return fmt.Sprintf("new %s@%s/%d", o.typ.Name(), o.site.Method().Name(), o.site.Index())
	}
	return fmt.Sprintf("mock %s(%v)", o.typ.Name(), o.payload)
}

type mockKey struct {
	payload any
	typ     *ir.Type
}

// HeapModel interns abstract objects under allocation-site abstraction.
type HeapModel struct {
	objs  map[*ir.Stmt]*Obj
	mocks map[mockKey]*Obj
}

// NewHeapModel returns an empty heap model.
func NewHeapModel() *HeapModel {
	return &HeapModel{
		objs:  make(map[*ir.Stmt]*Obj),
		mocks: make(map[mockKey]*Obj),
	}
}

// ObjAt returns the abstract object for a New statement.
func (h *HeapModel) ObjAt(alloc *ir.Stmt) *Obj {
	if o, ok := h.objs[alloc]; ok {
		return o
	}
	o := &Obj{typ: alloc.NewType(), site: alloc}
	h.objs[alloc] = o
	return o
}

// MockObj returns the interned mock object for (payload, typ). The payload
// must be comparable.
func (h *HeapModel) MockObj(payload any, typ *ir.Type) *Obj {
	k := mockKey{payload: payload, typ: typ}
	if o, ok := h.mocks[k]; ok {
		return o
	}
	o := &Obj{typ: typ, payload: payload}
	h.mocks[k] = o
	return o
}
