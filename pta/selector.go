package pta

import (
	"errors"
	"fmt"

	"github.com/seclab/argus/ir"
)

// ErrUnknownPolicy reports an unrecognized context-sensitivity id.
var ErrUnknownPolicy = errors.New("pta: unknown context-sensitivity policy")

// ContextSelector chooses contexts for methods and heap objects. The three
// operations mirror the three decision points of the solver: caller-side
// contexts for static calls, receiver-aware contexts for instance calls, and
// heap contexts for allocations.
type ContextSelector interface {
	// SelectCall picks the callee context for a static call.
	SelectCall(callSite *CSCallSite, callee *ir.Method) *Context
	// SelectReceiver picks the callee context for an instance call
	// dispatched on recv.
	SelectReceiver(callSite *CSCallSite, recv *CSObj, callee *ir.Method) *Context
	// SelectHeap picks the heap context for an object allocated in m.
	SelectHeap(m *CSMethod, obj *Obj) *Context
}

// SelectorByID returns the selector for a policy id: ci, k-call, k-obj or
// k-type with k in 1..2. Contexts are interned in m's pool.
func SelectorByID(id string, m *Manager) (ContextSelector, error) {
	pool := m.pool
	switch id {
	case "ci":
		return ciSelector{pool: pool}, nil
	case "1-call":
		return kCallSelector{pool: pool, k: 1}, nil
	case "2-call":
		return kCallSelector{pool: pool, k: 2}, nil
	case "1-obj":
		return kObjSelector{pool: pool, k: 1}, nil
	case "2-obj":
		return kObjSelector{pool: pool, k: 2}, nil
	case "1-type":
		return kTypeSelector{pool: pool, k: 1}, nil
	case "2-type":
		return kTypeSelector{pool: pool, k: 2}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, id)
	}
}

// ciSelector produces only the empty context: context-insensitive analysis.
type ciSelector struct{ pool *contextPool }

func (s ciSelector) SelectCall(*CSCallSite, *ir.Method) *Context { return s.pool.Empty() }

func (s ciSelector) SelectReceiver(*CSCallSite, *CSObj, *ir.Method) *Context {
	return s.pool.Empty()
}

func (s ciSelector) SelectHeap(*CSMethod, *Obj) *Context { return s.pool.Empty() }

// kCallSelector implements k-limited call-string sensitivity: the callee
// context is the last k-1 elements of the caller context plus the call site.
type kCallSelector struct {
	pool *contextPool
	k    int
}

func (s kCallSelector) SelectCall(cs *CSCallSite, _ *ir.Method) *Context {
	return s.pool.appendElem(cs.Context(), cs.Site(), s.k)
}

func (s kCallSelector) SelectReceiver(cs *CSCallSite, _ *CSObj, callee *ir.Method) *Context {
	return s.SelectCall(cs, callee)
}

func (s kCallSelector) SelectHeap(m *CSMethod, _ *Obj) *Context {
	return s.pool.truncate(m.Context(), s.k-1)
}

// kObjSelector implements k-limited object sensitivity: the callee context
// is the last k-1 elements of the receiver object's context plus the
// receiver object itself.
type kObjSelector struct {
	pool *contextPool
	k    int
}

func (s kObjSelector) SelectCall(cs *CSCallSite, _ *ir.Method) *Context {
	// Static calls have no receiver; the callee inherits the caller context.
	return cs.Container().Context()
}

func (s kObjSelector) SelectReceiver(_ *CSCallSite, recv *CSObj, _ *ir.Method) *Context {
	return s.pool.appendElem(recv.Context(), recv.Obj(), s.k)
}

func (s kObjSelector) SelectHeap(m *CSMethod, _ *Obj) *Context {
	return s.pool.truncate(m.Context(), s.k-1)
}

// kTypeSelector is the coarser cousin of object sensitivity: it appends the
// type containing the receiver's allocation site instead of the object.
type kTypeSelector struct {
	pool *contextPool
	k    int
}

func (s kTypeSelector) SelectCall(cs *CSCallSite, _ *ir.Method) *Context {
	return cs.Container().Context()
}

func (s kTypeSelector) SelectReceiver(_ *CSCallSite, recv *CSObj, _ *ir.Method) *Context {
	return s.pool.appendElem(recv.Context(), recv.Obj().ContainerType(), s.k)
}

func (s kTypeSelector) SelectHeap(m *CSMethod, _ *Obj) *Context {
	return s.pool.truncate(m.Context(), s.k-1)
}
