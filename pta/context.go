package pta

import (
	"fmt"
	"strings"
)

// maxContextDepth bounds context length across all selectors; the deepest
// shipped policy is 2-call/2-obj/2-type.
const maxContextDepth = 4

// Context is an interned ordered sequence of context elements: call sites
// for call-string sensitivity, heap objects for object sensitivity, types
// for type sensitivity. Interning makes contexts pointer-comparable.
type Context struct {
	elems []any
}

// Len returns the number of elements.
func (c *Context) Len() int { return len(c.elems) }

// ElemAt returns the i-th element, oldest first.
func (c *Context) ElemAt(i int) any { return c.elems[i] }

func (c *Context) String() string {
	if len(c.elems) == 0 {
		return "[]"
	}
	parts := make([]string, len(c.elems))
	for i, e := range c.elems {
		parts[i] = fmt.Sprint(e)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

type ctxKey [maxContextDepth]any

// contextPool hash-conses contexts. The empty context is the unique zero
// point of the pool.
type contextPool struct {
	empty *Context
	table map[ctxKey]*Context
}

func newContextPool() *contextPool {
	return &contextPool{
		empty: &Context{},
		table: make(map[ctxKey]*Context),
	}
}

func (p *contextPool) Empty() *Context { return p.empty }

func (p *contextPool) get(elems []any) *Context {
	if len(elems) == 0 {
		return p.empty
	}
	if len(elems) > maxContextDepth {
		panic(fmt.Sprintf("pta: context depth %d exceeds maximum", len(elems)))
	}
	var k ctxKey
	copy(k[:], elems)
	if c, ok := p.table[k]; ok {
		return c
	}
	c := &Context{elems: append([]any(nil), elems...)}
	p.table[k] = c
	return c
}

// appendElem returns the interned context holding the last limit-1 elements
// of base followed by elem. A limit of zero yields the empty context.
func (p *contextPool) appendElem(base *Context, elem any, limit int) *Context {
	if limit <= 0 {
		return p.empty
	}
	keep := limit - 1
	start := len(base.elems) - keep
	if start < 0 {
		start = 0
	}
	elems := make([]any, 0, keep+1)
	elems = append(elems, base.elems[start:]...)
	elems = append(elems, elem)
	return p.get(elems)
}

// truncate returns the interned context holding the last limit elements of
// base.
func (p *contextPool) truncate(base *Context, limit int) *Context {
	if limit <= 0 || len(base.elems) == 0 {
		return p.empty
	}
	if len(base.elems) <= limit {
		return base
	}
	return p.get(base.elems[len(base.elems)-limit:])
}
