package numbank

import (
	"math/big"
)

// handle is the double buffer every value owns: two entries from the same
// cache, one holding the active value and one used as a scratch
// destination. Operations that cannot write over their own input compute
// into vtmp and swap.
//
// Both entries are owned for the handle's whole life. e and etmp never
// change after init except through swapTmp; v and vtmp each point at the
// storage of one of them, never the same one.
type handle[T any] struct {
	c       *Cache[T]
	e, etmp *Entry[T]
	v, vtmp *T
}

func (h *handle[T]) init(c *Cache[T]) {
	h.c = c
	h.e, h.etmp = c.Allocate(), c.Allocate()
	h.v, h.vtmp = h.e.v, h.etmp.v
	c.pool.kind.zero(h.v)
}

func (h *handle[T]) release() {
	invariant(h.e != nil && h.etmp != nil, "value released twice")
	if h.e == nil {
		return
	}
	h.c.Release(h.e)
	h.c.Release(h.etmp)
	h.e, h.etmp, h.v, h.vtmp = nil, nil, nil, nil
}

func (h *handle[T]) live() bool { return h.e != nil }

func (h *handle[T]) swap() {
	h.v, h.vtmp = h.vtmp, h.v
	h.settle()
}

// settle accounts for storage the provider reallocated during the last
// operation on either buffer.
func (h *handle[T]) settle() {
	h.e.bank.pool.track(h.e)
	h.etmp.bank.pool.track(h.etmp)
}

// swapTmp hands the entry currently holding the scratch storage to the
// caller through target, and adopts *target as the new scratch entry.
// Whatever was computed into vtmp now belongs to the caller without a copy.
func (h *handle[T]) swapTmp(target **Entry[T]) {
	var out *Entry[T]
	if h.vtmp == h.e.v {
		out, h.e = h.e, *target
	} else {
		out, h.etmp = h.etmp, *target
	}
	h.vtmp = (*target).v
	*target = out
}

// scratchEntry returns the entry whose storage is currently vtmp.
func (h *handle[T]) scratchEntry() *Entry[T] {
	if h.vtmp == h.e.v {
		return h.e
	}
	return h.etmp
}

// reserve makes sure v, one of h's two buffers, can hold n words without
// the provider reallocating it, moving it to the heap through the realloc
// hook if its page block is too small. The value is kept.
func reserve(h *handle[big.Int], v *big.Int, n int) {
	b := v.Bits()
	if n <= cap(b) {
		return
	}
	e := h.e
	if v != e.v {
		e = h.etmp
	}
	neg := v.Sign() < 0
	ac := &e.bank.pool.ctx.alloc
	ac.push(e.bank.page, e.index)
	v.SetBits(ac.realloc(b, n)[:len(b)])
	ac.pop()
	if neg {
		v.Neg(v)
	}
}

// reserveScratch reserves n words in the scratch buffer.
func reserveScratch(h *handle[big.Int], n int) { reserve(h, h.vtmp, n) }
