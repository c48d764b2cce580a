package numbank

import (
	"math/big"
	"sync"
)

// hookSet is the allocate/reallocate/free entry points every storage kind
// goes through when it (re)initialises a slot. They are installed once per
// process; each call dispatches on the allocContext it is given.
type hookSet struct {
	alloc   func(c *allocContext, n int) []big.Word
	realloc func(c *allocContext, b []big.Word, n int) []big.Word
	free    func(c *allocContext, b []big.Word)
}

var (
	hooks     hookSet
	hooksOnce sync.Once
)

func installHooks() {
	hooksOnce.Do(func() {
		hooks = hookSet{
			alloc:   pageAlloc,
			realloc: pageRealloc,
			free:    pageFree,
		}
	})
}

// allocContext is the currently active allocator of one Context: the bank
// page and slot index whose blocks satisfy requests. With no page active,
// requests are served from the heap.
//
// push and pop must bracket any provider call that may allocate. They do
// not nest.
type allocContext struct {
	page   *pageAllocator
	slot   int
	part   int
	active bool

	heapAllocs int
	promotions int
	heapFrees  int

	logf func(format string, args ...interface{})
}

func (c *allocContext) push(p *pageAllocator, slot int) {
	if c.active {
		panic(&InvariantError{Msg: "allocator context pushed while already active"})
	}
	c.page, c.slot, c.part, c.active = p, slot, 0, true
}

func (c *allocContext) pop() {
	invariant(c.active, "allocator context popped while inactive")
	c.page, c.slot, c.part, c.active = nil, 0, 0, false
}

func (c *allocContext) alloc(n int) []big.Word                 { return hooks.alloc(c, n) }
func (c *allocContext) realloc(b []big.Word, n int) []big.Word { return hooks.realloc(c, b, n) }
func (c *allocContext) free(b []big.Word)                      { hooks.free(c, b) }

func (c *allocContext) heap(n, capacity int) []big.Word {
	c.noteHeap(n)
	return make([]big.Word, n, capacity)
}

func (c *allocContext) noteHeap(n int) {
	c.heapAllocs++
	if c.logf != nil {
		if c.active {
			c.logf("numbank: heap fallback for %d words in slot %d (page block is %d words)", n, c.slot, c.page.words)
		} else {
			c.logf("numbank: heap fallback for %d words with no bank active", n)
		}
	}
}

// track accounts for storage the provider reallocated on its own, without
// going through the hooks. b is the current storage of the given part of
// the active slot. A slot leaving its page block counts as a promotion;
// every further change of heap buffer counts as one allocation and one
// free.
func (c *allocContext) track(b []big.Word, part int) {
	p := c.page
	if cap(b) == 0 || p == nil {
		return
	}
	i := c.slot*p.scale + part
	if p.index(b) == i {
		return
	}
	h := &p.hdr[i]
	if h.flags&blockHeap == 0 {
		c.promotions++
	} else if int(h.size) == cap(b) {
		return
	} else {
		c.heapFrees++
	}
	c.noteHeap(cap(b))
	*h = blockHeader{flags: blockHeap, size: int32(cap(b))}
}

func pageAlloc(c *allocContext, n int) []big.Word {
	p := c.page
	if p == nil || n > p.words || c.part >= p.scale {
		return c.heap(n, n)
	}
	i := c.slot*p.scale + c.part
	c.part++
	h := &p.hdr[i]
	invariant(h.flags&blockInUse == 0, "block %d of slot %d handed out twice", i, c.slot)
	h.flags, h.size = blockInUse, int32(n)
	return p.block(i)[:n]
}

// pageRealloc grows part 0 of the active slot. Heap storage is recorded in
// the slot's block header with its capacity as the size.
func pageRealloc(c *allocContext, b []big.Word, n int) []big.Word {
	p := c.page
	if n <= cap(b) {
		if i := p.index(b); i >= 0 {
			p.hdr[i].size = int32(n)
		}
		return b[:n]
	}
	out := c.heap(n, n)
	copy(out, b)
	if p.index(b) >= 0 {
		c.promotions++
	} else if cap(b) > 0 {
		c.heapFrees++
	}
	p.hdr[c.slot*p.scale] = blockHeader{flags: blockHeap, size: int32(n)}
	return out
}

func pageFree(c *allocContext, b []big.Word) {
	if i := c.page.index(b); i >= 0 {
		c.page.hdr[i] = blockHeader{}
		return
	}
	if b != nil {
		c.heapFrees++
	}
}
