package numbank

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/shabbyrobe/golib/assert"
)

func TestPageBlockIndex(t *testing.T) {
	p := newPageAllocator(4, 2, 3)
	for i := 0; i < 8; i++ {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			tt := assert.WrapTB(t)
			b := p.block(i)
			tt.MustEqual(0, len(b))
			tt.MustEqual(3, cap(b))
			tt.MustEqual(i, p.index(b))
			tt.MustEqual(i, p.index(b[1:3]))
		})
	}
}

func TestPageIndexForeign(t *testing.T) {
	tt := assert.WrapTB(t)
	p := newPageAllocator(4, 2, 3)
	tt.MustEqual(-1, p.index(nil))
	tt.MustEqual(-1, p.index(make([]big.Word, 3)))
	tt.MustEqual(-1, p.index(newPageAllocator(4, 2, 3).block(0)))

	var np *pageAllocator
	tt.MustEqual(-1, np.index(p.block(0)))
}

func TestPageBlocksDoNotAlias(t *testing.T) {
	tt := assert.WrapTB(t)
	p := newPageAllocator(2, 2, 2)

	b := append(p.block(0), 1, 2)
	tt.MustEqual(0, p.index(b))
	b = append(b, 3)
	tt.MustEqual(-1, p.index(b))
	tt.MustEqual(big.Word(1), p.region[0])
	tt.MustEqual(big.Word(0), p.region[2])

	var x, y big.Int
	x.SetBits(p.block(0)[:0])
	y.SetBits(p.block(1)[:0])
	x.SetUint64(7)
	y.Add(&x, &x)
	tt.MustEqual(uint64(7), x.Uint64())
	tt.MustEqual(uint64(14), y.Uint64())
	tt.MustEqual(1, p.index(y.Bits()))
}

func TestPageReset(t *testing.T) {
	tt := assert.WrapTB(t)
	p := newPageAllocator(2, 2, 2)
	for i := range p.hdr {
		p.hdr[i] = blockHeader{flags: blockInUse, size: 1}
	}
	p.hdr[3].flags |= blockHeap
	tt.MustEqual(4, p.count(blockInUse))
	tt.MustEqual(1, p.count(blockHeap))

	p.reset(1)
	tt.MustEqual(2, p.count(blockInUse))
	tt.MustEqual(0, p.count(blockHeap))
	tt.MustEqual(blockInUse, p.hdr[0].flags)
}

func TestHookAllocFromPage(t *testing.T) {
	tt := assert.WrapTB(t)
	installHooks()

	var logged []string
	var ac allocContext
	ac.logf = func(format string, args ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}

	p := newPageAllocator(2, 2, 4)
	ac.push(p, 1)
	a := ac.alloc(3)
	b := ac.alloc(4)
	c := ac.alloc(1)
	ac.pop()

	tt.MustEqual(3, len(a))
	tt.MustEqual(4, cap(a))
	tt.MustEqual(2, p.index(a))
	tt.MustEqual(3, p.index(b))
	tt.MustEqual(int32(3), p.hdr[2].size)
	tt.MustEqual(blockInUse, p.hdr[3].flags)

	// The slot only has two blocks; the third request goes to the heap.
	tt.MustEqual(-1, p.index(c))
	tt.MustEqual(1, ac.heapAllocs)
	tt.MustEqual(1, len(logged))

	ac.push(p, 0)
	d := ac.alloc(5)
	ac.pop()
	tt.MustEqual(-1, p.index(d))
	tt.MustEqual(2, p.count(blockInUse))
	tt.MustEqual(2, ac.heapAllocs)

	e := ac.alloc(1)
	tt.MustEqual(1, len(e))
	tt.MustEqual(3, ac.heapAllocs)
	tt.MustEqual(3, len(logged))
}

func TestHookPushIsNotReentrant(t *testing.T) {
	tt := assert.WrapTB(t)
	var ac allocContext
	p := newPageAllocator(1, 1, 1)
	ac.push(p, 0)
	v := mustPanic(t, func() { ac.push(p, 0) })
	_, ok := v.(*InvariantError)
	tt.MustAssert(ok)
	ac.pop()
	ac.push(p, 0)
	ac.pop()
}

func TestHookRealloc(t *testing.T) {
	tt := assert.WrapTB(t)
	installHooks()

	var ac allocContext
	p := newPageAllocator(1, 2, 4)
	ac.push(p, 0)
	defer ac.pop()

	a := ac.alloc(2)
	a[0], a[1] = 5, 6

	grown := ac.realloc(a, 4)
	tt.MustEqual(0, p.index(grown))
	tt.MustEqual(int32(4), p.hdr[0].size)
	tt.MustEqual(0, ac.promotions)

	moved := ac.realloc(grown, 9)
	tt.MustEqual(-1, p.index(moved))
	tt.MustEqual(9, len(moved))
	tt.MustEqual(big.Word(5), moved[0])
	tt.MustEqual(big.Word(6), moved[1])
	tt.MustEqual(1, ac.promotions)
	tt.MustEqual(blockHeap, p.hdr[0].flags)

	again := ac.realloc(moved, 20)
	tt.MustEqual(1, ac.promotions)
	tt.MustEqual(2, ac.heapAllocs)
	tt.MustEqual(1, ac.heapFrees)
	tt.MustEqual(int32(20), p.hdr[0].size)
	tt.MustEqual(big.Word(6), again[1])
}

func TestHookFree(t *testing.T) {
	tt := assert.WrapTB(t)
	installHooks()

	var ac allocContext
	p := newPageAllocator(1, 2, 4)
	ac.push(p, 0)
	defer ac.pop()

	a := ac.alloc(2)
	tt.MustEqual(1, p.count(blockInUse))
	ac.free(a)
	tt.MustEqual(0, p.count(blockInUse))
	tt.MustEqual(0, ac.heapFrees)

	ac.free(nil)
	tt.MustEqual(0, ac.heapFrees)
	ac.free(make([]big.Word, 1))
	tt.MustEqual(1, ac.heapFrees)
}
