package numbank

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/shabbyrobe/golib/assert"
)

func TestCacheCapacity(t *testing.T) {
	for idx, tc := range []struct {
		class     Class
		footprint int
		out       int
	}{
		{C128, 512, 4},
		{C256, 512, 2},
		{C128, 100, 2},
		{C128, 1 << 16, 512},
		{C1024, 1 << 16, 64},
		{C1024, 1<<16 + 1023, 64},
		{C16384, 1 << 16, 4},
	} {
		t.Run(fmt.Sprintf("%d/%d/%d", idx, tc.class, tc.footprint), func(t *testing.T) {
			tt := assert.WrapTB(t)
			tt.MustEqual(tc.out, cacheCapacity(tc.class, tc.footprint))
		})
	}
}

func TestCacheRejectsBadCapacity(t *testing.T) {
	ctx := testContext(t, nil)
	for _, n := range []int{0, 1, 3, 6} {
		p := newPool[big.Int](ctx, intKind{}, C128)
		mustPanic(t, func() { newCache(p, n) })
	}
}

func TestCachePrefilled(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)
	c := ctx.IntCache(C128)
	tt.MustEqual(4, c.Cap())
	tt.MustEqual(4, c.Len())
	tt.MustAssert(c == ctx.IntCache(C128))

	s := c.Pool().Stats()
	tt.MustEqual(4, s.Live)
	tt.MustEqual(4, s.Cached)
	tt.MustEqual(0, ctx.Stats().Live())
}

func TestCacheFIFO(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)
	c := ctx.IntCache(C128)

	var es []*Entry[big.Int]
	for i := 0; i < c.Cap(); i++ {
		es = append(es, c.Allocate())
	}
	tt.MustEqual(0, c.Len())
	es = append(es, c.Allocate())

	s := c.Pool().Stats()
	tt.MustEqual(4, s.CacheHits)
	tt.MustEqual(1, s.CacheMisses)

	for _, e := range es {
		c.Release(e)
	}
	tt.MustEqual(c.Cap(), c.Len())
	tt.MustEqual(1, c.Pool().Stats().Evictions)
	tt.MustEqual(entryFree, es[0].state)
	for _, e := range es[1:] {
		tt.MustEqual(entryCached, e.state)
	}

	for i, e := range es[1:] {
		tt.MustAssert(e == c.Allocate(), "cache order broken at %d", i)
	}
	for _, e := range es[1:] {
		c.Release(e)
	}
}

func TestCacheReleaseForeignEntry(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)
	small, large := ctx.IntCache(C128), ctx.IntCache(C256)

	e := large.Allocate()
	small.Release(e)
	tt.MustEqual(4, small.Len())
	tt.MustEqual(1, large.Len())
	tt.MustEqual(entryFree, e.state)
	tt.MustEqual(0, ctx.Stats().Live())
}

func TestCacheFlushDrainsBanks(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)
	c := ctx.IntCache(C128)

	c.Flush()
	tt.MustEqual(0, c.Len())
	s := c.Pool().Stats()
	tt.MustEqual(0, s.Banks)
	tt.MustEqual(1, s.BanksDestroyed)
	tt.MustEqual(0, s.Live)
}

func TestContextCloseDrainsEverything(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)

	u := NewUint(ctx, C128)
	f := NewFrac(ctx, C256)
	m, err := NewMod(ctx, C128, big.NewInt(97))
	tt.MustOK(err)
	d := NewModDefault(ctx, C128)

	// Two slots per value, plus the modulus 97 and the shared modulus of 1.
	tt.MustEqual(10, ctx.Stats().Live())
	u.Release()
	f.Release()
	m.Release()
	d.Release()
	tt.MustEqual(1, ctx.Stats().Live())

	ctx.Close()
	ctx.Close()

	s := ctx.Stats()
	tt.MustEqual(2, len(s.Pools))
	tt.MustEqual("int", s.Pools[0].Kind)
	tt.MustEqual("rat", s.Pools[1].Kind)
	for _, p := range s.Pools {
		tt.MustEqual(0, p.Banks, "%s/%d", p.Kind, p.Class)
		tt.MustEqual(0, p.Live, "%s/%d", p.Kind, p.Class)
		tt.MustEqual(0, p.Cached, "%s/%d", p.Kind, p.Class)
	}
}

func TestContextReleaseAfterClose(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)
	u := NewUint(ctx, C128)
	ctx.Close()

	u.Release()
	s := ctx.Stats().Pools[0]
	tt.MustEqual(0, s.Banks)
	tt.MustEqual(0, s.Cached)

	mustPanic(t, func() { NewUint(ctx, C256) })
}
