package numbank

import (
	"math/big"
	"sort"
)

// Context holds every pool, cache and modulus registry used by one
// goroutine. Nothing in a Context is synchronised: it, and every value
// created from it, must stay on the goroutine that owns it.
//
// Close flushes the recycling caches back to their banks. Without it, a
// bank with cached slots can never be drained.
type Context struct {
	cfg   Config
	alloc allocContext

	ints   map[Class]*Cache[big.Int]
	rats   map[Class]*Cache[big.Rat]
	moduli map[Class]*registry

	cleanup []func()
	closed  bool
}

// NewContext creates a Context. A nil cfg uses DefaultConfig.
func NewContext(cfg *Config) *Context {
	installHooks()

	c := DefaultConfig()
	if cfg != nil {
		c = cfg.withDefaults()
	}
	ctx := &Context{
		cfg:    c,
		ints:   make(map[Class]*Cache[big.Int]),
		rats:   make(map[Class]*Cache[big.Rat]),
		moduli: make(map[Class]*registry),
	}
	if c.Logger != nil {
		ctx.alloc.logf = c.Logger.Printf
	}
	return ctx
}

func (ctx *Context) Config() Config { return ctx.cfg }

func (ctx *Context) logf(format string, args ...interface{}) {
	if ctx.cfg.Logger != nil {
		ctx.cfg.Logger.Printf(format, args...)
	}
}

// onClose registers fn to run when the Context is closed. Callbacks run in
// reverse registration order.
func (ctx *Context) onClose(fn func()) {
	ctx.cleanup = append(ctx.cleanup, fn)
}

// Close runs the teardown callbacks: cached default moduli are released and
// every recycling cache is flushed to its banks. Banks whose slots are then
// all free are destroyed. Close is idempotent.
func (ctx *Context) Close() {
	if ctx.closed {
		return
	}
	ctx.closed = true
	for i := len(ctx.cleanup) - 1; i >= 0; i-- {
		ctx.cleanup[i]()
	}
	ctx.cleanup = nil
}

func (ctx *Context) checkOpen() {
	if ctx.closed {
		panic("numbank: use of closed context")
	}
}

// IntCache returns the recycling cache for big.Int slots of the given
// class, creating and pre-filling it on first use.
func (ctx *Context) IntCache(class Class) *Cache[big.Int] {
	if c := ctx.ints[class]; c != nil {
		return c
	}
	ctx.checkOpen()
	c := newContextCache[big.Int](ctx, intKind{}, class)
	ctx.ints[class] = c
	return c
}

// RatCache returns the recycling cache for big.Rat slots of the given
// class, creating and pre-filling it on first use.
func (ctx *Context) RatCache(class Class) *Cache[big.Rat] {
	if c := ctx.rats[class]; c != nil {
		return c
	}
	ctx.checkOpen()
	c := newContextCache[big.Rat](ctx, ratKind{}, class)
	ctx.rats[class] = c
	return c
}

func (ctx *Context) IntPool(class Class) *Pool[big.Int] { return ctx.IntCache(class).pool }
func (ctx *Context) RatPool(class Class) *Pool[big.Rat] { return ctx.RatCache(class).pool }

func newContextCache[T any](ctx *Context, kind storageKind[T], class Class) *Cache[T] {
	pool := newPool[T](ctx, kind, class)
	c := newCache(pool, cacheCapacity(class, ctx.cfg.CacheBits))
	c.fill()
	ctx.onClose(c.Flush)
	return c
}

func (ctx *Context) registry(class Class) *registry {
	if r := ctx.moduli[class]; r != nil {
		return r
	}
	r := newRegistry(ctx, ctx.IntCache(class))
	ctx.moduli[class] = r
	ctx.onClose(r.close)
	return r
}

// Stats is a snapshot of a Context's pools.
type Stats struct {
	Pools []PoolStats

	HeapAllocs int // Provider allocations that could not be served by a page
	Promotions int // Slot storage moved from a page to the heap by realloc
	HeapFrees  int // Heap storage dropped when a slot was trimmed
}

// Live returns the number of slots handed out to values across all pools,
// excluding cache-resident ones.
func (s Stats) Live() (n int) {
	for _, p := range s.Pools {
		n += p.Live - p.Cached
	}
	return n
}

func (ctx *Context) Stats() Stats {
	s := Stats{
		HeapAllocs: ctx.alloc.heapAllocs,
		Promotions: ctx.alloc.promotions,
		HeapFrees:  ctx.alloc.heapFrees,
	}
	for _, c := range ctx.ints {
		s.Pools = append(s.Pools, c.pool.Stats())
	}
	for _, c := range ctx.rats {
		s.Pools = append(s.Pools, c.pool.Stats())
	}
	sort.Slice(s.Pools, func(i, j int) bool {
		if s.Pools[i].Kind != s.Pools[j].Kind {
			return s.Pools[i].Kind < s.Pools[j].Kind
		}
		return s.Pools[i].Class < s.Pools[j].Class
	})
	return s
}
