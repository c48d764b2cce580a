package numbank

// Cache is a FIFO ring of recently released entries sitting in front of a
// Pool. Reusing a cached entry skips the pool's free-list and the cost of
// trimming the slot.
type Cache[T any] struct {
	pool *Pool[T]
	ring []*Entry[T]
	mask int
	head int
	n    int

	hits, misses, evictions int
}

// cacheCapacity returns the largest power of two c with c*bits <= footprint,
// floored at 2.
func cacheCapacity(bits Class, footprint int) int {
	c := 1
	for (c<<1)*int(bits) <= footprint {
		c <<= 1
	}
	if c < 2 {
		c = 2
	}
	return c
}

func newCache[T any](pool *Pool[T], capacity int) *Cache[T] {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		panic("numbank: cache capacity must be a power of two and >= 2")
	}
	c := &Cache[T]{
		pool: pool,
		ring: make([]*Entry[T], capacity),
		mask: capacity - 1,
	}
	pool.cache = c
	return c
}

// fill pre-loads the cache from its pool.
func (c *Cache[T]) fill() {
	for c.n < len(c.ring) {
		e := c.pool.Allocate()
		e.state = entryCached
		c.ring[(c.head+c.n)&c.mask] = e
		c.n++
	}
}

func (c *Cache[T]) Pool() *Pool[T] { return c.pool }
func (c *Cache[T]) Len() int       { return c.n }
func (c *Cache[T]) Cap() int       { return len(c.ring) }

// Allocate takes the oldest cached entry, or asks the pool on a miss.
func (c *Cache[T]) Allocate() *Entry[T] {
	if c.n == 0 {
		c.misses++
		return c.pool.Allocate()
	}
	e := c.ring[c.head]
	c.ring[c.head] = nil
	c.head = (c.head + 1) & c.mask
	c.n--
	c.hits++
	invariant(e.state == entryCached, "cached slot %d in state %d", e.index, e.state)
	e.state = entryLive
	return e
}

// Release stores e in the next write slot. If the ring is full the oldest
// entry is evicted to its pool first. Once the Context is closed, entries
// bypass the cache.
func (c *Cache[T]) Release(e *Entry[T]) {
	invariant(e.state == entryLive, "slot %d released to cache while %d", e.index, e.state)
	if e.bank.pool != c.pool || c.pool.ctx.closed {
		e.bank.pool.Release(e)
		return
	}
	if c.n == len(c.ring) {
		c.evict()
	}
	e.refs, e.mask, e.pow2 = 0, nil, 0
	e.state = entryCached
	c.ring[(c.head+c.n)&c.mask] = e
	c.n++
}

func (c *Cache[T]) evict() {
	old := c.ring[c.head]
	c.ring[c.head] = nil
	c.head = (c.head + 1) & c.mask
	c.n--
	c.evictions++
	old.state = entryLive
	c.pool.Release(old)
}

// Flush returns every cached entry to its bank.
func (c *Cache[T]) Flush() {
	for c.n > 0 {
		c.evict()
	}
	c.head = 0
}
