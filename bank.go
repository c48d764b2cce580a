package numbank

import (
	"math/big"
)

type entryState uint8

const (
	entryFree entryState = iota
	entryLive
	entryCached
)

// Entry is the metadata handle for one slot of a bank. The slot itself is
// owned by the bank for the bank's whole life and never moves; an Entry
// only records who currently holds it.
//
// When used as a shared modulus, refs counts the values referencing it and
// mask points at the companion entry holding 2^k-1 for a power-of-two
// modulus that is reduced by masking.
type Entry[T any] struct {
	bank  *Bank[T]
	v     *T
	next  *Entry[T]
	index int
	state entryState

	refs int
	mask *Entry[T]
	pow2 uint
}

// Copy sets dst to the value held in the slot and returns dst. The slot's
// own storage is never handed out, so a shared modulus cannot be changed
// through its entry.
func (e *Entry[T]) Copy(dst *T) *T {
	e.bank.pool.kind.copy(dst, e.v)
	return dst
}

// Index is the slot's position within its bank.
func (e *Entry[T]) Index() int { return e.index }

func (e *Entry[T]) Bank() *Bank[T] { return e.bank }

// Refs is the entry's reference count when it is used as a shared modulus.
func (e *Entry[T]) Refs() int { return e.refs }

// Bank is a fixed-capacity array of slots plus their entries and the word
// page backing the provider's storage for every slot.
type Bank[T any] struct {
	pool    *Pool[T]
	slots   []T
	entries []Entry[T]
	page    *pageAllocator

	used, free int
	freeHead   *Entry[T]

	listed     bool
	prev, next *Bank[T]
}

func (b *Bank[T]) Used() int { return b.used }
func (b *Bank[T]) Free() int { return b.free }

func (b *Bank[T]) hasCapacity() bool {
	return b.used < len(b.slots) || b.freeHead != nil
}

// Pool supplies and reclaims slots of one storage kind and capacity class.
// It belongs to exactly one Context.
type Pool[T any] struct {
	ctx   *Context
	kind  storageKind[T]
	class Class
	words int
	cache *Cache[T]

	avail *Bank[T]

	banks          int
	banksCreated   int
	banksDestroyed int
	live           int
	freed          int
	trims          int
}

func newPool[T any](ctx *Context, kind storageKind[T], class Class) *Pool[T] {
	class.validate()
	return &Pool[T]{
		ctx:   ctx,
		kind:  kind,
		class: class,
		words: class.Words(),
	}
}

func (p *Pool[T]) Class() Class { return p.class }

// Allocate hands out a slot, preferring a bank's free-list, then the next
// never-used slot of a bank with capacity, then a brand new bank.
//
// If a new bank cannot be constructed, Allocate panics with *AllocError.
func (p *Pool[T]) Allocate() *Entry[T] {
	b := p.avail
	if b == nil {
		b = p.newBank()
	}

	var e *Entry[T]
	if e = b.freeHead; e != nil {
		b.freeHead, e.next = e.next, nil
		b.free--
		p.freed--
	} else {
		e = &b.entries[b.used]
		e.bank, e.v, e.index = b, &b.slots[b.used], b.used
		b.used++
	}

	if !b.hasCapacity() {
		p.unlist(b)
	}

	invariant(e.state == entryFree, "slot %d allocated while %d", e.index, e.state)
	e.state = entryLive
	p.live++
	return e
}

// Release returns a slot to its bank, trims any heap storage the value grew
// into, and destroys the bank once every slot it handed out is free again.
func (p *Pool[T]) Release(e *Entry[T]) {
	b := e.bank
	invariant(b != nil && b.pool == p, "slot released to a foreign pool")
	invariant(e.state != entryFree, "slot %d double-freed", e.index)

	wasFull := !b.hasCapacity()
	e.state = entryFree
	e.refs, e.mask, e.pow2 = 0, nil, 0
	e.next, b.freeHead = b.freeHead, e
	b.free++
	p.live--
	p.freed++
	if wasFull {
		p.list(b)
	}

	ac := &p.ctx.alloc
	ac.push(b.page, e.index)
	p.kind.resize(e.v, ac, p.words)
	ac.pop()
	p.trims++

	if b.free >= b.used {
		p.destroyBank(b)
	}
}

// track records any storage of e's slot that the provider moved off the
// page since the last call.
func (p *Pool[T]) track(e *Entry[T]) {
	ac := &p.ctx.alloc
	ac.push(e.bank.page, e.index)
	for i := 0; i < p.kind.parts(); i++ {
		ac.track(p.kind.bits(e.v, i), i)
	}
	ac.pop()
}

func (p *Pool[T]) newBank() *Bank[T] {
	cfg := &p.ctx.cfg
	if cfg.MaxBanks > 0 && p.banks >= cfg.MaxBanks {
		panic(&AllocError{Kind: p.kind.name(), Class: p.class, Banks: p.banks})
	}

	n := cfg.BankSize
	b := &Bank[T]{
		pool:    p,
		slots:   make([]T, n),
		entries: make([]Entry[T], n),
		page:    newPageAllocator(n, LocalMemScale, p.words),
	}

	ac := &p.ctx.alloc
	for i := range b.slots {
		ac.push(b.page, i)
		p.kind.init(&b.slots[i], ac, p.words)
		ac.pop()
	}

	p.banks++
	p.banksCreated++
	p.list(b)
	return b
}

func (p *Pool[T]) destroyBank(b *Bank[T]) {
	invariant(b.free == b.used, "bank destroyed with %d of %d slots live", b.used-b.free, b.used)

	ac := &p.ctx.alloc
	for i := range b.slots {
		ac.push(b.page, i)
		p.kind.deinit(&b.slots[i], ac)
		ac.pop()
	}

	p.unlist(b)
	p.freed -= b.free
	p.banks--
	p.banksDestroyed++

	for i := range b.entries {
		b.entries[i] = Entry[T]{}
	}
	b.freeHead, b.page, b.slots, b.pool = nil, nil, nil, nil
}

func (p *Pool[T]) list(b *Bank[T]) {
	if b.listed {
		return
	}
	b.prev, b.next = nil, p.avail
	if p.avail != nil {
		p.avail.prev = b
	}
	p.avail, b.listed = b, true
}

func (p *Pool[T]) unlist(b *Bank[T]) {
	if !b.listed {
		return
	}
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		p.avail = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	}
	b.prev, b.next, b.listed = nil, nil, false
}

// PoolStats is a snapshot of one pool and its recycling cache.
type PoolStats struct {
	Kind  string
	Class Class

	Banks          int // Banks currently alive
	BanksCreated   int
	BanksDestroyed int

	Live  int // Slots handed out by the pool, including cache-resident ones
	Free  int // Slots sitting on bank free-lists
	Trims int // Slots returned to their page by Release

	Cached        int
	CacheCapacity int
	CacheHits     int
	CacheMisses   int
	Evictions     int
}

func (p *Pool[T]) Stats() PoolStats {
	s := PoolStats{
		Kind:           p.kind.name(),
		Class:          p.class,
		Banks:          p.banks,
		BanksCreated:   p.banksCreated,
		BanksDestroyed: p.banksDestroyed,
		Live:           p.live,
		Free:           p.freed,
		Trims:          p.trims,
	}
	if c := p.cache; c != nil {
		s.Cached = c.n
		s.CacheCapacity = len(c.ring)
		s.CacheHits = c.hits
		s.CacheMisses = c.misses
		s.Evictions = c.evictions
	}
	return s
}

var (
	_ storageKind[big.Int] = intKind{}
	_ storageKind[big.Rat] = ratKind{}
)
