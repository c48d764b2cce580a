package numbank

import (
	"math/big"
)

// registry manages the reference-counted modulus entries of one capacity
// class. A modulus entry is a normal slot from the class's int cache with
// refs > 0; a power-of-two modulus reduced by masking also owns a mask
// entry holding 2^k-1.
type registry struct {
	ctx   *Context
	cache *Cache[big.Int]

	// truncate is set when the int kind can reduce by cutting limbs and the
	// Context has not disabled it.
	truncate limbTruncator

	one    *Entry[big.Int]
	warned map[uint]bool
}

func newRegistry(ctx *Context, cache *Cache[big.Int]) *registry {
	r := &registry{ctx: ctx, cache: cache, warned: make(map[uint]bool)}
	if t, ok := cache.pool.kind.(limbTruncator); ok && !ctx.cfg.DisableLimbTruncation {
		r.truncate = t
	}
	return r
}

// pow2Exp returns k if x == 2^k with k > 0.
func pow2Exp(x *big.Int) (k uint, ok bool) {
	if x.Sign() <= 0 {
		return 0, false
	}
	n := x.BitLen() - 1
	if n == 0 || x.TrailingZeroBits() != uint(n) {
		return 0, false
	}
	return uint(n), true
}

// create returns a fresh modulus entry holding x with one reference. h is
// the handle of the value the modulus is created for; its scratch slot is
// used to build 2^k without a copy.
func (r *registry) create(x *big.Int, h *handle[big.Int]) *Entry[big.Int] {
	if k, ok := pow2Exp(x); ok {
		return r.createPow2(k, h)
	}
	e := r.cache.Allocate()
	e.v.Set(x)
	e.bank.pool.track(e)
	e.refs, e.mask, e.pow2 = 1, nil, 0
	return e
}

func (r *registry) createPow2(k uint, h *handle[big.Int]) *Entry[big.Int] {
	e := r.cache.Allocate()
	reserveScratch(h, int(k/wordBits)+1)
	h.vtmp.Lsh(big1, k)
	h.swapTmp(&e)

	e.refs, e.mask, e.pow2 = 1, nil, k
	if r.needsMask(k) {
		e.mask = r.cache.Allocate()
		e.mask.v.Sub(e.v, big1)
		e.mask.bank.pool.track(e.mask)
	}
	return e
}

func (r *registry) needsMask(k uint) bool {
	if r.truncate != nil && k%wordBits == 0 {
		return false
	}
	if r.truncate != nil && !r.warned[k] {
		r.warned[k] = true
		r.ctx.logf("numbank: modulus 2^%d is not limb aligned (%d-bit limbs), reducing with a mask", k, wordBits)
	}
	return true
}

func (r *registry) retain(e *Entry[big.Int]) *Entry[big.Int] {
	invariant(e.refs > 0, "retain of unreferenced modulus slot %d", e.index)
	e.refs++
	return e
}

func (r *registry) release(e *Entry[big.Int]) {
	invariant(e.refs > 0, "release of unreferenced modulus slot %d", e.index)
	e.refs--
	if e.refs > 0 {
		return
	}
	if m := e.mask; m != nil {
		invariant(e.pow2 > 0, "mask on non power-of-two modulus slot %d", e.index)
		e.mask = nil
		r.cache.Release(m)
	}
	r.cache.Release(e)
}

// reseat points *slot at e, taking a reference to e before dropping the old
// one so reseating to the same entry is safe.
func (r *registry) reseat(slot **Entry[big.Int], e *Entry[big.Int]) {
	r.retain(e)
	old := *slot
	*slot = e
	if old != nil {
		r.release(old)
	}
}

// defaultModulus returns a new reference to the registry's modulus of 1.
func (r *registry) defaultModulus() *Entry[big.Int] {
	if r.one == nil {
		e := r.cache.Allocate()
		e.v.SetInt64(1)
		e.refs, e.mask, e.pow2 = 1, nil, 0
		r.one = e
	}
	return r.retain(r.one)
}

func (r *registry) close() {
	if r.one != nil {
		r.release(r.one)
		r.one = nil
	}
}
