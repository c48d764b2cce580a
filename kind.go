package numbank

import (
	"math/big"
)

// storageKind is the set of lifecycle hooks the pools need from the
// arithmetic provider for one storage type. Every hook is called with the
// owning bank's page active on c.
type storageKind[T any] interface {
	name() string

	// parts is the number of word blocks one value needs.
	parts() int

	init(v *T, c *allocContext, words int)
	deinit(v *T, c *allocContext)

	// zero clears a recycled value without dropping its storage.
	zero(v *T)

	// bits returns the storage of one part of v, or nil if the part has
	// none of its own.
	bits(v *T, part int) []big.Word

	copy(dst, src *T)

	// resize returns a released slot to its page blocks, dropping any heap
	// storage it grew into while live.
	resize(v *T, c *allocContext, words int)
}

// limbTruncator is implemented by kinds that can reduce a value modulo
// 2^(n*wordBits) by cutting its limb slice, which is much cheaper than an
// AND across every limb.
type limbTruncator interface {
	truncateLimbs(v *big.Int, n int)
}

type intKind struct{}

var _ limbTruncator = intKind{}

func (intKind) name() string { return "int" }
func (intKind) parts() int   { return 1 }

func (intKind) init(v *big.Int, c *allocContext, words int) {
	v.SetBits(c.alloc(words)[:0])
}

func (intKind) zero(v *big.Int) { v.SetInt64(0) }

func (intKind) bits(v *big.Int, part int) []big.Word { return v.Bits() }
func (intKind) copy(dst, src *big.Int)              { dst.Set(src) }

func (intKind) deinit(v *big.Int, c *allocContext) {
	c.page.reset(c.slot)
	v.SetBits(nil)
}

func (intKind) resize(v *big.Int, c *allocContext, words int) {
	b := v.Bits()
	if c.page.index(b) == c.slot*c.page.scale {
		v.SetBits(b[:0])
		return
	}
	c.free(b)
	c.page.reset(c.slot)
	v.SetBits(c.alloc(words)[:0])
}

// truncateLimbs keeps the low n limbs of |v|, preserving the sign.
func (intKind) truncateLimbs(v *big.Int, n int) {
	b := v.Bits()
	if len(b) <= n {
		return
	}
	neg := v.Sign() < 0
	v.SetBits(b[:n])
	if neg {
		v.Neg(v)
	}
}

type ratKind struct{}

func (ratKind) name() string { return "rat" }
func (ratKind) parts() int   { return 2 }

func (ratKind) init(v *big.Rat, c *allocContext, words int) {
	num, den := c.alloc(words), c.alloc(words)

	// Denom only returns a reference once the denominator has been
	// materialised. An empty denominator slice reads as 1.
	v.SetFrac64(1, 2)
	v.Denom().SetBits(den[:0])
	v.Num().SetBits(num[:0])
}

func (ratKind) zero(v *big.Rat) { v.SetInt64(0) }

func (ratKind) bits(v *big.Rat, part int) []big.Word {
	if part == 0 {
		return v.Num().Bits()
	}
	// An unset denominator is handed out as a fresh 1 on every call and
	// owns no storage of v's.
	if d := v.Denom(); d == v.Denom() {
		return d.Bits()
	}
	return nil
}

func (ratKind) copy(dst, src *big.Rat) { dst.Set(src) }

func (ratKind) deinit(v *big.Rat, c *allocContext) {
	c.page.reset(c.slot)
	*v = big.Rat{}
}

func (k ratKind) resize(v *big.Rat, c *allocContext, words int) {
	c.free(k.bits(v, 0))
	c.free(k.bits(v, 1))
	c.page.reset(c.slot)
	k.init(v, c, words)
}
