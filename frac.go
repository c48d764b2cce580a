package numbank

import (
	"fmt"
	"math"
	"math/big"
)

// Frac is a pool-backed rational number. Every arithmetic operation
// computes into the scratch slot and swaps.
type Frac struct {
	h handle[big.Rat]
}

func NewFrac(ctx *Context, class Class) *Frac {
	f := &Frac{}
	f.h.init(ctx.RatCache(class))
	return f
}

func (f *Frac) Release() { f.h.release() }

// Raw returns the value's active storage. It is only valid until the next
// operation on the value and must not be modified.
func (f *Frac) Raw() *big.Rat { return f.h.v }

func (f *Frac) Class() Class { return f.h.c.pool.class }

func (f *Frac) Set(x *big.Rat) {
	f.h.v.Set(x)
	f.h.settle()
}

func (f *Frac) SetInt(x *big.Int) {
	f.h.v.SetInt(x)
	f.h.settle()
}

func (f *Frac) SetInt64(v int64)   { f.h.v.SetInt64(v) }
func (f *Frac) SetFrac(a, b int64) { f.h.v.SetFrac64(a, b) }

// SetFloat64 sets the value to exactly v.
func (f *Frac) SetFloat64(v float64) error {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Errorf("%w: %v", ErrNonFinite, v)
	}
	f.h.v.SetFloat64(v)
	f.h.settle()
	return nil
}

func (f *Frac) Add(x *big.Rat) {
	f.h.vtmp.Add(f.h.v, x)
	f.h.swap()
}

func (f *Frac) Sub(x *big.Rat) {
	f.h.vtmp.Sub(f.h.v, x)
	f.h.swap()
}

func (f *Frac) Mul(x *big.Rat) {
	f.h.vtmp.Mul(f.h.v, x)
	f.h.swap()
}

// Quo divides by x. Division by zero panics, as it does in math/big.
func (f *Frac) Quo(x *big.Rat) {
	f.h.vtmp.Quo(f.h.v, x)
	f.h.swap()
}

func (f *Frac) Neg() { f.h.v.Neg(f.h.v) }
func (f *Frac) Abs() { f.h.v.Abs(f.h.v) }

func (f *Frac) Cmp(x *big.Rat) int    { return f.h.v.Cmp(x) }
func (f *Frac) Equal(x *big.Rat) bool { return f.h.v.Cmp(x) == 0 }
func (f *Frac) Sign() int             { return f.h.v.Sign() }

func (f *Frac) Float64() float64 {
	v, _ := f.h.v.Float64()
	return v
}

// String renders the value as "a/b", or as "a" when the denominator is 1.
func (f *Frac) String() string { return f.h.v.RatString() }

// Round sets dst to the value rounded to the nearest integer, with halves
// rounded away from zero.
//
// The numerator is doubled and divided with truncation; an odd result
// means the value was at least half way, so it is pushed one further away
// from zero before halving.
func (f *Frac) Round(dst *Int) {
	num, den := f.h.v.Num(), f.h.v.Denom()
	dst.h.vtmp.Lsh(num, 1)
	dst.h.v.Quo(dst.h.vtmp, den)
	if dst.h.v.Bit(0) != 0 {
		dst.h.vtmp.SetInt64(int64(2 * dst.h.v.Sign()))
		dst.h.v.Add(dst.h.v, dst.h.vtmp)
	}
	dst.h.vtmp.Quo(dst.h.v, big2)
	dst.h.swap()
}
