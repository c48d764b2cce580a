package numbank

import (
	"fmt"
	"math/big"
)

// intBase holds the operations shared by Uint and Int. The operand of every
// binary operation is a *big.Int, which may be the Raw() of another value,
// including the receiver itself.
type intBase struct {
	h handle[big.Int]
}

func (b *intBase) init(ctx *Context, class Class) {
	b.h.init(ctx.IntCache(class))
}

// Release returns both of the value's slots to the pool. The value must not
// be used afterwards.
func (b *intBase) Release() { b.h.release() }

// Raw returns the value's active storage. It is only valid until the next
// operation on the value and must not be modified.
func (b *intBase) Raw() *big.Int { return b.h.v }

func (b *intBase) Class() Class { return b.h.c.pool.class }

func (b *intBase) context() *Context { return b.h.c.pool.ctx }

func (b *intBase) Set(x *big.Int) {
	if x != b.h.v {
		reserve(&b.h, b.h.v, len(x.Bits()))
		b.h.v.Set(x)
	}
}

func (b *intBase) SetString(s string, base int) error {
	_, ok := b.h.v.SetString(s, base)
	b.h.settle()
	if !ok {
		return fmt.Errorf("numbank: integer string %q invalid", s)
	}
	return nil
}

// grow reserves room in the active buffer for an in-place operation with x
// whose result is at most one word longer than the longer operand.
func (b *intBase) grow(x *big.Int) {
	n := len(b.h.v.Bits())
	if m := len(x.Bits()); m > n {
		n = m
	}
	reserve(&b.h, b.h.v, n+1)
}

func (b *intBase) Add(x *big.Int) {
	b.grow(x)
	b.h.v.Add(b.h.v, x)
}

func (b *intBase) Sub(x *big.Int) {
	b.grow(x)
	b.h.v.Sub(b.h.v, x)
}

func (b *intBase) And(x *big.Int) {
	b.grow(x)
	b.h.v.And(b.h.v, x)
}

func (b *intBase) Or(x *big.Int) {
	b.grow(x)
	b.h.v.Or(b.h.v, x)
}

func (b *intBase) Xor(x *big.Int) {
	b.grow(x)
	b.h.v.Xor(b.h.v, x)
}

func (b *intBase) Neg() { b.h.v.Neg(b.h.v) }
func (b *intBase) Abs() { b.h.v.Abs(b.h.v) }

func (b *intBase) Mul(x *big.Int) {
	reserveScratch(&b.h, len(b.h.v.Bits())+len(x.Bits()))
	b.h.vtmp.Mul(b.h.v, x)
	b.h.swap()
}

// Quo sets the value to the quotient truncated towards zero. Division by
// zero panics, as it does in math/big.
func (b *intBase) Quo(x *big.Int) {
	reserveScratch(&b.h, len(b.h.v.Bits())+1-len(x.Bits()))
	b.h.vtmp.Quo(b.h.v, x)
	b.h.swap()
}

// Rem sets the value to the Euclidean modulus, which is never negative.
func (b *intBase) Rem(x *big.Int) {
	// Long division works on a copy of the dividend one word longer.
	n := len(b.h.v.Bits())
	if m := len(x.Bits()); m > 1 && n >= m {
		n++
	}
	reserveScratch(&b.h, n)
	b.h.vtmp.Mod(b.h.v, x)
	b.h.swap()
}

func (b *intBase) Lsh(n uint) {
	reserveScratch(&b.h, len(b.h.v.Bits())+int(n/wordBits)+1)
	b.h.vtmp.Lsh(b.h.v, n)
	b.h.swap()
}

// Rsh shifts right, rounding towards negative infinity.
func (b *intBase) Rsh(n uint) {
	b.h.vtmp.Rsh(b.h.v, n)
	b.h.swap()
}

func (b *intBase) Cmp(x *big.Int) int    { return b.h.v.Cmp(x) }
func (b *intBase) Equal(x *big.Int) bool { return b.h.v.Cmp(x) == 0 }
func (b *intBase) Sign() int             { return b.h.v.Sign() }
func (b *intBase) BitLen() int           { return b.h.v.BitLen() }

func (b *intBase) Float64() float64 {
	f, _ := b.h.v.Float64()
	return f
}

func (b *intBase) String() string { return b.h.v.String() }

func (b *intBase) Format(s fmt.State, c rune) { b.h.v.Format(s, c) }

// QuoFloat64 returns value/d as a float64. The integer part of the quotient
// is exact up to float64 precision; the remainder is scaled down so that
// only its top precision bits take part in the fractional division.
func (b *intBase) QuoFloat64(d *big.Int, precision int) float64 {
	ctx, class := b.context(), b.Class()
	q, r, dm := NewUint(ctx, class), NewUint(ctx, class), NewUint(ctx, class)
	defer q.Release()
	defer r.Release()
	defer dm.Release()

	q.h.v.DivMod(b.h.v, d, r.h.v)
	q.h.settle()
	r.h.settle()
	result := q.Float64()

	shift := d.BitLen() + 1 - precision
	if shift < 0 {
		shift = 0
	}
	dm.Set(d)
	r.Rsh(uint(shift))
	dm.Rsh(uint(shift))

	return result + r.Float64()/dm.Float64()
}

// Uint is an unsigned pool-backed integer of a fixed capacity class.
//
// Uint does not clamp at zero: Sub may leave it negative, exactly as the
// underlying provider would.
type Uint struct {
	intBase
}

func NewUint(ctx *Context, class Class) *Uint {
	u := &Uint{}
	u.init(ctx, class)
	return u
}

func (u *Uint) SetUint64(v uint64) { u.h.v.SetUint64(v) }

// Uint64 returns the low 64 bits of the value's magnitude.
func (u *Uint) Uint64() uint64 {
	if b := u.h.v.Bits(); len(b) > 0 {
		if wordBits == 32 && len(b) > 1 {
			return uint64(b[1])<<32 | uint64(b[0])
		}
		return uint64(b[0])
	}
	return 0
}

// Int is a signed pool-backed integer of a fixed capacity class.
type Int struct {
	intBase
}

func NewInt(ctx *Context, class Class) *Int {
	i := &Int{}
	i.init(ctx, class)
	return i
}

func (i *Int) SetInt64(v int64) { i.h.v.SetInt64(v) }

// Int64 returns the value if it fits in an int64. Otherwise the result is
// undefined.
func (i *Int) Int64() int64 { return i.h.v.Int64() }

// GCD returns a new Uint in the given class set to gcd(a, b).
func GCD(ctx *Context, class Class, a, b *big.Int) *Uint {
	r := NewUint(ctx, class)
	r.h.v.GCD(nil, nil, a, b)
	r.h.settle()
	return r
}

// LCM returns a new Uint in the given class set to lcm(a, b). lcm(0, x) is 0.
func LCM(ctx *Context, class Class, a, b *big.Int) *Uint {
	r := GCD(ctx, class, a, b)
	if r.Sign() == 0 {
		return r
	}
	r.h.vtmp.Quo(a, r.h.v)
	r.h.swap()
	r.Mul(b)
	r.Abs()
	return r
}

// NextPrime returns a new Uint in the given class set to the smallest
// probable prime greater than v.
func NextPrime(ctx *Context, class Class, v *big.Int) *Uint {
	r := NewUint(ctx, class)
	if v.Cmp(big2) < 0 {
		r.SetUint64(2)
		return r
	}
	r.Set(v)
	r.Add(big1)
	if r.h.v.Bit(0) == 0 && r.h.v.Cmp(big2) != 0 {
		r.Add(big1)
	}
	for !r.h.v.ProbablyPrime(20) {
		r.Add(big2)
	}
	return r
}
