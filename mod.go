package numbank

import (
	"fmt"
	"math/big"
)

const modClean uint8 = 0x01

// Mod is a pool-backed value reduced lazily against a shared modulus.
//
// Additions, subtractions, OR and XOR leave the value dirty: its raw
// magnitude may temporarily exceed the modulus. Multiplication (and the
// shifts and divisions built on it) reduces immediately. Every read that
// needs a canonical value cleans first.
//
// Reduction is a true modulo for a general modulus. For a modulus of 2^k it
// is an AND against a shared mask, or, when k is a multiple of the word size,
// a cut of the value's limb slice.
type Mod struct {
	n     intBase
	mod   *Entry[big.Int]
	reg   *registry
	flags uint8
}

func newMod(ctx *Context, class Class) *Mod {
	m := &Mod{}
	m.n.init(ctx, class)
	m.reg = ctx.registry(class)
	return m
}

// NewMod returns a zero value under modulus, which must be positive. A
// modulus that is a power of two greater than 1 takes the power-of-two
// reduction path.
func NewMod(ctx *Context, class Class, modulus *big.Int) (*Mod, error) {
	if modulus.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrBadModulus, modulus)
	}
	m := newMod(ctx, class)
	m.mod = m.reg.create(modulus, &m.n.h)
	return m, nil
}

// NewModPow2 returns a zero value under modulus 2^k. k must be positive and
// smaller than the class width.
func NewModPow2(ctx *Context, class Class, k uint) (*Mod, error) {
	if k == 0 || int(k) >= int(class) {
		return nil, fmt.Errorf("%w: 2^%d in class %d", ErrBadModulus, k, class)
	}
	m := newMod(ctx, class)
	m.mod = m.reg.createPow2(k, &m.n.h)
	return m, nil
}

// NewModDefault returns a zero value under the class's shared modulus of 1.
func NewModDefault(ctx *Context, class Class) *Mod {
	m := newMod(ctx, class)
	m.mod = m.reg.defaultModulus()
	return m
}

// NewModWith returns a value set to x under the shared modulus entry e,
// which must come from another Mod's Modulus().
func NewModWith(ctx *Context, class Class, x *big.Int, e *Entry[big.Int]) *Mod {
	m := newMod(ctx, class)
	m.mod = m.reg.retain(e)
	m.n.Set(x)
	return m
}

func (m *Mod) withSameModulus(x *big.Int) *Mod {
	return NewModWith(m.n.context(), m.n.Class(), x, m.mod)
}

// Clone returns a new value sharing m's modulus, raw value and state.
func (m *Mod) Clone() *Mod {
	c := m.withSameModulus(m.n.h.v)
	c.flags = m.flags
	return c
}

// Release returns the value's slots and its reference to the modulus.
func (m *Mod) Release() {
	if m.mod != nil {
		m.reg.release(m.mod)
		m.mod = nil
	}
	m.n.Release()
}

func (m *Mod) Class() Class { return m.n.Class() }

// Modulus returns the shared modulus entry, for use with NewModWith and
// ChangeModTo. The entry's value must not be modified.
func (m *Mod) Modulus() *Entry[big.Int] { return m.mod }

// ModulusValue sets dst to the modulus and returns dst.
func (m *Mod) ModulusValue(dst *big.Int) *big.Int { return m.mod.Copy(dst) }

func (m *Mod) IsClean() bool { return m.flags&modClean != 0 }
func (m *Mod) markClean()    { m.flags |= modClean }
func (m *Mod) dirty()        { m.flags &^= modClean }

// Clean reduces the value if it is dirty.
func (m *Mod) Clean() {
	if m.flags&modClean == 0 {
		m.doclean()
	}
}

func (m *Mod) doclean() {
	e, v := m.mod, m.n.h.v
	switch {
	case e.pow2 == 0:
		invariant(e.mask == nil, "mask on general modulus slot %d", e.index)
		m.n.Rem(e.v)

	case e.mask != nil:
		v.And(v, e.mask.v)

	default:
		invariant(m.reg.truncate != nil && e.pow2%wordBits == 0, "power-of-two modulus 2^%d without mask", e.pow2)
		m.reg.truncate.truncateLimbs(v, int(e.pow2/wordBits))
		if v.Sign() < 0 {
			v.Add(v, e.v)
		}
	}
	m.n.h.settle()
	m.markClean()
}

// CopyRaw writes the canonical value into dst without changing m.
func (m *Mod) CopyRaw(dst *big.Int) {
	e, v := m.mod, m.n.h.v
	switch {
	case m.IsClean():
		dst.Set(v)
	case e.pow2 == 0:
		dst.Mod(v, e.v)
	case e.mask != nil:
		dst.And(v, e.mask.v)
	default:
		dst.Set(v)
		m.reg.truncate.truncateLimbs(dst, int(e.pow2/wordBits))
		if dst.Sign() < 0 {
			dst.Add(dst, e.v)
		}
	}
}

// Raw cleans the value and returns its storage. It is only valid until the
// next operation on m and must not be modified.
func (m *Mod) Raw() *big.Int {
	m.Clean()
	return m.n.h.v
}

func (m *Mod) Set(x *big.Int) {
	m.n.Set(x)
	m.dirty()
}

func (m *Mod) SetInt64(v int64) {
	m.n.h.v.SetInt64(v)
	m.n.h.settle()
	m.dirty()
}

// Assign makes m a copy of y, including y's modulus.
func (m *Mod) Assign(y *Mod) {
	if m == y {
		return
	}
	m.reg.reseat(&m.mod, y.mod)
	m.flags = y.flags
	m.n.Set(y.n.h.v)
}

func (m *Mod) Add(x *big.Int) {
	m.n.Add(x)
	m.dirty()
}

func (m *Mod) Sub(x *big.Int) {
	m.n.Sub(x)
	m.dirty()
}

// Mul multiplies and reduces immediately, so chains of products never
// outgrow the slot.
func (m *Mod) Mul(x *big.Int) {
	m.n.Mul(x)
	m.doclean()
}

// Quo multiplies by the modular inverse of x.
func (m *Mod) Quo(x *big.Int) error {
	t := m.withSameModulus(x)
	defer t.Release()
	if err := t.inverse(); err != nil {
		return err
	}
	m.Mul(t.n.h.v)
	return nil
}

// Rem reduces the canonical value modulo x.
func (m *Mod) Rem(x *big.Int) {
	m.Clean()
	m.n.Rem(x)
	m.markClean()
}

// Lsh multiplies by 2^n under the modulus.
func (m *Mod) Lsh(n uint) {
	t := m.withSameModulus(big2)
	defer t.Release()
	t.powUint(n)
	m.Mul(t.n.h.v)
}

// Rsh multiplies by the inverse of 2^n under the modulus. It fails for even
// moduli, where 2 has no inverse.
func (m *Mod) Rsh(n uint) error {
	t := m.withSameModulus(big2)
	defer t.Release()
	if err := t.inverse(); err != nil {
		return err
	}
	t.powUint(n)
	m.Mul(t.n.h.v)
	return nil
}

func (m *Mod) And(x *big.Int) {
	m.Clean()
	m.n.And(x)
	m.markClean()
}

func (m *Mod) Or(x *big.Int) {
	m.Clean()
	m.n.Or(x)
	m.dirty()
}

func (m *Mod) Xor(x *big.Int) {
	m.Clean()
	m.n.Xor(x)
	m.dirty()
}

func (m *Mod) inverse() error {
	if m.n.h.vtmp.ModInverse(m.n.h.v, m.mod.v) == nil {
		return fmt.Errorf("%w: %s mod %s", ErrNotInvertible, m.n.h.v, m.mod.v)
	}
	m.n.h.swap()
	m.markClean()
	return nil
}

func (m *Mod) pow(y *big.Int) error {
	reserveScratch(&m.n.h, len(m.mod.v.Bits()))
	if m.n.h.vtmp.Exp(m.n.h.v, y, m.mod.v) == nil {
		return fmt.Errorf("%w: %s mod %s", ErrNotInvertible, m.n.h.v, m.mod.v)
	}
	m.n.h.swap()
	m.markClean()
	return nil
}

func (m *Mod) powUint(n uint) {
	y := NewUint(m.n.context(), m.n.Class())
	defer y.Release()
	y.SetUint64(uint64(n))
	// Exp only fails for a negative exponent.
	if err := m.pow(y.h.v); err != nil {
		panic(&InvariantError{Msg: err.Error()})
	}
}

// Inverse returns a new value holding the modular inverse of m.
func (m *Mod) Inverse() (*Mod, error) {
	r := m.Clone()
	if err := r.inverse(); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

// Pow returns a new value holding m^y under the modulus. A negative y
// requires m to be invertible.
func (m *Mod) Pow(y *big.Int) (*Mod, error) {
	r := m.Clone()
	if err := r.pow(y); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

// ChangeMod moves m to a freshly created modulus. The value is left dirty.
func (m *Mod) ChangeMod(modulus *big.Int) error {
	if modulus.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrBadModulus, modulus)
	}
	e := m.reg.create(modulus, &m.n.h)
	m.reg.release(m.mod)
	m.mod = e
	m.dirty()
	return nil
}

// ChangeModTo moves m to a shared modulus entry. The value is left dirty.
func (m *Mod) ChangeModTo(e *Entry[big.Int]) {
	m.reg.reseat(&m.mod, e)
	m.dirty()
}

func (m *Mod) Cmp(x *big.Int) int    { return m.Raw().Cmp(x) }
func (m *Mod) Equal(x *big.Int) bool { return m.Raw().Cmp(x) == 0 }
func (m *Mod) Sign() int             { return m.Raw().Sign() }

func (m *Mod) Uint64() uint64 { return m.Raw().Uint64() }
func (m *Mod) Int64() int64   { return m.Raw().Int64() }

func (m *Mod) String() string { return m.Raw().String() }

func (m *Mod) Format(s fmt.State, c rune) { m.Raw().Format(s, c) }
