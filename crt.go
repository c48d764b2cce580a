package numbank

import (
	"fmt"
)

// CRT sets dst to the unique x with 0 <= x < m_0*m_1*...*m_{n-1} and
// x = v[i] (mod m_i) for every i, where m_i is v[i]'s modulus. The moduli
// must be pairwise coprime, otherwise ErrNotInvertible is returned.
//
// res and radix are scratch values, at least len(v) of each. They are
// reseated onto the moduli of v; their previous contents are lost.
//
// CRT works in mixed radix (Garner): step i finds the digit c_i from the
// residue of step i, using one inversion of m_0*...*m_{i-1} under m_i, then
// folds c_i into every later residue. Only the per-modulus residues of the
// running product are kept, so the full product is never formed until the
// digits are recombined at the end:
//
//	x = c_0 + m_0*(c_1 + m_1*(c_2 + ...))
func CRT(dst *Uint, v, res, radix []*Mod) error {
	n := len(v)
	if n == 0 {
		return ErrCRTEmpty
	}
	if len(res) < n || len(radix) < n {
		return fmt.Errorf("%w: need %d, have %d residue and %d radix", ErrCRTScratch, n, len(res), len(radix))
	}

	for j := 0; j < n; j++ {
		res[j].Assign(v[j])
		radix[j].ChangeModTo(v[j].mod)
		radix[j].SetInt64(1)
	}

	t := NewUint(dst.context(), dst.Class())
	defer t.Release()

	for i := 0; i < n; i++ {
		if i > 0 {
			if err := radix[i].inverse(); err != nil {
				return fmt.Errorf("numbank: crt modulus %d: %w", i, err)
			}
			res[i].Mul(radix[i].n.h.v)
		}
		c := res[i].Raw()
		mi := v[i].mod.v
		for j := i + 1; j < n; j++ {
			t.Set(c)
			t.Mul(radix[j].Raw())
			res[j].Sub(t.h.v)
			radix[j].Mul(mi)
		}
	}

	dst.Set(res[n-1].Raw())
	for i := n - 2; i >= 0; i-- {
		dst.Mul(v[i].mod.v)
		dst.Add(res[i].Raw())
	}
	return nil
}

// CRTProduct computes the same result as CRT by carrying the full running
// product P: at step i it solves k*P = v[i] - x (mod m_i) and sets
// x += k*P. It needs only one scratch value per residue but works on
// intermediates as wide as the answer; it is preferable when the number of
// moduli is small.
func CRTProduct(dst *Uint, v, scratch []*Mod) error {
	n := len(v)
	if n == 0 {
		return ErrCRTEmpty
	}
	if len(scratch) < n {
		return fmt.Errorf("%w: need %d, have %d", ErrCRTScratch, n, len(scratch))
	}

	ctx, class := dst.context(), dst.Class()
	p, t := NewUint(ctx, class), NewUint(ctx, class)
	defer p.Release()
	defer t.Release()

	dst.Set(v[0].Raw())
	p.Set(v[0].mod.v)

	for i := 1; i < n; i++ {
		k := scratch[i]
		k.ChangeModTo(v[i].mod)
		k.Set(p.h.v)
		if err := k.inverse(); err != nil {
			return fmt.Errorf("numbank: crt modulus %d: %w", i, err)
		}

		t.Set(v[i].Raw())
		t.Sub(dst.h.v)
		k.Mul(t.h.v)

		t.Set(k.Raw())
		t.Mul(p.h.v)
		dst.Add(t.h.v)
		p.Mul(v[i].mod.v)
	}
	return nil
}
