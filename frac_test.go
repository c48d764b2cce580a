package numbank

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/shabbyrobe/golib/assert"
)

func rats(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic(fmt.Errorf("numbank: rat string %q invalid", s))
	}
	return r
}

func TestFracScenario(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)

	f := NewFrac(ctx, C256)
	defer f.Release()
	tt.MustOK(f.SetFloat64(-22.25))
	tt.MustEqual("-89/4", f.String())

	i := NewInt(ctx, C256)
	defer i.Release()
	f.Round(i)
	tt.MustEqual("-22", i.String())
}

func TestFracRound(t *testing.T) {
	ctx := testContext(t, nil)

	for idx, tc := range []struct {
		a, b int64
		out  int64
	}{
		{5, 2, 3},
		{-5, 2, -3},
		{1, 2, 1},
		{-1, 2, -1},
		{12, 5, 2},
		{13, 5, 3},
		{-13, 5, -3},
		{-12, 5, -2},
		{1, 3, 0},
		{-1, 3, 0},
		{7, 1, 7},
		{0, 1, 0},
		{-89, 4, -22},
		{-91, 4, -23},
	} {
		t.Run(fmt.Sprintf("%d/%d/%d", idx, tc.a, tc.b), func(t *testing.T) {
			tt := assert.WrapTB(t)
			f := NewFrac(ctx, C128)
			defer f.Release()
			i := NewInt(ctx, C128)
			defer i.Release()

			f.SetFrac(tc.a, tc.b)
			f.Round(i)
			tt.MustEqual(tc.out, i.Int64())
		})
	}
}

func TestFracOps(t *testing.T) {
	ctx := testContext(t, nil)

	for idx, tc := range []struct {
		a, b string
		op   string
		out  string
	}{
		{"1/3", "1/6", "add", "1/2"},
		{"1/3", "1/2", "sub", "-1/6"},
		{"2/3", "3/4", "mul", "1/2"},
		{"2/3", "4/9", "quo", "3/2"},
		{"-5/7", "5/7", "add", "0"},
		{"340282366920938463463374607431768211456", "3", "quo", "340282366920938463463374607431768211456/3"},
	} {
		t.Run(fmt.Sprintf("%d/%s%s%s", idx, tc.a, tc.op, tc.b), func(t *testing.T) {
			tt := assert.WrapTB(t)
			f := NewFrac(ctx, C256)
			defer f.Release()
			f.Set(rats(tc.a))
			x := rats(tc.b)

			switch tc.op {
			case "add":
				f.Add(x)
			case "sub":
				f.Sub(x)
			case "mul":
				f.Mul(x)
			case "quo":
				f.Quo(x)
			default:
				t.Fatal(tc.op)
			}
			tt.MustEqual(tc.out, f.String())
			tt.MustAssert(f.Equal(rats(tc.out)))
		})
	}
}

func TestFracSetters(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)
	f := NewFrac(ctx, C128)
	defer f.Release()

	tt.MustEqual("0", f.String())
	tt.MustEqual(0, f.Sign())

	f.SetInt64(-4)
	tt.MustEqual("-4", f.String())
	f.Abs()
	tt.MustEqual("4", f.String())
	f.Neg()
	tt.MustEqual(-1, f.Sign())

	f.SetInt(bigs("12345678901234567890"))
	tt.MustEqual("12345678901234567890", f.String())

	tt.MustOK(f.SetFloat64(0.5))
	tt.MustEqual("1/2", f.String())
	tt.MustEqual(0.5, f.Float64())
	tt.MustEqual(1, f.Cmp(big.NewRat(1, 3)))

	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		err := f.SetFloat64(v)
		tt.MustAssert(errors.Is(err, ErrNonFinite), "%v", v)
	}
	tt.MustEqual("1/2", f.String())
}

func TestFracSlotsStayPaged(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)
	f := NewFrac(ctx, C256)

	for i := 1; i <= 20; i++ {
		f.Add(big.NewRat(1, int64(i)))
	}
	f.Release()
	tt.MustEqual(0, ctx.Stats().HeapAllocs)
	tt.MustEqual(0, ctx.Stats().Live())
}

func TestFracHeapPartsCountedAndFreed(t *testing.T) {
	tt := assert.WrapTB(t)
	ctx := testContext(t, nil)
	f := NewFrac(ctx, C128)

	big600 := new(big.Int).Lsh(big1, 600)
	num := new(big.Int).Add(big600, big1)
	den := new(big.Int).Sub(big600, big1)
	x := new(big.Rat).SetFrac(num, den)

	f.Set(x)
	tt.MustEqual(0, f.Cmp(x))
	s := ctx.Stats()
	tt.MustEqual(2, s.Promotions)
	tt.MustEqual(2, s.HeapAllocs)

	f.Release()
	ctx.Close()
	tt.MustEqual(2, ctx.Stats().HeapFrees)
}
