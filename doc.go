/*
Package numbank provides pool-backed arbitrary-precision values with a fixed
maximum width, built on math/big.

Each value (Uint, Int, Frac, Mod, Stream) owns two storage slots drawn from
a per-class pool: an active slot and a scratch slot. Operations that cannot
write over their own input compute into the scratch slot and swap. Slots
live inside banks whose word pages back the big.Int digits directly, so
the common case never touches the heap.

All pooled state hangs off a Context. A Context is not safe for concurrent
use; give each goroutine its own and Close it when the goroutine is done:

	ctx := numbank.NewContext(nil)
	defer ctx.Close()

	u := numbank.NewUint(ctx, numbank.C256)
	defer u.Release()
	u.SetUint64(3)
	fmt.Println(u)
	// Output: 3

Values created from a Context must not be shared with another goroutine
and must be released before the Context is closed, otherwise the banks
they came from can never be drained.

Modular values (Mod) reduce lazily: additions leave the value dirty and
reduction happens on multiplication or on any read that needs a canonical
value. Values sharing a modulus share one reference-counted modulus entry:

	m, _ := numbank.NewMod(ctx, numbank.C256, big.NewInt(7))
	m.SetInt64(5)
	m.Add(big.NewInt(4))
	fmt.Println(m) // 2

CRT and CRTProduct combine residues under several moduli into one integer.
*/
package numbank
