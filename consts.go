package numbank

import (
	"math/big"
)

const (
	// DefaultBankSize is the number of slots constructed together in one bank.
	DefaultBankSize = 100

	// DefaultCacheBits is the default target footprint, in bits of value
	// capacity, of one recycling cache.
	DefaultCacheBits = 1 << 16

	// LocalMemScale is the number of provider-side word blocks reserved per
	// slot in a bank page. big.Rat needs two (numerator and denominator).
	LocalMemScale = 2

	wordBits = 32 << (^uint(0) >> 63)
)

// Class is a capacity class: the maximum width in bits a value is sized for.
// Every class gets its own pools; slots are never shared across classes.
type Class int

const (
	C128   Class = 128
	C256   Class = 256
	C512   Class = 512
	C1024  Class = 1024
	C2048  Class = 2048
	C4096  Class = 4096
	C8192  Class = 8192
	C16384 Class = 16384
)

// Words returns the number of big.Word limbs preallocated per slot. One
// spare limb is kept so lazily reduced values can exceed the class width
// by a small factor without leaving the page.
func (c Class) Words() int {
	n := int(c) / wordBits
	if int(c)%wordBits != 0 {
		n++
	}
	return n + 1
}

func (c Class) validate() {
	if c <= 0 {
		panic("numbank: capacity class must be positive")
	}
}

var (
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
)
