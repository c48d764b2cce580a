package numbank

import (
	"log"
)

// Config controls the pools created by a Context.
type Config struct {
	// BankSize is the number of slots per bank. Zero means DefaultBankSize.
	BankSize int

	// CacheBits is the target footprint of each recycling cache, in bits
	// of value capacity. The cache holds the largest power of two number
	// of slots that fits, and never fewer than 2. Zero means
	// DefaultCacheBits.
	CacheBits int

	// MaxBanks caps the number of live banks per pool. Exceeding it is an
	// allocation failure. Zero means unlimited.
	MaxBanks int

	// DisableLimbTruncation forces power-of-two moduli onto the mask path
	// even when the modulus width is a multiple of the word size.
	DisableLimbTruncation bool

	// Logger receives heap fallback and mask fallback warnings. Nil is
	// silent.
	Logger *log.Logger
}

func DefaultConfig() Config {
	return Config{
		BankSize:  DefaultBankSize,
		CacheBits: DefaultCacheBits,
	}
}

func (c Config) withDefaults() Config {
	if c.BankSize <= 0 {
		c.BankSize = DefaultBankSize
	}
	if c.CacheBits <= 0 {
		c.CacheBits = DefaultCacheBits
	}
	return c
}
