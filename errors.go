package numbank

import (
	"errors"
	"fmt"
)

var (
	ErrNotInvertible = errors.New("numbank: value has no inverse under modulus")
	ErrBadModulus    = errors.New("numbank: modulus must be positive")
	ErrCRTEmpty      = errors.New("numbank: crt requires at least one residue")
	ErrCRTScratch    = errors.New("numbank: crt scratch shorter than input")
	ErrNonFinite     = errors.New("numbank: float is not finite")
)

// AllocError is the panic value raised when a bank cannot be constructed.
// There is no recovery path: arithmetic cannot continue without storage.
type AllocError struct {
	Kind  string
	Class Class
	Banks int
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("numbank: cannot construct %s bank for class %d (%d banks live)", e.Kind, e.Class, e.Banks)
}

// InvariantError is the panic value raised when pool bookkeeping is found
// to be corrupt. Checks are only compiled in with the numbankdebug tag.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "numbank: invariant violated: " + e.Msg }

func invariant(cond bool, format string, args ...interface{}) {
	if debugChecks && !cond {
		panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
	}
}
