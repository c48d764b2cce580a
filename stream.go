package numbank

// Stream is a long-lived accumulator of width S, kept in a slot of three
// times the width with modulus 2^S. The spare width absorbs a run of
// additions between reductions, and for word-aligned S reduction is a limb
// cut rather than a division.
type Stream struct {
	Mod
}

// NewStream returns a zero Stream of width class.
func NewStream(ctx *Context, class Class) *Stream {
	class.validate()
	s := &Stream{}
	s.n.init(ctx, 3*class)
	s.reg = ctx.registry(3 * class)
	s.mod = s.reg.createPow2(uint(class), &s.n.h)
	return s
}

// Width returns the stream's width in bits.
func (s *Stream) Width() Class { return Class(s.mod.pow2) }
