package otc

import "math/bits"

// Rational represents p/q. The denominator is never zero after
// construction.
type Rational struct {
	P int64  // numerator, carries the sign
	Q uint64 // denominator
}

// NewRational builds p/q, normalising the sign onto the numerator.
func NewRational(p, q int64) (Rational, error) {
	if q == 0 {
		return Rational{}, ErrArg
	}
	if q < 0 {
		p, q = -p, -q
	}
	return Rational{P: p, Q: uint64(q)}, nil
}

func absInt64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

// Eq compares a and b by cross-multiplication without reducing either
// side. The comparison is exact; 128-bit intermediates cannot overflow.
func (a Rational) Eq(b Rational) bool {
	if (a.P < 0) != (b.P < 0) {
		return a.P == 0 && b.P == 0
	}
	hi1, lo1 := bits.Mul64(absInt64(a.P), b.Q)
	hi2, lo2 := bits.Mul64(absInt64(b.P), a.Q)
	return hi1 == hi2 && lo1 == lo2
}

// Mul computes a*b. Any 64x64 product that would exceed the target
// type's range is reported as an error rather than wrapped.
func (a Rational) Mul(b Rational) (Rational, error) {
	hi, lo := bits.Mul64(absInt64(a.P), absInt64(b.P))
	if hi != 0 || lo > uint64(1)<<63-1 {
		return Rational{}, ErrArg
	}
	p := int64(lo)
	if (a.P < 0) != (b.P < 0) {
		p = -p
	}
	hi, q := bits.Mul64(a.Q, b.Q)
	if hi != 0 {
		return Rational{}, ErrArg
	}
	return Rational{P: p, Q: q}, nil
}

// Div computes a/b by inverting b. Division by a zero-valued rational
// is an error.
func (a Rational) Div(b Rational) (Rational, error) {
	if b.P == 0 {
		return Rational{}, ErrArg
	}
	inv := Rational{P: int64(b.Q), Q: absInt64(b.P)}
	if b.P < 0 {
		inv.P = -inv.P
	}
	return a.Mul(inv)
}

// Float returns the value as a float64.
func (a Rational) Float() float64 {
	return float64(a.P) / float64(a.Q)
}
