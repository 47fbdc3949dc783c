// Package realcmp compares floating-point values with an explicit tolerance.
//
// Values within the tolerance of each other are equal; the boundary counts as
// equal. A tolerance of zero means exact comparison.
package realcmp

import "gonum.org/v1/gonum/floats/scalar"

// DefaultEpsilon is the tolerance used by the zero Comparator.
const DefaultEpsilon = 1e-5

// Eq reports whether a and b differ by at most epsilon.
func Eq(a, b, epsilon float64) bool {
	return scalar.EqualWithinAbs(a, b, epsilon)
}

// Neq is the negation of Eq.
func Neq(a, b, epsilon float64) bool {
	return !Eq(a, b, epsilon)
}

// Zero reports whether |a| <= epsilon.
func Zero(a, epsilon float64) bool {
	return Eq(a, 0, epsilon)
}

// Lte reports whether a <= b within epsilon.
func Lte(a, b, epsilon float64) bool {
	return a < b || Eq(a, b, epsilon)
}

// Gte reports whether a >= b within epsilon.
func Gte(a, b, epsilon float64) bool {
	return a > b || Eq(a, b, epsilon)
}

// Comparator carries a tolerance so callers don't have to thread it through.
// The zero value uses DefaultEpsilon.
type Comparator struct {
	Epsilon float64
}

func (c Comparator) eps() float64 {
	if c.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return c.Epsilon
}

func (c Comparator) Eq(a, b float64) bool  { return Eq(a, b, c.eps()) }
func (c Comparator) Neq(a, b float64) bool { return Neq(a, b, c.eps()) }
func (c Comparator) Zero(a float64) bool   { return Zero(a, c.eps()) }
func (c Comparator) Lte(a, b float64) bool { return Lte(a, b, c.eps()) }
func (c Comparator) Gte(a, b float64) bool { return Gte(a, b, c.eps()) }
