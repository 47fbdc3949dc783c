// Package geom provides angle arithmetic on the circle group ℝ/2πℤ.
//
// All angles handed out by this package are canonicalised to (-π, π].
package geom

import (
	"fmt"
	"math"

	"github.com/cwbudde/circleopt/internal/realcmp"
)

// near decides containment and overlap at range boundaries.
var near realcmp.Comparator

// TwoPi is one full turn.
const TwoPi = 2.0 * math.Pi

// MapMinusPiToPi maps an angle into (-π, π].
func MapMinusPiToPi(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a <= -math.Pi {
		a += TwoPi
	} else if a > math.Pi {
		a -= TwoPi
	}
	return a
}

// MapZeroToTwoPi maps an angle into [0, 2π).
func MapZeroToTwoPi(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	if a >= TwoPi {
		// -tiny + 2π can round up to exactly 2π
		a = 0
	}
	return a
}

// CounterclockwiseDistance returns how far one travels counterclockwise from a to reach b, in [0, 2π).
func CounterclockwiseDistance(a, b float64) float64 {
	return MapZeroToTwoPi(b - a)
}

// AngularDistance returns the shorter way around the circle between a and b, in [0, π].
func AngularDistance(a, b float64) float64 {
	d := CounterclockwiseDistance(a, b)
	return math.Min(d, TwoPi-d)
}

// CircleRange is a directed arc traveled counterclockwise from Source to Target.
//
// A full circle is representable and is distinct from a single point: both
// have Source == Target, but only the circle has length 2π.
type CircleRange struct {
	source float64
	target float64
	circle bool
}

// NewCircle returns the range covering the whole circle.
func NewCircle() CircleRange {
	return CircleRange{circle: true}
}

// NewPoint returns a zero-length range at a.
func NewPoint(a float64) CircleRange {
	a = MapMinusPiToPi(a)
	return CircleRange{source: a, target: a}
}

// NewCounterclockwiseSegment returns the arc swept counterclockwise from source to target.
// Its length is always the forward distance, never the complementary arc.
func NewCounterclockwiseSegment(source, target float64) CircleRange {
	return CircleRange{
		source: MapMinusPiToPi(source),
		target: MapMinusPiToPi(target),
	}
}

// NewShortSegment returns whichever of the two arcs joining a and b is shorter.
func NewShortSegment(a, b float64) CircleRange {
	if CounterclockwiseDistance(a, b) <= math.Pi {
		return NewCounterclockwiseSegment(a, b)
	}
	return NewCounterclockwiseSegment(b, a)
}

// NewByOffset returns the arc starting at source and spanning offset radians counterclockwise.
// Offsets of a full turn or more yield a circle anchored at source.
func NewByOffset(source, offset float64) CircleRange {
	if offset >= TwoPi {
		a := MapMinusPiToPi(source)
		return CircleRange{source: a, target: a, circle: true}
	}
	if offset < 0 {
		return NewCounterclockwiseSegment(source+offset, source)
	}
	return NewCounterclockwiseSegment(source, source+offset)
}

func (r CircleRange) Source() float64 { return r.source }
func (r CircleRange) Target() float64 { return r.target }
func (r CircleRange) IsCircle() bool  { return r.circle }

// Length is the counterclockwise extent of the range.
func (r CircleRange) Length() float64 {
	if r.circle {
		return TwoPi
	}
	return CounterclockwiseDistance(r.source, r.target)
}

// Midpoint is the angle halfway along the range.
func (r CircleRange) Midpoint() float64 {
	return MapMinusPiToPi(r.source + r.Length()/2.0)
}

// ContainsPoint reports whether a lies on the range, boundary included, within realcmp.DefaultEpsilon.
func (r CircleRange) ContainsPoint(a float64) bool {
	if r.circle {
		return true
	}
	d := CounterclockwiseDistance(r.source, a)
	return near.Lte(d, r.Length()) || near.Gte(d, TwoPi)
}

// IsIntersecting reports whether the two ranges share at least one point.
func (r CircleRange) IsIntersecting(other CircleRange) bool {
	if r.circle || other.circle {
		return true
	}
	return r.ContainsPoint(other.source) || other.ContainsPoint(r.source)
}

// Intersect returns the pieces common to both ranges. Two arcs can overlap at
// both of their ends, so the result holds zero, one, or two ranges.
func (r CircleRange) Intersect(other CircleRange) []CircleRange {
	if r.circle {
		return []CircleRange{other}
	}
	if other.circle {
		return []CircleRange{r}
	}

	var pieces []CircleRange
	if r.ContainsPoint(other.source) {
		into := CounterclockwiseDistance(r.source, other.source)
		pieces = append(pieces, NewByOffset(other.source, math.Max(0, math.Min(other.Length(), r.Length()-into))))
	}
	if other.ContainsPoint(r.source) && near.Neq(AngularDistance(r.source, other.source), 0) {
		into := CounterclockwiseDistance(other.source, r.source)
		pieces = append(pieces, NewByOffset(r.source, math.Max(0, math.Min(r.Length(), other.Length()-into))))
	}
	return pieces
}

// Merge returns the union of two intersecting ranges. The boolean is false when
// the ranges are disjoint and cannot be represented as one arc.
func (r CircleRange) Merge(other CircleRange) (CircleRange, bool) {
	if r.circle || other.circle {
		return NewCircle(), true
	}

	var start, extent float64
	switch {
	case r.ContainsPoint(other.source):
		start = r.source
		extent = math.Max(r.Length(), CounterclockwiseDistance(r.source, other.source)+other.Length())
	case other.ContainsPoint(r.source):
		start = other.source
		extent = math.Max(other.Length(), CounterclockwiseDistance(other.source, r.source)+r.Length())
	default:
		return CircleRange{}, false
	}

	// overlap near the wrap point can push the extent a hair past a full turn
	if near.Gte(extent, TwoPi) {
		return NewByOffset(start, TwoPi), true
	}
	return NewByOffset(start, extent), true
}

// Split cuts the range at a, which must lie on it.
func (r CircleRange) Split(a float64) (CircleRange, CircleRange) {
	return NewCounterclockwiseSegment(r.source, a), NewCounterclockwiseSegment(a, r.target)
}

// ApproximatelyEquals compares endpoints on the circle within epsilon.
func (r CircleRange) ApproximatelyEquals(other CircleRange, epsilon float64) bool {
	if r.circle != other.circle {
		return false
	}
	if r.circle {
		return true
	}
	return realcmp.Zero(AngularDistance(r.source, other.source), epsilon) &&
		realcmp.Zero(AngularDistance(r.target, other.target), epsilon)
}

func (r CircleRange) String() string {
	if r.circle {
		return "circle"
	}
	return fmt.Sprintf("[%.6f -> %.6f]", r.source, r.target)
}
