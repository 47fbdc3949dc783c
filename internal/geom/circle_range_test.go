package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	delta   = 1e-4
	epsilon = 1e-12
)

func assertRange(t *testing.T, wantSource, wantTarget float64, r CircleRange) {
	t.Helper()
	assert.InDelta(t, wantSource, r.Source(), 1e-8, "source of %v", r)
	assert.InDelta(t, wantTarget, r.Target(), 1e-8, "target of %v", r)
}

func TestMapMinusPiToPi(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi, math.Pi},
		{5.0 / 2.0 * math.Pi, math.Pi / 2},
		{3.0 / 2.0 * math.Pi, -math.Pi / 2},
		{-5.0 / 2.0 * math.Pi, -math.Pi / 2},
		{-3.0 / 2.0 * math.Pi, math.Pi / 2},
		{-math.Pi + delta, -math.Pi + delta},
	}

	for _, tt := range tests {
		got := MapMinusPiToPi(tt.in)
		assert.InDelta(t, tt.want, got, 1e-12, "MapMinusPiToPi(%v)", tt.in)
	}
}

func TestMapMinusPiToPiRangeAndIdempotence(t *testing.T) {
	for a := -50.0; a <= 50.0; a += 0.0371 {
		once := MapMinusPiToPi(a)
		require.True(t, once > -math.Pi && once <= math.Pi, "MapMinusPiToPi(%v) = %v out of range", a, once)
		assert.Equal(t, once, MapMinusPiToPi(once), "not idempotent at %v", a)
	}
}

func TestMapZeroToTwoPi(t *testing.T) {
	assert.InDelta(t, 0.0, MapZeroToTwoPi(0), 1e-12)
	assert.InDelta(t, math.Pi, MapZeroToTwoPi(-math.Pi), 1e-12)
	assert.InDelta(t, 3.0/2.0*math.Pi, MapZeroToTwoPi(-math.Pi/2), 1e-12)
	assert.InDelta(t, 0.0, MapZeroToTwoPi(TwoPi), 1e-12)

	got := MapZeroToTwoPi(-1e-18)
	assert.True(t, got >= 0 && got < TwoPi)
}

func TestAngularDistance(t *testing.T) {
	assert.InDelta(t, 0.0, AngularDistance(math.Pi, -math.Pi), 1e-12)
	assert.InDelta(t, 2e-11, AngularDistance(math.Pi-1e-11, -math.Pi+1e-11), 1e-13)
	assert.InDelta(t, math.Pi/2, AngularDistance(0, -math.Pi/2), 1e-12)
	assert.InDelta(t, math.Pi, AngularDistance(0, math.Pi), 1e-12)
}

func TestPointFactory(t *testing.T) {
	assertRange(t, 0, 0, NewPoint(0))
	assertRange(t, math.Pi, math.Pi, NewPoint(-math.Pi))
	assertRange(t, math.Pi/2, math.Pi/2, NewPoint(5.0/2.0*math.Pi))
	assert.False(t, NewPoint(0).IsCircle())
	assert.Equal(t, 0.0, NewPoint(1).Length())
}

func TestShortSegmentFactory(t *testing.T) {
	assertRange(t, 0, 1, NewShortSegment(1, 0))
	assertRange(t, 0, 1, NewShortSegment(0, 1))
	assertRange(t, -1, 0, NewShortSegment(0, -1))
	assertRange(t, 3.0/4.0*math.Pi, -3.0/4.0*math.Pi, NewShortSegment(-3.0/4.0*math.Pi, 3.0/4.0*math.Pi))
	assertRange(t, 3.0/4.0*math.Pi, -3.0/4.0*math.Pi, NewShortSegment(3.0/4.0*math.Pi, -3.0/4.0*math.Pi))
	assert.False(t, NewShortSegment(1, 0).IsCircle())
}

func TestCounterclockwiseSegmentFactory(t *testing.T) {
	tests := []struct {
		name                string
		source, target      float64
		wantSource, wantTgt float64
		wantLength          float64
	}{
		{"point", 0, 0, 0, 0, 0},
		{"long way round", 1, 0, 1, 0, TwoPi - 1},
		{"short", 0, 1, 0, 1, 1},
		{"negative", -1, 0, -1, 0, 1},
		{"negative long", 0, -1, 0, -1, TwoPi - 1},
		{"across zero", -3.0 / 4.0 * math.Pi, 3.0 / 4.0 * math.Pi, -3.0 / 4.0 * math.Pi, 3.0 / 4.0 * math.Pi, 3.0 * math.Pi / 2.0},
		{"across pi", 3.0 / 4.0 * math.Pi, -3.0 / 4.0 * math.Pi, 3.0 / 4.0 * math.Pi, -3.0 / 4.0 * math.Pi, math.Pi / 2.0},
		{"unwrapped input", -11.0 / 4.0 * math.Pi, 11.0 / 4.0 * math.Pi, -3.0 / 4.0 * math.Pi, 3.0 / 4.0 * math.Pi, 3.0 * math.Pi / 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCounterclockwiseSegment(tt.source, tt.target)
			assertRange(t, tt.wantSource, tt.wantTgt, r)
			assert.InDelta(t, tt.wantLength, r.Length(), 1e-8)
			assert.True(t, r.Length() >= 0)
		})
	}
}

func TestCircleFactory(t *testing.T) {
	r := NewCircle()
	assert.True(t, r.IsCircle())
	assert.Equal(t, 0.0, r.Source())
	assert.Equal(t, 0.0, r.Target())
	assert.Equal(t, TwoPi, r.Length())

	anchored := NewByOffset(1.5, TwoPi)
	assert.True(t, anchored.IsCircle())
	assert.Equal(t, 1.5, anchored.Source())
	assert.Equal(t, 1.5, anchored.Target())
	assert.Equal(t, TwoPi, anchored.Length())
}

func TestByOffset(t *testing.T) {
	r := NewByOffset(3.0, 1.0)
	assertRange(t, 3.0, 4.0-TwoPi, r)
	assert.InDelta(t, 1.0, r.Length(), 1e-12)

	back := NewByOffset(0.0, -1.0)
	assertRange(t, -1.0, 0.0, back)
}

func TestMidpoint(t *testing.T) {
	assert.InDelta(t, 0.5, NewCounterclockwiseSegment(0, 1).Midpoint(), 1e-12)
	assert.InDelta(t, math.Pi, NewCounterclockwiseSegment(3.0/4.0*math.Pi, -3.0/4.0*math.Pi).Midpoint(), 1e-12)
	assert.InDelta(t, math.Pi, NewCircle().Midpoint(), 1e-12)
}

func TestContainsPoint(t *testing.T) {
	r := NewShortSegment(1, 0)
	assert.True(t, r.ContainsPoint(0))
	assert.True(t, r.ContainsPoint(delta))
	assert.False(t, r.ContainsPoint(-delta))
	assert.True(t, r.ContainsPoint(1))
	assert.False(t, r.ContainsPoint(1+delta))
	assert.True(t, r.ContainsPoint(-7.0/4.0*math.Pi))
	assert.False(t, r.ContainsPoint(math.Pi))

	half := NewCounterclockwiseSegment(0, math.Pi)
	assert.True(t, half.ContainsPoint(-epsilon))
	assert.False(t, half.ContainsPoint(-delta))
	assert.True(t, half.ContainsPoint(math.Pi+epsilon))
	assert.False(t, half.ContainsPoint(math.Pi+delta))
	assert.True(t, half.ContainsPoint(TwoPi+math.Pi/2))

	p := NewPoint(math.Pi)
	assert.True(t, p.ContainsPoint(3*math.Pi))
	assert.False(t, p.ContainsPoint(math.Pi+delta))

	assert.True(t, NewCircle().ContainsPoint(123.4))
}

func TestIsIntersecting(t *testing.T) {
	r := NewShortSegment(0, 1)
	assert.True(t, r.IsIntersecting(NewShortSegment(0, 1)))
	assert.False(t, r.IsIntersecting(NewShortSegment(-delta, -1)))
	assert.False(t, r.IsIntersecting(NewShortSegment(1+delta, 2)))
	assert.True(t, r.IsIntersecting(NewShortSegment(-1, 2)))
	assert.True(t, r.IsIntersecting(NewShortSegment(1.0/4.0*math.Pi, 2.0/4.0*math.Pi)))
	assert.False(t, r.IsIntersecting(NewShortSegment(3.0/4.0*math.Pi, math.Pi)))

	assert.True(t, NewCircle().IsIntersecting(NewPoint(2)))
	assert.True(t, NewPoint(1).IsIntersecting(NewPoint(1)))
	assert.False(t, NewPoint(0).IsIntersecting(NewPoint(1)))
}

func TestIntersect(t *testing.T) {
	pieces := NewCounterclockwiseSegment(0, 1).Intersect(NewCounterclockwiseSegment(0.5, 2))
	require.Len(t, pieces, 1)
	assertRange(t, 0.5, 1, pieces[0])

	pieces = NewCounterclockwiseSegment(0, 1).Intersect(NewCounterclockwiseSegment(2, 3))
	assert.Empty(t, pieces)

	// two long arcs overlapping at both ends
	a := NewCounterclockwiseSegment(0, 4)
	b := NewCounterclockwiseSegment(3, 1)
	pieces = a.Intersect(b)
	require.Len(t, pieces, 2)
	assertRange(t, 3, 4-TwoPi, pieces[0])
	assertRange(t, 0, 1, pieces[1])

	pieces = NewCircle().Intersect(NewCounterclockwiseSegment(0, 1))
	require.Len(t, pieces, 1)
	assertRange(t, 0, 1, pieces[0])
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name           string
		a, b           CircleRange
		source, target float64
	}{
		{"same", NewShortSegment(0, 1), NewShortSegment(0, 1), 0, 1},
		{"extend forward", NewShortSegment(0, 1), NewShortSegment(1, 3), 0, 3},
		{"extend backward", NewShortSegment(0, 1), NewShortSegment(-2, 0), -2, 1},
		{"overlap forward", NewShortSegment(0, 1), NewShortSegment(0.9, 1.5), 0, 1.5},
		{"overlap backward", NewShortSegment(0, 1), NewShortSegment(-0.5, 0.1), -0.5, 1},
		{"contained", NewShortSegment(0, 1), NewShortSegment(0.1, 0.9), 0, 1},
		{"containing", NewShortSegment(0, 1), NewShortSegment(-1, 2), -1, 2},
		{"across pi", NewShortSegment(2.5, 3.5), NewShortSegment(3.4, 5.0), 2.5, 5.0 - TwoPi},
		{"across pi containing", NewShortSegment(2.5, 3.5), NewShortSegment(2.0, 4.0), 2.0, 4.0 - TwoPi},
		{"points", NewPoint(math.Pi), NewPoint(math.Pi), math.Pi, math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, ok := tt.a.Merge(tt.b)
			require.True(t, ok)
			assert.False(t, merged.IsCircle())
			assertRange(t, tt.source, tt.target, merged)
		})
	}
}

func TestMergeWithCircles(t *testing.T) {
	merged, ok := NewCircle().Merge(NewPoint(1))
	require.True(t, ok)
	assert.True(t, merged.IsCircle())

	merged, ok = NewShortSegment(0, 1).Merge(NewCircle())
	require.True(t, ok)
	assert.True(t, merged.IsCircle())

	_, ok = NewShortSegment(0, 1).Merge(NewShortSegment(2, 3))
	assert.False(t, ok)
}

func TestMergeRoundoff(t *testing.T) {
	a := NewByOffset(3.109297220211845, 0.05083403238695672)
	b := NewByOffset(-3.1230540545807846, 0.002074922536448476)
	merged, ok := a.Merge(b)
	require.True(t, ok)
	assert.False(t, merged.IsCircle())
	assertRange(t, 3.109297220211845, -3.120979132, merged)
}

func TestSplit(t *testing.T) {
	lo, hi := NewCounterclockwiseSegment(0, 1).Split(0.5)
	assertRange(t, 0, 0.5, lo)
	assertRange(t, 0.5, 1, hi)

	lo, hi = NewCounterclockwiseSegment(3.0/4.0*math.Pi, -3.0/4.0*math.Pi).Split(math.Pi)
	assertRange(t, 3.0/4.0*math.Pi, math.Pi, lo)
	assertRange(t, math.Pi, -3.0/4.0*math.Pi, hi)
}

func TestApproximatelyEquals(t *testing.T) {
	p := NewPoint(math.Pi)
	assert.True(t, p.ApproximatelyEquals(NewPoint(-math.Pi+epsilon), 1e-9))
	assert.True(t, p.ApproximatelyEquals(NewPoint(math.Pi-epsilon), 1e-9))
	assert.False(t, p.ApproximatelyEquals(NewPoint(math.Pi+delta), 1e-9))
	assert.False(t, p.ApproximatelyEquals(NewCircle(), 1e-9))
	assert.True(t, NewCircle().ApproximatelyEquals(NewByOffset(2, TwoPi), 1e-9))
}
