package sphere

import (
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/cwbudde/circleopt/internal/opt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func mustCircle(t *testing.T, normal r3.Vec, offset float64) Circle {
	t.Helper()
	c, err := NewCircle(normal, offset)
	require.NoError(t, err)
	return c
}

func sortByY(points []r3.Vec) {
	sort.Slice(points, func(i, j int) bool { return points[i].Y < points[j].Y })
}

func TestNewCircle(t *testing.T) {
	c := mustCircle(t, r3.Vec{Z: 2}, 1)
	assert.InDelta(t, 1, c.Normal.Z, 1e-15)
	assert.InDelta(t, 0.5, c.Offset, 1e-15)
	assert.InDelta(t, math.Sqrt(0.75), c.Radius(), 1e-15)

	_, err := NewCircle(r3.Vec{}, 0)
	assert.Error(t, err)
	_, err = NewCircle(r3.Vec{X: math.NaN()}, 0)
	assert.Error(t, err)
	_, err = NewCircle(r3.Vec{Y: 1}, 2)
	assert.Error(t, err)
}

func TestCirclePoint(t *testing.T) {
	c := mustCircle(t, r3.Vec{X: 1, Y: 1, Z: 1}, 0.4)
	for _, ang := range []float64{-3, -1, 0, 0.5, 2, math.Pi} {
		p := c.Point(ang)
		assert.InDelta(t, 1, r3.Norm(p), 1e-12, "t=%g", ang)
		assert.InDelta(t, c.Offset, r3.Dot(c.Normal, p), 1e-12, "t=%g", ang)
	}
}

func TestDistanceMatchesGeometry(t *testing.T) {
	a := mustCircle(t, r3.Vec{Z: 1}, 0.2)
	b := mustCircle(t, r3.Vec{X: 1, Z: 1}, 0.1)
	f := a.Distance(b)
	for _, ang := range []float64{-2.5, -0.3, 0, 1, 3} {
		want := r3.Dot(b.Normal, a.Point(ang)) - b.Offset
		assert.InDelta(t, want, f.Value(ang), 1e-12, "t=%g", ang)
	}
	assert.Equal(t, 2, f.MaxOptima())
}

func TestDistancesParts(t *testing.T) {
	a := mustCircle(t, r3.Vec{Z: 1}, 0.2)
	others := []Circle{
		mustCircle(t, r3.Vec{X: 1}, 0.1),
		mustCircle(t, r3.Vec{Y: 1, Z: 1}, -0.3),
	}
	family := a.Distances(others)
	require.Equal(t, 2, family.Parts())

	for i, b := range others {
		part := opt.Part(family, i)
		single := a.Distance(b)
		assert.Equal(t, 2, part.MaxOptima())
		for _, ang := range []float64{-2, 0, 1.5} {
			assert.InDelta(t, single.Value(ang), part.Value(ang), 1e-15)
			assert.InDelta(t, single.Derivative(ang), part.Derivative(ang), 1e-15)
		}
	}
}

func TestIntersectAll(t *testing.T) {
	equator := mustCircle(t, r3.Vec{Z: 1}, 0)
	others := []Circle{
		mustCircle(t, r3.Vec{X: 1}, 0),
		mustCircle(t, r3.Vec{Z: 1}, 0.5),
		mustCircle(t, r3.Vec{Y: 1}, 0.6),
	}

	in := NewIntersector(opt.NewCircleOptimizer(opt.DefaultCircleConfig()), 8)
	all, err := in.IntersectAll(equator, others)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Len(t, all[0], 2)
	assert.Empty(t, all[1], "parallel planes")
	require.Len(t, all[2], 2)
	for _, p := range all[2] {
		assert.InDelta(t, 0.6, p.Y, 1e-8)
		assert.InDelta(t, 0, p.Z, 1e-8)
	}

	_, err = in.IntersectAll(equator, []Circle{others[0], equator})
	require.ErrorIs(t, err, ErrSameCircle)
	assert.Contains(t, err.Error(), "circle 1")
}

func TestIntersectGreatCircles(t *testing.T) {
	equator := mustCircle(t, r3.Vec{Z: 1}, 0)
	meridian := mustCircle(t, r3.Vec{X: 1}, 0)

	points, err := Intersect(equator, meridian)
	require.NoError(t, err)
	require.Len(t, points, 2)
	sortByY(points)

	assert.InDelta(t, -1, points[0].Y, 1e-8)
	assert.InDelta(t, 1, points[1].Y, 1e-8)
	for _, p := range points {
		assert.InDelta(t, 0, p.X, 1e-8)
		assert.InDelta(t, 0, p.Z, 1e-8)
	}
}

func TestIntersectOffsetPlane(t *testing.T) {
	equator := mustCircle(t, r3.Vec{Z: 1}, 0)
	b := mustCircle(t, r3.Vec{X: 1}, 0.3)

	points, err := Intersect(equator, b)
	require.NoError(t, err)
	require.Len(t, points, 2)
	sortByY(points)

	y := math.Sqrt(1 - 0.09)
	assert.InDelta(t, 0.3, points[0].X, 1e-8)
	assert.InDelta(t, -y, points[0].Y, 1e-8)
	assert.InDelta(t, 0.3, points[1].X, 1e-8)
	assert.InDelta(t, y, points[1].Y, 1e-8)
}

func TestIntersectDisjoint(t *testing.T) {
	polar := mustCircle(t, r3.Vec{Z: 1}, 0.9)
	meridianOffset := mustCircle(t, r3.Vec{X: 1}, 0.8)

	points, err := Intersect(polar, meridianOffset)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestIntersectDegenerate(t *testing.T) {
	t.Run("parallel planes", func(t *testing.T) {
		a := mustCircle(t, r3.Vec{Z: 1}, 0)
		b := mustCircle(t, r3.Vec{Z: 1}, 0.5)
		points, err := Intersect(a, b)
		require.NoError(t, err)
		assert.Empty(t, points)
	})

	t.Run("same circle", func(t *testing.T) {
		a := mustCircle(t, r3.Vec{Z: 1}, 0.5)
		_, err := Intersect(a, a)
		assert.ErrorIs(t, err, ErrSameCircle)
	})

	t.Run("point circle on plane", func(t *testing.T) {
		pole := mustCircle(t, r3.Vec{Z: 1}, 1)
		meridian := mustCircle(t, r3.Vec{X: 1}, 0)
		points, err := Intersect(pole, meridian)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.InDelta(t, 1, points[0].Z, 1e-12)
	})
}

func TestIntersectorCaches(t *testing.T) {
	in := NewIntersector(opt.NewCircleOptimizer(opt.DefaultCircleConfig()), 8)
	equator := mustCircle(t, r3.Vec{Z: 1}, 0)
	b1 := mustCircle(t, r3.Vec{X: 1}, 0)
	b2 := mustCircle(t, r3.Vec{X: 1}, 0.5)

	first, err := in.Intersect(equator, b1)
	require.NoError(t, err)
	again, err := in.Intersect(equator, b1)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, in.optima.Len())
	assert.Equal(t, 1, in.roots.Len())

	// same normal, so the optima are shared
	_, err = in.Intersect(equator, b2)
	require.NoError(t, err)
	assert.Equal(t, 1, in.optima.Len())
	assert.Equal(t, 2, in.roots.Len())
}

func TestIntersectorConcurrent(t *testing.T) {
	in := NewIntersector(opt.NewCircleOptimizer(opt.DefaultCircleConfig()), 4)
	a := mustCircle(t, r3.Vec{X: 0.2, Y: 0.3, Z: 1}, 0.1)
	b := mustCircle(t, r3.Vec{X: 1, Y: -0.4}, 0.2)

	want, err := in.Intersect(a, b)
	require.NoError(t, err)
	require.Len(t, want, 2)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := in.Intersect(a, b)
			if err != nil {
				errs <- err
				return
			}
			if len(got) != len(want) {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestLRUCacheEvicts(t *testing.T) {
	c := newLRUCache[int, string](2)
	c.Set(1, "a")
	c.Set(2, "b")
	_, ok := c.Get(1)
	require.True(t, ok)
	c.Set(3, "c")

	_, ok = c.Get(2)
	assert.False(t, ok, "least recently used entry should be evicted")
	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 2, c.Len())
}
