// Package sphere intersects circles drawn on the unit sphere.
//
// A circle is the set of unit vectors x with Normal·x = Offset. Walking one
// circle by its angle parameter, the signed distance to the other circle's
// plane is a first-degree trigonometric polynomial, so the intersections are
// the roots the circular optimizer finds between that function's two optima.
package sphere

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/circleopt/internal/funcs"
	"github.com/cwbudde/circleopt/internal/opt"
	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrSameCircle is returned when two circles coincide and every point is shared.
var ErrSameCircle = errors.New("sphere: circles coincide")

// degenerateTolerance is the amplitude below which the distance function is treated as constant.
const degenerateTolerance = 1e-12

// Circle is {x : |x| = 1, Normal·x = Offset}.
type Circle struct {
	Normal r3.Vec  `json:"normal"`
	Offset float64 `json:"offset"`
}

// NewCircle normalises normal and checks that the plane meets the sphere.
func NewCircle(normal r3.Vec, offset float64) (Circle, error) {
	n := r3.Norm(normal)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Circle{}, fmt.Errorf("sphere: invalid normal %v", normal)
	}
	// the offset is measured along the unit normal
	offset /= n
	if math.Abs(offset) > 1 {
		return Circle{}, fmt.Errorf("sphere: plane at distance %g misses the unit sphere", offset)
	}
	return Circle{Normal: r3.Scale(1/n, normal), Offset: offset}, nil
}

func (c Circle) Center() r3.Vec  { return r3.Scale(c.Offset, c.Normal) }
func (c Circle) Radius() float64 { return math.Sqrt(math.Max(0, 1-c.Offset*c.Offset)) }

// basis returns orthonormal vectors spanning the circle's plane.
func (c Circle) basis() (u, v r3.Vec) {
	axis := r3.Vec{X: 1}
	if math.Abs(c.Normal.X) > 0.9 {
		axis = r3.Vec{Y: 1}
	}
	u = r3.Unit(r3.Sub(axis, r3.Scale(r3.Dot(axis, c.Normal), c.Normal)))
	v = r3.Cross(c.Normal, u)
	return u, v
}

// Point returns the point at angle t.
func (c Circle) Point(t float64) r3.Vec {
	u, v := c.basis()
	onCircle := r3.Add(r3.Scale(math.Cos(t), u), r3.Scale(math.Sin(t), v))
	return r3.Add(c.Center(), r3.Scale(c.Radius(), onCircle))
}

// Distance returns, as a function of c's angle, the signed distance of c.Point
// from other's plane.
func (c Circle) Distance(other Circle) funcs.TrigPoly {
	u, v := c.basis()
	r := c.Radius()
	return funcs.TrigPoly{
		Cos: []float64{r3.Dot(other.Normal, c.Center()) - other.Offset, r * r3.Dot(other.Normal, u)},
		Sin: []float64{0, r * r3.Dot(other.Normal, v)},
	}
}

// Distances holds, for each of several circles, the signed distance of c's
// points from that circle's plane as a function of c's angle.
type Distances struct {
	parts []funcs.TrigPoly
}

// Distances returns the distance family of c against others, one part per circle.
func (c Circle) Distances(others []Circle) Distances {
	parts := make([]funcs.TrigPoly, len(others))
	for i, other := range others {
		parts[i] = c.Distance(other)
	}
	return Distances{parts: parts}
}

func (d Distances) Parts() int { return len(d.parts) }

func (d Distances) ValueOf(t float64, part int) float64 { return d.parts[part].Value(t) }

func (d Distances) DerivativeOf(t float64, part int) float64 { return d.parts[part].Derivative(t) }

// MaxOptima is shared by all parts: a first-degree trigonometric polynomial has two optima.
func (d Distances) MaxOptima() int { return 2 }

type optimaKey struct {
	circle Circle
	normal r3.Vec
}

type rootsKey struct {
	a, b Circle
}

// Intersector computes circle intersections and caches the optima and roots of
// each distance function. The optima depend only on the second circle's
// normal, so circles in a shared family of parallel planes reuse them.
type Intersector struct {
	optimizer *opt.CircleOptimizer
	optima    *lruCache[optimaKey, []float64]
	roots     *lruCache[rootsKey, []float64]
	group     singleflight.Group

	// OnFailure, when set, receives the distance function the optimizer could not handle.
	OnFailure func(f opt.Function, err error)
}

// DefaultCacheSize bounds each of the intersector caches.
const DefaultCacheSize = 1024

// NewIntersector returns an Intersector using the given optimizer.
func NewIntersector(optimizer *opt.CircleOptimizer, cacheSize int) *Intersector {
	return &Intersector{
		optimizer: optimizer,
		optima:    newLRUCache[optimaKey, []float64](cacheSize),
		roots:     newLRUCache[rootsKey, []float64](cacheSize),
	}
}

// Intersect returns the points shared by a and b: none, one (tangent or
// point-sized circles) or two.
func (in *Intersector) Intersect(a, b Circle) ([]r3.Vec, error) {
	all, err := in.IntersectAll(a, []Circle{b})
	if err != nil {
		return nil, err
	}
	return all[0], nil
}

// IntersectAll intersects a with each of others. The i-th entry of the result
// holds the points shared with others[i].
func (in *Intersector) IntersectAll(a Circle, others []Circle) ([][]r3.Vec, error) {
	family := a.Distances(others)
	all := make([][]r3.Vec, len(others))
	for i, b := range others {
		points, err := in.intersect(a, b, family.parts[i], opt.Part(family, i))
		if err != nil {
			if len(others) > 1 {
				return nil, fmt.Errorf("sphere: circle %d: %w", i, err)
			}
			return nil, err
		}
		all[i] = points
	}
	return all, nil
}

// intersect solves one part of a distance family; poly and f describe the same function.
func (in *Intersector) intersect(a, b Circle, poly funcs.TrigPoly, f opt.Function) ([]r3.Vec, error) {
	if math.Hypot(poly.Cos[1], poly.Sin[1]) < degenerateTolerance {
		// a lies in a plane parallel to b's, or a is a single point
		if math.Abs(poly.Cos[0]) >= degenerateTolerance {
			return nil, nil
		}
		if a.Radius() == 0 {
			return []r3.Vec{a.Center()}, nil
		}
		return nil, ErrSameCircle
	}

	optima, err := in.optimaFor(a, b, f)
	if err != nil {
		return nil, err
	}
	roots, err := in.rootsFor(a, b, f, optima)
	if err != nil {
		return nil, err
	}

	points := make([]r3.Vec, len(roots))
	for i, t := range roots {
		points[i] = a.Point(t)
	}
	return points, nil
}

func (in *Intersector) optimaFor(a, b Circle, f opt.Function) ([]float64, error) {
	key := optimaKey{circle: a, normal: b.Normal}
	if cached, ok := in.optima.Get(key); ok {
		return cached, nil
	}

	result, err, _ := in.group.Do(fmt.Sprint(key), func() (any, error) {
		if cached, ok := in.optima.Get(key); ok {
			return cached, nil
		}
		optima, err := in.optimizer.Optima(f)
		if err != nil {
			if in.OnFailure != nil {
				in.OnFailure(f, err)
			}
			return nil, fmt.Errorf("sphere: optima of distance function: %w", err)
		}
		in.optima.Set(key, optima)
		return optima, nil
	})
	if err != nil {
		return nil, err
	}
	optima, ok := result.([]float64)
	if !ok {
		return nil, fmt.Errorf("sphere: unexpected optima type %T", result)
	}
	return optima, nil
}

func (in *Intersector) rootsFor(a, b Circle, f opt.Function, optima []float64) ([]float64, error) {
	key := rootsKey{a: a, b: b}
	if cached, ok := in.roots.Get(key); ok {
		return cached, nil
	}
	roots, err := in.optimizer.Roots(f, optima)
	if err != nil {
		return nil, fmt.Errorf("sphere: roots of distance function: %w", err)
	}
	in.roots.Set(key, slices.Clone(roots))
	return roots, nil
}

// Intersect intersects two circles with the default optimizer and no caching across calls.
func Intersect(a, b Circle) ([]r3.Vec, error) {
	return NewIntersector(opt.NewCircleOptimizer(opt.DefaultCircleConfig()), 1).Intersect(a, b)
}
