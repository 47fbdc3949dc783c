package opt

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/cwbudde/circleopt/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trig builds f(t) = Σ a[k]·cos(kt) + b[k]·sin(kt).
func trig(maxOptima int, a, b []float64) Func {
	return Func{
		F: func(t float64) float64 {
			var v float64
			for k, c := range a {
				v += c * math.Cos(float64(k)*t)
			}
			for k, s := range b {
				v += s * math.Sin(float64(k)*t)
			}
			return v
		},
		DF: func(t float64) float64 {
			var d float64
			for k, c := range a {
				d -= float64(k) * c * math.Sin(float64(k)*t)
			}
			for k, s := range b {
				d += float64(k) * s * math.Cos(float64(k)*t)
			}
			return d
		},
		Max: maxOptima,
	}
}

func sine(maxOptima int) Func {
	return Func{F: math.Sin, DF: math.Cos, Max: maxOptima}
}

func assertAngles(t *testing.T, want, got []float64, tolerance float64) {
	t.Helper()
	require.Len(t, got, len(want), "angles %v", got)
	for _, w := range want {
		found := false
		for _, g := range got {
			if geom.AngularDistance(w, g) < tolerance {
				found = true
				break
			}
		}
		assert.True(t, found, "no angle near %v in %v", w, got)
	}
}

func TestOptimaSine(t *testing.T) {
	f := sine(2)

	optima, err := Optima(f)
	require.NoError(t, err)
	assertAngles(t, []float64{math.Pi / 2, -math.Pi / 2}, optima, 1e-8)

	roots, err := Roots(f, optima)
	require.NoError(t, err)
	assertAngles(t, []float64{0, math.Pi}, roots, 1e-8)
}

func TestOptimaCosTwoT(t *testing.T) {
	f := trig(4, []float64{0, 0, 1}, nil)

	optima, err := Optima(f)
	require.NoError(t, err)
	assertAngles(t, []float64{0, math.Pi / 2, math.Pi, -math.Pi / 2}, optima, 1e-8)

	// consecutive optima in angular order alternate between maxima and minima
	sorted := append([]float64(nil), optima...)
	sort.Float64s(sorted)
	for i := range sorted {
		next := sorted[(i+1)%len(sorted)]
		assert.Less(t, f.Value(sorted[i])*f.Value(next), 0.0, "optima %v and %v are both maxima or both minima", sorted[i], next)
	}

	roots, err := Roots(f, optima)
	require.NoError(t, err)
	assertAngles(t, []float64{math.Pi / 4, 3 * math.Pi / 4, -math.Pi / 4, -3 * math.Pi / 4}, roots, 1e-8)
}

func TestOptimaTooMany(t *testing.T) {
	_, err := Optima(sine(1))
	require.Error(t, err)

	var tooMany *TooManyOptimaError
	require.True(t, errors.As(err, &tooMany))
	assert.Len(t, tooMany.Optima, 1)
	assert.Equal(t, 1, tooMany.Max)
	assert.InDelta(t, math.Pi/2, tooMany.Optima[0], 1e-8)

	assert.ErrorIs(t, err, ErrTooManyOptima)
	assert.ErrorIs(t, err, ErrOptimizerFailure)
}

func TestOptimaInfiniteDerivativeAtSeed(t *testing.T) {
	f := Func{
		F: math.Sin,
		DF: func(t float64) float64 {
			if t == 0 {
				return math.Inf(1)
			}
			return math.Cos(t)
		},
		Max: 2,
	}

	_, err := Optima(f)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOptimizerFailure)
	assert.NotErrorIs(t, err, ErrTooManyOptima)

	var failure *FailureError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 0.0, failure.Theta)
}

func TestOptimaUndefinedDerivative(t *testing.T) {
	f := Func{
		F: math.Sin,
		DF: func(t float64) float64 {
			if t > 1 {
				return math.NaN()
			}
			return math.Cos(t)
		},
		Max: 2,
	}

	_, err := Optima(f)
	assert.ErrorIs(t, err, ErrOptimizerFailure)
}

func TestOptimaConstantFunctionFails(t *testing.T) {
	f := Func{F: func(float64) float64 { return 3 }, DF: func(float64) float64 { return 0 }, Max: 2}

	_, err := Optima(f)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOptimizerFailure)
}

func TestOptimaClosesCycleAcrossPi(t *testing.T) {
	f := Func{F: math.Cos, DF: func(t float64) float64 { return -math.Sin(t) }, Max: 2}

	optima, err := Optima(f)
	require.NoError(t, err)
	assertAngles(t, []float64{0, math.Pi}, optima, 1e-8)
}

func TestOptimaCrossesFlatInflection(t *testing.T) {
	// sin³ has inflections with f' = 0 at 0 and π; only ±π/2 are optima
	f := Func{
		F:   func(t float64) float64 { return math.Pow(math.Sin(t), 3) },
		DF:  func(t float64) float64 { return 3 * math.Sin(t) * math.Sin(t) * math.Cos(t) },
		Max: 4,
	}

	optima, err := Optima(f)
	require.NoError(t, err)
	assertAngles(t, []float64{math.Pi / 2, -math.Pi / 2}, optima, 1e-6)

	roots, err := Roots(f, optima)
	require.NoError(t, err)
	assertAngles(t, []float64{0, math.Pi}, roots, 1e-3)
}

func TestOptimaShallowPairAfterOptimum(t *testing.T) {
	// the minimum near 2.672 and the maximum near 2.846 are separated by a
	// gradient that never exceeds SteepEnough
	f := trig(6,
		[]float64{-2.14e-4, 7.48e-4, 3.38e-4, -7.59e-4},
		[]float64{-5.44e-4, 1.776e-3, -1.073e-3, -8.21e-4})

	optima, err := Optima(f)
	require.NoError(t, err)
	assertAngles(t, []float64{-1.94017, -0.59354, 0.34173, 1.46560, 2.67159, 2.84562}, optima, 1e-4)
	for _, a := range optima {
		assert.Less(t, math.Abs(f.Derivative(a)), 1e-9, "f'(%v)", a)
	}
	assert.Len(t, optima, 6, "optima of a smooth periodic function come in min/max pairs")
}

func TestContainsAngle(t *testing.T) {
	angles := []float64{-1, math.Pi}

	assert.True(t, containsAngle(angles, -1, 0))
	assert.True(t, containsAngle(angles, -math.Pi+1e-12, 2e-10), "wraps across ±π")
	assert.True(t, containsAngle(angles, -1+0.5, 0.5), "tolerance is inclusive")
	assert.False(t, containsAngle(angles, 0, 0.5))
	assert.False(t, containsAngle(nil, 0, 1))
}

func TestOptimaProperties(t *testing.T) {
	functions := map[string]Func{
		"sin":          sine(2),
		"cos 3t":       trig(6, []float64{0, 0, 0, 1}, nil),
		"mixed":        trig(6, []float64{0.3, 1, -0.5}, []float64{0, 0.7, 0, 0.2}),
		"offset":       trig(2, []float64{0.5}, []float64{0, 1}),
		"no roots":     trig(2, []float64{2, 1}, nil),
		"tiny":         trig(2, nil, []float64{0, 1e-3}),
		"asymmetric 2": trig(4, []float64{0, 1, 0.25}, []float64{0, 0.5, 1}),
	}

	cfg := DefaultCircleConfig()
	for name, f := range functions {
		t.Run(name, func(t *testing.T) {
			optima, err := Optima(f)
			require.NoError(t, err)
			require.NotEmpty(t, optima)
			require.LessOrEqual(t, len(optima), f.MaxOptima())

			for i, a := range optima {
				assert.True(t, a > -math.Pi && a <= math.Pi, "optimum %v not canonical", a)
				assert.Less(t, math.Abs(f.Derivative(a)), 1e-8, "f'(%v)", a)
				for _, b := range optima[i+1:] {
					assert.GreaterOrEqual(t, geom.AngularDistance(a, b), 2*cfg.OptimumEpsilon)
				}
			}

			roots, err := Roots(f, optima)
			require.NoError(t, err)

			sorted := append([]float64(nil), optima...)
			sort.Float64s(sorted)
			for _, r := range roots {
				assert.Less(t, math.Abs(f.Value(r)), 1e-8, "f(%v)", r)
				assert.True(t, strictlyBetweenSomePair(sorted, r), "root %v is not between consecutive optima %v", r, sorted)
			}
		})
	}
}

func strictlyBetweenSomePair(sorted []float64, r float64) bool {
	for i, lower := range sorted {
		upper := sorted[(i+1)%len(sorted)]
		arc := geom.NewCounterclockwiseSegment(lower, upper)
		if len(sorted) == 1 {
			arc = geom.NewByOffset(lower, geom.TwoPi)
		}
		into := geom.CounterclockwiseDistance(lower, r)
		if into > 0 && into < arc.Length() {
			return true
		}
	}
	return false
}

func TestRootsSortsOptima(t *testing.T) {
	f := trig(4, []float64{0, 0, 1}, nil)
	optima := []float64{math.Pi / 2, 0, -math.Pi / 2, math.Pi}

	roots, err := Roots(f, optima)
	require.NoError(t, err)
	assertAngles(t, []float64{math.Pi / 4, 3 * math.Pi / 4, -math.Pi / 4, -3 * math.Pi / 4}, roots, 1e-8)
}

func TestRootsAtOptimum(t *testing.T) {
	// f = 1 - cos t touches zero at its minimum
	f := Func{F: func(t float64) float64 { return 1 - math.Cos(t) }, DF: math.Sin, Max: 2}

	roots, err := Roots(f, []float64{0, math.Pi})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, roots)
}

func TestRootsNaNValue(t *testing.T) {
	f := Func{F: func(float64) float64 { return math.NaN() }, DF: math.Cos, Max: 2}

	_, err := Roots(f, []float64{-1, 1})
	assert.ErrorIs(t, err, ErrOptimizerFailure)
}

func TestRootsEmpty(t *testing.T) {
	roots, err := Roots(sine(2), nil)
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestOptimaTracerDoesNotChangeResult(t *testing.T) {
	f := trig(6, []float64{0.3, 1, -0.5}, []float64{0, 0.7, 0, 0.2})

	plain, err := NewCircleOptimizer(DefaultCircleConfig()).Optima(f)
	require.NoError(t, err)

	rec := &Recorder{}
	traced := NewCircleOptimizer(DefaultCircleConfig())
	traced.Tracer = rec
	withTrace, err := traced.Optima(f)
	require.NoError(t, err)

	assert.Equal(t, plain, withTrace)
	assert.Equal(t, len(plain), rec.Count("optimum"))
	assert.Positive(t, rec.Count("gradient"))
	assert.Positive(t, rec.Count("bound"))
}

func TestOptimaPreconditioned(t *testing.T) {
	f := trig(4, []float64{0, 0, 400}, []float64{0, 30})

	raw, err := Optima(f)
	require.NoError(t, err)
	pre, err := Optima(Precondition(f))
	require.NoError(t, err)

	require.Len(t, pre, len(raw))
	assertAngles(t, raw, pre, 1e-6)
}

func TestOptimaCustomSeeder(t *testing.T) {
	c := NewCircleOptimizer(DefaultCircleConfig())
	c.Seeder = fixedSeeder(2.5)

	optima, err := c.Solve(sine(2))
	require.NoError(t, err)
	assertAngles(t, []float64{math.Pi / 2, -math.Pi / 2}, optima, 1e-8)
	// a search starting at 2.5 walks counterclockwise and meets -π/2 first
	assert.InDelta(t, -math.Pi/2, optima[0], 1e-8)
}

type fixedSeeder float64

func (s fixedSeeder) Seed(Function, float64) (float64, error) { return float64(s), nil }

func TestOffsetSeeder(t *testing.T) {
	cosTwoT := trig(4, []float64{0, 0, 1}, nil)

	theta, err := OffsetSeeder{Offset: 1, MaxAttempts: 4}.Seed(cosTwoT, 1e-10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, theta)

	// f' vanishes at every multiple of π/2; an offset of π/2 never leaves them,
	// so the golden-angle fallback has to supply the seed
	theta, err = OffsetSeeder{Offset: math.Pi / 2, MaxAttempts: 4}.Seed(cosTwoT, 1e-10)
	require.NoError(t, err)
	assert.InDelta(t, geom.MapMinusPiToPi(goldenAngle), theta, 1e-12)

	flat := Func{F: func(float64) float64 { return 0 }, DF: func(float64) float64 { return 0 }, Max: 2}
	_, err = OffsetSeeder{Offset: 1, MaxAttempts: 4}.Seed(flat, 1e-10)
	assert.ErrorIs(t, err, ErrOptimizerFailure)
}

func TestCircleConfigValidate(t *testing.T) {
	require.NoError(t, DefaultCircleConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*CircleConfig)
	}{
		{"zero epsilon", func(c *CircleConfig) { c.GradientEpsilon = 0 }},
		{"epsilon above steepness", func(c *CircleConfig) { c.GradientEpsilon = 1e-3 }},
		{"no growth", func(c *CircleConfig) { c.DeltaGrowth = 1 }},
		{"no dampers", func(c *CircleConfig) { c.Dampers = nil }},
		{"negative damper", func(c *CircleConfig) { c.Dampers = []float64{0.1, -0.1} }},
		{"no iterations", func(c *CircleConfig) { c.MaxIterations = 0 }},
		{"no step", func(c *CircleConfig) { c.MaxStep = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCircleConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())

			_, err := NewCircleOptimizer(cfg).Optima(sine(2))
			assert.Error(t, err)
		})
	}
}
