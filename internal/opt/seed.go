package opt

import (
	"log/slog"
	"math"

	"github.com/cwbudde/circleopt/internal/geom"
	"github.com/cwbudde/circleopt/internal/realcmp"
)

// Seeder picks the angle a circular search starts from. The returned angle
// must have |f'| >= negligible.
type Seeder interface {
	Seed(f Function, negligible float64) (float64, error)
}

// goldenAngle is irrational relative to π, so its multiples never revisit an angle.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// OffsetSeeder tries 0, Offset, 2·Offset, ... and then multiples of the
// golden angle, MaxAttempts of each.
type OffsetSeeder struct {
	Offset      float64
	MaxAttempts int
}

func (s OffsetSeeder) Seed(f Function, negligible float64) (float64, error) {
	for _, step := range []float64{s.Offset, goldenAngle} {
		for k := 0; k < s.MaxAttempts; k++ {
			theta := geom.MapMinusPiToPi(float64(k) * step)
			grad, err := derivativeAt(f, "seed", theta)
			if err != nil {
				return 0, err
			}
			if realcmp.Neq(grad, 0, negligible) {
				return theta, nil
			}
		}
		slog.Debug("seed offsets exhausted", "offset", step, "attempts", s.MaxAttempts)
	}
	return 0, failure("seed", 0, "no angle with a usable gradient after %d attempts", 2*s.MaxAttempts)
}

// MayflySeeder starts the search where |f'| is largest, as located by a
// population-based global search over [-π, π]. If the located angle is still
// too flat, Fallback is used.
type MayflySeeder struct {
	Optimizer GlobalOptimizer
	Fallback  Seeder
}

func (s MayflySeeder) Seed(f Function, negligible float64) (float64, error) {
	steepness := func(x []float64) float64 {
		d := f.Derivative(x[0])
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return math.Inf(1)
		}
		return -math.Abs(d)
	}

	best, cost, err := s.Optimizer.Minimize(steepness, []float64{-math.Pi}, []float64{math.Pi})
	if err == nil && len(best) == 1 && -cost >= negligible {
		theta := geom.MapMinusPiToPi(best[0])
		if _, err := derivativeAt(f, "seed", theta); err != nil {
			return 0, err
		}
		return theta, nil
	}
	slog.Debug("global seed search unusable, falling back", "cost", cost, "error", err)

	if s.Fallback == nil {
		return 0, failure("seed", 0, "no steep angle found")
	}
	return s.Fallback.Seed(f, negligible)
}
