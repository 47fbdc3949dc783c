package opt

import (
	"math"

	"github.com/cwbudde/circleopt/internal/realcmp"
)

// SecantOptimizer finds a critical point by secant iteration on f'.
// It never brackets, so a run that does not converge simply fails.
type SecantOptimizer struct {
	Epsilon       float64
	MaxIterations int
	Guess1        float64
	Guess2        float64
	Tracer        Tracer
}

// Solve runs LocalOptimum from the two configured guesses.
func (s *SecantOptimizer) Solve(f Function) ([]float64, error) {
	x, err := s.LocalOptimum(f, s.Guess1, s.Guess2)
	if err != nil {
		return nil, err
	}
	return []float64{x}, nil
}

// LocalOptimum iterates from two starting points until |f'| <= Epsilon.
func (s *SecantOptimizer) LocalOptimum(f Function, guess1, guess2 float64) (float64, error) {
	const op = "secant local optimum"
	tr := tracerOrNop(s.Tracer)

	x1, x2 := guess1, guess2
	y1, err := derivativeAt(f, op, x1)
	if err != nil {
		return 0, err
	}
	if realcmp.Zero(y1, s.Epsilon) {
		return x1, nil
	}
	y2, err := derivativeAt(f, op, x2)
	if err != nil {
		return 0, err
	}
	if realcmp.Zero(y2, s.Epsilon) {
		return x2, nil
	}

	path := []float64{x1, x2}
	defer func() { tr.Path("secant", path, nil) }()

	for i := 0; i < s.MaxIterations; i++ {
		dy := y2 - y1
		if dy == 0 {
			return 0, failure(op, x2, "secant is flat")
		}
		x3 := x1 - (x2-x1)/dy*y1
		if math.IsNaN(x3) || math.IsInf(x3, 0) {
			return 0, failure(op, x2, "secant intercept is %v", x3)
		}
		path = append(path, x3)

		y3, err := derivativeAt(f, op, x3)
		if err != nil {
			return 0, err
		}
		if realcmp.Zero(y3, s.Epsilon) {
			tr.Point("optimum", x3, f.Value(x3))
			return x3, nil
		}
		x1, y1 = x2, y2
		x2, y2 = x3, y3
	}
	return 0, failure(op, x2, "no convergence after %d iterations", s.MaxIterations)
}

// LocalOptimum runs a SecantOptimizer.
func LocalOptimum(f Function, guess1, guess2, epsilon float64, maxIterations int) (float64, error) {
	s := &SecantOptimizer{Epsilon: epsilon, MaxIterations: maxIterations}
	return s.LocalOptimum(f, guess1, guess2)
}
