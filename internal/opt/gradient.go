package opt

import (
	"log/slog"

	"github.com/cwbudde/circleopt/internal/realcmp"
)

// Defaults for the interval optimizers.
const (
	DefaultIntervalEpsilon       = 1e-9
	DefaultIntervalMaxIterations = 1000
)

// DefaultGradientDampers are the step scales tried at every gradient step.
var DefaultGradientDampers = []float64{0.2, 0.4, 0.8}

// GradientOptimizer finds a critical point on the real line by damped gradient
// descent, switching to bisection of f' once the point is bracketed.
type GradientOptimizer struct {
	Epsilon       float64
	MaxIterations int
	Dampers       []float64 // nil means DefaultGradientDampers
	Guess         float64   // starting point for Solve
	Tracer        Tracer
}

// NewGradientOptimizer returns an optimizer with the default dampers.
func NewGradientOptimizer(epsilon float64, maxIterations int) *GradientOptimizer {
	return &GradientOptimizer{Epsilon: epsilon, MaxIterations: maxIterations}
}

func (g *GradientOptimizer) dampers() []float64 {
	if len(g.Dampers) == 0 {
		return DefaultGradientDampers
	}
	return g.Dampers
}

// Solve runs LocalMinimum from g.Guess.
func (g *GradientOptimizer) Solve(f Function) ([]float64, error) {
	x, err := g.LocalMinimum(f, g.Guess)
	if err != nil {
		return nil, err
	}
	return []float64{x}, nil
}

// LocalMinimum searches for a point near guess where |f'| <= Epsilon.
//
// The gradient sign at each visited point narrows a two-sided bracket. Once
// both sides are known the remaining work is FindBoundedOptimum. If the
// iteration budget runs out before convergence the bracket is used if it
// exists, otherwise the search fails.
func (g *GradientOptimizer) LocalMinimum(f Function, guess float64) (float64, error) {
	const op = "gradient local minimum"
	tr := tracerOrNop(g.Tracer)

	x := guess
	grad, err := derivativeAt(f, op, x)
	if err != nil {
		return 0, err
	}
	if realcmp.Zero(grad, g.Epsilon) {
		tr.Point("minimum", x, f.Value(x))
		return x, nil
	}

	var lower, upper float64
	haveLower, haveUpper := false, false
	narrow := func(x, grad float64) {
		if grad > 0 {
			upper, haveUpper = x, true
		} else {
			lower, haveLower = x, true
		}
	}
	narrow(x, grad)

	path := []float64{x}
	values := []float64{f.Value(x)}
	defer func() { tr.Path("descent", path, values) }()

	for i := 0; i < g.MaxIterations; i++ {
		if haveLower && haveUpper {
			slog.Debug("gradient search bracketed", "lower", lower, "upper", upper, "iteration", i)
			return g.FindBoundedOptimum(f, lower, upper)
		}

		x = bestDampedStep(f, x, grad, 1, g.dampers(), 0)
		path = append(path, x)
		values = append(values, f.Value(x))

		grad, err = derivativeAt(f, op, x)
		if err != nil {
			return 0, err
		}
		if realcmp.Zero(grad, g.Epsilon) {
			tr.Point("minimum", x, f.Value(x))
			return x, nil
		}
		narrow(x, grad)
	}

	if haveLower && haveUpper {
		slog.Debug("iteration budget spent, bisecting bracket", "lower", lower, "upper", upper)
		return g.FindBoundedOptimum(f, lower, upper)
	}
	return 0, failure(op, x, "no convergence after %d iterations", g.MaxIterations)
}

// FindBoundedOptimum bisects f' on [lower, upper], whose endpoints must have
// derivatives of opposite sign. Reversed endpoints are accepted. The result
// lies in the bracket and has |f'| <= Epsilon.
func (g *GradientOptimizer) FindBoundedOptimum(f Function, lower, upper float64) (float64, error) {
	const op = "bounded optimum"
	if lower > upper {
		lower, upper = upper, lower
	}
	tracerOrNop(g.Tracer).Bound("bracket", lower, upper)

	gLower, err := derivativeAt(f, op, lower)
	if err != nil {
		return 0, err
	}
	gUpper, err := derivativeAt(f, op, upper)
	if err != nil {
		return 0, err
	}
	if realcmp.Zero(gLower, g.Epsilon) {
		return lower, nil
	}
	if realcmp.Zero(gUpper, g.Epsilon) {
		return upper, nil
	}
	if sameSign(gLower, gUpper) {
		return 0, failure(op, lower, "derivative has the same sign at %g and %g", lower, upper)
	}

	deriv := func(t float64) (float64, error) { return derivativeAt(f, op, t) }
	return bisect(op, deriv, lower, upper, gLower, g.Epsilon, 0)
}

// LocalMinimum runs a GradientOptimizer with the default dampers.
func LocalMinimum(f Function, guess, epsilon float64, maxIterations int) (float64, error) {
	return NewGradientOptimizer(epsilon, maxIterations).LocalMinimum(f, guess)
}

// FindBoundedOptimum bisects f' on a verified sign-change bracket.
func FindBoundedOptimum(f Function, lower, upper, epsilon float64) (float64, error) {
	return NewGradientOptimizer(epsilon, 0).FindBoundedOptimum(f, lower, upper)
}
