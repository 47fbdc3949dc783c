package opt

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/cwbudde/circleopt/internal/geom"
	"github.com/cwbudde/circleopt/internal/realcmp"
)

// CircleConfig holds the tolerances of the circular optimizer.
type CircleConfig struct {
	// GradientEpsilon: |f'| below this is a critical point.
	GradientEpsilon float64 `yaml:"gradient_epsilon" json:"gradient_epsilon"`
	// Dampers are the step scales tried while following the gradient.
	Dampers []float64 `yaml:"dampers" json:"dampers"`
	// SteepEnough: |f'| below this is too flat to follow.
	SteepEnough float64 `yaml:"steep_enough" json:"steep_enough"`
	// InitialDelta and DeltaGrowth shape the forward walk through flat zones.
	InitialDelta float64 `yaml:"initial_delta" json:"initial_delta"`
	DeltaGrowth  float64 `yaml:"delta_growth" json:"delta_growth"`
	// OptimumEpsilon is the final bracket width when bisecting for an optimum.
	OptimumEpsilon float64 `yaml:"optimum_epsilon" json:"optimum_epsilon"`
	// RootEpsilon is the final bracket width when bisecting for a root.
	RootEpsilon   float64 `yaml:"root_epsilon" json:"root_epsilon"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	// MaxStep caps any single move along the circle.
	MaxStep float64 `yaml:"max_step" json:"max_step"`
	// SeedOffset and MaxSeedAttempts control the choice of starting angle.
	SeedOffset      float64 `yaml:"seed_offset" json:"seed_offset"`
	MaxSeedAttempts int     `yaml:"max_seed_attempts" json:"max_seed_attempts"`
}

// DefaultCircleConfig returns the tolerances the circular optimizer is tuned for.
func DefaultCircleConfig() CircleConfig {
	return CircleConfig{
		GradientEpsilon: 1e-10,
		Dampers:         []float64{0.05, 0.1, 0.2},
		SteepEnough:     1e-4,
		InitialDelta:    1e-10,
		DeltaGrowth:     1.4,
		OptimumEpsilon:  1e-10,
		RootEpsilon:     1e-10,
		MaxIterations:   100000,
		MaxStep:         math.Pi / 32,
		SeedOffset:      1.0,
		MaxSeedAttempts: 16,
	}
}

// Validate checks that the tolerances are usable together.
func (c CircleConfig) Validate() error {
	if c.GradientEpsilon <= 0 || c.SteepEnough <= 0 || c.InitialDelta <= 0 ||
		c.OptimumEpsilon <= 0 || c.RootEpsilon <= 0 || c.MaxStep <= 0 {
		return errors.New("circle config: tolerances must be positive")
	}
	if c.GradientEpsilon >= c.SteepEnough {
		return fmt.Errorf("circle config: gradient_epsilon (%g) must be below steep_enough (%g)",
			c.GradientEpsilon, c.SteepEnough)
	}
	if c.DeltaGrowth <= 1 {
		return fmt.Errorf("circle config: delta_growth must exceed 1, got %g", c.DeltaGrowth)
	}
	if len(c.Dampers) == 0 {
		return errors.New("circle config: at least one damper is required")
	}
	for _, d := range c.Dampers {
		if d <= 0 {
			return fmt.Errorf("circle config: damper %g is not positive", d)
		}
	}
	if c.MaxIterations <= 0 {
		return errors.New("circle config: max_iterations must be positive")
	}
	return nil
}

// CircleOptimizer finds every critical point and every root of a periodic
// function on ℝ/2πℤ.
type CircleOptimizer struct {
	Config CircleConfig
	Seeder Seeder // nil means an OffsetSeeder built from Config
	Tracer Tracer
}

// NewCircleOptimizer returns an optimizer with the given tolerances.
func NewCircleOptimizer(cfg CircleConfig) *CircleOptimizer {
	return &CircleOptimizer{Config: cfg}
}

// Solve returns the optima of f.
func (c *CircleOptimizer) Solve(f Function) ([]float64, error) {
	return c.Optima(f)
}

func (c *CircleOptimizer) seeder() Seeder {
	if c.Seeder != nil {
		return c.Seeder
	}
	return OffsetSeeder{Offset: c.Config.SeedOffset, MaxAttempts: c.Config.MaxSeedAttempts}
}

// Optima returns the distinct critical points of f in discovery order.
//
// The search walks counterclockwise from a seed angle, one optimum at a time,
// and stops when it finds an optimum it has already seen. Finding more than
// f.MaxOptima() distinct optima yields a *TooManyOptimaError holding the ones
// found so far.
func (c *CircleOptimizer) Optima(f Function) ([]float64, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}

	seed, err := c.seeder().Seed(f, c.Config.GradientEpsilon)
	if err != nil {
		return nil, err
	}
	grad, err := derivativeAt(f, "seed", seed)
	if err != nil {
		return nil, err
	}

	s := &searchState{
		f:     f,
		cfg:   &c.Config,
		tr:    tracerOrNop(c.Tracer),
		theta: seed,
		dir:   directionFor(grad),
	}
	slog.Debug("circular search seeded", "theta", seed, "direction", s.dir.String())

	var optima []float64
	var passed float64
	var havePassed bool
	for {
		optimum := passed
		if !havePassed {
			optimum, err = s.nextOptimum()
			if err != nil {
				return nil, err
			}
		}
		if containsAngle(optima, optimum, 2*c.Config.OptimumEpsilon) {
			break
		}
		if len(optima) == f.MaxOptima() {
			return nil, &TooManyOptimaError{Max: f.MaxOptima(), Optima: optima}
		}
		optima = append(optima, optimum)
		s.tr.Point("optimum", optimum, f.Value(optimum))
		slog.Debug("optimum found", "theta", optimum, "count", len(optima), "passed", havePassed)

		s.theta = optimum
		passed, havePassed, err = s.findSteeperGradient()
		if err != nil {
			return nil, err
		}
	}
	return optima, nil
}

// Roots returns the angles where f changes sign, at most one between each
// pair of circularly consecutive optima. The optima are sorted first, so
// discovery order is fine. An optimum where f is exactly zero is a root.
func (c *CircleOptimizer) Roots(f Function, optima []float64) ([]float64, error) {
	const op = "roots"
	if len(optima) == 0 {
		return nil, nil
	}
	sorted := slices.Clone(optima)
	slices.Sort(sorted)

	value := func(t float64) (float64, error) { return valueAt(f, op, t) }

	var roots []float64
	for i, lower := range sorted {
		upper := sorted[(i+1)%len(sorted)]
		if upper <= lower {
			upper += geom.TwoPi
		}

		fLower, err := value(lower)
		if err != nil {
			return nil, err
		}
		fUpper, err := value(upper)
		if err != nil {
			return nil, err
		}
		if fLower == 0 {
			roots = append(roots, geom.MapMinusPiToPi(lower))
			continue
		}
		if fUpper == 0 || sameSign(fLower, fUpper) {
			continue
		}

		root, err := bisect(op, value, lower, upper, fLower, 0, c.Config.RootEpsilon)
		if err != nil {
			return nil, err
		}
		root = geom.MapMinusPiToPi(root)
		c.tracer().Point("root", root, 0)
		roots = append(roots, root)
	}
	return roots, nil
}

func (c *CircleOptimizer) tracer() Tracer { return tracerOrNop(c.Tracer) }

// Optima finds all critical points of f with the default configuration.
func Optima(f Function) ([]float64, error) {
	return NewCircleOptimizer(DefaultCircleConfig()).Optima(f)
}

// Roots finds the sign changes of f between the given optima with the default configuration.
func Roots(f Function, optima []float64) ([]float64, error) {
	return NewCircleOptimizer(DefaultCircleConfig()).Roots(f, optima)
}

func containsAngle(angles []float64, a, tolerance float64) bool {
	for _, b := range angles {
		if realcmp.Zero(geom.AngularDistance(a, b), tolerance) {
			return true
		}
	}
	return false
}

type direction int

const (
	minimize direction = iota
	maximize
)

// factor is the sign applied to f so that every search is a descent.
func (d direction) factor() float64 {
	if d == minimize {
		return 1
	}
	return -1
}

func (d direction) String() string {
	if d == minimize {
		return "minimize"
	}
	return "maximize"
}

// directionFor picks the direction that moves counterclockwise from a point
// with gradient grad.
func directionFor(grad float64) direction {
	if grad < 0 {
		return minimize
	}
	return maximize
}

// searchState belongs to a single Optima call.
type searchState struct {
	f   Function
	cfg *CircleConfig
	tr  Tracer

	theta float64
	dir   direction
	// bound is the arc known to contain the next optimum. It starts as the
	// whole circle anchored at theta and shrinks from its source as the search
	// advances; it is complete once the gradient has been seen to turn.
	bound    geom.CircleRange
	complete bool
}

func (s *searchState) gradient() (float64, error) {
	return derivativeAt(s.f, "circular optimum", s.theta)
}

func (s *searchState) resetBound() {
	s.bound = geom.NewByOffset(s.theta, geom.TwoPi)
	s.complete = false
}

func (s *searchState) updateBound(grad float64) {
	if s.complete {
		return
	}
	moved := geom.CounterclockwiseDistance(s.bound.Source(), s.theta)
	switch signed := s.dir.factor() * grad; {
	case signed > 0:
		s.bound = geom.NewByOffset(s.bound.Source(), moved)
		s.complete = true
		s.tr.Bound("bound", s.bound.Source(), s.bound.Target())
	case signed < 0:
		s.bound = geom.NewByOffset(s.theta, math.Max(0, s.bound.Length()-moved))
	}
}

func (s *searchState) nextOptimum() (float64, error) {
	s.resetBound()
	for attempt := 0; attempt < s.cfg.MaxIterations; attempt++ {
		grad, err := s.followGradient()
		if err != nil {
			return 0, err
		}
		switch {
		case realcmp.Zero(grad, s.cfg.GradientEpsilon):
			return s.theta, nil
		case s.complete:
			return s.boundedOptimum()
		case math.Abs(grad) >= s.cfg.SteepEnough:
			return 0, failure("circular optimum", s.theta,
				"gradient still steep after %d iterations", s.cfg.MaxIterations)
		}

		grad, err = s.exploreFlatZone()
		if err != nil {
			return 0, err
		}
		if s.complete {
			return s.boundedOptimum()
		}
		s.dir = directionFor(grad)
	}
	return 0, failure("circular optimum", s.theta, "search did not settle")
}

// followGradient takes damped steps until the gradient flattens out or the
// bound completes, and returns the gradient at the final angle.
func (s *searchState) followGradient() (float64, error) {
	path := []float64{s.theta}
	defer func() { s.tr.Path("gradient", path, nil) }()

	for i := 0; i < s.cfg.MaxIterations; i++ {
		grad, err := s.gradient()
		if err != nil {
			return 0, err
		}
		s.updateBound(grad)
		if math.Abs(grad) < s.cfg.SteepEnough || s.complete {
			return grad, nil
		}
		next := bestDampedStep(s.f, s.theta, grad, s.dir.factor(), s.cfg.Dampers, s.cfg.MaxStep)
		s.theta = geom.MapMinusPiToPi(next)
		path = append(path, s.theta)
	}
	return s.gradient()
}

// forwardWalk moves counterclockwise with a geometrically growing step until
// stop returns true. The walk is limited to one full turn.
func (s *searchState) forwardWalk(op string, stop func(grad float64) bool) (float64, error) {
	delta := s.cfg.InitialDelta
	for walked := 0.0; walked < geom.TwoPi; {
		s.theta = geom.MapMinusPiToPi(s.theta + delta)
		walked += delta
		delta = math.Min(delta*s.cfg.DeltaGrowth, s.cfg.MaxStep)

		grad, err := s.gradient()
		if err != nil {
			return 0, err
		}
		if stop(grad) {
			return grad, nil
		}
	}
	return 0, failure(op, s.theta, "gradient stays below %g around the whole circle", s.cfg.SteepEnough)
}

func (s *searchState) exploreFlatZone() (float64, error) {
	return s.forwardWalk("flat zone", func(grad float64) bool {
		s.updateBound(grad)
		return s.complete || math.Abs(grad) > s.cfg.SteepEnough
	})
}

// findSteeperGradient leaves the optimum at s.theta and sets the direction
// for the next search. If the gradient turns back before it gets steep, the
// walk has passed the next optimum; that optimum is returned with passed set
// and the search continues from it.
func (s *searchState) findSteeperGradient() (optimum float64, passed bool, err error) {
	const op = "steeper gradient"
	// past an optimum found in direction dir, dir.factor()·f' is positive
	leaving := s.dir.factor()
	var last, gLast float64
	var left, turned bool

	grad, err := s.forwardWalk(op, func(grad float64) bool {
		switch signed := leaving * grad; {
		case signed > 0:
			last, gLast, left = s.theta, grad, true
		case signed < 0 && left:
			turned = true
			return true
		}
		return math.Abs(grad) > s.cfg.SteepEnough
	})
	if err != nil {
		return 0, false, err
	}
	if !turned {
		s.dir = directionFor(grad)
		return 0, false, nil
	}

	upper := last + geom.CounterclockwiseDistance(last, s.theta)
	s.tr.Bound("passed", last, upper)
	deriv := func(t float64) (float64, error) { return derivativeAt(s.f, op, t) }
	mid, err := bisect(op, deriv, last, upper, gLast, 0, s.cfg.OptimumEpsilon)
	if err != nil {
		return 0, false, err
	}
	// the passed optimum is of the opposite kind
	if s.dir == minimize {
		s.dir = maximize
	} else {
		s.dir = minimize
	}
	return geom.MapMinusPiToPi(mid), true, nil
}

// boundedOptimum bisects the gradient over the completed bound, unrolled onto the line.
func (s *searchState) boundedOptimum() (float64, error) {
	const op = "circular bounded optimum"
	source := s.bound.Source()
	target := source + s.bound.Length()

	gSource, err := derivativeAt(s.f, op, source)
	if err != nil {
		return 0, err
	}
	gTarget, err := derivativeAt(s.f, op, target)
	if err != nil {
		return 0, err
	}
	if gSource == 0 {
		return source, nil
	}
	if gTarget == 0 {
		return geom.MapMinusPiToPi(target), nil
	}
	if sameSign(gSource, gTarget) {
		return 0, failure(op, source, "gradient has the same sign at both ends of %v", s.bound)
	}

	deriv := func(t float64) (float64, error) { return derivativeAt(s.f, op, t) }
	mid, err := bisect(op, deriv, source, target, gSource, 0, s.cfg.OptimumEpsilon)
	if err != nil {
		return 0, err
	}
	return geom.MapMinusPiToPi(mid), nil
}
