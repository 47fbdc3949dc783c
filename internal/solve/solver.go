package solve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/circleopt/internal/config"
	"github.com/cwbudde/circleopt/internal/opt"
	"github.com/cwbudde/circleopt/internal/sphere"
	"github.com/cwbudde/circleopt/internal/store"
	"github.com/google/uuid"
)

// DefaultSampleCount is the number of angles dumped when a circular solve fails.
const DefaultSampleCount = 1000

// Solver runs problems with shared tolerances. A nil Store disables
// persistence, traces and failure dumps.
type Solver struct {
	Circle      opt.CircleConfig
	Interval    config.IntervalConfig
	Store       *store.FSStore
	SampleCount int

	intersector *sphere.Intersector
}

// New returns a Solver configured from cfg.
func New(cfg config.Config, st *store.FSStore) *Solver {
	in := sphere.NewIntersector(opt.NewCircleOptimizer(cfg.Circle), sphere.DefaultCacheSize)
	in.OnFailure = func(f opt.Function, err error) {
		slog.Warn("distance function optimization failed", "max_optima", f.MaxOptima(), "error", err)
	}
	return &Solver{
		Circle:      cfg.Circle,
		Interval:    cfg.Interval,
		Store:       st,
		SampleCount: DefaultSampleCount,
		intersector: in,
	}
}

// Solve runs one problem. The returned result is non-nil unless ctx is already
// done; its Error field mirrors the returned error. When a Store is set the
// result is saved whether or not the solve succeeded.
func (s *Solver) Solve(ctx context.Context, p Problem) (*store.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &store.Result{
		ID:        uuid.New().String(),
		Name:      p.Name,
		Kind:      p.Kind,
		Function:  p.Describe(),
		Timestamp: start.UTC(),
	}
	if raw, err := json.Marshal(p); err == nil {
		res.Problem = raw
	}

	err := p.Validate()
	if err == nil {
		err = s.run(p, res)
	}
	res.Elapsed = time.Since(start)

	if err != nil {
		res.Error = err.Error()
		res.ErrorKind = classify(err)
		slog.Info("Solve failed", "resultID", res.ID, "kind", p.Kind, "error_kind", res.ErrorKind, "error", err)
	} else {
		slog.Debug("Solve finished", "resultID", res.ID, "kind", p.Kind,
			"optima", len(res.Optima), "roots", len(res.Roots), "elapsed", res.Elapsed)
	}

	if s.Store != nil {
		if saveErr := s.Store.SaveResult(res); saveErr != nil {
			// a problem with an unknown kind fails both ways; report the solve error only
			var verr *store.ValidationError
			if !errors.As(saveErr, &verr) || err == nil {
				return res, errors.Join(err, fmt.Errorf("failed to save result: %w", saveErr))
			}
		}
	}
	return res, err
}

func (s *Solver) run(p Problem, res *store.Result) error {
	var tr opt.Tracer
	if p.Trace && s.Store != nil {
		tw, err := store.NewTraceWriter(s.Store.BaseDir(), res.ID, false)
		if err != nil {
			return err
		}
		defer func() {
			if err := tw.Close(); err != nil {
				slog.Warn("Failed to write trace", "resultID", res.ID, "error", err)
			}
		}()
		tr = tw
	}

	switch p.Kind {
	case store.KindCircle:
		return s.runCircle(p, res, tr)
	case store.KindGradient:
		return s.runGradient(p, res, tr)
	case store.KindSecant:
		return s.runSecant(p, res, tr)
	case store.KindIntersect:
		return s.runIntersect(p, res)
	}
	return &InvalidProblemError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", p.Kind)}
}

func (s *Solver) runCircle(p Problem, res *store.Result, tr opt.Tracer) error {
	f, err := p.Function()
	if err != nil {
		return err
	}

	c := opt.NewCircleOptimizer(s.Circle)
	c.Tracer = tr
	if p.Seeder == SeederMayfly {
		fallback := opt.OffsetSeeder{Offset: s.Circle.SeedOffset, MaxAttempts: s.Circle.MaxSeedAttempts}
		c.Seeder = opt.NewMayflySeeder(p.Seed, fallback)
	}

	optima, err := c.Optima(f)
	if err != nil {
		var tooMany *opt.TooManyOptimaError
		if errors.As(err, &tooMany) {
			res.Optima = tooMany.Optima
		}
		s.dumpSamples(res.ID, f)
		return err
	}
	res.Optima = optima

	roots, err := c.Roots(f, optima)
	if err != nil {
		s.dumpSamples(res.ID, f)
		return err
	}
	res.Roots = roots
	return nil
}

func (s *Solver) runGradient(p Problem, res *store.Result, tr opt.Tracer) error {
	f, err := p.Function()
	if err != nil {
		return err
	}

	g := opt.NewGradientOptimizer(s.Interval.Epsilon, s.Interval.MaxIterations)
	g.Tracer = tr

	var x float64
	if p.Lower != nil {
		x, err = g.FindBoundedOptimum(f, *p.Lower, *p.Upper)
	} else {
		x, err = g.LocalMinimum(f, p.Guess)
	}
	if err != nil {
		return err
	}
	res.Optima = []float64{x}
	return nil
}

func (s *Solver) runSecant(p Problem, res *store.Result, tr opt.Tracer) error {
	f, err := p.Function()
	if err != nil {
		return err
	}

	sec := &opt.SecantOptimizer{
		Epsilon:       s.Interval.Epsilon,
		MaxIterations: s.Interval.MaxIterations,
		Tracer:        tr,
	}
	x, err := sec.LocalOptimum(f, p.Guess, *p.Guess2)
	if err != nil {
		return err
	}
	res.Optima = []float64{x}
	return nil
}

func (s *Solver) runIntersect(p Problem, res *store.Result) error {
	a, b, err := p.Circles()
	if err != nil {
		return err
	}

	points, err := s.intersector.Intersect(a, b)
	if err != nil {
		if !errors.Is(err, sphere.ErrSameCircle) {
			s.dumpSamples(res.ID, a.Distance(b))
		}
		return err
	}
	res.Points = make([][3]float64, len(points))
	for i, pt := range points {
		res.Points[i] = [3]float64{pt.X, pt.Y, pt.Z}
	}
	return nil
}

// dumpSamples writes the function next to a failed result for offline inspection.
func (s *Solver) dumpSamples(id string, f opt.Function) {
	if s.Store == nil || s.SampleCount <= 0 {
		return
	}
	if err := store.SaveSamples(s.Store.BaseDir(), id, opt.Sample(f, s.SampleCount)); err != nil {
		slog.Warn("Failed to dump function samples", "resultID", id, "error", err)
		return
	}
	slog.Debug("Function samples dumped", "resultID", id, "count", s.SampleCount)
}

func classify(err error) string {
	var invalid *InvalidProblemError
	switch {
	case errors.As(err, &invalid), errors.Is(err, sphere.ErrSameCircle):
		return store.ErrorKindInvalid
	case errors.Is(err, opt.ErrTooManyOptima):
		return store.ErrorKindTooManyOptima
	}
	return store.ErrorKindFailure
}
