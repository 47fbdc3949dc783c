package solve

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwbudde/circleopt/internal/store"
	"golang.org/x/sync/errgroup"
)

// RunBatch solves problems concurrently, at most concurrency at a time
// (unlimited when concurrency <= 0). Results are returned in problem order.
// A failing problem does not stop the batch; only cancellation of ctx does,
// in which case the results of unstarted problems are nil.
func (s *Solver) RunBatch(ctx context.Context, problems []Problem, concurrency int) ([]*store.Result, error) {
	results := make([]*store.Result, len(problems))

	g, gCtx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	start := time.Now()
	for i, p := range problems {
		g.Go(func() error {
			res, err := s.Solve(gCtx, p)
			if res == nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()
	slog.Info("Batch finished", "problems", len(problems), "failed", countFailed(results), "elapsed", time.Since(start))
	return results, err
}

func countFailed(results []*store.Result) int {
	n := 0
	for _, r := range results {
		if r != nil && !r.Succeeded() {
			n++
		}
	}
	return n
}
