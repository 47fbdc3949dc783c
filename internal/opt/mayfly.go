package opt

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter runs the Mayfly swarm algorithm as a GlobalOptimizer.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates an adapter. popSize must be at least 20.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// NewMayflySeeder returns a MayflySeeder with settings sized for a single angle,
// falling back to fallback when the swarm finds nothing steep.
func NewMayflySeeder(seed int64, fallback Seeder) MayflySeeder {
	return MayflySeeder{Optimizer: NewMayfly(60, 20, seed), Fallback: fallback}
}

// Minimize runs one optimization. The library only supports one scalar range
// for all dimensions, so every dimension must share the same bounds.
func (m *MayflyAdapter) Minimize(cost func([]float64) float64, lower, upper []float64) ([]float64, float64, error) {
	if len(lower) == 0 || len(lower) != len(upper) {
		return nil, 0, errors.New("mayfly: bounds must be non-empty and of equal length")
	}
	for i := range lower {
		if lower[i] != lower[0] || upper[i] != upper[0] {
			return nil, 0, fmt.Errorf("mayfly: dimension %d has bounds [%g, %g], want [%g, %g]",
				i, lower[i], upper[i], lower[0], upper[0])
		}
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = cost
	config.ProblemSize = len(lower)
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly: %w", err)
	}
	return result.GlobalBest.Position, result.GlobalBest.Cost, nil
}
