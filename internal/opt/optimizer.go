package opt

// Solver finds critical points of a function. Interval solvers return a
// single point near their configured guess; the circular solver returns every
// optimum on the circle.
type Solver interface {
	Solve(f Function) ([]float64, error)
}

// GlobalOptimizer minimizes a cost over a box without derivatives.
type GlobalOptimizer interface {
	// Minimize returns the best position found and its cost. lower and upper
	// give the box per dimension; their length is the dimension.
	Minimize(cost func([]float64) float64, lower, upper []float64) ([]float64, float64, error)
}

var (
	_ Solver = (*GradientOptimizer)(nil)
	_ Solver = (*SecantOptimizer)(nil)
	_ Solver = (*CircleOptimizer)(nil)

	_ GlobalOptimizer = (*MayflyAdapter)(nil)
)
