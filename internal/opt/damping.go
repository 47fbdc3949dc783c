package opt

import "math"

// bestDampedStep tries each damper on the step -factor*d*grad away from x and
// returns the candidate with the lowest factor*f. A factor of 1 descends, -1
// ascends. A positive maxStep caps the length of every candidate step.
func bestDampedStep(f Function, x, grad, factor float64, dampers []float64, maxStep float64) float64 {
	best, bestScore := x, 0.0
	for i, d := range dampers {
		step := -factor * d * grad
		if maxStep > 0 && math.Abs(step) > maxStep {
			step = math.Copysign(maxStep, step)
		}
		candidate := x + step
		score := factor * f.Value(candidate)
		if i == 0 || score < bestScore {
			best, bestScore = candidate, score
		}
	}
	return best
}

// derivativeAt evaluates f' and rejects values no search can use.
func derivativeAt(f Function, op string, t float64) (float64, error) {
	d := f.Derivative(t)
	if math.IsNaN(d) {
		return 0, failure(op, t, "derivative is undefined")
	}
	if math.IsInf(d, 0) {
		return 0, failure(op, t, "derivative is infinite")
	}
	return d, nil
}

func valueAt(f Function, op string, t float64) (float64, error) {
	v := f.Value(t)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, failure(op, t, "value is %v", v)
	}
	return v, nil
}
