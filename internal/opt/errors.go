package opt

import (
	"errors"
	"fmt"
)

// ErrOptimizerFailure marks any numerical breakdown: an undefined or infinite
// derivative, an exhausted iteration budget with no usable bracket, or a
// bracket whose endpoints agree in sign.
var ErrOptimizerFailure = errors.New("optimizer failure")

// ErrTooManyOptima marks a circular search that found more distinct optima
// than the function declares.
var ErrTooManyOptima = errors.New("too many optima")

// FailureError describes where and why an optimizer gave up.
type FailureError struct {
	Op     string
	Theta  float64
	Reason string
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s at t=%g", e.Op, e.Reason, e.Theta)
}

// Is allows errors.Is(err, ErrOptimizerFailure)
func (e *FailureError) Is(target error) bool {
	return target == ErrOptimizerFailure
}

func failure(op string, theta float64, format string, args ...any) error {
	return &FailureError{Op: op, Theta: theta, Reason: fmt.Sprintf(format, args...)}
}

// TooManyOptimaError carries the optima found before the limit was hit.
type TooManyOptimaError struct {
	Max    int
	Optima []float64
}

func (e *TooManyOptimaError) Error() string {
	return fmt.Sprintf("found more than %d optima (partial: %v)", e.Max, e.Optima)
}

// Is matches both ErrTooManyOptima and ErrOptimizerFailure; exceeding the
// declared count is a kind of failure.
func (e *TooManyOptimaError) Is(target error) bool {
	return target == ErrTooManyOptima || target == ErrOptimizerFailure
}
