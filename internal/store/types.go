package store

import (
	"encoding/json"
	"time"
)

// Result kinds.
const (
	KindCircle    = "circle"    // all optima and roots of a periodic function
	KindGradient  = "gradient"  // one critical point by damped gradient descent
	KindSecant    = "secant"    // one critical point by secant iteration
	KindIntersect = "intersect" // intersection points of two circles on the sphere
)

// Error kinds recorded for failed solves.
const (
	ErrorKindFailure       = "optimizer_failure"
	ErrorKindTooManyOptima = "too_many_optima"
	ErrorKindInvalid       = "invalid_problem"
)

// Result is a persisted solve outcome. The problem is stored as raw JSON so
// this package does not depend on the solver's problem types.
type Result struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind"`

	// Function is a human readable rendering of the solved function.
	Function string          `json:"function,omitempty"`
	Problem  json.RawMessage `json:"problem,omitempty"`

	Optima []float64    `json:"optima,omitempty"`
	Roots  []float64    `json:"roots,omitempty"`
	Points [][3]float64 `json:"points,omitempty"`

	// Error is set when the solve failed; Optima then holds any partial list.
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`

	Elapsed   time.Duration `json:"elapsed"`
	Timestamp time.Time     `json:"timestamp"`
}

// ResultInfo is the listing view of a Result.
type ResultInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Kind      string    `json:"kind"`
	Optima    int       `json:"optima"`
	Roots     int       `json:"roots"`
	Failed    bool      `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// Succeeded reports whether the solve finished without error.
func (r *Result) Succeeded() bool {
	return r.Error == ""
}

// ToInfo converts a full Result to ResultInfo (metadata only).
func (r *Result) ToInfo() ResultInfo {
	return ResultInfo{
		ID:        r.ID,
		Name:      r.Name,
		Kind:      r.Kind,
		Optima:    len(r.Optima),
		Roots:     len(r.Roots),
		Failed:    !r.Succeeded(),
		Timestamp: r.Timestamp,
	}
}

// Validate checks that the result can be stored.
func (r *Result) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	switch r.Kind {
	case KindCircle, KindGradient, KindSecant, KindIntersect:
	default:
		return &ValidationError{Field: "Kind", Reason: "unknown kind " + r.Kind}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if r.Elapsed < 0 {
		return &ValidationError{Field: "Elapsed", Reason: "cannot be negative"}
	}
	if r.Error == "" && r.ErrorKind != "" {
		return &ValidationError{Field: "ErrorKind", Reason: "set without an error"}
	}
	if (r.Kind == KindGradient || r.Kind == KindSecant) && r.Succeeded() && len(r.Optima) != 1 {
		return &ValidationError{Field: "Optima", Reason: "interval solves yield exactly one point"}
	}
	return nil
}

// ValidationError represents a result validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
