// Package solve turns problem descriptions into functions, runs the matching
// optimizer and records the outcome.
package solve

import (
	"fmt"
	"os"

	"github.com/cwbudde/circleopt/internal/funcs"
	"github.com/cwbudde/circleopt/internal/opt"
	"github.com/cwbudde/circleopt/internal/sphere"
	"github.com/cwbudde/circleopt/internal/store"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Seeder names.
const (
	SeederOffset = "offset"
	SeederMayfly = "mayfly"
)

// Problem describes one solve. Which fields matter depends on Kind:
//
//	circle     Cos, Sin (trigonometric polynomial), Seeder, Seed, Precondition
//	gradient   Poly, Guess, or Lower/Upper for a bracketed search
//	secant     Poly, Guess, Guess2
//	intersect  A, B as nx,ny,nz,d (plane n·x = d cutting the unit sphere)
type Problem struct {
	Name string `json:"name,omitempty" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`

	Cos          []float64 `json:"cos,omitempty" yaml:"cos"`
	Sin          []float64 `json:"sin,omitempty" yaml:"sin"`
	Seeder       string    `json:"seeder,omitempty" yaml:"seeder"`
	Seed         int64     `json:"seed,omitempty" yaml:"seed"`
	Precondition bool      `json:"precondition,omitempty" yaml:"precondition"`

	Poly   []float64 `json:"poly,omitempty" yaml:"poly"`
	Guess  float64   `json:"guess,omitempty" yaml:"guess"`
	Guess2 *float64  `json:"guess2,omitempty" yaml:"guess2"`
	Lower  *float64  `json:"lower,omitempty" yaml:"lower"`
	Upper  *float64  `json:"upper,omitempty" yaml:"upper"`

	A []float64 `json:"a,omitempty" yaml:"a"`
	B []float64 `json:"b,omitempty" yaml:"b"`

	// Trace streams optimizer diagnostics to the result's trace.jsonl.
	Trace bool `json:"trace,omitempty" yaml:"trace"`
}

// InvalidProblemError reports a problem that cannot be solved as described.
type InvalidProblemError struct {
	Field  string
	Reason string
}

func (e *InvalidProblemError) Error() string {
	return fmt.Sprintf("invalid problem: %s %s", e.Field, e.Reason)
}

// Validate checks that the fields required by Kind are present.
func (p Problem) Validate() error {
	switch p.Kind {
	case store.KindCircle:
		if len(p.Cos) == 0 && len(p.Sin) == 0 {
			return &InvalidProblemError{Field: "cos/sin", Reason: "needs at least one coefficient"}
		}
		if (funcs.TrigPoly{Cos: p.Cos, Sin: p.Sin}).Degree() == 0 {
			return &InvalidProblemError{Field: "cos/sin", Reason: "constant function has no isolated optima"}
		}
		switch p.Seeder {
		case "", SeederOffset, SeederMayfly:
		default:
			return &InvalidProblemError{Field: "seeder", Reason: "must be offset or mayfly"}
		}
	case store.KindGradient, store.KindSecant:
		if len(p.Poly) < 2 {
			return &InvalidProblemError{Field: "poly", Reason: "needs at least two coefficients"}
		}
		if p.Kind == store.KindSecant && p.Guess2 == nil {
			return &InvalidProblemError{Field: "guess2", Reason: "is required for the secant method"}
		}
		if (p.Lower == nil) != (p.Upper == nil) {
			return &InvalidProblemError{Field: "lower/upper", Reason: "must be given together"}
		}
		if p.Lower != nil && p.Kind == store.KindSecant {
			return &InvalidProblemError{Field: "lower/upper", Reason: "only apply to the gradient method"}
		}
	case store.KindIntersect:
		if len(p.A) != 4 || len(p.B) != 4 {
			return &InvalidProblemError{Field: "a/b", Reason: "must be nx,ny,nz,d"}
		}
	case "":
		return &InvalidProblemError{Field: "kind", Reason: "is required"}
	default:
		return &InvalidProblemError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", p.Kind)}
	}
	return nil
}

// Function builds the function to optimize. Intersection problems have no
// single function and return an error.
func (p Problem) Function() (opt.Function, error) {
	switch p.Kind {
	case store.KindCircle:
		var f opt.Function = funcs.TrigPoly{Cos: p.Cos, Sin: p.Sin}
		if p.Precondition {
			f = opt.Precondition(f)
		}
		return f, nil
	case store.KindGradient, store.KindSecant:
		return funcs.Poly{Coeffs: p.Poly}, nil
	}
	return nil, fmt.Errorf("problem kind %q has no single function", p.Kind)
}

// Describe renders the problem's function for humans.
func (p Problem) Describe() string {
	switch p.Kind {
	case store.KindCircle:
		return funcs.TrigPoly{Cos: p.Cos, Sin: p.Sin}.String()
	case store.KindGradient, store.KindSecant:
		return funcs.Poly{Coeffs: p.Poly}.String()
	case store.KindIntersect:
		return fmt.Sprintf("circle %v ∩ circle %v", p.A, p.B)
	}
	return ""
}

// Circles returns the two sphere circles of an intersection problem.
func (p Problem) Circles() (sphere.Circle, sphere.Circle, error) {
	if len(p.A) != 4 || len(p.B) != 4 {
		return sphere.Circle{}, sphere.Circle{}, &InvalidProblemError{Field: "a/b", Reason: "must be nx,ny,nz,d"}
	}
	a, err := sphere.NewCircle(r3.Vec{X: p.A[0], Y: p.A[1], Z: p.A[2]}, p.A[3])
	if err != nil {
		return sphere.Circle{}, sphere.Circle{}, &InvalidProblemError{Field: "a", Reason: err.Error()}
	}
	b, err := sphere.NewCircle(r3.Vec{X: p.B[0], Y: p.B[1], Z: p.B[2]}, p.B[3])
	if err != nil {
		return sphere.Circle{}, sphere.Circle{}, &InvalidProblemError{Field: "b", Reason: err.Error()}
	}
	return a, b, nil
}

// BatchFile is the YAML layout read by LoadProblems.
type BatchFile struct {
	Problems []Problem `yaml:"problems"`
}

// LoadProblems reads a YAML batch file.
func LoadProblems(path string) ([]Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return ParseProblems(data)
}

// ParseProblems decodes a YAML batch document.
func ParseProblems(data []byte) ([]Problem, error) {
	var file BatchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(file.Problems) == 0 {
		return nil, fmt.Errorf("batch file lists no problems")
	}
	return file.Problems, nil
}
