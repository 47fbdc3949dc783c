// Package funcs provides concrete differentiable functions for the optimizers.
package funcs

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TrigPoly is Σ Cos[k]·cos(kt) + Sin[k]·sin(kt). Sin[0] has no effect.
type TrigPoly struct {
	Cos []float64 `json:"cos,omitempty" yaml:"cos,omitempty"`
	Sin []float64 `json:"sin,omitempty" yaml:"sin,omitempty"`
}

func (p TrigPoly) Value(t float64) float64 {
	var v float64
	for k, c := range p.Cos {
		v += c * math.Cos(float64(k)*t)
	}
	for k, s := range p.Sin {
		v += s * math.Sin(float64(k)*t)
	}
	return v
}

func (p TrigPoly) Derivative(t float64) float64 {
	var d float64
	for k, c := range p.Cos {
		d -= float64(k) * c * math.Sin(float64(k)*t)
	}
	for k, s := range p.Sin {
		d += float64(k) * s * math.Cos(float64(k)*t)
	}
	return d
}

// Degree is the highest frequency with a non-zero coefficient.
func (p TrigPoly) Degree() int {
	degree := 0
	for k := 1; k < len(p.Cos); k++ {
		if p.Cos[k] != 0 {
			degree = max(degree, k)
		}
	}
	for k := 1; k < len(p.Sin); k++ {
		if p.Sin[k] != 0 {
			degree = max(degree, k)
		}
	}
	return degree
}

// MaxOptima is 2·Degree: the derivative is a trigonometric polynomial of the
// same degree and has at most that many zeros per period.
func (p TrigPoly) MaxOptima() int {
	return 2 * p.Degree()
}

func (p TrigPoly) String() string {
	var terms []string
	for k, c := range p.Cos {
		if c != 0 {
			terms = append(terms, trigTerm(c, "cos", k))
		}
	}
	for k, s := range p.Sin {
		if s != 0 && k > 0 {
			terms = append(terms, trigTerm(s, "sin", k))
		}
	}
	if len(terms) == 0 {
		return "0"
	}
	return strings.Join(terms, " + ")
}

func trigTerm(c float64, fn string, k int) string {
	switch k {
	case 0:
		return strconv.FormatFloat(c, 'g', -1, 64)
	case 1:
		return fmt.Sprintf("%g·%s(t)", c, fn)
	default:
		return fmt.Sprintf("%g·%s(%dt)", c, fn, k)
	}
}

// Poly is the real polynomial Σ Coeffs[k]·x^k.
type Poly struct {
	Coeffs []float64 `json:"coeffs" yaml:"coeffs"`
}

func (p Poly) Value(x float64) float64 {
	var v float64
	for k := len(p.Coeffs) - 1; k >= 0; k-- {
		v = v*x + p.Coeffs[k]
	}
	return v
}

func (p Poly) Derivative(x float64) float64 {
	var d float64
	for k := len(p.Coeffs) - 1; k >= 1; k-- {
		d = d*x + float64(k)*p.Coeffs[k]
	}
	return d
}

// MaxOptima is the number of real zeros the derivative can have.
func (p Poly) MaxOptima() int {
	return max(len(p.Coeffs)-2, 0)
}

func (p Poly) String() string {
	var terms []string
	for k, c := range p.Coeffs {
		if c == 0 {
			continue
		}
		switch k {
		case 0:
			terms = append(terms, strconv.FormatFloat(c, 'g', -1, 64))
		case 1:
			terms = append(terms, fmt.Sprintf("%g·x", c))
		default:
			terms = append(terms, fmt.Sprintf("%g·x^%d", c, k))
		}
	}
	if len(terms) == 0 {
		return "0"
	}
	return strings.Join(terms, " + ")
}

// ParseCoefficients reads a comma separated list such as "1, 0, -2.5".
// An empty string yields no coefficients.
func ParseCoefficients(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	coeffs := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("coefficient %d: %w", i, err)
		}
		coeffs[i] = v
	}
	return coeffs, nil
}
