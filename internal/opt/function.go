package opt

import (
	"math"
	"sync"
)

// Function is a differentiable scalar function.
//
// MaxOptima is an upper bound on the number of distinct critical points over
// one period. Interval optimizers ignore it.
type Function interface {
	Value(t float64) float64
	Derivative(t float64) float64
	MaxOptima() int
}

// Func adapts a pair of closures to Function.
type Func struct {
	F   func(float64) float64
	DF  func(float64) float64
	Max int
}

func (f Func) Value(t float64) float64      { return f.F(t) }
func (f Func) Derivative(t float64) float64 { return f.DF(t) }
func (f Func) MaxOptima() int               { return f.Max }

// MultiPart is a family of functions indexed by part, sharing one optima bound.
type MultiPart interface {
	Parts() int
	ValueOf(t float64, part int) float64
	DerivativeOf(t float64, part int) float64
	MaxOptima() int
}

// Part returns a view of one member of the family.
func Part(m MultiPart, i int) Function {
	return partView{m: m, i: i}
}

type partView struct {
	m MultiPart
	i int
}

func (p partView) Value(t float64) float64      { return p.m.ValueOf(t, p.i) }
func (p partView) Derivative(t float64) float64 { return p.m.DerivativeOf(t, p.i) }
func (p partView) MaxOptima() int               { return p.m.MaxOptima() }

const preconditionSamples = 128

// Preconditioned compresses the dynamic range of a function with
// sign(x)·ln(|x|+1) and rescales it so the relaxed derivative spans roughly
// unit height. Roots and critical points are unchanged.
type Preconditioned struct {
	inner Function

	once  sync.Once
	scale float64
}

// Precondition wraps f.
func Precondition(f Function) *Preconditioned {
	return &Preconditioned{inner: f}
}

func (p *Preconditioned) getScale() float64 {
	p.once.Do(func() {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < preconditionSamples; i++ {
			d := p.relaxedDerivative(float64(i))
			if math.IsNaN(d) || math.IsInf(d, 0) {
				continue
			}
			lo = math.Min(lo, d)
			hi = math.Max(hi, d)
		}
		p.scale = 1
		if hi > lo {
			p.scale = 1 / (hi - lo)
		}
	})
	return p.scale
}

func (p *Preconditioned) relaxedDerivative(t float64) float64 {
	v := p.inner.Value(t)
	return p.inner.Derivative(t) / (math.Abs(v) + 1)
}

func (p *Preconditioned) Value(t float64) float64 {
	v := p.inner.Value(t)
	relaxed := math.Log(math.Abs(v) + 1)
	if v < 0 {
		relaxed = -relaxed
	}
	return p.getScale() * relaxed
}

// Derivative is d/dt of sign(f)·ln(|f|+1), which is f'/(|f|+1).
func (p *Preconditioned) Derivative(t float64) float64 {
	return p.getScale() * p.relaxedDerivative(t)
}

func (p *Preconditioned) MaxOptima() int { return p.inner.MaxOptima() }

// SamplePoint is one evaluation of a function.
type SamplePoint struct {
	T          float64 `json:"t"`
	Value      float64 `json:"value"`
	Derivative float64 `json:"derivative"`
	// Estimate is the forward difference to the next sample.
	Estimate float64 `json:"estimate"`
}

// Sample evaluates f at n evenly spaced angles over [-π, π].
func Sample(f Function, n int) []SamplePoint {
	if n < 2 {
		n = 2
	}
	step := 2 * math.Pi / float64(n-1)
	points := make([]SamplePoint, n)
	for i := range points {
		t := -math.Pi + float64(i)*step
		points[i] = SamplePoint{T: t, Value: f.Value(t), Derivative: f.Derivative(t)}
	}
	for i := 0; i < n-1; i++ {
		points[i].Estimate = (points[i+1].Value - points[i].Value) / step
	}
	points[n-1].Estimate = points[n-2].Estimate
	return points
}
