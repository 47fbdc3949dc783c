package opt

import "sync"

// Tracer receives progress reports for visual debugging. Implementations must
// not influence the search; a nil Tracer on any optimizer means no tracing.
type Tracer interface {
	Point(label string, t, value float64)
	Path(label string, ts, values []float64)
	Bound(label string, source, target float64)
}

// NopTracer discards everything.
type NopTracer struct{}

func (NopTracer) Point(string, float64, float64)    {}
func (NopTracer) Path(string, []float64, []float64) {}
func (NopTracer) Bound(string, float64, float64)    {}

func tracerOrNop(t Tracer) Tracer {
	if t == nil {
		return NopTracer{}
	}
	return t
}

// TraceEvent is one recorded report.
type TraceEvent struct {
	Kind   string    `json:"kind"` // point, path or bound
	Label  string    `json:"label"`
	T      []float64 `json:"t"`
	Values []float64 `json:"values,omitempty"`
}

// Recorder keeps trace events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []TraceEvent
}

func (r *Recorder) add(e TraceEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Point(label string, t, value float64) {
	r.add(TraceEvent{Kind: "point", Label: label, T: []float64{t}, Values: []float64{value}})
}

func (r *Recorder) Path(label string, ts, values []float64) {
	r.add(TraceEvent{
		Kind:   "path",
		Label:  label,
		T:      append([]float64(nil), ts...),
		Values: append([]float64(nil), values...),
	})
}

func (r *Recorder) Bound(label string, source, target float64) {
	r.add(TraceEvent{Kind: "bound", Label: label, T: []float64{source, target}})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TraceEvent(nil), r.events...)
}

// Count returns how many events carry the given label.
func (r *Recorder) Count(label string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Label == label {
			n++
		}
	}
	return n
}
