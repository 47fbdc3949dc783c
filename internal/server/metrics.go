package server

import (
	"github.com/cwbudde/circleopt/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// jobsTotal counts finished jobs by problem kind and outcome
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circleopt_jobs_total",
		Help: "Total finished solve jobs by kind and outcome",
	}, []string{"kind", "outcome"})

	// solveDuration tracks how long each solve took
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circleopt_solve_duration_seconds",
		Help:    "Solve duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
	}, []string{"kind"})

	// optimaFound tracks the number of optima per successful circular solve
	optimaFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "circleopt_optima_found",
		Help:    "Number of optima found per circular solve",
		Buckets: []float64{2, 4, 8, 16, 32, 64},
	})

	jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "circleopt_jobs_running",
		Help: "Number of solve jobs currently running",
	})
)

// observeResult records a finished job. outcome is the final job state, or
// the error kind for failed solves.
func observeResult(job Job) {
	outcome := string(job.State)
	if job.Result != nil {
		solveDuration.WithLabelValues(job.Problem.Kind).Observe(job.Result.Elapsed.Seconds())
		if job.Result.ErrorKind != "" {
			outcome = job.Result.ErrorKind
		} else if job.Result.Kind == store.KindCircle {
			optimaFound.Observe(float64(len(job.Result.Optima)))
		}
	}
	jobsTotal.WithLabelValues(job.Problem.Kind, outcome).Inc()
}
