package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/circleopt/internal/solve"
)

// runJob solves the job's problem and records the outcome. The solver
// persists the result when it has a store.
func runJob(ctx context.Context, jm *JobManager, solver *solve.Solver, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}
	jobsRunning.Inc()
	defer jobsRunning.Dec()

	slog.Info("Starting job", "job_id", jobID, "kind", job.Problem.Kind, "function", job.Problem.Describe())
	jm.broadcaster.Broadcast(JobEvent{
		JobID:     jobID,
		State:     StateRunning,
		Timestamp: time.Now(),
	})

	res, solveErr := solver.Solve(ctx, job.Problem)
	if res == nil {
		markJobCancelled(jm, jobID)
		return solveErr
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.Result = res
		j.EndTime = &endTime
		if solveErr != nil {
			j.State = StateFailed
			j.Error = solveErr.Error()
		} else {
			j.State = StateCompleted
		}
	})
	if err != nil {
		return err
	}

	final, _ := jm.GetJob(jobID)
	observeResult(final)

	if solveErr != nil {
		slog.Warn("Job failed", "job_id", jobID, "result_id", res.ID, "error_kind", res.ErrorKind, "error", solveErr)
	} else {
		slog.Info("Job completed",
			"job_id", jobID,
			"result_id", res.ID,
			"elapsed", res.Elapsed,
			"optima", len(res.Optima),
			"roots", len(res.Roots),
			"points", len(res.Points),
		)
	}

	jm.broadcaster.Broadcast(eventFor(final))
	return solveErr
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	if job, ok := jm.GetJob(jobID); ok {
		observeResult(job)
		jm.broadcaster.Broadcast(eventFor(job))
	}
	slog.Info("Job cancelled", "job_id", jobID)
}
