package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/circleopt/internal/solve"
	"github.com/cwbudde/circleopt/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API around a solver
type Server struct {
	jobManager *JobManager
	solver     *solve.Solver
	addr       string
	server     *http.Server

	// jobs run under ctx so Shutdown can cancel the ones not yet started
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new HTTP server. Results are persisted when the solver
// has a store.
func NewServer(addr string, solver *solve.Solver) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobManager: NewJobManager(),
		solver:     solver,
		addr:       addr,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handler returns the routed and wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/results", s.handleListResults)
	mux.HandleFunc("/api/v1/results/", s.handleResultsWithID)
	mux.Handle("/metrics", promhttp.Handler())

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "running_jobs", len(s.jobManager.GetRunningJobs()))
	s.cancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id and /api/v1/jobs/:id/stream
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "job ID required")
		return
	}
	jobID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleDeleteJob(w, jobID)
	case len(parts) == 1:
		job, exists := s.jobManager.GetJob(jobID)
		if !exists {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, http.StatusOK, job)
	case len(parts) == 2 && parts[1] == "stream" && r.Method == http.MethodGet:
		s.handleJobStream(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleDeleteJob handles DELETE /api/v1/jobs/:id
func (s *Server) handleDeleteJob(w http.ResponseWriter, jobID string) {
	if _, exists := s.jobManager.GetJob(jobID); !exists {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err := s.jobManager.RemoveJob(jobID); err != nil {
		if errors.Is(err, ErrJobActive) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	slog.Info("Job removed", "job_id", jobID)
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var problem solve.Problem
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&problem); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if err := problem.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.jobManager.CreateJob(problem)

	go func() {
		if err := runJob(s.ctx, s.jobManager, s.solver, job.ID); err != nil {
			slog.Debug("Job ended with error", "job_id", job.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) resultStore() (*store.FSStore, bool) {
	if s.solver == nil || s.solver.Store == nil {
		return nil, false
	}
	return s.solver.Store, true
}

// handleListResults handles GET /api/v1/results
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st, ok := s.resultStore()
	if !ok {
		writeError(w, http.StatusNotFound, "no result store configured")
		return
	}

	infos, err := st.ListResults()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleResultsWithID handles /api/v1/results/:id, .../trace and .../samples
func (s *Server) handleResultsWithID(w http.ResponseWriter, r *http.Request) {
	st, ok := s.resultStore()
	if !ok {
		writeError(w, http.StatusNotFound, "no result store configured")
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/results/"), "/")
	id := parts[0]
	if id == "" {
		writeError(w, http.StatusBadRequest, "result ID required")
		return
	}

	var err error
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		var res *store.Result
		if res, err = st.LoadResult(id); err == nil {
			writeJSON(w, http.StatusOK, res)
		}
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err = st.DeleteResult(id); err == nil {
			w.WriteHeader(http.StatusNoContent)
		}
	case len(parts) == 2 && parts[1] == "trace" && r.Method == http.MethodGet:
		err = s.writeTrace(w, st.BaseDir(), id)
	case len(parts) == 2 && parts[1] == "samples" && r.Method == http.MethodGet:
		err = s.writeSamples(w, st.BaseDir(), id)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeTrace(w http.ResponseWriter, baseDir, id string) error {
	reader, err := store.NewTraceReader(baseDir, id)
	if err != nil {
		return err
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, entries)
	return nil
}

// writeSamples copies the stored JSONL sampling. Non-finite values are null there.
func (s *Server) writeSamples(w http.ResponseWriter, baseDir, id string) error {
	file, err := store.OpenSamples(baseDir, id)
	if err != nil {
		return err
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	if _, err := io.Copy(w, file); err != nil {
		slog.Warn("Failed to send samples", "result_id", id, "error", err)
	}
	return nil
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
