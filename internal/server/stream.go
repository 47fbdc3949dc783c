package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// JobEvent is a job state change pushed to stream subscribers.
type JobEvent struct {
	Seq       int       `json:"seq"`
	JobID     string    `json:"jobId"`
	State     JobState  `json:"state"`
	ResultID  string    `json:"resultId,omitempty"`
	Optima    int       `json:"optima"`
	Roots     int       `json:"roots"`
	Points    int       `json:"points"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Final reports whether no further events follow for the job.
func (e JobEvent) Final() bool {
	return e.State != StatePending && e.State != StateRunning
}

func eventFor(job Job) JobEvent {
	event := JobEvent{
		JobID:     job.ID,
		State:     job.State,
		Error:     job.Error,
		Timestamp: time.Now(),
	}
	if job.Result != nil {
		event.ResultID = job.Result.ID
		event.Optima = len(job.Result.Optima)
		event.Roots = len(job.Result.Roots)
		event.Points = len(job.Result.Points)
	}
	return event
}

// jobFeed holds the subscribers of one job and the newest event it published.
type jobFeed struct {
	subscribers map[chan JobEvent]struct{}
	last        *JobEvent
	seq         int
}

// EventBroadcaster fans job events out to stream subscribers.
type EventBroadcaster struct {
	mu    sync.Mutex
	feeds map[string]*jobFeed
}

func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{feeds: make(map[string]*jobFeed)}
}

func (eb *EventBroadcaster) feed(jobID string) *jobFeed {
	f, ok := eb.feeds[jobID]
	if !ok {
		f = &jobFeed{subscribers: make(map[chan JobEvent]struct{})}
		eb.feeds[jobID] = f
	}
	return f
}

// Subscribe registers a subscriber for a job. The newest event, if any, is
// delivered first so subscribers that arrive after the job finished still
// see its outcome.
func (eb *EventBroadcaster) Subscribe(jobID string) chan JobEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan JobEvent, 8)
	f := eb.feed(jobID)
	f.subscribers[ch] = struct{}{}
	if f.last != nil {
		ch <- *f.last
	}

	slog.Debug("Stream subscriber added", "job_id", jobID, "subscribers", len(f.subscribers))
	return ch
}

// Unsubscribe removes and closes ch. It is safe to call after Forget.
func (eb *EventBroadcaster) Unsubscribe(jobID string, ch chan JobEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	f, ok := eb.feeds[jobID]
	if !ok {
		return
	}
	if _, subscribed := f.subscribers[ch]; subscribed {
		delete(f.subscribers, ch)
		close(ch)
	}
}

// Broadcast stamps the event with the next sequence number of its job and
// delivers it. Slow subscribers lose the event rather than block the worker.
func (eb *EventBroadcaster) Broadcast(event JobEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	f := eb.feed(event.JobID)
	f.seq++
	event.Seq = f.seq
	f.last = &event

	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			slog.Warn("Stream subscriber lagging, event dropped", "job_id", event.JobID, "seq", event.Seq)
		}
	}
}

// Forget closes every subscriber of a job and drops its newest event.
func (eb *EventBroadcaster) Forget(jobID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	f, ok := eb.feeds[jobID]
	if !ok {
		return
	}
	for ch := range f.subscribers {
		close(ch)
	}
	delete(eb.feeds, jobID)
}

// handleJobStream sends the job's events as server-sent events, one named
// after each state, until a final state is sent or the client goes away.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.jobManager.broadcaster.Subscribe(jobID)
	defer s.jobManager.broadcaster.Unsubscribe(jobID, events)

	// the job may have finished before anything was broadcast
	if job.Done() {
		if err := writeSSEEvent(w, eventFor(job)); err != nil {
			slog.Error("Failed to write stream event", "job_id", jobID, "error", err)
		}
		flusher.Flush()
		return
	}

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Stream client disconnected", "job_id", jobID)
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				slog.Error("Failed to write stream event", "job_id", jobID, "error", err)
				return
			}
			flusher.Flush()
			if event.Final() {
				return
			}

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event JobEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if event.Seq > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", event.Seq); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.State, data)
	return err
}
