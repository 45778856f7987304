package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/DouglasMacKrell/namegnome-serve/internal/jobs"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

// jobStream is the subset of jobs.Job the SSE handler needs.
type jobStream interface {
	Subscribe() (<-chan jobs.Event, func())
}

// handleJobs routes /jobs/{id}/status and /jobs/{id}/events.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/jobs/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		s.writeError(w, services.Wrap(services.ErrNotFound, "api", "jobs", r.URL.Path, nil))
		return
	}
	job, err := s.jobs.Get(parts[0])
	if err != nil {
		s.writeError(w, err)
		return
	}
	switch parts[1] {
	case "status":
		s.writeJSON(w, http.StatusOK, job.Status())
	case "result":
		result, done, jobErr := job.Result()
		if !done {
			s.writeJSON(w, http.StatusAccepted, job.Status())
			return
		}
		if jobErr != nil {
			s.writeError(w, jobErr)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	case "events":
		s.streamEvents(w, r, job)
	default:
		s.writeError(w, services.Wrap(services.ErrNotFound, "api", "jobs", r.URL.Path, nil))
	}
}

// streamEvents maps a job's event channel to Server-Sent Events. Events are
// hints; clients fetch the buffered result for the authoritative artifact.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, job jobStream) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, services.Wrap(services.ErrFatal, "api", "events", "streaming unsupported", nil))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := job.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
