// Package api provides the service's HTTP surface: a liveness/readiness
// probe, a read-only view of the scheduled jobs, and a minimal admin API for
// the event lifecycle operations. The member-facing interaction happens over
// email, not HTTP, so there are no member endpoints here.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"eventd/internal/scheduler"
)

// Pinger is the part of *sql.DB the health check needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// JobLister exposes the scheduler's job snapshot.
type JobLister interface {
	Jobs() []scheduler.JobStatus
}

// OpsHandler serves the operational endpoints.
type OpsHandler struct {
	db     Pinger
	jobs   JobLister
	logger *slog.Logger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(db Pinger, jobs JobLister, log *slog.Logger) *OpsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &OpsHandler{
		db:     db,
		jobs:   jobs,
		logger: log.With(slog.String("component", "ops_api")),
	}
}

func (h *OpsHandler) registerRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/jobs", h.handleJobs)
}

// handleHealth reports readiness. The database is part of the check: a
// process that cannot reach its store cannot serve reminders either.
func (h *OpsHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn("health check database ping failed",
				slog.String("error", err.Error()))
			status = "database unreachable"
			code = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, h.logger, code, map[string]string{"status": status})
}

// handleJobs returns the scheduler's job snapshot.
func (h *OpsHandler) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobStatus{}
	if h.jobs != nil {
		jobs = h.jobs.Jobs()
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]any{"jobs": jobs})
}
