// Package http exposes the REST surface: envelope helpers, entity
// handlers, and route mounting.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nourx/nourx/internal/domain/user"
	"github.com/nourx/nourx/internal/middleware"
	"github.com/nourx/nourx/internal/port/database"
	"github.com/nourx/nourx/internal/port/messagequeue"
	"github.com/nourx/nourx/internal/service"
)

// Handlers bundles the HTTP handlers and their service dependencies.
type Handlers struct {
	orgs         *service.OrganizationService
	projects     *service.ProjectService
	milestones   *service.MilestoneService
	deliverables *service.DeliverableService
	audits       *service.AuditService

	store   database.Store
	queue   messagequeue.Queue
	started time.Time
}

// NewHandlers creates the handler set. queue may be nil when eventing is
// disabled; readiness then skips the queue check.
func NewHandlers(
	orgs *service.OrganizationService,
	projects *service.ProjectService,
	milestones *service.MilestoneService,
	deliverables *service.DeliverableService,
	audits *service.AuditService,
	store database.Store,
	queue messagequeue.Queue,
) *Handlers {
	return &Handlers{
		orgs:         orgs,
		projects:     projects,
		milestones:   milestones,
		deliverables: deliverables,
		audits:       audits,
		store:        store,
		queue:        queue,
		started:      time.Now().UTC(),
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready reports readiness: the database answers and, when configured, the
// message queue is connected. Probes read a flat body, no envelope.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if err := h.store.Ping(r.Context()); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.queue != nil {
		if h.queue.IsConnected() {
			checks["queue"] = "ok"
		} else {
			checks["queue"] = "disconnected"
			healthy = false
		}
	}

	status, state := http.StatusOK, "ok"
	if !healthy {
		status, state = http.StatusServiceUnavailable, "degraded"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": state, "checks": checks})
}

// actor pulls the authenticated actor set by the middleware, rejecting the
// request when absent.
func actor(w http.ResponseWriter, r *http.Request) (user.Actor, bool) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	}
	return a, ok
}
