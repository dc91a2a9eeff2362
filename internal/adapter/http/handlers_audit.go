package http

import (
	"net/http"
	"strconv"

	"github.com/nourx/nourx/internal/domain/audit"
)

func (h *Handlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	q := audit.Query{
		Action:     r.URL.Query().Get("action"),
		ActorID:    r.URL.Query().Get("actorId"),
		EntityType: r.URL.Query().Get("entityType"),
		EntityID:   r.URL.Query().Get("entityId"),
		Cursor:     r.URL.Query().Get("cursor"),
	}
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	page, err := h.audits.List(r.Context(), a, q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
