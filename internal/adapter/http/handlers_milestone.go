package http

import (
	"net/http"

	"github.com/nourx/nourx/internal/domain/milestone"
)

func (h *Handlers) ListMilestones(w http.ResponseWriter, r *http.Request) {
	rows, err := h.milestones.List(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handlers) GetMilestone(w http.ResponseWriter, r *http.Request) {
	m, err := h.milestones.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CreateMilestone handles POST /projects/{id}/milestones; the project comes
// from the URL, not the body.
func (h *Handlers) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[milestone.CreateRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = urlParam(r, "id")
	m, err := h.milestones.Create(r.Context(), a, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handlers) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[milestone.UpdateRequest](w, r)
	if !ok {
		return
	}
	m, err := h.milestones.Update(r.Context(), a, urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) SetMilestoneStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[milestone.StatusRequest](w, r)
	if !ok {
		return
	}
	m, err := h.milestones.SetStatus(r.Context(), a, urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.milestones.Delete(r.Context(), a, urlParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": urlParam(r, "id")})
}
