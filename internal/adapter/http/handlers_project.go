package http

import (
	"net/http"

	"github.com/nourx/nourx/internal/domain/project"
)

func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	cursor, limit, orderBy, desc, err := cursorParams(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	q := project.ListQuery{
		OrgID:     r.URL.Query().Get("orgId"),
		Status:    project.Status(r.URL.Query().Get("status")),
		Search:    r.URL.Query().Get("search"),
		Cursor:    cursor,
		Limit:     limit,
		OrderBy:   orderBy,
		OrderDesc: desc,
	}
	page, err := h.projects.List(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[project.CreateRequest](w, r)
	if !ok {
		return
	}
	p, err := h.projects.Create(r.Context(), a, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[project.UpdateRequest](w, r)
	if !ok {
		return
	}
	p, err := h.projects.Update(r.Context(), a, urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.projects.Delete(r.Context(), a, urlParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": urlParam(r, "id")})
}
