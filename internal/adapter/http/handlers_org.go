package http

import (
	"net/http"

	"github.com/nourx/nourx/internal/domain/org"
)

func (h *Handlers) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	cursor, limit, orderBy, desc, err := cursorParams(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	q := org.ListQuery{
		Search:         r.URL.Query().Get("search"),
		IncludeDeleted: r.URL.Query().Get("includeDeleted") == "true",
		Cursor:         cursor,
		Limit:          limit,
		OrderBy:        orderBy,
		OrderDesc:      desc,
	}
	page, err := h.orgs.List(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetOrganization(w http.ResponseWriter, r *http.Request) {
	o, err := h.orgs.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handlers) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[org.CreateRequest](w, r)
	if !ok {
		return
	}
	o, err := h.orgs.Create(r.Context(), a, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handlers) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[org.UpdateRequest](w, r)
	if !ok {
		return
	}
	o, err := h.orgs.Update(r.Context(), a, urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handlers) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.orgs.Delete(r.Context(), a, urlParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": urlParam(r, "id")})
}

func (h *Handlers) RestoreOrganization(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	o, err := h.orgs.Restore(r.Context(), a, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
