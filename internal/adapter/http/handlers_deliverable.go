package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/nourx/nourx/internal/domain/deliverable"
)

func (h *Handlers) ListDeliverables(w http.ResponseWriter, r *http.Request) {
	page, limit, orderBy, desc, err := offsetParams(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	q := deliverable.ListQuery{
		ProjectID:   r.URL.Query().Get("projectId"),
		MilestoneID: r.URL.Query().Get("milestoneId"),
		Status:      deliverable.Status(r.URL.Query().Get("status")),
		UploadedBy:  r.URL.Query().Get("uploadedBy"),
		Search:      r.URL.Query().Get("search"),
		Page:        page,
		Limit:       limit,
		OrderBy:     orderBy,
		OrderDesc:   desc,
	}
	result, err := h.deliverables.List(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetDeliverable(w http.ResponseWriter, r *http.Request) {
	d, err := h.deliverables.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDeliverable handles the multipart upload on
// POST /projects/{id}/deliverables. Metadata travels as form fields, the
// file under the "file" part.
func (h *Handlers) CreateDeliverable(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, deliverable.MaxFileSize+maxRequestBodySize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "file part is required")
		return
	}
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "unreadable file part")
		return
	}

	req := deliverable.CreateRequest{
		ProjectID:   urlParam(r, "id"),
		MilestoneID: r.FormValue("milestoneId"),
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		Content:     data,
	}
	d, err := h.deliverables.Create(r.Context(), a, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handlers) DownloadDeliverable(w http.ResponseWriter, r *http.Request) {
	d, data, err := h.deliverables.Download(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", d.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.FileName))
	_, _ = w.Write(data)
}

func (h *Handlers) DeliverableHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.deliverables.History(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handlers) DeliverDeliverable(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	d, err := h.deliverables.Deliver(r.Context(), a, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) ApproveDeliverable(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[deliverable.ReviewRequest](w, r)
	if !ok {
		return
	}
	d, err := h.deliverables.Approve(r.Context(), a, urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) RequestDeliverableRevision(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[deliverable.ReviewRequest](w, r)
	if !ok {
		return
	}
	d, err := h.deliverables.RequestRevision(r.Context(), a, urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) DeleteDeliverable(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.deliverables.Delete(r.Context(), a, urlParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": urlParam(r, "id")})
}
