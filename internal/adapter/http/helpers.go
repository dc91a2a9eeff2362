package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/pagination"
)

const maxRequestBodySize = 1 << 20 // 1 MB, uploads go through multipart

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: &apiError{Code: code, Message: message}}); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeDomainError maps service errors onto status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// readJSON decodes a JSON request body with a size limit. An empty body
// decodes to the zero value so action routes can omit their optional body.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "validation_error", "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// cursorParams reads the query parameters shared by cursor-paginated lists.
func cursorParams(r *http.Request) (cursor string, limit int, orderBy string, desc bool, err error) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	desc, err = pagination.ParseDirection(q.Get("orderDirection"))
	return q.Get("cursor"), limit, q.Get("orderBy"), desc, err
}

// offsetParams reads the query parameters shared by offset-paginated lists.
func offsetParams(r *http.Request) (page, limit int, orderBy string, desc bool, err error) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	desc, err = pagination.ParseDirection(q.Get("orderDirection"))
	return page, limit, q.Get("orderBy"), desc, err
}
