// Package pagination provides the shared cursor and offset pagination
// utilities used by every list endpoint.
//
// Cursor pages filter on the order column with a strict inequality against
// the decoded cursor value and fetch limit+1 rows; the extra row signals a
// next page. HasPrev only reports "a cursor was supplied" since cursors are
// forward-only.
package pagination

import (
	"fmt"
	"strings"

	"github.com/nourx/nourx/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit constrains a requested page size to [1, MaxLimit], applying
// DefaultLimit when unset.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// ClampPage constrains a requested page number to >= 1.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ParseDirection interprets an orderDirection query value. Empty defaults
// to descending (newest first).
func ParseDirection(s string) (desc bool, err error) {
	switch strings.ToLower(s) {
	case "", "desc":
		return true, nil
	case "asc":
		return false, nil
	}
	return false, fmt.Errorf("orderDirection must be asc or desc: %w", domain.ErrValidation)
}

// Sorter validates user-supplied sort fields against an allow-list and
// resolves them to real column names, so user input never reaches SQL
// identifiers directly.
type Sorter struct {
	// Default is the API name used when orderBy is empty.
	Default string
	// Columns maps API field names to database columns.
	Columns map[string]string
}

// Resolve maps orderBy to a database column, failing fast on anything
// outside the allow-list.
func (s Sorter) Resolve(orderBy string) (string, error) {
	if orderBy == "" {
		orderBy = s.Default
	}
	col, ok := s.Columns[orderBy]
	if !ok {
		return "", fmt.Errorf("cannot sort by %q: %w", orderBy, domain.ErrValidation)
	}
	return col, nil
}

// CursorMeta describes a cursor page.
type CursorMeta struct {
	HasNext    bool   `json:"hasNext"`
	HasPrev    bool   `json:"hasPrev"`
	NextCursor string `json:"nextCursor,omitempty"`
	PrevCursor string `json:"prevCursor,omitempty"`
	Limit      int    `json:"limit"`
}

// CursorPage is a page of results under the cursor strategy.
type CursorPage[T any] struct {
	Data       []T        `json:"data"`
	Pagination CursorMeta `json:"pagination"`
}

// NewCursorPage builds a page from rows fetched with limit+1. key extracts
// the order-column value of a row for the next cursor; prevCursor echoes
// the cursor that produced this page.
func NewCursorPage[T any](rows []T, limit int, prevCursor string, key func(T) string) CursorPage[T] {
	meta := CursorMeta{
		HasPrev:    prevCursor != "",
		PrevCursor: prevCursor,
		Limit:      limit,
	}
	if len(rows) > limit {
		rows = rows[:limit]
		meta.HasNext = true
	}
	if meta.HasNext && len(rows) > 0 {
		meta.NextCursor = EncodeCursor(key(rows[len(rows)-1]))
	}
	if rows == nil {
		rows = []T{}
	}
	return CursorPage[T]{Data: rows, Pagination: meta}
}

// OffsetMeta describes an offset page.
type OffsetMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// OffsetPage is a page of results under the offset strategy.
type OffsetPage[T any] struct {
	Data       []T        `json:"data"`
	Pagination OffsetMeta `json:"pagination"`
}

// NewOffsetPage builds a page from rows selected with
// OFFSET (page-1)*limit LIMIT limit and the parallel total count.
func NewOffsetPage[T any](rows []T, page, limit, total int) OffsetPage[T] {
	totalPages := (total + limit - 1) / limit
	if rows == nil {
		rows = []T{}
	}
	return OffsetPage[T]{
		Data: rows,
		Pagination: OffsetMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}
