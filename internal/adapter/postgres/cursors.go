package postgres

import (
	"github.com/nourx/nourx/internal/pagination"
)

// cursorArg decodes a cursor into the comparison value for the order
// column. Timestamp columns carry RFC3339Nano values, everything else a
// plain string.
func cursorArg(col, cursor string) (any, error) {
	switch col {
	case "created_at", "updated_at", "due_date":
		return pagination.DecodeTimeCursor(cursor)
	default:
		return pagination.DecodeCursor(cursor)
	}
}
