package pagination

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/nourx/nourx/internal/domain"
)

// EncodeCursor wraps an order-column value in an opaque base64url token.
func EncodeCursor(value string) string {
	return base64.URLEncoding.EncodeToString([]byte(value))
}

// DecodeCursor unwraps a cursor token back to the order-column value.
// Malformed tokens are a validation error, not a server fault.
func DecodeCursor(cursor string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor format: %w", domain.ErrValidation)
	}
	return string(raw), nil
}

// EncodeTimeCursor encodes a timestamp order-column value. RFC3339Nano
// keeps sub-second ordering intact across the round trip.
func EncodeTimeCursor(t time.Time) string {
	return EncodeCursor(t.UTC().Format(time.RFC3339Nano))
}

// DecodeTimeCursor decodes a cursor produced by EncodeTimeCursor.
func DecodeTimeCursor(cursor string) (time.Time, error) {
	raw, err := DecodeCursor(cursor)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cursor format: %w", domain.ErrValidation)
	}
	return t, nil
}
