package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/domain/user"
	"github.com/nourx/nourx/internal/pagination"
	"github.com/nourx/nourx/internal/port/database"
)

// newAuditEntry builds the audit row for one mutation. It is appended on
// the same transaction as the change.
func newAuditEntry(actor user.Actor, action, entityType, entityID, message string, metadata map[string]any) *audit.Entry {
	return &audit.Entry{
		ID:         uuid.NewString(),
		Action:     action,
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		EntityType: entityType,
		EntityID:   entityID,
		Message:    message,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
}

// AuditService exposes the audit trail, read-only and admin-only.
type AuditService struct {
	store database.Store
}

// NewAuditService creates a new AuditService.
func NewAuditService(store database.Store) *AuditService {
	return &AuditService{store: store}
}

// List returns a cursor page of the trail, newest first.
func (s *AuditService) List(ctx context.Context, actor user.Actor, q audit.Query) (*pagination.CursorPage[audit.Entry], error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("audit trail is admin-only: %w", domain.ErrForbidden)
	}
	return s.store.ListAuditEntries(ctx, q)
}
