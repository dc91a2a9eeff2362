package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/domain/org"
	"github.com/nourx/nourx/internal/domain/user"
	"github.com/nourx/nourx/internal/pagination"
	"github.com/nourx/nourx/internal/port/database"
	"github.com/nourx/nourx/internal/port/messagequeue"
)

// OrganizationService handles organization business logic.
type OrganizationService struct {
	store  database.Store
	events *Events
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(store database.Store, events *Events) *OrganizationService {
	return &OrganizationService{store: store, events: events}
}

// List returns a cursor page of organizations.
func (s *OrganizationService) List(ctx context.Context, q org.ListQuery) (*pagination.CursorPage[org.Organization], error) {
	return s.store.ListOrganizations(ctx, q)
}

// Get returns an organization by ID.
func (s *OrganizationService) Get(ctx context.Context, id string) (*org.Organization, error) {
	return s.store.GetOrganization(ctx, id)
}

// Create creates a new organization. The tax identifier must be unique
// among non-deleted organizations.
func (s *OrganizationService) Create(ctx context.Context, actor user.Actor, req org.CreateRequest) (*org.Organization, error) {
	if err := org.ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &org.Organization{
		ID:           uuid.NewString(),
		Name:         req.Name,
		TaxID:        req.TaxID,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		inUse, err := tx.TaxIDInUse(ctx, req.TaxID, "")
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("tax identifier %q already in use: %w", req.TaxID, domain.ErrConflict)
		}
		if err := tx.CreateOrganization(ctx, o); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionOrgCreated, "organization", o.ID,
			"organization created", map[string]any{"name": o.Name}))
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, messagequeue.SubjectOrgCreated, messagequeue.EntityEventPayload{
		EntityType: "organization", EntityID: o.ID, Action: audit.ActionOrgCreated,
		ActorID: actor.ID, OrgID: o.ID,
	})
	return o, nil
}

// Update applies partial updates to an organization.
func (s *OrganizationService) Update(ctx context.Context, actor user.Actor, id string, req org.UpdateRequest) (*org.Organization, error) {
	if err := org.ValidateUpdateRequest(req); err != nil {
		return nil, err
	}

	var o *org.Organization
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetOrganization(ctx, id)
		if err != nil {
			return err
		}
		if cur.Deleted() {
			return fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
		}

		if req.TaxID != nil && *req.TaxID != cur.TaxID {
			inUse, err := tx.TaxIDInUse(ctx, *req.TaxID, id)
			if err != nil {
				return err
			}
			if inUse {
				return fmt.Errorf("tax identifier %q already in use: %w", *req.TaxID, domain.ErrConflict)
			}
		}

		changed := map[string]any{}
		if apply(&cur.Name, req.Name) {
			changed["name"] = cur.Name
		}
		if apply(&cur.TaxID, req.TaxID) {
			changed["taxId"] = cur.TaxID
		}
		if apply(&cur.Address, req.Address) {
			changed["address"] = cur.Address
		}
		if apply(&cur.ContactEmail, req.ContactEmail) {
			changed["contactEmail"] = cur.ContactEmail
		}
		if apply(&cur.ContactPhone, req.ContactPhone) {
			changed["contactPhone"] = cur.ContactPhone
		}
		if len(changed) == 0 {
			o = cur
			return nil
		}

		cur.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateOrganization(ctx, cur); err != nil {
			return err
		}
		o = cur
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionOrgUpdated, "organization", id,
			"organization updated", changed))
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, messagequeue.SubjectOrgUpdated, messagequeue.EntityEventPayload{
		EntityType: "organization", EntityID: id, Action: audit.ActionOrgUpdated,
		ActorID: actor.ID, OrgID: id,
	})
	return o, nil
}

// Delete soft-deletes an organization. It is blocked while active client
// accounts still reference it.
func (s *OrganizationService) Delete(ctx context.Context, actor user.Actor, id string) error {
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetOrganization(ctx, id)
		if err != nil {
			return err
		}
		if cur.Deleted() {
			return fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
		}

		active, err := tx.CountActiveUsers(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("organization has %d active accounts: %w", active, domain.ErrConflict)
		}

		if err := tx.SoftDeleteOrganization(ctx, id); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionOrgDeleted, "organization", id,
			"organization deleted", map[string]any{"name": cur.Name}))
	})
	if err != nil {
		return err
	}

	s.events.emit(ctx, messagequeue.SubjectOrgDeleted, messagequeue.EntityEventPayload{
		EntityType: "organization", EntityID: id, Action: audit.ActionOrgDeleted,
		ActorID: actor.ID, OrgID: id,
	})
	return nil
}

// Restore reverses a soft delete, provided the tax identifier is still
// unique among live organizations.
func (s *OrganizationService) Restore(ctx context.Context, actor user.Actor, id string) (*org.Organization, error) {
	var o *org.Organization
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetOrganization(ctx, id)
		if err != nil {
			return err
		}
		if !cur.Deleted() {
			return fmt.Errorf("organization %s is not deleted: %w", id, domain.ErrValidation)
		}

		inUse, err := tx.TaxIDInUse(ctx, cur.TaxID, id)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("tax identifier %q already in use: %w", cur.TaxID, domain.ErrConflict)
		}

		if err := tx.RestoreOrganization(ctx, id); err != nil {
			return err
		}
		cur.DeletedAt = nil
		cur.UpdatedAt = time.Now().UTC()
		o = cur
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionOrgRestored, "organization", id,
			"organization restored", map[string]any{"name": cur.Name}))
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, messagequeue.SubjectOrgRestored, messagequeue.EntityEventPayload{
		EntityType: "organization", EntityID: id, Action: audit.ActionOrgRestored,
		ActorID: actor.ID, OrgID: id,
	})
	return o, nil
}
