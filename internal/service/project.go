package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/domain/project"
	"github.com/nourx/nourx/internal/domain/user"
	"github.com/nourx/nourx/internal/pagination"
	"github.com/nourx/nourx/internal/port/database"
	"github.com/nourx/nourx/internal/port/messagequeue"
)

// ProjectService handles project business logic.
type ProjectService struct {
	store  database.Store
	events *Events
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store database.Store, events *Events) *ProjectService {
	return &ProjectService{store: store, events: events}
}

// List returns a cursor page of projects.
func (s *ProjectService) List(ctx context.Context, q project.ListQuery) (*pagination.CursorPage[project.Project], error) {
	return s.store.ListProjects(ctx, q)
}

// Get returns a project by ID.
func (s *ProjectService) Get(ctx context.Context, id string) (*project.Project, error) {
	return s.store.GetProject(ctx, id)
}

// Create creates a new project under an organization. The name must be
// unique within the organization.
func (s *ProjectService) Create(ctx context.Context, actor user.Actor, req project.CreateRequest) (*project.Project, error) {
	if err := project.ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = project.StatusDraft
	}
	visible := true
	if req.ClientVisible != nil {
		visible = *req.ClientVisible
	}

	now := time.Now().UTC()
	p := &project.Project{
		ID:            uuid.NewString(),
		OrgID:         req.OrgID,
		Name:          req.Name,
		Description:   req.Description,
		Status:        status,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		ClientVisible: visible,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		o, err := tx.GetOrganization(ctx, req.OrgID)
		if err != nil {
			return err
		}
		if o.Deleted() {
			return fmt.Errorf("organization %s is deleted: %w", req.OrgID, domain.ErrValidation)
		}

		inUse, err := tx.ProjectNameInUse(ctx, req.OrgID, req.Name, "")
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("project name %q already in use: %w", req.Name, domain.ErrConflict)
		}

		if err := tx.CreateProject(ctx, p); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionProjectCreated, "project", p.ID,
			"project created", map[string]any{"name": p.Name, "orgId": p.OrgID}))
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, messagequeue.SubjectProjectCreated, messagequeue.EntityEventPayload{
		EntityType: "project", EntityID: p.ID, Action: audit.ActionProjectCreated,
		ActorID: actor.ID, OrgID: p.OrgID, ProjectID: p.ID,
	})
	return p, nil
}

// Update applies partial updates to a project. Status moves freely within
// the enum; cancelled doubles as the soft-delete state.
func (s *ProjectService) Update(ctx context.Context, actor user.Actor, id string, req project.UpdateRequest) (*project.Project, error) {
	if err := project.ValidateUpdateRequest(req); err != nil {
		return nil, err
	}

	var p *project.Project
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetProject(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil && *req.Name != cur.Name {
			inUse, err := tx.ProjectNameInUse(ctx, cur.OrgID, *req.Name, id)
			if err != nil {
				return err
			}
			if inUse {
				return fmt.Errorf("project name %q already in use: %w", *req.Name, domain.ErrConflict)
			}
		}

		changed := map[string]any{}
		if apply(&cur.Name, req.Name) {
			changed["name"] = cur.Name
		}
		if apply(&cur.Description, req.Description) {
			changed["description"] = cur.Description
		}
		if apply(&cur.Status, req.Status) {
			changed["status"] = string(cur.Status)
		}
		if applyTime(&cur.StartDate, req.StartDate) {
			changed["startDate"] = cur.StartDate
		}
		if applyTime(&cur.EndDate, req.EndDate) {
			changed["endDate"] = cur.EndDate
		}
		if apply(&cur.ClientVisible, req.ClientVisible) {
			changed["clientVisible"] = cur.ClientVisible
		}
		if cur.StartDate != nil && cur.EndDate != nil && cur.EndDate.Before(*cur.StartDate) {
			return fmt.Errorf("endDate precedes startDate: %w", domain.ErrValidation)
		}
		if len(changed) == 0 {
			p = cur
			return nil
		}

		cur.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateProject(ctx, cur); err != nil {
			return err
		}
		p = cur
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionProjectUpdated, "project", id,
			"project updated", changed))
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, messagequeue.SubjectProjectUpdated, messagequeue.EntityEventPayload{
		EntityType: "project", EntityID: id, Action: audit.ActionProjectUpdated,
		ActorID: actor.ID, OrgID: p.OrgID, ProjectID: id,
	})
	return p, nil
}

// Delete soft-deletes a project by moving it to cancelled.
func (s *ProjectService) Delete(ctx context.Context, actor user.Actor, id string) error {
	var orgID string
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetProject(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status == project.StatusCancelled {
			return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}

		cur.Status = project.StatusCancelled
		cur.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateProject(ctx, cur); err != nil {
			return err
		}
		orgID = cur.OrgID
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionProjectDeleted, "project", id,
			"project cancelled", map[string]any{"name": cur.Name}))
	})
	if err != nil {
		return err
	}

	s.events.emit(ctx, messagequeue.SubjectProjectDeleted, messagequeue.EntityEventPayload{
		EntityType: "project", EntityID: id, Action: audit.ActionProjectDeleted,
		ActorID: actor.ID, OrgID: orgID, ProjectID: id,
	})
	return nil
}
