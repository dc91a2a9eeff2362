package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/domain/milestone"
	"github.com/nourx/nourx/internal/domain/user"
	"github.com/nourx/nourx/internal/port/database"
	"github.com/nourx/nourx/internal/port/messagequeue"
)

// MilestoneService handles milestone business logic.
type MilestoneService struct {
	store  database.Store
	events *Events
}

// NewMilestoneService creates a new MilestoneService.
func NewMilestoneService(store database.Store, events *Events) *MilestoneService {
	return &MilestoneService{store: store, events: events}
}

// List returns the milestones of a project in display order.
func (s *MilestoneService) List(ctx context.Context, projectID string) ([]milestone.Milestone, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListMilestones(ctx, projectID)
}

// Get returns a milestone by ID.
func (s *MilestoneService) Get(ctx context.Context, id string) (*milestone.Milestone, error) {
	return s.store.GetMilestone(ctx, id)
}

// Create creates a new milestone at the end of the project's display
// order: order index = max existing + 1.
func (s *MilestoneService) Create(ctx context.Context, actor user.Actor, req milestone.CreateRequest) (*milestone.Milestone, error) {
	if err := milestone.ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &milestone.Milestone{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Status:      milestone.StatusPending,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		if _, err := tx.GetProject(ctx, req.ProjectID); err != nil {
			return err
		}

		inUse, err := tx.MilestoneNameInUse(ctx, req.ProjectID, req.Name, "")
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("milestone name %q already in use: %w", req.Name, domain.ErrConflict)
		}

		max, err := tx.MaxMilestoneOrderIndex(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		m.OrderIndex = max + 1

		if err := tx.CreateMilestone(ctx, m); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionMilestoneCreated, "milestone", m.ID,
			"milestone created", map[string]any{"name": m.Name, "projectId": m.ProjectID, "orderIndex": m.OrderIndex}))
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, messagequeue.SubjectMilestoneCreated, messagequeue.EntityEventPayload{
		EntityType: "milestone", EntityID: m.ID, Action: audit.ActionMilestoneCreated,
		ActorID: actor.ID, ProjectID: m.ProjectID,
	})
	return m, nil
}

// Update applies partial updates to a milestone, including reordering via
// orderIndex. Status changes go through SetStatus.
func (s *MilestoneService) Update(ctx context.Context, actor user.Actor, id string, req milestone.UpdateRequest) (*milestone.Milestone, error) {
	if err := milestone.ValidateUpdateRequest(req); err != nil {
		return nil, err
	}

	var m *milestone.Milestone
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetMilestone(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil && *req.Name != cur.Name {
			inUse, err := tx.MilestoneNameInUse(ctx, cur.ProjectID, *req.Name, id)
			if err != nil {
				return err
			}
			if inUse {
				return fmt.Errorf("milestone name %q already in use: %w", *req.Name, domain.ErrConflict)
			}
		}

		changed := map[string]any{}
		if apply(&cur.Name, req.Name) {
			changed["name"] = cur.Name
		}
		if apply(&cur.Description, req.Description) {
			changed["description"] = cur.Description
		}
		if apply(&cur.OrderIndex, req.OrderIndex) {
			changed["orderIndex"] = cur.OrderIndex
		}
		if applyTime(&cur.DueDate, req.DueDate) {
			changed["dueDate"] = cur.DueDate
		}
		if len(changed) == 0 {
			m = cur
			return nil
		}

		cur.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateMilestone(ctx, cur); err != nil {
			return err
		}
		m = cur
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionMilestoneUpdated, "milestone", id,
			"milestone updated", changed))
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, messagequeue.SubjectMilestoneUpdated, messagequeue.EntityEventPayload{
		EntityType: "milestone", EntityID: id, Action: audit.ActionMilestoneUpdated,
		ActorID: actor.ID, ProjectID: m.ProjectID,
	})
	return m, nil
}

// SetStatus moves a milestone along its transition table.
func (s *MilestoneService) SetStatus(ctx context.Context, actor user.Actor, id string, req milestone.StatusRequest) (*milestone.Milestone, error) {
	if err := milestone.ValidateStatusRequest(req); err != nil {
		return nil, err
	}

	var m *milestone.Milestone
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetMilestone(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransition(milestone.Transitions, cur.Status, req.Status) {
			return fmt.Errorf("cannot move milestone from %s to %s: %w", cur.Status, req.Status, domain.ErrValidation)
		}

		from := cur.Status
		cur.Status = req.Status
		cur.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateMilestone(ctx, cur); err != nil {
			return err
		}
		m = cur
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionMilestoneStatus, "milestone", id,
			"milestone status changed", map[string]any{"from": string(from), "to": string(req.Status)}))
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, messagequeue.SubjectMilestoneUpdated, messagequeue.EntityEventPayload{
		EntityType: "milestone", EntityID: id, Action: audit.ActionMilestoneStatus,
		ActorID: actor.ID, ProjectID: m.ProjectID,
	})
	return m, nil
}

// Delete removes a milestone. Blocked while tasks or deliverables still
// reference it.
func (s *MilestoneService) Delete(ctx context.Context, actor user.Actor, id string) error {
	var projectID string
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetMilestone(ctx, id)
		if err != nil {
			return err
		}

		inUse, err := tx.MilestoneInUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("milestone %s still has tasks or deliverables: %w", id, domain.ErrValidation)
		}

		if err := tx.DeleteMilestone(ctx, id); err != nil {
			return err
		}
		projectID = cur.ProjectID
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionMilestoneDeleted, "milestone", id,
			"milestone deleted", map[string]any{"name": cur.Name}))
	})
	if err != nil {
		return err
	}

	s.events.emit(ctx, messagequeue.SubjectMilestoneDeleted, messagequeue.EntityEventPayload{
		EntityType: "milestone", EntityID: id, Action: audit.ActionMilestoneDeleted,
		ActorID: actor.ID, ProjectID: projectID,
	})
	return nil
}
