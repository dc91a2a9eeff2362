package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nourx/nourx/internal/adapter/otel"
	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/domain/deliverable"
	"github.com/nourx/nourx/internal/domain/user"
	"github.com/nourx/nourx/internal/pagination"
	"github.com/nourx/nourx/internal/port/database"
	"github.com/nourx/nourx/internal/port/messagequeue"
	"github.com/nourx/nourx/internal/port/storage"
)

// versionRetries bounds how often Create restarts after losing a version
// race to a concurrent upload of the same name.
const versionRetries = 2

// DeliverableService handles versioned file deliverables.
type DeliverableService struct {
	store   database.Store
	files   storage.FileStore
	events  *Events
	metrics *otel.Metrics
}

// NewDeliverableService creates a new DeliverableService. metrics may be
// nil when telemetry is disabled.
func NewDeliverableService(store database.Store, files storage.FileStore, events *Events, metrics *otel.Metrics) *DeliverableService {
	return &DeliverableService{store: store, files: files, events: events, metrics: metrics}
}

// List returns an offset page of deliverables.
func (s *DeliverableService) List(ctx context.Context, q deliverable.ListQuery) (*pagination.OffsetPage[deliverable.Deliverable], error) {
	return s.store.ListDeliverables(ctx, q)
}

// Get returns a deliverable by ID.
func (s *DeliverableService) Get(ctx context.Context, id string) (*deliverable.Deliverable, error) {
	return s.store.GetDeliverable(ctx, id)
}

// History returns every version uploaded under the deliverable's name,
// newest version first.
func (s *DeliverableService) History(ctx context.Context, id string) ([]deliverable.Deliverable, error) {
	d, err := s.store.GetDeliverable(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.ListDeliverableVersions(ctx, d.ProjectID, d.Name)
}

// Download returns the deliverable record together with its file bytes.
func (s *DeliverableService) Download(ctx context.Context, id string) (*deliverable.Deliverable, []byte, error) {
	d, err := s.store.GetDeliverable(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.files.Get(ctx, d.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch file %s: %w", d.FilePath, err)
	}
	return d, data, nil
}

// Create stores the uploaded file and inserts a deliverable at the next
// version for (project, name). The version is assigned inside the
// transaction; if a concurrent upload takes the same number first, the
// unique index rejects the insert and the whole transaction is retried
// once with a fresh version.
func (s *DeliverableService) Create(ctx context.Context, actor user.Actor, req deliverable.CreateRequest) (*deliverable.Deliverable, error) {
	if err := deliverable.ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	var d *deliverable.Deliverable
	for attempt := 0; ; attempt++ {
		var err error
		d, err = s.createOnce(ctx, actor, req)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrConflict) && attempt < versionRetries-1 {
			slog.Debug("deliverable version race, retrying",
				"project_id", req.ProjectID, "name", req.Name)
			continue
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DeliverableMutations.Add(ctx, 1,
			metric.WithAttributes(attribute.String("action", audit.ActionDeliverableCreated)))
		s.metrics.UploadBytes.Record(ctx, d.FileSize)
	}
	s.events.emit(ctx, messagequeue.SubjectDeliverableCreated, messagequeue.EntityEventPayload{
		EntityType: "deliverable", EntityID: d.ID, Action: audit.ActionDeliverableCreated,
		ActorID: actor.ID, ProjectID: d.ProjectID,
	})
	return d, nil
}

func (s *DeliverableService) createOnce(ctx context.Context, actor user.Actor, req deliverable.CreateRequest) (*deliverable.Deliverable, error) {
	now := time.Now().UTC()
	d := &deliverable.Deliverable{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		MilestoneID: req.MilestoneID,
		Name:        req.Name,
		Description: req.Description,
		Status:      deliverable.StatusPending,
		FileName:    req.FileName,
		MimeType:    req.MimeType,
		UploadedBy:  actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		p, err := tx.GetProject(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		if req.MilestoneID != "" {
			m, err := tx.GetMilestone(ctx, req.MilestoneID)
			if err != nil {
				return err
			}
			if m.ProjectID != req.ProjectID {
				return fmt.Errorf("milestone %s belongs to another project: %w", req.MilestoneID, domain.ErrValidation)
			}
		}

		version, err := tx.NextDeliverableVersion(ctx, req.ProjectID, req.Name)
		if err != nil {
			return err
		}
		d.Version = version

		stored, err := s.files.Save(ctx, p.OrgID, req.FileName, req.Content, req.MimeType, version)
		if err != nil {
			return fmt.Errorf("store file: %w", err)
		}
		d.FilePath = stored.Path
		d.FileSize = stored.Size

		if err := tx.CreateDeliverable(ctx, d); err != nil {
			if rmErr := s.files.Delete(ctx, stored.Path); rmErr != nil {
				slog.Warn("orphaned deliverable file", "path", stored.Path, "error", rmErr)
			}
			return err
		}
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionDeliverableCreated, "deliverable", d.ID,
			"deliverable uploaded", map[string]any{"name": d.Name, "version": d.Version, "fileName": d.FileName}))
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Deliver marks a pending deliverable as handed over for review.
func (s *DeliverableService) Deliver(ctx context.Context, actor user.Actor, id string) (*deliverable.Deliverable, error) {
	return s.transition(ctx, actor, id, deliverable.StatusDelivered,
		audit.ActionDeliverableDelivered, messagequeue.SubjectDeliverableDelivered, "")
}

// Approve accepts a delivered deliverable. Admin-only.
func (s *DeliverableService) Approve(ctx context.Context, actor user.Actor, id string, req deliverable.ReviewRequest) (*deliverable.Deliverable, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("approval is admin-only: %w", domain.ErrForbidden)
	}
	if err := deliverable.ValidateReviewRequest(req); err != nil {
		return nil, err
	}
	d, err := s.transition(ctx, actor, id, deliverable.StatusApproved,
		audit.ActionDeliverableApproved, messagequeue.SubjectDeliverableApproved, req.Comment)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.DeliverablesApproved.Add(ctx, 1)
	}
	return d, nil
}

// RequestRevision sends a delivered deliverable back for rework. The next
// upload under the same name starts a fresh version at pending.
func (s *DeliverableService) RequestRevision(ctx context.Context, actor user.Actor, id string, req deliverable.ReviewRequest) (*deliverable.Deliverable, error) {
	if err := deliverable.ValidateReviewRequest(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, deliverable.StatusRevisionRequested,
		audit.ActionDeliverableRevision, messagequeue.SubjectDeliverableRevision, req.Comment)
}

func (s *DeliverableService) transition(ctx context.Context, actor user.Actor, id string, to deliverable.Status, action, subject, comment string) (*deliverable.Deliverable, error) {
	var d *deliverable.Deliverable
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetDeliverable(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransition(deliverable.Transitions, cur.Status, to) {
			return fmt.Errorf("cannot move deliverable from %s to %s: %w", cur.Status, to, domain.ErrValidation)
		}

		from := cur.Status
		cur.Status = to
		if comment != "" {
			cur.Comment = comment
		}
		cur.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateDeliverable(ctx, cur); err != nil {
			return err
		}
		d = cur
		return tx.AppendAudit(ctx, newAuditEntry(actor, action, "deliverable", id,
			"deliverable status changed", map[string]any{"from": string(from), "to": string(to)}))
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DeliverableMutations.Add(ctx, 1,
			metric.WithAttributes(attribute.String("action", action)))
	}
	s.events.emit(ctx, subject, messagequeue.EntityEventPayload{
		EntityType: "deliverable", EntityID: id, Action: action,
		ActorID: actor.ID, ProjectID: d.ProjectID,
	})
	return d, nil
}

// Delete removes a deliverable version and its stored file.
func (s *DeliverableService) Delete(ctx context.Context, actor user.Actor, id string) error {
	var projectID, filePath string
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		cur, err := tx.GetDeliverable(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteDeliverable(ctx, id); err != nil {
			return err
		}
		projectID = cur.ProjectID
		filePath = cur.FilePath
		return tx.AppendAudit(ctx, newAuditEntry(actor, audit.ActionDeliverableDeleted, "deliverable", id,
			"deliverable deleted", map[string]any{"name": cur.Name, "version": cur.Version, "fileName": cur.FileName}))
	})
	if err != nil {
		return err
	}

	// Row is gone; a leftover object only wastes space.
	if err := s.files.Delete(ctx, filePath); err != nil {
		slog.Warn("orphaned deliverable file", "path", filePath, "error", err)
	}

	if s.metrics != nil {
		s.metrics.DeliverableMutations.Add(ctx, 1,
			metric.WithAttributes(attribute.String("action", audit.ActionDeliverableDeleted)))
	}
	s.events.emit(ctx, messagequeue.SubjectDeliverableDeleted, messagequeue.EntityEventPayload{
		EntityType: "deliverable", EntityID: id, Action: audit.ActionDeliverableDeleted,
		ActorID: actor.ID, ProjectID: projectID,
	})
	return nil
}
