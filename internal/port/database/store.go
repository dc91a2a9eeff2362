// Package database defines the persistence port.
package database

import (
	"context"

	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/domain/deliverable"
	"github.com/nourx/nourx/internal/domain/milestone"
	"github.com/nourx/nourx/internal/domain/org"
	"github.com/nourx/nourx/internal/domain/project"
	"github.com/nourx/nourx/internal/pagination"
)

// Reader bundles the read operations, available both on the pool and
// inside a transaction.
type Reader interface {
	GetOrganization(ctx context.Context, id string) (*org.Organization, error)
	ListOrganizations(ctx context.Context, q org.ListQuery) (*pagination.CursorPage[org.Organization], error)

	GetProject(ctx context.Context, id string) (*project.Project, error)
	ListProjects(ctx context.Context, q project.ListQuery) (*pagination.CursorPage[project.Project], error)

	GetMilestone(ctx context.Context, id string) (*milestone.Milestone, error)
	ListMilestones(ctx context.Context, projectID string) ([]milestone.Milestone, error)

	GetDeliverable(ctx context.Context, id string) (*deliverable.Deliverable, error)
	ListDeliverables(ctx context.Context, q deliverable.ListQuery) (*pagination.OffsetPage[deliverable.Deliverable], error)
	ListDeliverableVersions(ctx context.Context, projectID, name string) ([]deliverable.Deliverable, error)

	ListAuditEntries(ctx context.Context, q audit.Query) (*pagination.CursorPage[audit.Entry], error)
}

// Tx is the transactional surface. Every service mutation runs inside one:
// invariant checks, the write, and the audit append commit or roll back as
// a unit.
type Tx interface {
	Reader

	CreateOrganization(ctx context.Context, o *org.Organization) error
	UpdateOrganization(ctx context.Context, o *org.Organization) error
	SoftDeleteOrganization(ctx context.Context, id string) error
	RestoreOrganization(ctx context.Context, id string) error
	// TaxIDInUse checks uniqueness among non-deleted organizations,
	// excluding excludeID (empty to exclude none).
	TaxIDInUse(ctx context.Context, taxID, excludeID string) (bool, error)
	// CountActiveUsers reports enabled accounts attached to the
	// organization; deletion is blocked while any remain.
	CountActiveUsers(ctx context.Context, orgID string) (int, error)

	CreateProject(ctx context.Context, p *project.Project) error
	UpdateProject(ctx context.Context, p *project.Project) error
	ProjectNameInUse(ctx context.Context, orgID, name, excludeID string) (bool, error)

	CreateMilestone(ctx context.Context, m *milestone.Milestone) error
	UpdateMilestone(ctx context.Context, m *milestone.Milestone) error
	DeleteMilestone(ctx context.Context, id string) error
	MilestoneNameInUse(ctx context.Context, projectID, name, excludeID string) (bool, error)
	MaxMilestoneOrderIndex(ctx context.Context, projectID string) (float64, error)
	// MilestoneInUse reports whether tasks or deliverables still
	// reference the milestone.
	MilestoneInUse(ctx context.Context, id string) (bool, error)

	CreateDeliverable(ctx context.Context, d *deliverable.Deliverable) error
	UpdateDeliverable(ctx context.Context, d *deliverable.Deliverable) error
	DeleteDeliverable(ctx context.Context, id string) error
	NextDeliverableVersion(ctx context.Context, projectID, name string) (int, error)

	// AppendAudit records a mutation on this transaction. The audit trail
	// is append-only; no update or delete exists.
	AppendAudit(ctx context.Context, e *audit.Entry) error
}

// Store is the persistence port.
type Store interface {
	Reader

	// WithTx runs fn inside a transaction, committing on nil and rolling
	// back on error.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Ping(ctx context.Context) error
	Close()
}
