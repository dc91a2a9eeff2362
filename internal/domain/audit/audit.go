// Package audit defines the append-only audit trail entry.
package audit

import "time"

// Entry records one mutation. Rows are written on the same transaction as
// the change they describe and are never updated or deleted.
type Entry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	ActorID    string         `json:"actorId"`
	ActorRole  string         `json:"actorRole"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Message    string         `json:"message,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Actions follow "entity.verb".
const (
	ActionOrgCreated  = "organization.created"
	ActionOrgUpdated  = "organization.updated"
	ActionOrgDeleted  = "organization.deleted"
	ActionOrgRestored = "organization.restored"

	ActionProjectCreated = "project.created"
	ActionProjectUpdated = "project.updated"
	ActionProjectDeleted = "project.deleted"

	ActionMilestoneCreated = "milestone.created"
	ActionMilestoneUpdated = "milestone.updated"
	ActionMilestoneStatus  = "milestone.status_changed"
	ActionMilestoneDeleted = "milestone.deleted"

	ActionDeliverableCreated   = "deliverable.created"
	ActionDeliverableDelivered = "deliverable.delivered"
	ActionDeliverableApproved  = "deliverable.approved"
	ActionDeliverableRevision  = "deliverable.revision_requested"
	ActionDeliverableDeleted   = "deliverable.deleted"
)

// Query filters and pages the audit trail (cursor strategy, newest first).
type Query struct {
	Action     string
	ActorID    string
	EntityType string
	EntityID   string
	Cursor     string
	Limit      int
}
