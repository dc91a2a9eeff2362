// Package milestone defines the Milestone domain entity.
package milestone

import "time"

// Status is the lifecycle state of a milestone.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known milestone status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Transitions lists the allowed status moves. Work may be sent back to
// pending from in_progress; completed is terminal.
var Transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusPending},
	StatusCompleted:  {},
}

// Milestone is a phase of a project. Name is unique within the project and
// OrderIndex drives display order.
type Milestone struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	OrderIndex  float64    `json:"orderIndex"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateRequest holds the fields required to create a milestone. OrderIndex
// is assigned by the service (max existing + 1).
type CreateRequest struct {
	ProjectID   string     `json:"projectId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateRequest holds the fields that can be patched on a milestone.
// Nil means "leave unchanged". Status changes go through the status
// subresource so the transition table applies.
type UpdateRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	OrderIndex  *float64   `json:"orderIndex,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// StatusRequest carries a status transition.
type StatusRequest struct {
	Status Status `json:"status"`
}
