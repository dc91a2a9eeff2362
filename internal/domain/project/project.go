// Package project defines the Project domain entity.
package project

import "time"

// Status is the lifecycle state of a project. Any transition within the
// enum is allowed; cancelled doubles as the soft-delete state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known project status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Project represents an engagement delivered for an organization.
// Name is unique among the organization's projects.
type Project struct {
	ID            string     `json:"id"`
	OrgID         string     `json:"orgId"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Status        Status     `json:"status"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	ClientVisible bool       `json:"clientVisible"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CreateRequest holds the fields required to create a project.
type CreateRequest struct {
	OrgID         string     `json:"orgId"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Status        Status     `json:"status"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	ClientVisible *bool      `json:"clientVisible"`
}

// UpdateRequest holds the fields that can be patched on a project.
// Nil means "leave unchanged".
type UpdateRequest struct {
	Name          *string    `json:"name,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Status        *Status    `json:"status,omitempty"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	ClientVisible *bool      `json:"clientVisible,omitempty"`
}

// ListQuery selects and pages projects.
type ListQuery struct {
	OrgID     string
	Status    Status
	Search    string
	Cursor    string
	Limit     int
	OrderBy   string
	OrderDesc bool
}
