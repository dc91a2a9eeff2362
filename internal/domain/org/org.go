// Package org defines the Organization domain entity.
package org

import "time"

// Organization represents a client company. Deletion is soft: DeletedAt is
// set and the row drops out of default listings but stays referenced by its
// projects and audit history.
type Organization struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	TaxID        string     `json:"taxId,omitempty"`
	Address      string     `json:"address,omitempty"`
	ContactEmail string     `json:"contactEmail,omitempty"`
	ContactPhone string     `json:"contactPhone,omitempty"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Deleted reports whether the organization is soft-deleted.
func (o *Organization) Deleted() bool {
	return o.DeletedAt != nil
}

// CreateRequest holds the fields required to create an organization.
type CreateRequest struct {
	Name         string `json:"name"`
	TaxID        string `json:"taxId"`
	Address      string `json:"address"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`
}

// UpdateRequest holds the fields that can be patched on an organization.
// Nil means "leave unchanged".
type UpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	TaxID        *string `json:"taxId,omitempty"`
	Address      *string `json:"address,omitempty"`
	ContactEmail *string `json:"contactEmail,omitempty"`
	ContactPhone *string `json:"contactPhone,omitempty"`
}

// ListQuery selects and pages organizations.
type ListQuery struct {
	Search         string
	IncludeDeleted bool
	Cursor         string
	Limit          int
	OrderBy        string
	OrderDesc      bool
}
