// Package deliverable defines the Deliverable domain entity.
package deliverable

import "time"

// Status is the review state of a deliverable.
type Status string

const (
	StatusPending           Status = "pending"
	StatusDelivered         Status = "delivered"
	StatusApproved          Status = "approved"
	StatusRevisionRequested Status = "revision_requested"
)

// Valid reports whether s is a known deliverable status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDelivered, StatusApproved, StatusRevisionRequested:
		return true
	}
	return false
}

// Transitions lists the allowed status moves. Approved and
// revision_requested are terminal; a revision arrives as a fresh upload
// with the next version number.
var Transitions = map[Status][]Status{
	StatusPending:           {StatusDelivered},
	StatusDelivered:         {StatusApproved, StatusRevisionRequested},
	StatusApproved:          {},
	StatusRevisionRequested: {},
}

// Deliverable is a versioned file handed over to the client. Version is
// assigned per (project, name): each upload under the same name takes the
// next number.
type Deliverable struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	MilestoneID string    `json:"milestoneId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Version     int       `json:"version"`
	Status      Status    `json:"status"`
	FilePath    string    `json:"filePath"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	MimeType    string    `json:"mimeType"`
	Comment     string    `json:"comment,omitempty"`
	UploadedBy  string    `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateRequest holds the metadata of a deliverable upload. The file bytes
// travel alongside and go to the file store, not the database.
type CreateRequest struct {
	ProjectID   string `json:"projectId"`
	MilestoneID string `json:"milestoneId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FileName    string `json:"fileName"`
	MimeType    string `json:"mimeType"`
	Content     []byte `json:"-"`
}

// ReviewRequest carries an approval or revision request decision.
type ReviewRequest struct {
	Comment string `json:"comment"`
}

// ListQuery selects and pages deliverables (offset strategy). Search
// matches name, description, and file name.
type ListQuery struct {
	ProjectID   string
	MilestoneID string
	Status      Status
	UploadedBy  string
	Search      string
	Page        int
	Limit       int
	OrderBy     string
	OrderDesc   bool
}
