// Package storage defines the deliverable file store port.
package storage

import "context"

// StoredFile describes a saved object.
type StoredFile struct {
	Path     string
	Name     string
	Size     int64
	MimeType string
}

// FileStore persists deliverable files outside the database. Keys are laid
// out per organization; the version keeps re-uploads of the same name from
// colliding.
type FileStore interface {
	Save(ctx context.Context, orgID, fileName string, data []byte, mimeType string, version int) (*StoredFile, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
