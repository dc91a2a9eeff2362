// Package local implements the file store port on the local filesystem.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/port/storage"
)

// Store saves deliverable files under a root directory, one subtree per
// organization.
type Store struct {
	root string
}

var _ storage.FileStore = (*Store)(nil)

// New creates a local file store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Save writes data under <root>/<orgID>/v<version>-<fileName>.
func (s *Store) Save(_ context.Context, orgID, fileName string, data []byte, mimeType string, version int) (*storage.StoredFile, error) {
	rel := filepath.Join(orgID, fmt.Sprintf("v%d-%s", version, fileName))
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create organization dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}
	return &storage.StoredFile{
		Path:     rel,
		Name:     fileName,
		Size:     int64(len(data)),
		MimeType: mimeType,
	}, nil
}

// Get reads a stored file back.
func (s *Store) Get(_ context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete removes a stored file. Missing files are not an error so delete
// stays idempotent.
func (s *Store) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// resolve joins a stored path to the root and rejects traversal outside it.
func (s *Store) resolve(rel string) (string, error) {
	full := filepath.Join(s.root, rel)
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %s escapes storage root: %w", rel, domain.ErrValidation)
	}
	return full, nil
}
