package deliverable

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nourx/nourx/internal/domain"
)

// MaxFileSize caps uploads at 100 MiB.
const MaxFileSize = 100 << 20

// ValidateCreateRequest validates the metadata of a deliverable upload.
func ValidateCreateRequest(req CreateRequest) error {
	if req.ProjectID == "" {
		return fmt.Errorf("projectId is required: %w", domain.ErrValidation)
	}
	if req.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(req.Name) > 255 {
		return fmt.Errorf("name exceeds 255 characters: %w", domain.ErrValidation)
	}
	for _, r := range req.Name {
		if unicode.IsControl(r) {
			return fmt.Errorf("name contains control characters: %w", domain.ErrValidation)
		}
	}
	if len(req.Description) > 2000 {
		return fmt.Errorf("description exceeds 2000 characters: %w", domain.ErrValidation)
	}
	if req.FileName == "" {
		return fmt.Errorf("fileName is required: %w", domain.ErrValidation)
	}
	if strings.ContainsAny(req.FileName, "/\\") || req.FileName == ".." {
		return fmt.Errorf("fileName must not contain path separators: %w", domain.ErrValidation)
	}
	if len(req.Content) == 0 {
		return fmt.Errorf("file is required: %w", domain.ErrValidation)
	}
	if len(req.Content) > MaxFileSize {
		return fmt.Errorf("file exceeds %d bytes: %w", MaxFileSize, domain.ErrValidation)
	}
	return nil
}

// ValidateReviewRequest validates an approve/revision decision body.
func ValidateReviewRequest(req ReviewRequest) error {
	if len(req.Comment) > 2000 {
		return fmt.Errorf("comment exceeds 2000 characters: %w", domain.ErrValidation)
	}
	return nil
}
