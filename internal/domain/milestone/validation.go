package milestone

import (
	"fmt"
	"unicode"

	"github.com/nourx/nourx/internal/domain"
)

// ValidateCreateRequest validates the fields of a milestone creation request.
func ValidateCreateRequest(req CreateRequest) error {
	if req.ProjectID == "" {
		return fmt.Errorf("projectId is required: %w", domain.ErrValidation)
	}
	if err := validateName(req.Name); err != nil {
		return err
	}
	if len(req.Description) > 2000 {
		return fmt.Errorf("description exceeds 2000 characters: %w", domain.ErrValidation)
	}
	return nil
}

// ValidateUpdateRequest validates the fields of a milestone update request.
func ValidateUpdateRequest(req UpdateRequest) error {
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.Description != nil && len(*req.Description) > 2000 {
		return fmt.Errorf("description exceeds 2000 characters: %w", domain.ErrValidation)
	}
	return nil
}

// ValidateStatusRequest checks the target status is a known enum member.
// Transition legality is checked against the current row by the service.
func ValidateStatusRequest(req StatusRequest) error {
	if !req.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", req.Status, domain.ErrValidation)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(name) > 255 {
		return fmt.Errorf("name exceeds 255 characters: %w", domain.ErrValidation)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("name contains control characters: %w", domain.ErrValidation)
		}
	}
	return nil
}
