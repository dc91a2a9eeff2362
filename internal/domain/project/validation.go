package project

import (
	"fmt"
	"time"
	"unicode"

	"github.com/nourx/nourx/internal/domain"
)

// ValidateCreateRequest validates the fields of a project creation request.
func ValidateCreateRequest(req CreateRequest) error {
	if req.OrgID == "" {
		return fmt.Errorf("orgId is required: %w", domain.ErrValidation)
	}
	if err := validateName(req.Name); err != nil {
		return err
	}
	if req.Status != "" && !req.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", req.Status, domain.ErrValidation)
	}
	if len(req.Description) > 2000 {
		return fmt.Errorf("description exceeds 2000 characters: %w", domain.ErrValidation)
	}
	if err := validateDates(req.StartDate, req.EndDate); err != nil {
		return err
	}
	return nil
}

// ValidateUpdateRequest validates the fields of a project update request.
func ValidateUpdateRequest(req UpdateRequest) error {
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.Status != nil && !req.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", *req.Status, domain.ErrValidation)
	}
	if req.Description != nil && len(*req.Description) > 2000 {
		return fmt.Errorf("description exceeds 2000 characters: %w", domain.ErrValidation)
	}
	if err := validateDates(req.StartDate, req.EndDate); err != nil {
		return err
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

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("endDate precedes startDate: %w", domain.ErrValidation)
	}
	return nil
}
