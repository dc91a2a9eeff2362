package org

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nourx/nourx/internal/domain"
)

// ValidateCreateRequest validates the fields of an organization creation request.
func ValidateCreateRequest(req CreateRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if len(req.TaxID) > 64 {
		return fmt.Errorf("taxId exceeds 64 characters: %w", domain.ErrValidation)
	}
	if err := validateEmail(req.ContactEmail); err != nil {
		return err
	}
	if len(req.Address) > 500 {
		return fmt.Errorf("address exceeds 500 characters: %w", domain.ErrValidation)
	}
	if len(req.ContactPhone) > 32 {
		return fmt.Errorf("contactPhone exceeds 32 characters: %w", domain.ErrValidation)
	}
	return nil
}

// ValidateUpdateRequest validates the fields of an organization update request.
func ValidateUpdateRequest(req UpdateRequest) error {
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.TaxID != nil && len(*req.TaxID) > 64 {
		return fmt.Errorf("taxId exceeds 64 characters: %w", domain.ErrValidation)
	}
	if req.ContactEmail != nil {
		if err := validateEmail(*req.ContactEmail); err != nil {
			return err
		}
	}
	if req.Address != nil && len(*req.Address) > 500 {
		return fmt.Errorf("address exceeds 500 characters: %w", domain.ErrValidation)
	}
	if req.ContactPhone != nil && len(*req.ContactPhone) > 32 {
		return fmt.Errorf("contactPhone exceeds 32 characters: %w", domain.ErrValidation)
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

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > 255 || !strings.Contains(email, "@") {
		return fmt.Errorf("contactEmail is not a valid address: %w", domain.ErrValidation)
	}
	return nil
}
