// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness invariant was violated.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates invalid input or an action attempted from a
// disallowed state.
var ErrValidation = errors.New("validation failed")

// ErrForbidden indicates the actor's role lacks permission for the action.
var ErrForbidden = errors.New("forbidden")
