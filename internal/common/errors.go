// Package common defines sentinel errors shared by the notes server layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrVersionConflict = errors.New("version conflict")
	ErrorValidation    = errors.New("validation error")
)
