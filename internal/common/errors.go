// Package common defines sentinel errors and constants shared by the client
// packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorUnavailable = errors.New("service unavailable")

	// Validation errors.
	ErrorValidation   = errors.New("validation error")
	ErrorUnknownField = errors.New("unknown field")
)
