// Package common defines shared sentinel errors used across the timesheet
// engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors (bad duration/time input). Local and recoverable:
	// the caller corrects the input and retries, nothing is persisted.
	ErrorValidation = errors.New("validation error")

	// Status transition attempted from the wrong state. Reported, never
	// retried automatically.
	ErrorStatusConflict = errors.New("status conflict")

	// Caller's role does not permit the operation.
	ErrorPermissionDenied = errors.New("permission denied")

	// Week walk exhausted its bound without finding an editable week.
	ErrorNoOpenWeek = errors.New("no open week in the next year")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
