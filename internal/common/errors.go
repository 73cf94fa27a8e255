// Package common defines the error kinds and constants shared by the server,
// its storage layer and the CLI client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// ErrStorageUnavailable is returned once transient storage failures
	// outlive the retry budget.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Bearer token errors. The authorization gate collapses both into
	// ErrorUnauthorized before they reach handlers.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Federated sign-in errors.
	ErrFederatedTokenInvalid = errors.New("invalid federated token")
	ErrEmailNotVerified      = errors.New("email not verified")
)
