package api

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("invalid request")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// Error is a non-2xx response decoded from the server's error body.
type Error struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return e.Detail
}

// Unwrap maps the server's error code to one of the package sentinels so
// callers can use errors.Is.
func (e *Error) Unwrap() error {
	switch e.Code {
	case "unauthorized":
		return ErrUnauthorized
	case "not_found":
		return ErrNotFound
	case "conflict":
		return ErrConflict
	case "validation_error":
		return ErrValidation
	}
	return nil
}
