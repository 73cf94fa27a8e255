package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/common"
)

// APIError is the body of every error response.
type APIError struct {
	Detail     string `json:"detail"`
	Code       string `json:"code"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Detail
}

// WithDetail returns a copy of the error with a custom message.
func (e *APIError) WithDetail(detail string) *APIError {
	return &APIError{Detail: detail, Code: e.Code, StatusCode: e.StatusCode}
}

var (
	ErrValidation = &APIError{
		Code:       "validation_error",
		Detail:     "Invalid request",
		StatusCode: http.StatusUnprocessableEntity,
	}

	ErrConflict = &APIError{
		Code:       "conflict",
		Detail:     "Email already registered",
		StatusCode: http.StatusBadRequest,
	}

	ErrEmailNotVerified = &APIError{
		Code:       "email_not_verified",
		Detail:     "Google account email not verified",
		StatusCode: http.StatusBadRequest,
	}

	ErrUnauthorized = &APIError{
		Code:       "unauthorized",
		Detail:     "Could not validate credentials",
		StatusCode: http.StatusUnauthorized,
	}

	ErrFederatedTokenInvalid = &APIError{
		Code:       "unauthorized",
		Detail:     "Invalid Google token",
		StatusCode: http.StatusUnauthorized,
	}

	ErrNotFound = &APIError{
		Code:       "not_found",
		Detail:     "Not found",
		StatusCode: http.StatusNotFound,
	}

	ErrInternal = &APIError{
		Code:       "internal_error",
		Detail:     "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// AsAPIError maps an error kind to its HTTP representation. Unknown errors,
// storage outages included, become ErrInternal.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, common.ErrorValidation):
		return ErrValidation.WithDetail(err.Error())
	case errors.Is(err, common.ErrorConflict):
		return ErrConflict
	case errors.Is(err, common.ErrEmailNotVerified):
		return ErrEmailNotVerified
	case errors.Is(err, common.ErrFederatedTokenInvalid):
		return ErrFederatedTokenInvalid
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return ErrUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return ErrNotFound
	default:
		return ErrInternal
	}
}
