package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Fields     map[string]string
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, fields map[string]string) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Fields: fields}
}

// NewValidationError reports malformed client input with per-field messages.
func NewValidationError(fields map[string]string) error {
	return NewDomainError("VALIDATION_FAILED", "the given data was invalid", http.StatusUnprocessableEntity, fields)
}

// NewInvalidCredentials covers unknown email and wrong password alike; the
// message is identical in both cases so responses cannot be used to
// enumerate registered accounts.
func NewInvalidCredentials() error {
	return NewDomainError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}

// NewAccountInactive reports credentials that match a deactivated account.
func NewAccountInactive() error {
	return NewDomainError("ACCOUNT_INACTIVE", "account is inactive", http.StatusUnauthorized, nil)
}

// NewUnauthenticated reports a missing, malformed or revoked bearer token.
func NewUnauthenticated(message string) error {
	return NewDomainError("UNAUTHENTICATED", message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Anything not already
// a DomainError is an unexpected fault and maps to INTERNAL_ERROR.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
