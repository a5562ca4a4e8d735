package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_Passthrough(t *testing.T) {
	err := NewValidationError(map[string]string{"email": "must be a valid email address"})

	de := ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, de.HTTPStatus)
	assert.Equal(t, "must be a valid email address", de.Fields["email"])
}

func TestToDomainError_WrapsUnknown(t *testing.T) {
	cause := errors.New("connection refused")

	de := ToDomainError(fmt.Errorf("query accounts: %w", cause))
	require.NotNil(t, de)
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestCredentialErrorsShareShape(t *testing.T) {
	// unknown email and wrong password must be indistinguishable
	assert.Equal(t, NewInvalidCredentials(), NewInvalidCredentials())

	invalid := ToDomainError(NewInvalidCredentials())
	inactive := ToDomainError(NewAccountInactive())
	assert.Equal(t, invalid.HTTPStatus, inactive.HTTPStatus)
	assert.NotEqual(t, invalid.Message, inactive.Message)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalError(cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}
