package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-service/internal/domain"
)

func TestToDomainError_PassesThroughDomainErrors(t *testing.T) {
	t.Parallel()

	original := NewConflict("username already exists", map[string]any{"field": "username"})
	wrapped := fmt.Errorf("create user: %w", original)

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "username", de.Details["field"])
}

func TestToDomainError_TransitionKinds(t *testing.T) {
	t.Parallel()

	invalid := domain.CheckTransition(domain.StatusApplicationReceived, domain.StatusHired)
	de := ToDomainError(invalid)
	assert.Equal(t, "INVALID_TRANSITION", de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, "invalid status transition from 'application_received' to 'hired'", de.Message)
	assert.Equal(t, "hired", de.Details["requested_status"])

	terminal := domain.CheckTransition(domain.StatusNotAccepted, domain.StatusHired)
	de = ToDomainError(fmt.Errorf("change status: %w", terminal))
	assert.Equal(t, "TERMINAL_STATE", de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, "not_accepted", de.Details["current_status"])

	var transitionErr *domain.TransitionError
	assert.True(t, errors.As(de, &transitionErr))
}

func TestToDomainError_UnknownStatusIsValidation(t *testing.T) {
	t.Parallel()

	_, err := domain.ParseEmployeeStatus("promoted")
	de := ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
}

func TestToDomainError_FiberErrors(t *testing.T) {
	t.Parallel()

	de := ToDomainError(fiber.ErrNotFound)
	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)

	de = ToDomainError(fiber.NewError(fiber.StatusUnprocessableEntity, "bad body"))
	assert.Equal(t, "BAD_REQUEST", de.Code)
	assert.Equal(t, "bad body", de.Message)

	de = ToDomainError(fiber.ErrBadGateway)
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
}

func TestToDomainError_UnknownErrorsAreInternal(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	de := ToDomainError(cause)
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
	assert.Nil(t, ToDomainError(nil))
}
