package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"usersapi/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodesAndStatuses(t *testing.T) {
	tests := []struct {
		kind   services.ErrorKind
		code   string
		status int
	}{
		{services.KindMissingField, services.CodeMissingRequiredField, http.StatusBadRequest},
		{services.KindInvalidFormat, services.CodeInvalidFieldValue, http.StatusBadRequest},
		{services.KindUnsupportedGrant, services.CodeInvalidFieldValue, http.StatusBadRequest},
		{services.KindUserNotFound, services.CodeUserNotFound, http.StatusNotFound},
		{services.KindAccountInactive, services.CodeUserInactive, http.StatusNotFound},
		{services.KindEmailNotVerified, services.CodeEmailNotVerified, http.StatusForbidden},
		{services.KindInvalidCredentials, services.CodeInvalidCredentials, http.StatusUnauthorized},
		{services.KindInvalidToken, services.CodeUnauthorised, http.StatusUnauthorized},
		{services.KindNoTokenProvided, services.CodeNoToken, http.StatusUnauthorized},
		{services.KindForbidden, services.CodeForbidden, http.StatusForbidden},
		{services.KindEmailExists, services.CodeEmailAlreadyExists, http.StatusConflict},
		{services.KindNotImplemented, services.CodeNotImplemented, http.StatusNotImplemented},
		{services.KindStoreFailure, services.CodeUserReadFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := services.NewError(tt.kind, "message")
		assert.Equal(t, tt.code, err.Code())
		assert.Equal(t, tt.status, err.Status())
	}

	unknown := services.NewError(services.ErrorKind(999), "message")
	assert.Equal(t, services.CodeRequestFailed, unknown.Code())
	assert.Equal(t, http.StatusInternalServerError, unknown.Status())
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("driver exploded")
	err := fmt.Errorf("outer: %w", services.WrapError(services.KindStoreFailure, "Something went wrong", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, services.KindStoreFailure, services.KindOf(err))
	assert.Equal(t, services.ErrorKind(0), services.KindOf(cause))
}
