package services_test

import (
	"testing"

	"usersapi/internal/models"
	"usersapi/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthorized(t *testing.T) {
	owner := "owner-id"

	assert.True(t, services.IsAuthorized(owner, &models.Claims{ID: owner}))
	assert.False(t, services.IsAuthorized("other-id", &models.Claims{ID: owner}))
	assert.True(t, services.IsAuthorized("other-id", &models.Claims{ID: owner, IsAdmin: true}))
	assert.True(t, services.IsAuthorized("any-id", &models.Claims{IsAdmin: true}))
	assert.False(t, services.IsAuthorized("", &models.Claims{}))
	assert.False(t, services.IsAuthorized(owner, nil))
}
