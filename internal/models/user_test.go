package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"usersapi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeAt(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, models.AgeAt(nil, now))
	assert.Nil(t, models.AgeAt(&time.Time{}, now))

	birthdayPassed := time.Date(1990, time.March, 1, 0, 0, 0, 0, time.UTC)
	age := models.AgeAt(&birthdayPassed, now)
	require.NotNil(t, age)
	assert.Equal(t, 34, *age)

	birthdayAhead := time.Date(1990, time.December, 1, 0, 0, 0, 0, time.UTC)
	age = models.AgeAt(&birthdayAhead, now)
	require.NotNil(t, age)
	assert.Equal(t, 33, *age)

	birthdayToday := time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC)
	age = models.AgeAt(&birthdayToday, now)
	require.NotNil(t, age)
	assert.Equal(t, 24, *age)
}

func TestUserToClientHidesSensitiveFields(t *testing.T) {
	mobile := "0123456789"
	user := &models.User{
		ID:              "user-1",
		Name:            "User1",
		Email:           "u1@example.com",
		Mobile:          &mobile,
		PasswordHash:    "$2a$10$hash",
		DateOfJoining:   time.Now(),
		IsDeleted:       true,
		IsAdmin:         true,
		IsEmailVerified: true,
	}

	body, err := json.Marshal(user.ToClient())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	for _, key := range []string{"password", "passwordHash", "isDeleted", "isAdmin", "isEmailVerified"} {
		assert.NotContains(t, decoded, key)
	}
	assert.Equal(t, "u1@example.com", decoded["email"])
	assert.Contains(t, decoded, "age")
	assert.Nil(t, decoded["age"])

	// The raw model must not leak the hash either.
	body, err = json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "$2a$10$hash")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "u1@example.com", models.NormalizeEmail("  U1@Example.COM "))
}
