package services_test

import (
	"strings"
	"testing"
	"time"

	"usersapi/internal/models"
	"usersapi/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tokenUser() *models.User {
	return &models.User{ID: "user-123", Email: "u1@example.com", IsAdmin: false}
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := services.NewTokenService("", "users-api", 0, 0, zap.NewNop())
	assert.ErrorIs(t, err, services.ErrMissingSigningSecret)
}

func TestTokenService_RoundTrip(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens, err := services.NewTokenService(testJWTSecret, "users-api", 0, 0, zap.NewNop())
	require.NoError(t, err)
	tokens.WithClock(func() time.Time { return issued })

	access, err := tokens.IssueAccess(tokenUser())
	require.NoError(t, err)

	claims, err := tokens.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.ID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
	assert.Empty(t, claims.Type)
	assert.Equal(t, "users-api", claims.Issuer)
	assert.Equal(t, issued.Add(15*time.Minute).Unix(), claims.ExpiresAt)
	assert.NotEmpty(t, claims.Id)

	// Decoding twice yields the same claims.
	again, err := tokens.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, claims, again)

	refresh, err := tokens.IssueRefresh(tokenUser())
	require.NoError(t, err)
	refreshClaims, err := tokens.Verify(refresh)
	require.NoError(t, err)
	assert.Equal(t, models.RefreshTokenType, refreshClaims.Type)
	assert.Equal(t, issued.Add(24*time.Hour).Unix(), refreshClaims.ExpiresAt)

	// Same shape, different bytes: each token carries its own id.
	second, err := tokens.IssueAccess(tokenUser())
	require.NoError(t, err)
	assert.NotEqual(t, access, second)
	assert.Len(t, strings.Split(second, "."), 3)
}

func TestTokenService_Expiry(t *testing.T) {
	now := time.Now()
	tokens, err := services.NewTokenService(testJWTSecret, "users-api", 0, 0, zap.NewNop())
	require.NoError(t, err)
	tokens.WithClock(func() time.Time { return now })

	access, err := tokens.IssueAccess(tokenUser())
	require.NoError(t, err)
	refresh, err := tokens.IssueRefresh(tokenUser())
	require.NoError(t, err)

	now = now.Add(14 * time.Minute)
	_, err = tokens.Verify(access)
	assert.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = tokens.Verify(access)
	assertKind(t, err, services.KindInvalidToken)
	_, err = tokens.Verify(refresh)
	assert.NoError(t, err)

	now = now.Add(24 * time.Hour)
	_, err = tokens.Verify(refresh)
	assertKind(t, err, services.KindInvalidToken)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	tokens, err := services.NewTokenService(testJWTSecret, "users-api", 0, 0, zap.NewNop())
	require.NoError(t, err)

	_, err = tokens.Verify("invalid.token.string")
	assertKind(t, err, services.KindInvalidToken)

	other, err := services.NewTokenService("another_secret", "users-api", 0, 0, zap.NewNop())
	require.NoError(t, err)
	forged, err := other.IssueAccess(tokenUser())
	require.NoError(t, err)
	_, err = tokens.Verify(forged)
	assertKind(t, err, services.KindInvalidToken)

	// Payload tampering breaks the signature.
	valid, err := tokens.IssueAccess(tokenUser())
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	adminClaims := &models.Claims{ID: "user-123", Email: "u1@example.com", IsAdmin: true}
	tampered := jwt.NewWithClaims(jwt.SigningMethodHS256, adminClaims)
	tamperedString, err := tampered.SignedString([]byte("guess"))
	require.NoError(t, err)
	parts[1] = strings.Split(tamperedString, ".")[1]
	_, err = tokens.Verify(strings.Join(parts, "."))
	assertKind(t, err, services.KindInvalidToken)

	// Unsigned tokens are refused.
	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.Claims{ID: "user-123", StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix(), Issuer: "users-api"}})
	noneString, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Verify(noneString)
	assertKind(t, err, services.KindInvalidToken)

	// A token without expiry is refused.
	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{ID: "user-123", StandardClaims: jwt.StandardClaims{Issuer: "users-api"}})
	noExpString, err := noExp.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	_, err = tokens.Verify(noExpString)
	assertKind(t, err, services.KindInvalidToken)

	// A token from another issuer is refused.
	foreign, err := services.NewTokenService(testJWTSecret, "someone-else", 0, 0, zap.NewNop())
	require.NoError(t, err)
	foreignToken, err := foreign.IssueAccess(tokenUser())
	require.NoError(t, err)
	_, err = tokens.Verify(foreignToken)
	assertKind(t, err, services.KindInvalidToken)
}
