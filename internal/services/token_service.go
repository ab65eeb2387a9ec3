package services

import (
	"errors"
	"fmt"
	"time"

	"usersapi/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultAccessTokenTTL is the lifetime of an access token.
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL is the lifetime of a refresh token.
	DefaultRefreshTokenTTL = 24 * time.Hour
	// TokenType is reported to clients as token_type.
	TokenType = "Bearer"
)

// ErrMissingSigningSecret is returned when no signing secret is configured.
var ErrMissingSigningSecret = errors.New("jwt signing secret is not configured")

// TokenIssuer creates signed tokens for a user.
type TokenIssuer interface {
	IssueAccess(user *models.User) (string, error)
	IssueRefresh(user *models.User) (string, error)
}

// TokenVerifier validates a presented token.
type TokenVerifier interface {
	Verify(token string) (*models.Claims, error)
}

// TokenService issues and verifies HS256 tokens.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewTokenService creates a TokenService. It refuses an empty secret.
// Non-positive TTLs fall back to the defaults.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSigningSecret
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssueAccess creates an access token for user.
func (s *TokenService) IssueAccess(user *models.User) (string, error) {
	return s.sign(user, "", s.accessTTL)
}

// IssueRefresh creates a refresh token for user.
func (s *TokenService) IssueRefresh(user *models.User) (string, error) {
	return s.sign(user, models.RefreshTokenType, s.refreshTTL)
}

func (s *TokenService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &models.Claims{
		ID:      user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		Type:    tokenType,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and issuer of a token. Every failure
// is reported as KindInvalidToken.
func (s *TokenService) Verify(tokenString string) (*models.Claims, error) {
	parser := &jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}

	claims := &models.Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		s.logger.Debug("Token rejected", zap.Error(err))
		return nil, WrapError(KindInvalidToken, "Failed to authenticate token.", err)
	}
	if !token.Valid {
		return nil, NewError(KindInvalidToken, "Failed to authenticate token.")
	}

	now := s.now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return nil, NewError(KindInvalidToken, "Failed to authenticate token.")
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return nil, NewError(KindInvalidToken, "Failed to authenticate token.")
	}
	return claims, nil
}
