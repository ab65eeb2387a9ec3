package services

import (
	"context"
	"errors"

	"usersapi/internal/models"
	"usersapi/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Supported grant types.
const (
	GrantTypePassword     = "password"
	GrantTypeRefreshToken = "refresh_token"
)

// GrantRequest is a login request. Credential fields are left untyped so
// that structured values are rejected here, before they reach the store.
type GrantRequest struct {
	GrantType    interface{} `json:"grant_type"`
	Email        interface{} `json:"email"`
	Password     interface{} `json:"password"`
	RefreshToken interface{} `json:"refresh_token"`
}

// TokenBundle is the result of a successful authentication.
type TokenBundle struct {
	TokenType    string
	AccessToken  string
	RefreshToken string
	User         models.ClientUser
}

// AuthService verifies credentials and issues tokens.
type AuthService struct {
	userRepo  repositories.UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	publisher EventPublisher
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService. publisher may be nil.
func NewAuthService(userRepo repositories.UserRepository, hasher PasswordHasher, tokens TokenIssuer, publisher EventPublisher, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
	}
}

// Authenticate dispatches a grant request to its handler.
func (s *AuthService) Authenticate(ctx context.Context, req GrantRequest) (*TokenBundle, error) {
	if isMissing(req.GrantType) {
		return nil, NewError(KindMissingField, `"grant_type" field is required`)
	}
	grantType, ok := req.GrantType.(string)
	if !ok {
		return nil, NewError(KindUnsupportedGrant, `"grant_type" has invalid value`)
	}

	switch grantType {
	case GrantTypePassword:
		return s.AuthenticateByPassword(ctx, req.Email, req.Password)
	case GrantTypeRefreshToken:
		return s.AuthenticateByRefreshToken(ctx, req.RefreshToken)
	default:
		return nil, NewError(KindUnsupportedGrant, `"grant_type" has invalid value`)
	}
}

// AuthenticateByPassword runs the password grant. The checks run in a fixed
// order: presence, type, lookup, deleted, email verified, password.
func (s *AuthService) AuthenticateByPassword(ctx context.Context, email, password interface{}) (*TokenBundle, error) {
	if isMissing(email) || isMissing(password) {
		return nil, NewError(KindMissingField, "Missing email or password")
	}
	emailStr, emailOK := email.(string)
	passwordStr, passwordOK := password.(string)
	if !emailOK || !passwordOK {
		return nil, NewError(KindInvalidFormat, "Invalid format. Email and Password should be strings.")
	}

	user, err := s.userRepo.GetByEmail(ctx, emailStr)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, NewError(KindUserNotFound, "Authentication failed. User not found.")
		}
		s.logger.Error("Failed to look up user for login", zap.Error(err))
		return nil, WrapError(KindStoreFailure, "Some error occurred. Please try again later", err)
	}

	if user.IsDeleted {
		return nil, NewError(KindAccountInactive, "Your account is not active.")
	}
	if !user.IsEmailVerified {
		return nil, NewError(KindEmailNotVerified, "Your account is not verified.")
	}

	if err := s.hasher.Compare(user.PasswordHash, passwordStr); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Error("Password comparison failed", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, NewError(KindInvalidCredentials, "Invalid credentials.")
	}

	accessToken, err := s.tokens.IssueAccess(user)
	if err != nil {
		s.logger.Error("Failed to issue access token", zap.String("user_id", user.ID), zap.Error(err))
		return nil, WrapError(KindRequestFailed, "Some error occurred. Please try again later", err)
	}
	refreshToken, err := s.tokens.IssueRefresh(user)
	if err != nil {
		s.logger.Error("Failed to issue refresh token", zap.String("user_id", user.ID), zap.Error(err))
		return nil, WrapError(KindRequestFailed, "Some error occurred. Please try again later", err)
	}

	publishEvent(s.publisher, s.logger, EventAuthLogin, map[string]interface{}{"userId": user.ID})
	s.logger.Info("User authenticated", zap.String("user_id", user.ID))

	return &TokenBundle{
		TokenType:    TokenType,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.ToClient(),
	}, nil
}

// AuthenticateByRefreshToken is the refresh grant. Redemption is not
// implemented; no tokens are issued.
func (s *AuthService) AuthenticateByRefreshToken(_ context.Context, _ interface{}) (*TokenBundle, error) {
	return nil, NewError(KindNotImplemented, "Not implemented")
}

func isMissing(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && s == "" {
		return true
	}
	return false
}
