package services

import (
	"context"
	"errors"
	"time"

	"usersapi/internal/models"
	"usersapi/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateUserInput carries the fields accepted when creating an account.
type CreateUserInput struct {
	Name        string
	Email       string
	Password    string
	Mobile      *string
	DateOfBirth *time.Time
	// Account flags are only honoured when the service trusts them.
	IsEmailVerified bool
	IsDeleted       bool
	IsAdmin         bool
}

// UserService handles business logic related to user accounts.
type UserService struct {
	repo              repositories.UserRepository
	hasher            PasswordHasher
	publisher         EventPublisher
	logger            *zap.Logger
	trustAccountFlags bool
}

// NewUserService creates a new UserService. When trustAccountFlags is false
// every new account starts unverified, active and without admin rights.
func NewUserService(repo repositories.UserRepository, hasher PasswordHasher, publisher EventPublisher, logger *zap.Logger, trustAccountFlags bool) *UserService {
	return &UserService{
		repo:              repo,
		hasher:            hasher,
		publisher:         publisher,
		logger:            logger,
		trustAccountFlags: trustAccountFlags,
	}
}

// Create hashes the password and stores a new account.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.ClientUser, error) {
	if in.Password == "" {
		return nil, NewError(KindInvalidField, "Password is required")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, WrapError(KindRequestFailed, "User creation failed", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Mobile:       in.Mobile,
		PasswordHash: hash,
		DateOfBirth:  in.DateOfBirth,
	}
	if s.trustAccountFlags {
		user.IsEmailVerified = in.IsEmailVerified
		user.IsDeleted = in.IsDeleted
		user.IsAdmin = in.IsAdmin
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrEmailExists) {
			return nil, NewError(KindEmailExists, "Email already exists")
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, WrapError(KindRequestFailed, "User creation failed", err)
	}

	publishEvent(s.publisher, s.logger, EventUserCreated, map[string]interface{}{"userId": user.ID})
	client := user.ToClient()
	return &client, nil
}

// Get returns an active user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.ClientUser, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, KindStoreFailure, "Something went wrong")
	}
	if user.IsDeleted {
		return nil, NewError(KindUserNotFound, "User not found")
	}
	client := user.ToClient()
	return &client, nil
}

// List returns the active users matching filter.
func (s *UserService) List(ctx context.Context, filter repositories.UserFilter) ([]models.ClientUser, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, WrapError(KindStoreFailure, "Something went wrong", err)
	}
	clients := make([]models.ClientUser, 0, len(users))
	for i := range users {
		clients = append(clients, users[i].ToClient())
	}
	return clients, nil
}

// Update changes the editable profile fields of a user.
func (s *UserService) Update(ctx context.Context, id string, changes repositories.UserChanges) (*models.ClientUser, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	user, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, s.lookupError(err, KindUpdateFailed, "Failed to update user")
	}

	publishEvent(s.publisher, s.logger, EventUserUpdated, map[string]interface{}{"userId": user.ID})
	client := user.ToClient()
	return &client, nil
}

// Delete flags a user as deleted.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return s.lookupError(err, KindDeleteFailed, "Failed to delete user")
	}

	publishEvent(s.publisher, s.logger, EventUserDeleted, map[string]interface{}{"userId": id})
	return nil
}

// ChangePassword recomputes the stored hash from a new plaintext password.
func (s *UserService) ChangePassword(ctx context.Context, id string, password string) error {
	if password == "" {
		return NewError(KindMissingField, "Missing password")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.String("user_id", id), zap.Error(err))
		return WrapError(KindUpdateFailed, "Failed to update password", err)
	}
	if err := s.repo.SetPassword(ctx, id, hash); err != nil {
		return s.lookupError(err, KindUpdateFailed, "Failed to update password")
	}
	return nil
}

func (s *UserService) lookupError(err error, kind ErrorKind, message string) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return NewError(KindUserNotFound, "User not found")
	}
	s.logger.Error(message, zap.Error(err))
	return WrapError(kind, message, err)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NewError(KindInvalidField, "Invalid user id")
	}
	return nil
}
