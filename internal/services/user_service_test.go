package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"usersapi/internal/models"
	"usersapi/internal/repositories"
	"usersapi/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const knownID = "9a1f2c3d-4e5f-4a6b-8c7d-0e1f2a3b4c5d"

func newUserService(repo *MockUserRepository, publisher services.EventPublisher, trust bool) *services.UserService {
	return services.NewUserService(repo, services.NewBcryptHasher(bcrypt.MinCost), publisher, zap.NewNop(), trust)
}

func TestUserService_CreateHashesPassword(t *testing.T) {
	repo := new(MockUserRepository)
	publisher := new(MockPublisher)
	svc := newUserService(repo, publisher, false)

	var stored *models.User
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*models.User)
			stored.ID = knownID
		}).
		Return(nil).Once()
	publisher.On("Publish", services.EventsExchange, services.EventUserCreated, mock.Anything).Return(nil).Once()

	created, err := svc.Create(context.Background(), services.CreateUserInput{
		Name:            "User1",
		Email:           "u1@example.com",
		Password:        "abcd123",
		IsEmailVerified: true,
		IsAdmin:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, knownID, created.ID)

	require.NotNil(t, stored)
	assert.NotEqual(t, "abcd123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("abcd123")))
	// Flags from the request are ignored unless trusted.
	assert.False(t, stored.IsEmailVerified)
	assert.False(t, stored.IsAdmin)

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUserService_CreateHonoursTrustedFlags(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newUserService(repo, nil, true)

	var stored *models.User
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.User) }).
		Return(nil).Once()

	_, err := svc.Create(context.Background(), services.CreateUserInput{
		Name: "User2", Email: "u2@example.com", Password: "abcd123",
		IsEmailVerified: true, IsDeleted: true,
	})
	require.NoError(t, err)
	assert.True(t, stored.IsEmailVerified)
	assert.True(t, stored.IsDeleted)
	assert.False(t, stored.IsAdmin)
}

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newUserService(repo, nil, false)

	repo.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("insert: %w", repositories.ErrEmailExists)).Once()

	_, err := svc.Create(context.Background(), services.CreateUserInput{Name: "User1", Email: "u1@example.com", Password: "abcd123"})
	assertKind(t, err, services.KindEmailExists)
}

func TestUserService_Get(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newUserService(repo, nil, false)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid")
	assertKind(t, err, services.KindInvalidField)

	repo.On("GetByID", mock.Anything, knownID).Return(&models.User{ID: knownID, Name: "User1"}, nil).Once()
	user, err := svc.Get(ctx, knownID)
	require.NoError(t, err)
	assert.Equal(t, "User1", user.Name)

	repo.On("GetByID", mock.Anything, knownID).Return(&models.User{ID: knownID, IsDeleted: true}, nil).Once()
	_, err = svc.Get(ctx, knownID)
	assertKind(t, err, services.KindUserNotFound)

	repo.On("GetByID", mock.Anything, knownID).Return(nil, repositories.ErrUserNotFound).Once()
	_, err = svc.Get(ctx, knownID)
	assertKind(t, err, services.KindUserNotFound)

	repo.On("GetByID", mock.Anything, knownID).Return(nil, errors.New("db down")).Once()
	_, err = svc.Get(ctx, knownID)
	assertKind(t, err, services.KindStoreFailure)
}

func TestUserService_List(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newUserService(repo, nil, false)
	filter := repositories.UserFilter{NameLike: "doe"}

	repo.On("List", mock.Anything, filter).Return([]models.User{
		{ID: "a", Name: "John Doe", PasswordHash: "secret"},
		{ID: "b", Name: "Jane Doe", PasswordHash: "secret"},
	}, nil).Once()

	users, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "John Doe", users[0].Name)

	repo.On("List", mock.Anything, filter).Return(nil, errors.New("db down")).Once()
	_, err = svc.List(context.Background(), filter)
	assertKind(t, err, services.KindStoreFailure)
}

func TestUserService_UpdateAndDelete(t *testing.T) {
	repo := new(MockUserRepository)
	publisher := new(MockPublisher)
	svc := newUserService(repo, publisher, false)
	ctx := context.Background()

	name := "Renamed"
	changes := repositories.UserChanges{Name: &name}
	repo.On("Update", mock.Anything, knownID, changes).
		Return(&models.User{ID: knownID, Name: name, DateOfJoining: time.Now()}, nil).Once()
	publisher.On("Publish", services.EventsExchange, services.EventUserUpdated, mock.Anything).Return(nil).Once()

	updated, err := svc.Update(ctx, knownID, changes)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	repo.On("Update", mock.Anything, knownID, changes).Return(nil, repositories.ErrUserNotFound).Once()
	_, err = svc.Update(ctx, knownID, changes)
	assertKind(t, err, services.KindUserNotFound)

	repo.On("Update", mock.Anything, knownID, changes).Return(nil, errors.New("db down")).Once()
	_, err = svc.Update(ctx, knownID, changes)
	assertKind(t, err, services.KindUpdateFailed)

	repo.On("SoftDelete", mock.Anything, knownID).Return(nil).Once()
	publisher.On("Publish", services.EventsExchange, services.EventUserDeleted, mock.Anything).
		Return(errors.New("broker down")).Once()
	assert.NoError(t, svc.Delete(ctx, knownID), "publish failures must not fail the request")

	repo.On("SoftDelete", mock.Anything, knownID).Return(repositories.ErrUserNotFound).Once()
	assertKind(t, svc.Delete(ctx, knownID), services.KindUserNotFound)

	assertKind(t, svc.Delete(ctx, "bad id"), services.KindInvalidField)

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUserService_ChangePassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newUserService(repo, nil, false)
	ctx := context.Background()

	assertKind(t, svc.ChangePassword(ctx, knownID, ""), services.KindMissingField)

	var hash string
	repo.On("SetPassword", mock.Anything, knownID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { hash = args.String(2) }).
		Return(nil).Once()
	require.NoError(t, svc.ChangePassword(ctx, knownID, "n3w-pass"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("n3w-pass")))

	repo.On("SetPassword", mock.Anything, knownID, mock.AnythingOfType("string")).
		Return(repositories.ErrUserNotFound).Once()
	assertKind(t, svc.ChangePassword(ctx, knownID, "n3w-pass"), services.KindUserNotFound)
}
