package repositories

import (
	"context"
	"errors"
	"time"

	"usersapi/internal/models"
)

var (
	// ErrUserNotFound is returned when no active user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when an insert collides with a stored email.
	ErrEmailExists = errors.New("email already exists")
)

// UserFilter narrows a user listing. Empty fields do not filter.
type UserFilter struct {
	IDs      []string
	Names []string
	// NameLike, when set, replaces Names with a case-insensitive substring match.
	NameLike string
	Emails   []string
	Mobiles  []string
	// Limit and Skip are applied only when Paginate is set.
	Paginate bool
	Limit    int
	Skip     int
}

// UserChanges holds the fields an update may touch. Nil fields are left as is.
type UserChanges struct {
	Name        *string
	Mobile      *string
	DateOfBirth *time.Time
}

// IsEmpty reports whether the changes would update nothing.
func (c UserChanges) IsEmpty() bool {
	return c.Name == nil && c.Mobile == nil && c.DateOfBirth == nil
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetByEmail matches the email exactly and returns the full record,
	// including the password hash and account flags.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	// Update, SetPassword and SoftDelete only match users that are not deleted.
	Update(ctx context.Context, id string, changes UserChanges) (*models.User, error)
	SetPassword(ctx context.Context, id string, passwordHash string) error
	SoftDelete(ctx context.Context, id string) error
}
