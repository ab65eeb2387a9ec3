package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"usersapi/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.DateOfJoining.IsZero() {
		user.DateOfJoining = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create user %s: %w", user.Email, ErrEmailExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// List retrieves the users that are not deleted and match the filter.
func (r *GORMUserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := r.db.WithContext(ctx).Where("is_deleted = ?", false)

	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.NameLike != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.NameLike)) + "%"
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	} else if len(filter.Names) > 0 {
		query = query.Where("name IN ?", filter.Names)
	}
	if len(filter.Emails) > 0 {
		emails := make([]string, len(filter.Emails))
		for i, e := range filter.Emails {
			emails[i] = models.NormalizeEmail(e)
		}
		query = query.Where("email IN ?", emails)
	}
	if len(filter.Mobiles) > 0 {
		query = query.Where("mobile IN ?", filter.Mobiles)
	}
	if filter.Paginate {
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		query = query.Offset(filter.Skip)
	}

	var users []models.User
	if err := query.Order("date_of_joining ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update applies changes to a user that is not deleted and returns the result.
func (r *GORMUserRepository) Update(ctx context.Context, id string, changes UserChanges) (*models.User, error) {
	updates := map[string]interface{}{}
	if changes.Name != nil {
		updates["name"] = strings.TrimSpace(*changes.Name)
	}
	if changes.Mobile != nil {
		updates["mobile"] = *changes.Mobile
	}
	if changes.DateOfBirth != nil {
		updates["date_of_birth"] = changes.DateOfBirth.UTC()
	}

	if len(updates) > 0 {
		if err := r.updateActive(ctx, id, updates); err != nil {
			return nil, err
		}
	}

	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
	}
	return user, nil
}

// SetPassword replaces the stored password hash.
func (r *GORMUserRepository) SetPassword(ctx context.Context, id string, passwordHash string) error {
	return r.updateActive(ctx, id, map[string]interface{}{"password": passwordHash})
}

// SoftDelete flags a user as deleted. The row is kept.
func (r *GORMUserRepository) SoftDelete(ctx context.Context, id string) error {
	return r.updateActive(ctx, id, map[string]interface{}{"is_deleted": true})
}

func (r *GORMUserRepository) updateActive(ctx context.Context, id string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
