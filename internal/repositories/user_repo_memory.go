package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"usersapi/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users   map[string]models.User
	byEmail map[string]string
	mu      sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

// Create adds a new user.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = models.NormalizeEmail(user.Email)
	user.Name = strings.TrimSpace(user.Name)
	if _, taken := r.byEmail[user.Email]; taken {
		return fmt.Errorf("failed to create user %s: %w", user.Email, ErrEmailExists)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.DateOfJoining.IsZero() {
		user.DateOfJoining = now
	}
	user.CreatedAt, user.UpdatedAt = now, now

	r.users[user.ID] = cloneUser(*user)
	r.byEmail[user.Email] = user.ID
	return nil
}

// cloneUser copies u including the values behind its pointer fields, so
// records never share memory with callers.
func cloneUser(u models.User) models.User {
	if u.Mobile != nil {
		mobile := *u.Mobile
		u.Mobile = &mobile
	}
	if u.DateOfBirth != nil {
		dob := *u.DateOfBirth
		u.DateOfBirth = &dob
	}
	return u
}

// GetByEmail returns a user by exact email.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", email, ErrUserNotFound)
	}
	user := cloneUser(r.users[id])
	return &user, nil
}

// GetByID returns a user by its ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
	}
	user = cloneUser(user)
	return &user, nil
}

// List returns the users that are not deleted and match the filter.
func (r *MemoryUserRepository) List(_ context.Context, filter UserFilter) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		if u.IsDeleted || !matches(u, filter) {
			continue
		}
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].DateOfJoining.Equal(users[j].DateOfJoining) {
			return users[i].ID < users[j].ID
		}
		return users[i].DateOfJoining.Before(users[j].DateOfJoining)
	})

	if filter.Paginate {
		if filter.Skip >= len(users) {
			return []models.User{}, nil
		}
		users = users[filter.Skip:]
		if filter.Limit > 0 && filter.Limit < len(users) {
			users = users[:filter.Limit]
		}
	}
	return users, nil
}

// Update modifies an existing user.
func (r *MemoryUserRepository) Update(_ context.Context, id string, changes UserChanges) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.IsDeleted {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
	}
	if changes.Name != nil {
		user.Name = strings.TrimSpace(*changes.Name)
	}
	if changes.Mobile != nil {
		mobile := *changes.Mobile
		user.Mobile = &mobile
	}
	if changes.DateOfBirth != nil {
		dob := changes.DateOfBirth.UTC()
		user.DateOfBirth = &dob
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	user = cloneUser(user)
	return &user, nil
}

// SetPassword replaces the stored password hash.
func (r *MemoryUserRepository) SetPassword(_ context.Context, id string, passwordHash string) error {
	return r.mutateActive(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

// SoftDelete flags a user as deleted.
func (r *MemoryUserRepository) SoftDelete(_ context.Context, id string) error {
	return r.mutateActive(id, func(u *models.User) { u.IsDeleted = true })
}

func (r *MemoryUserRepository) mutateActive(id string, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.IsDeleted {
		return fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
	}
	fn(&user)
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func matches(u models.User, f UserFilter) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, u.ID, false) {
		return false
	}
	if f.NameLike != "" {
		if !strings.Contains(strings.ToLower(u.Name), strings.ToLower(f.NameLike)) {
			return false
		}
	} else if len(f.Names) > 0 && !contains(f.Names, u.Name, false) {
		return false
	}
	if len(f.Emails) > 0 && !contains(f.Emails, u.Email, true) {
		return false
	}
	if len(f.Mobiles) > 0 && (u.Mobile == nil || !contains(f.Mobiles, *u.Mobile, false)) {
		return false
	}
	return true
}

func contains(values []string, v string, email bool) bool {
	for _, candidate := range values {
		if email {
			candidate = models.NormalizeEmail(candidate)
		}
		if candidate == v {
			return true
		}
	}
	return false
}
