package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents an account. The password hash and the account flags are
// never serialized; use ToClient to build the view returned to callers.
type User struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name            string     `json:"name" gorm:"type:varchar(50);not null"`
	Email           string     `json:"email" gorm:"uniqueIndex;type:varchar(100);not null"`
	Mobile          *string    `json:"mobile,omitempty" gorm:"type:varchar(15)"`
	PasswordHash    string     `json:"-" gorm:"column:password;type:varchar(255);not null"`
	DateOfJoining   time.Time  `json:"dateOfJoining" gorm:"not null"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	IsDeleted       bool       `json:"-" gorm:"not null;default:false;index"`
	IsAdmin         bool       `json:"-" gorm:"not null;default:false"`
	IsEmailVerified bool       `json:"-" gorm:"not null;default:false"`
	CreatedAt       time.Time  `json:"-"`
	UpdatedAt       time.Time  `json:"-"`
}

// BeforeCreate normalizes the fields the store compares on.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	u.Name = strings.TrimSpace(u.Name)
	return nil
}

// NormalizeEmail is the canonical stored form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ClientUser is the client-safe projection of a User.
type ClientUser struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Mobile        *string    `json:"mobile"`
	DateOfBirth   *time.Time `json:"dateOfBirth"`
	DateOfJoining time.Time  `json:"dateOfJoining"`
	Age           *int       `json:"age"`
}

// ToClient strips the hidden fields and computes the derived age.
func (u *User) ToClient() ClientUser {
	return ClientUser{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Mobile:        u.Mobile,
		DateOfBirth:   u.DateOfBirth,
		DateOfJoining: u.DateOfJoining,
		Age:           AgeAt(u.DateOfBirth, time.Now()),
	}
}

// AgeAt returns the number of whole years between dob and now, both in UTC.
// It returns nil when dob is unset.
func AgeAt(dob *time.Time, now time.Time) *int {
	if dob == nil || dob.IsZero() {
		return nil
	}
	born := dob.UTC()
	now = now.UTC()

	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	return &years
}
