package models

import "github.com/dgrijalva/jwt-go"

// RefreshTokenType marks a refresh token. Tokens without a type are access tokens.
const RefreshTokenType = "refresh"

// Claims is the payload carried by access and refresh tokens.
type Claims struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Type    string `json:"type,omitempty"`
	jwt.StandardClaims
}

// IsRefresh reports whether the claims belong to a refresh token.
func (c *Claims) IsRefresh() bool {
	return c.Type == RefreshTokenType
}
