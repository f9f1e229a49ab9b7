package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models an account holder. EmailVerifyToken holds the single-use nonce
// of the verification link currently in flight; it is empty otherwise.
type User struct {
	ID               string
	FirstName        string
	LastName         string
	Username         string
	Email            string
	PasswordHash     string
	IsAdmin          bool
	IsVerified       bool
	EmailVerifyToken string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Role maps the admin flag onto the role names used by route guards.
func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// NormalizeEmail lower-cases and trims an address. Emails are stored in this
// form so uniqueness and lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameKey is the case-folded form used for username uniqueness.
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
