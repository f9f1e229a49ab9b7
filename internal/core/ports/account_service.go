package ports

import (
	"context"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

// RegisterInput carries the self-service registration form.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	AccessToken string
	User        *domain.User
}

// VerifyResult reports whether verification changed anything.
type VerifyResult struct {
	AlreadyVerified bool
}

// UpdateProfileInput holds the optional profile fields; empty strings are
// left untouched.
type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
}

// UpdateProfileResult describes the outcome of a profile update.
// LogoutRequired is set when an identity field changed, which invalidates
// every access token issued before the update.
type UpdateProfileResult struct {
	User           *domain.User
	EmailChanged   bool
	LogoutRequired bool
}

// AccountService drives the account lifecycle.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*VerifyResult, error)
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error
	UpdateProfile(ctx context.Context, user *domain.User, in UpdateProfileInput) (*UpdateProfileResult, error)
	RequestDeletion(ctx context.Context, user *domain.User) error
	ConfirmDeletion(ctx context.Context, token string) error
}
