package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

const (
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes, so longer input is refused.
	maxPasswordLen = 72
)

func validatePassword(p string) error {
	if len(p) < minPasswordLen || len(p) > maxPasswordLen {
		return fmt.Errorf("%w: password must be between %d and %d characters", domain.ErrValidation, minPasswordLen, maxPasswordLen)
	}
	return nil
}

// ensureUsernameFree returns domain.ErrUsernameTaken when another user already
// holds username (case-insensitively). selfID is ignored in the comparison.
func ensureUsernameFree(ctx context.Context, users ports.UserRepository, username, selfID string) error {
	existing, err := users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return domain.ErrUsernameTaken
	}
	return nil
}

func ensureEmailFree(ctx context.Context, users ports.UserRepository, email, selfID string) error {
	existing, err := users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return domain.ErrEmailTaken
	}
	return nil
}

// newUserRecord validates a registration form, checks uniqueness and hashes
// the password. The returned user is not persisted.
func newUserRecord(ctx context.Context, users ports.UserRepository, hasher ports.PasswordHasher, in ports.RegisterInput) (*domain.User, error) {
	u := &domain.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Username:  strings.TrimSpace(in.Username),
		Email:     domain.NormalizeEmail(in.Email),
	}
	if u.Username == "" || u.Email == "" {
		return nil, fmt.Errorf("%w: username and email are required", domain.ErrValidation)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	if err := ensureUsernameFree(ctx, users, u.Username, ""); err != nil {
		return nil, err
	}
	if err := ensureEmailFree(ctx, users, u.Email, ""); err != nil {
		return nil, err
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	return u, nil
}
