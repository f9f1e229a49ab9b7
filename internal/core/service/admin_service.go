package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// AdminService manages users and portfolios without ownership checks. Route
// guards are responsible for restricting it to administrators.
type AdminService struct {
	users      ports.UserRepository
	portfolios ports.PortfolioRepository
	hasher     ports.PasswordHasher
	logger     zerolog.Logger
}

func NewAdminService(users ports.UserRepository, portfolios ports.PortfolioRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *AdminService {
	return &AdminService{users: users, portfolios: portfolios, hasher: hasher, logger: logger}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// CreateUser creates an account directly; no verification link is sent. An
// account created unverified receives one on its first login attempt.
func (s *AdminService) CreateUser(ctx context.Context, in ports.AdminCreateUserInput) (*domain.User, error) {
	u, err := newUserRecord(ctx, s.users, s.hasher, in.RegisterInput)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = in.IsAdmin
	u.IsVerified = in.IsVerified

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", created.ID).Bool("is_admin", created.IsAdmin).Msg("user created by admin")
	return created, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, id string, in ports.AdminUpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if in.FirstName != nil {
		if v := strings.TrimSpace(*in.FirstName); v != "" && v != user.FirstName {
			user.FirstName = v
			changed = true
		}
	}
	if in.LastName != nil {
		if v := strings.TrimSpace(*in.LastName); v != "" && v != user.LastName {
			user.LastName = v
			changed = true
		}
	}
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		if v == "" {
			return nil, fmt.Errorf("%w: username must not be empty", domain.ErrValidation)
		}
		if v != user.Username {
			if err := ensureUsernameFree(ctx, s.users, v, user.ID); err != nil {
				return nil, err
			}
			user.Username = v
			changed = true
		}
	}
	if in.Email != nil {
		v := domain.NormalizeEmail(*in.Email)
		if v == "" {
			return nil, fmt.Errorf("%w: email must not be empty", domain.ErrValidation)
		}
		if v != user.Email {
			if err := ensureEmailFree(ctx, s.users, v, user.ID); err != nil {
				return nil, err
			}
			user.Email = v
			changed = true
		}
	}
	if in.IsAdmin != nil && *in.IsAdmin != user.IsAdmin {
		user.IsAdmin = *in.IsAdmin
		changed = true
	}
	if in.IsVerified != nil && *in.IsVerified != user.IsVerified {
		user.IsVerified = *in.IsVerified
		if user.IsVerified {
			user.EmailVerifyToken = ""
		}
		changed = true
	}

	if !changed {
		return nil, domain.ErrNothingToUpdate
	}
	return s.users.Update(ctx, user)
}

// DeleteUser removes a user and every portfolio they own.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted by admin")
	return nil
}

func (s *AdminService) ListUserPortfolios(ctx context.Context, userID string) ([]*domain.Portfolio, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.portfolios.ListByUser(ctx, userID)
}

func (s *AdminService) UpdatePortfolio(ctx context.Context, id string, in ports.PortfolioInput) (*domain.Portfolio, error) {
	p, err := s.portfolios.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := applyPortfolioInput(p, in)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.ErrNothingToUpdate
	}
	return s.portfolios.Update(ctx, p)
}

func (s *AdminService) DeletePortfolio(ctx context.Context, id string) error {
	if _, err := s.portfolios.FindByID(ctx, id); err != nil {
		return err
	}
	return s.portfolios.Delete(ctx, id)
}
