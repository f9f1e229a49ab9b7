package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

type PortfolioService struct {
	portfolios ports.PortfolioRepository
	users      ports.UserRepository
	logger     zerolog.Logger
}

func NewPortfolioService(portfolios ports.PortfolioRepository, users ports.UserRepository, logger zerolog.Logger) *PortfolioService {
	return &PortfolioService{portfolios: portfolios, users: users, logger: logger}
}

func (s *PortfolioService) Create(ctx context.Context, owner *domain.User, in ports.PortfolioInput) (*domain.Portfolio, error) {
	p := &domain.Portfolio{UserID: owner.ID}
	if in.Title == nil {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if _, err := applyPortfolioInput(p, in); err != nil {
		return nil, err
	}

	created, err := s.portfolios.Create(ctx, p)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", owner.ID).Msg("failed to create portfolio")
		return nil, err
	}
	return created, nil
}

func (s *PortfolioService) ListMine(ctx context.Context, owner *domain.User) ([]*domain.Portfolio, error) {
	return s.portfolios.ListByUser(ctx, owner.ID)
}

func (s *PortfolioService) ListAll(ctx context.Context) ([]ports.PortfolioDetail, error) {
	items, err := s.portfolios.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.withOwners(ctx, items)
}

// ListByUser returns every portfolio of userID; an unknown user is
// domain.ErrUserNotFound rather than an empty list.
func (s *PortfolioService) ListByUser(ctx context.Context, userID string) ([]ports.PortfolioDetail, error) {
	owner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.portfolios.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ports.PortfolioDetail, 0, len(items))
	for _, p := range items {
		out = append(out, ports.PortfolioDetail{Portfolio: p, Owner: ownerSummary(owner)})
	}
	return out, nil
}

func (s *PortfolioService) Get(ctx context.Context, id string) (*ports.PortfolioDetail, error) {
	p, err := s.portfolios.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, err
	}
	return &ports.PortfolioDetail{Portfolio: p, Owner: ownerSummary(owner)}, nil
}

func (s *PortfolioService) Update(ctx context.Context, owner *domain.User, id string, in ports.PortfolioInput) (*domain.Portfolio, error) {
	p, err := s.owned(ctx, owner, id)
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

func (s *PortfolioService) Delete(ctx context.Context, owner *domain.User, id string) error {
	p, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}
	return s.portfolios.Delete(ctx, p.ID)
}

// owned hides other users' portfolios behind domain.ErrPortfolioNotFound.
func (s *PortfolioService) owned(ctx context.Context, owner *domain.User, id string) (*domain.Portfolio, error) {
	p, err := s.portfolios.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != owner.ID {
		return nil, domain.ErrPortfolioNotFound
	}
	return p, nil
}

// withOwners attaches an owner summary to every portfolio, loading each
// owner once. Rows whose owner has vanished are skipped.
func (s *PortfolioService) withOwners(ctx context.Context, items []*domain.Portfolio) ([]ports.PortfolioDetail, error) {
	owners := make(map[string]*domain.User)
	out := make([]ports.PortfolioDetail, 0, len(items))
	for _, p := range items {
		owner, ok := owners[p.UserID]
		if !ok {
			u, err := s.users.FindByID(ctx, p.UserID)
			if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
				return nil, err
			}
			owners[p.UserID] = u
			owner = u
		}
		if owner == nil {
			s.logger.Warn().Str("portfolio_id", p.ID).Str("user_id", p.UserID).Msg("portfolio without owner")
			continue
		}
		out = append(out, ports.PortfolioDetail{Portfolio: p, Owner: ownerSummary(owner)})
	}
	return out, nil
}

func ownerSummary(u *domain.User) ports.OwnerSummary {
	return ports.OwnerSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}

// applyPortfolioInput copies the non-nil fields of in onto p and reports
// whether anything changed. A provided title must not be blank.
func applyPortfolioInput(p *domain.Portfolio, in ports.PortfolioInput) (bool, error) {
	changed := false
	set := func(dst *string, src *string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if v != *dst {
			*dst = v
			changed = true
		}
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return false, fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
	}
	set(&p.Title, in.Title)
	set(&p.Description, in.Description)
	set(&p.Detail, in.Detail)
	set(&p.Link, in.Link)
	return changed, nil
}
