package ports

import (
	"context"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

// PortfolioInput carries the portfolio form. On update, nil fields are left
// untouched.
type PortfolioInput struct {
	Title       *string
	Description *string
	Detail      *string
	Link        *string
}

// OwnerSummary is the public view of a portfolio owner.
type OwnerSummary struct {
	ID       string
	Username string
	Email    string
}

// PortfolioDetail is a portfolio together with its owner.
type PortfolioDetail struct {
	Portfolio *domain.Portfolio
	Owner     OwnerSummary
}

// PortfolioService defines owner-scoped and public portfolio use cases.
type PortfolioService interface {
	Create(ctx context.Context, owner *domain.User, in PortfolioInput) (*domain.Portfolio, error)
	ListMine(ctx context.Context, owner *domain.User) ([]*domain.Portfolio, error)
	ListAll(ctx context.Context) ([]PortfolioDetail, error)
	ListByUser(ctx context.Context, userID string) ([]PortfolioDetail, error)
	Get(ctx context.Context, id string) (*PortfolioDetail, error)
	// Update and Delete only see the owner's rows; anything else is
	// domain.ErrPortfolioNotFound.
	Update(ctx context.Context, owner *domain.User, id string, in PortfolioInput) (*domain.Portfolio, error)
	Delete(ctx context.Context, owner *domain.User, id string) error
}
