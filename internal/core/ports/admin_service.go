package ports

import (
	"context"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

// AdminCreateUserInput is the admin-side account form.
type AdminCreateUserInput struct {
	RegisterInput
	IsAdmin    bool
	IsVerified bool
}

// AdminUpdateUserInput holds optional fields; nil means unchanged.
type AdminUpdateUserInput struct {
	FirstName  *string
	LastName   *string
	Username   *string
	Email      *string
	IsAdmin    *bool
	IsVerified *bool
}

// AdminService manages every user and portfolio regardless of ownership.
type AdminService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CreateUser(ctx context.Context, in AdminCreateUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in AdminUpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUserPortfolios(ctx context.Context, userID string) ([]*domain.Portfolio, error)
	UpdatePortfolio(ctx context.Context, id string, in PortfolioInput) (*domain.Portfolio, error)
	DeletePortfolio(ctx context.Context, id string) error
}
