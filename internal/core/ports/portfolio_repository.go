package ports

import (
	"context"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

// PortfolioRepository defines persistence operations for portfolios.
type PortfolioRepository interface {
	Create(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error)
	FindByID(ctx context.Context, id string) (*domain.Portfolio, error)
	List(ctx context.Context) ([]*domain.Portfolio, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Portfolio, error)
	Update(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error)
	Delete(ctx context.Context, id string) error
}
