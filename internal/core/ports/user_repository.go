package ports

import (
	"context"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

// UserRepository defines persistence operations for users.
// Username and email lookups are case-insensitive.
type UserRepository interface {
	// Create inserts a user and returns it with its id and timestamps set.
	// Unique violations surface as domain.ErrUsernameTaken or domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByLogin matches identifier against username or email.
	FindByLogin(ctx context.Context, identifier string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Update persists every mutable field of user and refreshes UpdatedAt.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	// Delete removes the user's portfolios and then the user.
	Delete(ctx context.Context, id string) error
}
