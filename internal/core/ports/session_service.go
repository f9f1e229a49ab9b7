package ports

import (
	"context"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

// Authenticator resolves a bearer token to the live user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// SessionIssuer mints access tokens and authenticates them.
type SessionIssuer interface {
	Authenticator
	IssueAccess(user *domain.User) (string, error)
}
