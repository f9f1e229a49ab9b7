package service

import (
	"context"
	"errors"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// SessionService issues access tokens and resolves them back to users.
type SessionService struct {
	users  ports.UserRepository
	tokens ports.TokenCodec
}

func NewSessionService(users ports.UserRepository, tokens ports.TokenCodec) *SessionService {
	return &SessionService{users: users, tokens: tokens}
}

// IssueAccess mints an access token carrying a snapshot of the user's email
// and username.
func (s *SessionService) IssueAccess(user *domain.User) (string, error) {
	return s.tokens.Issue(domain.AccessClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
}

// Authenticate accepts an access token only while the identity it was issued
// against still matches the stored user. Changing email or username therefore
// logs out every earlier session.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Decode(token, domain.TokenAccess)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	ac, ok := claims.(domain.AccessClaims)
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByID(ctx, ac.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Email != ac.Email || user.Username != ac.Username {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
