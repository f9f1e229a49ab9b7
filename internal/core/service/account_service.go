package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/thanhpk/randstr"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// AccountService implements registration, email verification, login,
// password management, profile updates and self-service deletion.
type AccountService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenCodec
	sessions ports.SessionIssuer
	mail     mailer
	logger   zerolog.Logger

	// newNonce returns the single-use value bound into verification links.
	newNonce func() string
}

func NewAccountService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	sessions ports.SessionIssuer,
	dispatcher ports.NotificationDispatcher,
	opts MailOptions,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		mail:     newMailer(dispatcher, opts),
		logger:   logger,
		newNonce: func() string { return randstr.Hex(16) },
	}
}

// Register creates an unverified user and sends the first verification link.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	u, err := newUserRecord(ctx, s.users, s.hasher, in)
	if err != nil {
		return nil, err
	}
	u.EmailVerifyToken = s.newNonce()

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(domain.EmailVerifyClaims{UserID: created.ID, Nonce: created.EmailVerifyToken})
	if err != nil {
		return nil, fmt.Errorf("issue verification token: %w", err)
	}
	s.mail.verifyEmail(created, token, false)

	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// VerifyEmail consumes a verification link. Only the link carrying the nonce
// currently stored on the user is accepted; re-verifying is a no-op.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (*ports.VerifyResult, error) {
	claims, err := s.tokens.Decode(token, domain.TokenEmailVerify)
	if err != nil {
		return nil, err
	}
	vc, ok := claims.(domain.EmailVerifyClaims)
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByID(ctx, vc.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return &ports.VerifyResult{AlreadyVerified: true}, nil
	}

	if user.EmailVerifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(vc.Nonce), []byte(user.EmailVerifyToken)) != 1 {
		return nil, domain.ErrVerificationLinkInvalid
	}

	user.IsVerified = true
	user.EmailVerifyToken = ""
	if _, err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("email verified")
	return &ports.VerifyResult{}, nil
}

// Login authenticates by username or email. An unverified account gets a
// fresh verification link, which orphans every earlier one, and
// domain.ErrEmailNotVerified instead of a session.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsVerified {
		if err := s.restartVerification(ctx, user, true); err != nil {
			return nil, err
		}
		return nil, domain.ErrEmailNotVerified
	}

	token, err := s.sessions.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &ports.LoginResult{AccessToken: token, User: user}, nil
}

// restartVerification stores a new nonce and mails a link bound to it.
func (s *AccountService) restartVerification(ctx context.Context, user *domain.User, resend bool) error {
	user.EmailVerifyToken = s.newNonce()
	saved, err := s.users.Update(ctx, user)
	if err != nil {
		return err
	}
	token, err := s.tokens.Issue(domain.EmailVerifyClaims{UserID: saved.ID, Nonce: saved.EmailVerifyToken})
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}
	s.mail.verifyEmail(saved, token, resend)
	return nil
}

// ForgotPassword mails a password reset link to a registered address.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	token, err := s.tokens.Issue(domain.PasswordResetClaims{UserID: user.ID})
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	s.mail.passwordReset(user, token)
	return nil
}

// ResetPassword overwrites the password of the user named by a reset token.
// A reset token stays usable until it expires, even after a successful reset.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	claims, err := s.tokens.Decode(token, domain.TokenPasswordReset)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, claims.Subject())
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if _, err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset")
	s.mail.passwordChanged(user)
	return nil
}

// ChangePassword requires the current password and a different new one.
func (s *AccountService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	if s.hasher.Verify(newPassword, user.PasswordHash) {
		return domain.ErrPasswordUnchanged
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if _, err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password changed")
	s.mail.passwordChanged(user)
	return nil
}

// UpdateProfile applies the non-empty fields of in. A new email address
// clears the verified flag and starts a verification cycle for it.
func (s *AccountService) UpdateProfile(ctx context.Context, user *domain.User, in ports.UpdateProfileInput) (*ports.UpdateProfileResult, error) {
	next := *user
	var changed, identityChanged, emailChanged bool

	if v := strings.TrimSpace(in.FirstName); v != "" && v != user.FirstName {
		next.FirstName = v
		changed = true
	}
	if v := strings.TrimSpace(in.LastName); v != "" && v != user.LastName {
		next.LastName = v
		changed = true
	}
	if v := strings.TrimSpace(in.Username); v != "" && v != user.Username {
		if err := ensureUsernameFree(ctx, s.users, v, user.ID); err != nil {
			return nil, err
		}
		next.Username = v
		changed, identityChanged = true, true
	}
	if v := domain.NormalizeEmail(in.Email); v != "" && v != user.Email {
		if err := ensureEmailFree(ctx, s.users, v, user.ID); err != nil {
			return nil, err
		}
		next.Email = v
		next.IsVerified = false
		next.EmailVerifyToken = s.newNonce()
		changed, identityChanged, emailChanged = true, true, true
	}

	if !changed {
		return nil, domain.ErrNothingToUpdate
	}

	saved, err := s.users.Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	if emailChanged {
		token, err := s.tokens.Issue(domain.EmailVerifyClaims{UserID: saved.ID, Nonce: saved.EmailVerifyToken})
		if err != nil {
			return nil, fmt.Errorf("issue verification token: %w", err)
		}
		s.mail.verifyEmail(saved, token, false)
	}

	return &ports.UpdateProfileResult{
		User:           saved,
		EmailChanged:   emailChanged,
		LogoutRequired: identityChanged,
	}, nil
}

// RequestDeletion mails a link that confirms the deletion of user's account.
func (s *AccountService) RequestDeletion(_ context.Context, user *domain.User) error {
	token, err := s.tokens.Issue(domain.AccountDeleteClaims{UserID: user.ID})
	if err != nil {
		return fmt.Errorf("issue delete token: %w", err)
	}
	s.mail.deleteRequested(user, token)
	return nil
}

// ConfirmDeletion removes the user named by the token together with all of
// their portfolios. The goodbye message is best effort.
func (s *AccountService) ConfirmDeletion(ctx context.Context, token string) error {
	claims, err := s.tokens.Decode(token, domain.TokenAccountDelete)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, claims.Subject())
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("account deleted")
	s.mail.accountDeleted(user)
	return nil
}
