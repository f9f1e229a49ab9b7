package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

func registerAlice(t *testing.T, f *fixture) *domain.User {
	t.Helper()
	u, err := f.accounts.Register(context.Background(), ports.RegisterInput{
		FirstName: "Alice",
		LastName:  "Smith",
		Username:  "alice",
		Email:     "Alice@Example.com",
		Password:  "secret123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return u
}

func TestAccountService_Register_CreatesUnverifiedUserAndSendsLink(t *testing.T) {
	f := newFixture(t)
	u := registerAlice(t, f)

	if u.IsVerified {
		t.Fatalf("expected new user to be unverified")
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if u.EmailVerifyToken != "nonce-1" {
		t.Fatalf("expected stored nonce, got %q", u.EmailVerifyToken)
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret123" {
		t.Fatalf("expected hashed password")
	}

	n := f.mail.last(t)
	if n.Kind != domain.NotifyEmailVerification || n.To != "alice@example.com" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if !strings.Contains(n.Body, "https://app.example.com/verify-email?token=") {
		t.Fatalf("expected verification link in body, got %q", n.Body)
	}
	if !strings.HasPrefix(n.Subject, "PortfolioApp - ") {
		t.Fatalf("expected app name in subject, got %q", n.Subject)
	}

	claims, err := f.codec.Decode(linkToken(t, n), domain.TokenEmailVerify)
	if err != nil {
		t.Fatalf("decode link token: %v", err)
	}
	vc := claims.(domain.EmailVerifyClaims)
	if vc.UserID != u.ID || vc.Nonce != "nonce-1" {
		t.Fatalf("unexpected claims: %+v", vc)
	}
}

func TestAccountService_Register_Conflicts(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)

	cases := []struct {
		name string
		in   ports.RegisterInput
		want error
	}{
		{"username differs only in case", ports.RegisterInput{Username: "ALICE", Email: "other@example.com", Password: "secret123"}, domain.ErrUsernameTaken},
		{"email differs only in case", ports.RegisterInput{Username: "bob", Email: "ALICE@example.com", Password: "secret123"}, domain.ErrEmailTaken},
		{"short password", ports.RegisterInput{Username: "bob", Email: "bob@example.com", Password: "123"}, domain.ErrValidation},
		{"long password", ports.RegisterInput{Username: "bob", Email: "bob@example.com", Password: strings.Repeat("x", 73)}, domain.ErrValidation},
		{"missing username", ports.RegisterInput{Email: "bob@example.com", Password: "secret123"}, domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.accounts.Register(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAccountService_VerifyEmail_ThenNoop(t *testing.T) {
	f := newFixture(t)
	u := registerAlice(t, f)
	tok := linkToken(t, f.mail.last(t))

	res, err := f.accounts.VerifyEmail(context.Background(), tok)
	if err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}
	if res.AlreadyVerified {
		t.Fatalf("first verification must not report AlreadyVerified")
	}

	stored, _ := f.users.FindByID(context.Background(), u.ID)
	if !stored.IsVerified || stored.EmailVerifyToken != "" {
		t.Fatalf("expected verified user with cleared nonce, got %+v", stored)
	}

	res, err = f.accounts.VerifyEmail(context.Background(), tok)
	if err != nil {
		t.Fatalf("re-verify returned error: %v", err)
	}
	if !res.AlreadyVerified {
		t.Fatalf("expected AlreadyVerified on second call")
	}
}

func TestAccountService_VerifyEmail_RejectsStaleNonce(t *testing.T) {
	f := newFixture(t)
	u := registerAlice(t, f)
	tok := linkToken(t, f.mail.last(t))

	f.store.users[u.ID].EmailVerifyToken = "something-else"

	if _, err := f.accounts.VerifyEmail(context.Background(), tok); !errors.Is(err, domain.ErrVerificationLinkInvalid) {
		t.Fatalf("expected ErrVerificationLinkInvalid, got %v", err)
	}

	f.store.users[u.ID].EmailVerifyToken = ""
	if _, err := f.accounts.VerifyEmail(context.Background(), tok); !errors.Is(err, domain.ErrVerificationLinkInvalid) {
		t.Fatalf("expected ErrVerificationLinkInvalid for cleared nonce, got %v", err)
	}
}

func TestAccountService_VerifyEmail_RejectsOtherTokenTypes(t *testing.T) {
	f := newFixture(t)
	u := registerAlice(t, f)

	reset, err := f.codec.Issue(domain.PasswordResetClaims{UserID: u.ID})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := f.accounts.VerifyEmail(context.Background(), reset); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.accounts.VerifyEmail(context.Background(), "garbage"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountService_VerifyEmail_UnknownUser(t *testing.T) {
	f := newFixture(t)
	tok, _ := f.codec.Issue(domain.EmailVerifyClaims{UserID: "missing", Nonce: "n"})

	if _, err := f.accounts.VerifyEmail(context.Background(), tok); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAccountService_Login_UnverifiedResendsAndOrphansOldLink(t *testing.T) {
	f := newFixture(t)
	u := registerAlice(t, f)
	oldTok := linkToken(t, f.mail.last(t))

	_, err := f.accounts.Login(context.Background(), "alice", "secret123")
	if !errors.Is(err, domain.ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	if f.mail.count() != 2 {
		t.Fatalf("expected a second verification mail, got %d", f.mail.count())
	}
	resent := f.mail.last(t)
	if !strings.Contains(resent.Subject, "resent") {
		t.Fatalf("expected resend subject, got %q", resent.Subject)
	}
	newTok := linkToken(t, resent)

	stored, _ := f.users.FindByID(context.Background(), u.ID)
	if stored.EmailVerifyToken != "nonce-2" {
		t.Fatalf("expected regenerated nonce, got %q", stored.EmailVerifyToken)
	}

	if _, err := f.accounts.VerifyEmail(context.Background(), oldTok); !errors.Is(err, domain.ErrVerificationLinkInvalid) {
		t.Fatalf("expected old link to be rejected, got %v", err)
	}
	if _, err := f.accounts.VerifyEmail(context.Background(), newTok); err != nil {
		t.Fatalf("expected new link to verify, got %v", err)
	}
}

func TestAccountService_Login_WrongPasswordDoesNotResend(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)

	if _, err := f.accounts.Login(context.Background(), "alice", "wrong-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if f.mail.count() != 1 {
		t.Fatalf("expected no resend on bad password, got %d mails", f.mail.count())
	}
}

func TestAccountService_Login_Verified(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "Bob", "bob@example.com", "secret123", true)

	for _, id := range []string{"Bob", "bob", "BOB@example.com", " bob@example.com "} {
		res, err := f.accounts.Login(context.Background(), id, "secret123")
		if err != nil {
			t.Fatalf("Login(%q) returned error: %v", id, err)
		}
		if res.User.ID != u.ID || res.AccessToken == "" {
			t.Fatalf("unexpected login result for %q: %+v", id, res)
		}
		got, err := f.sessions.Authenticate(context.Background(), res.AccessToken)
		if err != nil || got.ID != u.ID {
			t.Fatalf("expected access token to authenticate, got %v", err)
		}
	}
}

func TestAccountService_Login_UniformFailures(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "bob", "bob@example.com", "secret123", true)

	cases := map[string][2]string{
		"unknown user":   {"nobody", "secret123"},
		"wrong password": {"bob", "nope-nope"},
		"empty":          {"", ""},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.accounts.Login(context.Background(), c[0], c[1]); !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAccountService_ForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "bob", "bob@example.com", "secret123", true)

	if err := f.accounts.ForgotPassword(context.Background(), "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := f.accounts.ForgotPassword(context.Background(), "BOB@example.com"); err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	n := f.mail.last(t)
	if n.Kind != domain.NotifyPasswordReset || !strings.Contains(n.Body, "/reset-password?token=") {
		t.Fatalf("unexpected reset mail: %+v", n)
	}
	tok := linkToken(t, n)

	if err := f.accounts.ResetPassword(context.Background(), tok, "123"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for short password, got %v", err)
	}
	if err := f.accounts.ResetPassword(context.Background(), tok, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	if f.mail.last(t).Kind != domain.NotifyPasswordChanged {
		t.Fatalf("expected password changed notification")
	}

	if _, err := f.accounts.Login(context.Background(), "bob", "secret123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must fail, got %v", err)
	}
	if _, err := f.accounts.Login(context.Background(), "bob", "brand-new-pass"); err != nil {
		t.Fatalf("new password must succeed, got %v", err)
	}
}

func TestAccountService_ResetPassword_TokenChecks(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "bob", "bob@example.com", "secret123", true)

	verify, _ := f.codec.Issue(domain.EmailVerifyClaims{UserID: u.ID, Nonce: "n"})
	if err := f.accounts.ResetPassword(context.Background(), verify, "brand-new-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected wrong-type token to be rejected, got %v", err)
	}

	reset, _ := f.codec.Issue(domain.PasswordResetClaims{UserID: u.ID})
	f.clock.t = f.clock.t.Add(61 * time.Minute)
	if err := f.accounts.ResetPassword(context.Background(), reset, "brand-new-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestAccountService_ResetPassword_TokenReusableUntilExpiry(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "bob", "bob@example.com", "secret123", true)
	reset, _ := f.codec.Issue(domain.PasswordResetClaims{UserID: u.ID})

	if err := f.accounts.ResetPassword(context.Background(), reset, "first-pass"); err != nil {
		t.Fatalf("first reset: %v", err)
	}
	if err := f.accounts.ResetPassword(context.Background(), reset, "second-pass"); err != nil {
		t.Fatalf("second reset with same token: %v", err)
	}
}

func TestAccountService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "bob", "bob@example.com", "secret123", true)

	if err := f.accounts.ChangePassword(context.Background(), u, "wrong", "another-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := f.accounts.ChangePassword(context.Background(), u, "secret123", "secret123"); !errors.Is(err, domain.ErrPasswordUnchanged) {
		t.Fatalf("expected ErrPasswordUnchanged, got %v", err)
	}
	if err := f.accounts.ChangePassword(context.Background(), u, "secret123", "another-pass"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	stored, _ := f.users.FindByID(context.Background(), u.ID)
	if f.hasher.Verify("secret123", stored.PasswordHash) {
		t.Fatalf("old password still verifies")
	}
	if !f.hasher.Verify("another-pass", stored.PasswordHash) {
		t.Fatalf("new password does not verify")
	}
	if f.mail.last(t).Kind != domain.NotifyPasswordChanged {
		t.Fatalf("expected password changed notification")
	}
}

func TestAccountService_UpdateProfile_NamesKeepSession(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "bob", "bob@example.com", "secret123", true)
	tok, _ := f.sessions.IssueAccess(u)

	res, err := f.accounts.UpdateProfile(context.Background(), u, ports.UpdateProfileInput{FirstName: "Robert"})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if res.LogoutRequired || res.EmailChanged || res.User.FirstName != "Robert" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := f.sessions.Authenticate(context.Background(), tok); err != nil {
		t.Fatalf("name change must not invalidate session: %v", err)
	}
}

func TestAccountService_UpdateProfile_EmailChangeRestartsVerification(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "bob", "bob@example.com", "secret123", true)
	tok, _ := f.sessions.IssueAccess(u)

	res, err := f.accounts.UpdateProfile(context.Background(), u, ports.UpdateProfileInput{Email: "Robert@Example.com"})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if !res.EmailChanged || !res.LogoutRequired {
		t.Fatalf("expected email change and logout, got %+v", res)
	}
	if res.User.IsVerified || res.User.Email != "robert@example.com" || res.User.EmailVerifyToken == "" {
		t.Fatalf("unexpected user after email change: %+v", res.User)
	}

	n := f.mail.last(t)
	if n.To != "robert@example.com" || n.Kind != domain.NotifyEmailVerification {
		t.Fatalf("expected verification to new address, got %+v", n)
	}
	if _, err := f.sessions.Authenticate(context.Background(), tok); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected old access token to be rejected, got %v", err)
	}
	if _, err := f.accounts.VerifyEmail(context.Background(), linkToken(t, n)); err != nil {
		t.Fatalf("expected new email to verify, got %v", err)
	}
}

func TestAccountService_UpdateProfile_UsernameChangeLogsOut(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "bob", "bob@example.com", "secret123", true)
	tok, _ := f.sessions.IssueAccess(u)

	res, err := f.accounts.UpdateProfile(context.Background(), u, ports.UpdateProfileInput{Username: "bobby"})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if !res.LogoutRequired || res.EmailChanged {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := f.sessions.Authenticate(context.Background(), tok); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected old access token to be rejected, got %v", err)
	}
}

func TestAccountService_UpdateProfile_Errors(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "bob", "bob@example.com", "secret123", true)
	f.seedUser(t, "carol", "carol@example.com", "secret123", true)

	if _, err := f.accounts.UpdateProfile(context.Background(), u, ports.UpdateProfileInput{Username: "Carol"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := f.accounts.UpdateProfile(context.Background(), u, ports.UpdateProfileInput{Email: "CAROL@example.com"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := f.accounts.UpdateProfile(context.Background(), u, ports.UpdateProfileInput{Email: "BOB@example.com", FirstName: "Test"}); !errors.Is(err, domain.ErrNothingToUpdate) {
		t.Fatalf("expected ErrNothingToUpdate, got %v", err)
	}
}

func TestAccountService_Deletion(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "bob", "bob@example.com", "secret123", true)
	other := f.seedUser(t, "carol", "carol@example.com", "secret123", true)
	f.seedPortfolio(t, u, "one")
	f.seedPortfolio(t, u, "two")
	kept := f.seedPortfolio(t, other, "three")

	if err := f.accounts.RequestDeletion(context.Background(), u); err != nil {
		t.Fatalf("RequestDeletion returned error: %v", err)
	}
	n := f.mail.last(t)
	if n.Kind != domain.NotifyDeleteRequested || !strings.Contains(n.Body, "/confirm-delete?token=") {
		t.Fatalf("unexpected delete mail: %+v", n)
	}
	tok := linkToken(t, n)

	if err := f.accounts.ConfirmDeletion(context.Background(), tok); err != nil {
		t.Fatalf("ConfirmDeletion returned error: %v", err)
	}
	if _, err := f.users.FindByID(context.Background(), u.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user to be gone, got %v", err)
	}
	left, _ := f.portfolios.ListByUser(context.Background(), u.ID)
	if len(left) != 0 {
		t.Fatalf("expected no orphan portfolios, got %d", len(left))
	}
	if _, err := f.portfolios.FindByID(context.Background(), kept.ID); err != nil {
		t.Fatalf("other users' portfolios must survive: %v", err)
	}
	if f.mail.last(t).Kind != domain.NotifyAccountDeleted {
		t.Fatalf("expected goodbye notification")
	}

	if err := f.accounts.ConfirmDeletion(context.Background(), tok); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second confirmation, got %v", err)
	}
}

func TestAccountService_ConfirmDeletion_RejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "bob", "bob@example.com", "secret123", true)
	access, _ := f.sessions.IssueAccess(u)

	if err := f.accounts.ConfirmDeletion(context.Background(), access); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.users.FindByID(context.Background(), u.ID); err != nil {
		t.Fatalf("user must still exist: %v", err)
	}
}
