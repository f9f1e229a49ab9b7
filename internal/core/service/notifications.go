package service

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// MailOptions configures the outbound account messages.
type MailOptions struct {
	AppName     string
	FrontendURL string
}

// mailer renders account messages and hands them to the dispatcher. Nothing
// here waits for delivery.
type mailer struct {
	dispatcher  ports.NotificationDispatcher
	appName     string
	frontendURL string
	now         func() time.Time
}

func newMailer(d ports.NotificationDispatcher, opts MailOptions) mailer {
	app := opts.AppName
	if app == "" {
		app = "PortfolioApp"
	}
	return mailer{
		dispatcher:  d,
		appName:     app,
		frontendURL: strings.TrimRight(opts.FrontendURL, "/"),
		now:         time.Now,
	}
}

func (m mailer) link(path, token string) string {
	return m.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func (m mailer) send(kind domain.NotificationKind, to, subject, body string) {
	if m.dispatcher == nil || to == "" {
		return
	}
	m.dispatcher.Dispatch(domain.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		To:        to,
		Subject:   fmt.Sprintf("%s - %s", m.appName, subject),
		Body:      body,
		CreatedAt: m.now().UTC(),
	})
}

func (m mailer) verifyEmail(u *domain.User, token string, resend bool) {
	subject := "Verify your email"
	if resend {
		subject = "Verify your email (resent)"
	}
	body := fmt.Sprintf("Hello %s,\n\nClick the link below to activate your account:\n%s",
		u.FirstName, m.link("/verify-email", token))
	m.send(domain.NotifyEmailVerification, u.Email, subject, body)
}

func (m mailer) passwordReset(u *domain.User, token string) {
	body := fmt.Sprintf("Hello %s,\n\nClick the link below to reset your password:\n%s",
		u.FirstName, m.link("/reset-password", token))
	m.send(domain.NotifyPasswordReset, u.Email, "Password reset", body)
}

func (m mailer) passwordChanged(u *domain.User) {
	body := fmt.Sprintf("Hello %s,\n\nYour password has been changed. If this was not you, reset it immediately.",
		u.FirstName)
	m.send(domain.NotifyPasswordChanged, u.Email, "Your password was changed", body)
}

func (m mailer) deleteRequested(u *domain.User, token string) {
	body := fmt.Sprintf("Hello %s,\n\nClick the link below to confirm the deletion of your account:\n%s",
		u.FirstName, m.link("/confirm-delete", token))
	m.send(domain.NotifyDeleteRequested, u.Email, "Confirm account deletion", body)
}

func (m mailer) accountDeleted(u *domain.User) {
	body := fmt.Sprintf("Hello %s,\n\nYour account and all of its data have been deleted.", u.FirstName)
	m.send(domain.NotifyAccountDeleted, u.Email, "Your account was deleted", body)
}
