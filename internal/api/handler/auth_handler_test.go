package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

const validRegistration = `{"first_name":"Alice","last_name":"Smith","username":"alice","email":"alice@example.com","password":"secret1"}`

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "alice" || in.Email != "alice@example.com" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", Username: in.Username, Email: in.Email}, nil
		},
	}
	handler := NewAuthHandler(stub)
	c, rec := newContext(http.MethodPost, "/auth/register", validRegistration, nil)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" || resp["is_verified"] != false {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatalf("password hash must not be rendered")
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUsernameTaken
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/register", validRegistration, nil)

	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/auth/register", "not-json", nil)
	assertHTTPError(t, handler.Register(c), http.StatusBadRequest)

	c, _ = newContext(http.MethodPost, "/auth/register", `{"username":"al","password":"1"}`, nil)
	assertHTTPError(t, handler.Register(c), http.StatusUnprocessableEntity)
}

func TestAuthHandler_VerifyEmail(t *testing.T) {
	stub := &stubAccountService{
		verifyFn: func(_ context.Context, token string) (*ports.VerifyResult, error) {
			switch token {
			case "fresh":
				return &ports.VerifyResult{}, nil
			case "again":
				return &ports.VerifyResult{AlreadyVerified: true}, nil
			default:
				return nil, domain.ErrVerificationLinkInvalid
			}
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodGet, "/auth/verify-email?token=fresh", "", nil)
	if err := handler.VerifyEmail(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", rec.Code, err)
	}

	c, rec = newContext(http.MethodGet, "/auth/verify-email?token=again", "", nil)
	if err := handler.VerifyEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var body messageResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Message != "Email is already verified." {
		t.Fatalf("unexpected message %q", body.Message)
	}

	c, _ = newContext(http.MethodGet, "/auth/verify-email?token=stale", "", nil)
	if err := handler.VerifyEmail(c); !errors.Is(err, domain.ErrVerificationLinkInvalid) {
		t.Fatalf("expected stale link error, got %v", err)
	}

	c, _ = newContext(http.MethodGet, "/auth/verify-email", "", nil)
	assertHTTPError(t, handler.VerifyEmail(c), http.StatusBadRequest)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(_ context.Context, identifier, password string) (*ports.LoginResult, error) {
			if identifier != "alice@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", identifier, password)
			}
			return &ports.LoginResult{
				AccessToken: "token123",
				User:        &domain.User{ID: "u1", Username: "alice", Email: identifier, IsAdmin: true},
			}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/login", `{"username_or_email":"alice@example.com","password":"secret1"}`, nil)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "token123" || resp.TokenType != "bearer" {
		t.Fatalf("unexpected token payload: %+v", resp)
	}
	if resp.User.ID != "u1" || !resp.User.IsAdmin {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	for _, want := range []error{domain.ErrInvalidCredentials, domain.ErrEmailNotVerified} {
		stub := &stubAccountService{
			loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
				return nil, want
			},
		}
		c, _ := newContext(http.MethodPost, "/auth/login", `{"username_or_email":"alice","password":"bad"}`, nil)

		if err := NewAuthHandler(stub).Login(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}

	c, _ := newContext(http.MethodPost, "/auth/login", "{", nil)
	assertHTTPError(t, NewAuthHandler(&stubAccountService{}).Login(c), http.StatusBadRequest)
}

func TestAuthHandler_PasswordFlows(t *testing.T) {
	var gotEmail, gotToken, gotPassword string
	stub := &stubAccountService{
		forgotFn: func(_ context.Context, email string) error {
			gotEmail = email
			return nil
		},
		resetFn: func(_ context.Context, token, newPassword string) error {
			gotToken, gotPassword = token, newPassword
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/auth/forgot-password", `{"email":"alice@example.com"}`, nil)
	if err := handler.ForgotPassword(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("forgot: expected 200, got %d (%v)", rec.Code, err)
	}
	if gotEmail != "alice@example.com" {
		t.Fatalf("unexpected email %q", gotEmail)
	}

	c, rec = newContext(http.MethodPost, "/auth/reset-password", `{"token":"t1","new_password":"newpass1"}`, nil)
	if err := handler.ResetPassword(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d (%v)", rec.Code, err)
	}
	if gotToken != "t1" || gotPassword != "newpass1" {
		t.Fatalf("unexpected reset args %q %q", gotToken, gotPassword)
	}

	c, _ = newContext(http.MethodPost, "/auth/reset-password", `{"token":"t1","new_password":"123"}`, nil)
	assertHTTPError(t, handler.ResetPassword(c), http.StatusUnprocessableEntity)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	alice := &domain.User{ID: "u1", Username: "alice"}
	stub := &stubAccountService{
		changeFn: func(_ context.Context, user *domain.User, current, next string) error {
			if user != alice {
				t.Fatalf("expected the authenticated user")
			}
			if current == next {
				return domain.ErrPasswordUnchanged
			}
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/auth/change-password", `{"current_password":"secret1","new_password":"secret2"}`, alice)
	if err := handler.ChangePassword(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", rec.Code, err)
	}

	c, _ = newContext(http.MethodPost, "/auth/change-password", `{"current_password":"secret1","new_password":"secret1"}`, alice)
	if err := handler.ChangePassword(c); !errors.Is(err, domain.ErrPasswordUnchanged) {
		t.Fatalf("expected ErrPasswordUnchanged, got %v", err)
	}

	c, _ = newContext(http.MethodPost, "/auth/change-password", `{"current_password":"a","new_password":"secret2"}`, nil)
	assertHTTPError(t, handler.ChangePassword(c), http.StatusUnauthorized)
}

func TestResultLabel(t *testing.T) {
	cases := map[error]string{
		nil:                               "ok",
		domain.ErrInvalidCredentials:      "invalid_credentials",
		domain.ErrEmailNotVerified:        "email_not_verified",
		domain.ErrEmailTaken:              "conflict",
		domain.ErrVerificationLinkInvalid: "stale_link",
		errors.New("boom"):                "error",
	}
	for err, want := range cases {
		if got := resultLabel(err); got != want {
			t.Errorf("resultLabel(%v) = %q, want %q", err, got, want)
		}
	}
}
