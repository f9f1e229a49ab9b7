package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/folioapp/portfolio-api/internal/api/middleware"
	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// newContext builds an echo context with the validator installed. A non-nil
// user is injected the way the Auth middleware does it.
func newContext(method, target, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.ContextUser, user)
		c.Set(middleware.ContextRole, user.Role())
	}
	return c, rec
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

type stubAccountService struct {
	registerFn        func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	verifyFn          func(ctx context.Context, token string) (*ports.VerifyResult, error)
	loginFn           func(ctx context.Context, identifier, password string) (*ports.LoginResult, error)
	forgotFn          func(ctx context.Context, email string) error
	resetFn           func(ctx context.Context, token, newPassword string) error
	changeFn          func(ctx context.Context, user *domain.User, current, next string) error
	updateFn          func(ctx context.Context, user *domain.User, in ports.UpdateProfileInput) (*ports.UpdateProfileResult, error)
	requestDeletionFn func(ctx context.Context, user *domain.User) error
	confirmDeletionFn func(ctx context.Context, token string) error
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) VerifyEmail(ctx context.Context, token string) (*ports.VerifyResult, error) {
	return s.verifyFn(ctx, token)
}

func (s *stubAccountService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, identifier, password)
}

func (s *stubAccountService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.resetFn(ctx, token, newPassword)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	return s.changeFn(ctx, user, current, next)
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, user *domain.User, in ports.UpdateProfileInput) (*ports.UpdateProfileResult, error) {
	return s.updateFn(ctx, user, in)
}

func (s *stubAccountService) RequestDeletion(ctx context.Context, user *domain.User) error {
	return s.requestDeletionFn(ctx, user)
}

func (s *stubAccountService) ConfirmDeletion(ctx context.Context, token string) error {
	return s.confirmDeletionFn(ctx, token)
}

type stubPortfolioService struct {
	createFn     func(ctx context.Context, owner *domain.User, in ports.PortfolioInput) (*domain.Portfolio, error)
	listMineFn   func(ctx context.Context, owner *domain.User) ([]*domain.Portfolio, error)
	listAllFn    func(ctx context.Context) ([]ports.PortfolioDetail, error)
	listByUserFn func(ctx context.Context, userID string) ([]ports.PortfolioDetail, error)
	getFn        func(ctx context.Context, id string) (*ports.PortfolioDetail, error)
	updateFn     func(ctx context.Context, owner *domain.User, id string, in ports.PortfolioInput) (*domain.Portfolio, error)
	deleteFn     func(ctx context.Context, owner *domain.User, id string) error
}

func (s *stubPortfolioService) Create(ctx context.Context, owner *domain.User, in ports.PortfolioInput) (*domain.Portfolio, error) {
	return s.createFn(ctx, owner, in)
}

func (s *stubPortfolioService) ListMine(ctx context.Context, owner *domain.User) ([]*domain.Portfolio, error) {
	return s.listMineFn(ctx, owner)
}

func (s *stubPortfolioService) ListAll(ctx context.Context) ([]ports.PortfolioDetail, error) {
	return s.listAllFn(ctx)
}

func (s *stubPortfolioService) ListByUser(ctx context.Context, userID string) ([]ports.PortfolioDetail, error) {
	return s.listByUserFn(ctx, userID)
}

func (s *stubPortfolioService) Get(ctx context.Context, id string) (*ports.PortfolioDetail, error) {
	return s.getFn(ctx, id)
}

func (s *stubPortfolioService) Update(ctx context.Context, owner *domain.User, id string, in ports.PortfolioInput) (*domain.Portfolio, error) {
	return s.updateFn(ctx, owner, id, in)
}

func (s *stubPortfolioService) Delete(ctx context.Context, owner *domain.User, id string) error {
	return s.deleteFn(ctx, owner, id)
}

type stubAdminService struct {
	listUsersFn          func(ctx context.Context) ([]*domain.User, error)
	createUserFn         func(ctx context.Context, in ports.AdminCreateUserInput) (*domain.User, error)
	updateUserFn         func(ctx context.Context, id string, in ports.AdminUpdateUserInput) (*domain.User, error)
	deleteUserFn         func(ctx context.Context, id string) error
	listUserPortfoliosFn func(ctx context.Context, userID string) ([]*domain.Portfolio, error)
	updatePortfolioFn    func(ctx context.Context, id string, in ports.PortfolioInput) (*domain.Portfolio, error)
	deletePortfolioFn    func(ctx context.Context, id string) error
}

func (s *stubAdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.listUsersFn(ctx)
}

func (s *stubAdminService) CreateUser(ctx context.Context, in ports.AdminCreateUserInput) (*domain.User, error) {
	return s.createUserFn(ctx, in)
}

func (s *stubAdminService) UpdateUser(ctx context.Context, id string, in ports.AdminUpdateUserInput) (*domain.User, error) {
	return s.updateUserFn(ctx, id, in)
}

func (s *stubAdminService) DeleteUser(ctx context.Context, id string) error {
	return s.deleteUserFn(ctx, id)
}

func (s *stubAdminService) ListUserPortfolios(ctx context.Context, userID string) ([]*domain.Portfolio, error) {
	return s.listUserPortfoliosFn(ctx, userID)
}

func (s *stubAdminService) UpdatePortfolio(ctx context.Context, id string, in ports.PortfolioInput) (*domain.Portfolio, error) {
	return s.updatePortfolioFn(ctx, id, in)
}

func (s *stubAdminService) DeletePortfolio(ctx context.Context, id string) error {
	return s.deletePortfolioFn(ctx, id)
}
