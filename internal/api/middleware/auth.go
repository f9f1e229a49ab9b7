package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextUser = "user"
	ContextRole = "role"
)

// Auth resolves the bearer token to the live user and injects it into the
// context. A token whose identity no longer matches the stored user is
// rejected like a forged one.
func Auth(authn ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorized(c, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthorized(c, "invalid authorization header")
			}

			user, err := authn.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) {
					return unauthorized(c, "invalid credentials")
				}
				return err
			}

			c.Set(ContextUser, user)
			c.Set(ContextRole, user.Role())

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}
