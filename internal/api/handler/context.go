package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folioapp/portfolio-api/internal/api/middleware"
	"github.com/folioapp/portfolio-api/internal/core/domain"
)

// currentUser returns the user injected by the Auth middleware. Its absence
// means the route was registered without the middleware.
func currentUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get(middleware.ContextUser).(*domain.User)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return user, nil
}

// bindAndValidate decodes the request body into req and runs the validator.
// Malformed JSON is 400, rule violations are 422.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
