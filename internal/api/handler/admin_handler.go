package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// AdminHandler exposes user and portfolio management to administrators.
// Routes are guarded by Auth + RBAC(admin) in the router.
type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListUsers
//
// @Summary      List users
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   userResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.admin.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// CreateUser adds an account directly. is_verified defaults to true.
//
// @Summary      Create a user
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      adminCreateUserRequest  true  "Account"
// @Success      201   {object}  userResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req adminCreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	verified := true
	if req.IsVerified != nil {
		verified = *req.IsVerified
	}

	user, err := h.admin.CreateUser(c.Request().Context(), ports.AdminCreateUserInput{
		RegisterInput: ports.RegisterInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
		},
		IsAdmin:    req.IsAdmin,
		IsVerified: verified,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// UpdateUser
//
// @Summary      Update a user
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "User ID"
// @Param        body  body      adminUpdateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	var req adminUpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.admin.UpdateUser(c.Request().Context(), c.Param("id"), ports.AdminUpdateUserInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Username:   req.Username,
		Email:      req.Email,
		IsAdmin:    req.IsAdmin,
		IsVerified: req.IsVerified,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// DeleteUser removes the user and every portfolio they own.
//
// @Summary      Delete a user
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.admin.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUserPortfolios
//
// @Summary      Portfolios of a user
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {array}   portfolioResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/users/{id}/portfolios [get]
func (h *AdminHandler) ListUserPortfolios(c echo.Context) error {
	list, err := h.admin.ListUserPortfolios(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPortfolioResponses(list))
}

// UpdatePortfolio
//
// @Summary      Update any portfolio
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Portfolio ID"
// @Param        body  body      updatePortfolioRequest  true  "Fields to change"
// @Success      200   {object}  portfolioResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/portfolios/{id} [put]
func (h *AdminHandler) UpdatePortfolio(c echo.Context) error {
	var req updatePortfolioRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.admin.UpdatePortfolio(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPortfolioResponse(p))
}

// DeletePortfolio
//
// @Summary      Delete any portfolio
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Portfolio ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /admin/portfolios/{id} [delete]
func (h *AdminHandler) DeletePortfolio(c echo.Context) error {
	if err := h.admin.DeletePortfolio(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
