package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// UserHandler serves the authenticated user's own account.
type UserHandler struct {
	accounts ports.AccountService
}

func NewUserHandler(accounts ports.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateMe edits the profile. Changing the username or email ends every
// session, so the response is 202 with logout_required instead of the user.
//
// @Summary      Update current user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Success      202   {object}  updateProfileResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.accounts.UpdateProfile(c.Request().Context(), user, ports.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
	})
	if err != nil {
		return err
	}

	if res.LogoutRequired {
		msg := "Profile updated. Please log in again."
		if res.EmailChanged {
			msg = "Profile updated. Verify your new email address, then log in again."
		}
		return c.JSON(http.StatusAccepted, updateProfileResponse{Message: msg, LogoutRequired: true})
	}
	return c.JSON(http.StatusOK, toUserResponse(res.User))
}

// RequestDelete emails an account deletion confirmation link.
//
// @Summary      Request account deletion
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/request-delete [post]
func (h *UserHandler) RequestDelete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	err = h.accounts.RequestDeletion(c.Request().Context(), user)
	observe("request_delete", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "An account deletion confirmation email has been sent."})
}

// ConfirmDelete deletes the account named by the confirmation link.
//
// @Summary      Confirm account deletion
// @Tags         users
// @Produce      json
// @Param        token  query     string  true  "Deletion token"
// @Success      200    {object}  messageResponse
// @Failure      401    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /users/confirm-delete [get]
func (h *UserHandler) ConfirmDelete(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	err := h.accounts.ConfirmDeletion(c.Request().Context(), token)
	observe("confirm_delete", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Your account and portfolios have been deleted."})
}
