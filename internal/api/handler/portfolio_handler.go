package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// PortfolioHandler serves the public listings and the owner's CRUD routes.
type PortfolioHandler struct {
	portfolios ports.PortfolioService
}

func NewPortfolioHandler(portfolios ports.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios}
}

// Create adds a portfolio owned by the authenticated user.
//
// @Summary      Create a portfolio
// @Tags         portfolios
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      createPortfolioRequest  true  "Portfolio"
// @Success      201   {object}  portfolioResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /portfolios [post]
func (h *PortfolioHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createPortfolioRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.portfolios.Create(c.Request().Context(), user, ports.PortfolioInput{
		Title:       &req.Title,
		Description: &req.Description,
		Detail:      &req.Detail,
		Link:        &req.Link,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPortfolioResponse(p))
}

// ListMine returns the authenticated user's portfolios.
//
// @Summary      My portfolios
// @Tags         portfolios
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   portfolioResponse
// @Router       /portfolios/my_portfolios [get]
func (h *PortfolioHandler) ListMine(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	list, err := h.portfolios.ListMine(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPortfolioResponses(list))
}

// ListAll returns every portfolio with its owner.
//
// @Summary      All portfolios
// @Tags         portfolios
// @Produce      json
// @Success      200  {array}  portfolioDetailResponse
// @Router       /portfolios/all_portfolios [get]
func (h *PortfolioHandler) ListAll(c echo.Context) error {
	list, err := h.portfolios.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPortfolioDetails(list))
}

// ListByUser returns one user's portfolios with the owner summary.
//
// @Summary      Portfolios of a user
// @Tags         portfolios
// @Produce      json
// @Param        user_id  path      string  true  "User ID"
// @Success      200      {array}   portfolioDetailResponse
// @Failure      404      {object}  errorResponse
// @Router       /portfolios/user/{user_id} [get]
func (h *PortfolioHandler) ListByUser(c echo.Context) error {
	list, err := h.portfolios.ListByUser(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPortfolioDetails(list))
}

// Get returns a single portfolio with its owner.
//
// @Summary      Get a portfolio
// @Tags         portfolios
// @Produce      json
// @Param        id   path      string  true  "Portfolio ID"
// @Success      200  {object}  portfolioDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /portfolios/{id} [get]
func (h *PortfolioHandler) Get(c echo.Context) error {
	d, err := h.portfolios.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPortfolioDetail(*d))
}

// Update edits one of the authenticated user's portfolios.
//
// @Summary      Update a portfolio
// @Tags         portfolios
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Portfolio ID"
// @Param        body  body      updatePortfolioRequest  true  "Fields to change"
// @Success      200   {object}  portfolioResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /portfolios/{id} [put]
func (h *PortfolioHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updatePortfolioRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.portfolios.Update(c.Request().Context(), user, c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPortfolioResponse(p))
}

// Delete removes one of the authenticated user's portfolios.
//
// @Summary      Delete a portfolio
// @Tags         portfolios
// @Security     BearerAuth
// @Param        id   path  string  true  "Portfolio ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /portfolios/{id} [delete]
func (h *PortfolioHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.portfolios.Delete(c.Request().Context(), user, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
