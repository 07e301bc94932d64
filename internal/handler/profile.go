package handler

import (
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
)

type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	profile, err := h.profileService.Get(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	profile, err := h.profileService.Update(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) WalletTransactions(c echo.Context) error {
	ctx := c.Request().Context()

	txns, err := h.profileService.WalletTransactions(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, txns)
}

func (h *ProfileHandler) Role(c echo.Context) error {
	ctx := c.Request().Context()

	isAdmin, err := h.profileService.IsAdmin(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{
		"is_admin": isAdmin,
	})
}
