package handler

import (
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
)

type DiscountHandler struct {
	discountService service.DiscountService
}

func NewDiscountHandler(discountService service.DiscountService) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
	}
}

func (h *DiscountHandler) Validate(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ValidateDiscountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.discountService.Validate(ctx, req.Code, req.OrderAmount)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *DiscountHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateDiscountCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	code, err := h.discountService.Create(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, code)
}

func (h *DiscountHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	codes, err := h.discountService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, codes)
}

func (h *DiscountHandler) SetActive(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SetActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.discountService.SetActive(ctx, c.Param("id"), req.IsActive); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
