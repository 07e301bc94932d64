package handler

import (
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.orderService.Create(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListMine(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetMine(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetMine(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.CancelMine(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
