package handler

import (
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.adminService.ListOrders(ctx, dto.OrderFilter{
		Search: c.QueryParam("search"),
		Status: model.OrderStatus(c.QueryParam("status")),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) ListPayments(c echo.Context) error {
	ctx := c.Request().Context()

	payments, err := h.adminService.ListPayments(ctx, model.PaymentStatus(c.QueryParam("status")))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payments)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.adminService.Stats(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	payment, err := h.adminService.VerifyPayment(ctx, middleware.UserID(c), c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.adminService.UpdateOrderStatus(ctx, middleware.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *AdminHandler) RetryFulfillment(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.adminService.RetryFulfillment(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *AdminHandler) RefundOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.adminService.RefundOrder(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
