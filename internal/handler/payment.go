package handler

import (
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
)

const proofFormField = "file"

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	payment, err := h.paymentService.Create(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	payments, err := h.paymentService.ListMine(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) GetMine(c echo.Context) error {
	ctx := c.Request().Context()

	payment, err := h.paymentService.GetMine(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}

// UploadProof takes a multipart upload with the receipt image in "file".
func (h *PaymentHandler) UploadProof(c echo.Context) error {
	ctx := c.Request().Context()

	fh, err := c.FormFile(proofFormField)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing proof file")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable proof file")
	}
	defer f.Close()

	payment, err := h.paymentService.UploadProof(ctx, middleware.UserID(c), c.Param("id"), f)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}
