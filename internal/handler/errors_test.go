package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("order: %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: quantity must be positive", service.ErrInvalidInput), http.StatusBadRequest},
		{service.ErrDiscountExpired, http.StatusBadRequest},
		{service.ErrDiscountExhausted, http.StatusBadRequest},
		{fmt.Errorf("payment is verified: %w", service.ErrInvalidTransition), http.StatusConflict},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrInsufficientFunds, http.StatusPaymentRequired},
		{fmt.Errorf("fetch: %w", client.ErrResellerNotConfigured), http.StatusServiceUnavailable},
		{client.ErrCardPaymentsDisabled, http.StatusServiceUnavailable},
		{fmt.Errorf("dispatch: %w", &client.ResellerError{Action: "add", Message: "Incorrect service ID"}), http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	e.GET("/conflict", func(c echo.Context) error {
		return fmt.Errorf("order already has an active payment: %w", service.ErrConflict)
	})
	e.GET("/internal", func(c echo.Context) error {
		return errors.New("connection refused to 10.0.0.3")
	})
	e.GET("/http", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	})

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/conflict", http.StatusConflict, `{"error":"order already has an active payment: conflict"}`},
		{"/internal", http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
		{"/http", http.StatusBadRequest, `{"error":"invalid req body"}`},
		{"/missing", http.StatusNotFound, `{"error":"Not Found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
