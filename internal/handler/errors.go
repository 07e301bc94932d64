package handler

import (
	"errors"
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var resellerErr *client.ResellerError

	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrDiscountInvalid),
		errors.Is(err, service.ErrDiscountNotYetValid),
		errors.Is(err, service.ErrDiscountExpired),
		errors.Is(err, service.ErrDiscountExhausted):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, client.ErrResellerNotConfigured),
		errors.Is(err, client.ErrCardPaymentsDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &resellerErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error as {"error": message}. Internal errors
// are logged and hidden from the client.
func ErrorHandler(l *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		} else {
			code = statusFor(err)
			if code != http.StatusInternalServerError {
				message = err.Error()
			}
		}

		if code >= http.StatusInternalServerError {
			l.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]string{"error": message})
		}
		if err != nil {
			l.Warn("failed to write error response", zap.Error(err))
		}
	}
}
