package handler

import (
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

func (h *AnalyticsHandler) Track(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.TrackEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	err := h.analyticsService.Track(ctx, service.ClientInfo{
		UserID:    middleware.UserID(c),
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}, &req)
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusAccepted)
}
