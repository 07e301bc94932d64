package handler

import (
	"net/http"
	"strconv"

	"github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/service"
	"github.com/King12-D/hypegrow-boost/internal/ws"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	hub                 *ws.Hub
}

func NewNotificationHandler(notificationService service.NotificationService, hub *ws.Hub) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		hub:                 hub,
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.notificationService.List(ctx, middleware.UserID(c), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.notificationService.MarkRead(ctx, middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.notificationService.MarkAllRead(ctx, middleware.UserID(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Stream keeps a websocket open and pushes new notifications as they are created.
func (h *NotificationHandler) Stream(c echo.Context) error {
	return h.hub.Serve(c.Response(), c.Request(), middleware.UserID(c))
}
