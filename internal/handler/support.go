package handler

import (
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
)

type SupportHandler struct {
	supportService service.SupportService
}

func NewSupportHandler(supportService service.SupportService) *SupportHandler {
	return &SupportHandler{
		supportService: supportService,
	}
}

func (h *SupportHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	ticket, err := h.supportService.Create(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, ticket)
}

func (h *SupportHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	tickets, err := h.supportService.ListMine(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tickets)
}

func (h *SupportHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	tickets, err := h.supportService.List(ctx, model.TicketStatus(c.QueryParam("status")))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tickets)
}

func (h *SupportHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	ticket, err := h.supportService.Update(ctx, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}
