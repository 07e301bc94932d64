package handler

import (
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) ListPackages(c echo.Context) error {
	ctx := c.Request().Context()

	packages, err := h.catalogService.ListPackages(ctx, c.QueryParam("platform"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, packages)
}

// ResellerServices returns the reseller catalog grouped by platform and
// type, or as a flat list with ?flat=true.
func (h *CatalogHandler) ResellerServices(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("flat") == "true" {
		services, err := h.catalogService.ResellerServices(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, services)
	}

	groups, err := h.catalogService.GroupedResellerServices(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, groups)
}

func (h *CatalogHandler) ResellerBalance(c echo.Context) error {
	ctx := c.Request().Context()

	balance, err := h.catalogService.ResellerBalance(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, balance)
}

func (h *CatalogHandler) CreatePackage(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePackageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	pkg := &model.ServicePackage{
		Platform:    req.Platform,
		ServiceType: req.ServiceType,
		PackageName: req.PackageName,
		Quantity:    req.Quantity,
		Price:       req.Price,
		IsPopular:   req.IsPopular,
	}
	if err := h.catalogService.CreatePackage(ctx, pkg); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, pkg)
}

func (h *CatalogHandler) SetPackageActive(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SetActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.catalogService.SetPackageActive(ctx, c.Param("id"), req.IsActive); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
