package handler

import (
	"github.com/labstack/echo/v4"

	"gofalre.io/storefront/api/response"
	"gofalre.io/storefront/catalog"
	"gofalre.io/storefront/models/enum"
)

type CatalogHandler struct {
	catalog catalog.Catalog
}

func NewCatalogHandler(catalog catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts returns every product, or only those of ?roast= when given.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	roast := enum.Roast(c.QueryParam("roast"))
	if roast == "" {
		return response.Success(c, h.catalog.List())
	}
	if !roast.Valid() {
		return response.Error(c, response.BadRequest("roast must be one of: light medium medium-dark", nil))
	}
	return response.Success(c, h.catalog.ByRoast(roast))
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	p, err := h.catalog.Get(c.Param("slug"))
	if err != nil {
		return response.Error(c, toAppError(err))
	}
	return response.Success(c, p)
}
