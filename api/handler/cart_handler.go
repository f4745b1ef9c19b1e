package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gofalre.io/storefront/api/response"
	"gofalre.io/storefront/catalog"
)

type CartHandler struct {
	catalog catalog.Catalog
	logger  *zap.Logger
}

func NewCartHandler(catalog catalog.Catalog, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{
		catalog: catalog,
		logger:  logger,
	}
}

type addCartItemRequest struct {
	ProductSlug string `json:"productSlug" validate:"required"`
	Size        string `json:"size" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gte=1"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type containsResponse struct {
	ProductSlug string `json:"productSlug"`
	Size        string `json:"size"`
	InCart      bool   `json:"inCart"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	return response.Success(c, scope(c).Cart().Snapshot())
}

// AddItem prices the line from the catalog; the client only picks product,
// size and quantity.
func (h *CartHandler) AddItem(c echo.Context) error {
	req := addCartItemRequest{Quantity: 1}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, response.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	line, err := h.catalog.Line(req.ProductSlug, req.Size, req.Quantity)
	if err != nil {
		return response.Error(c, toAppError(err))
	}

	cart := scope(c).Cart()
	if err := cart.AddLine(c.Request().Context(), line); err != nil {
		h.logger.Info("Cart line rejected",
			zap.String("product_slug", line.ProductSlug),
			zap.String("size", line.Size),
			zap.Error(err))
		return response.Error(c, toAppError(err))
	}
	return response.Created(c, cart.Snapshot())
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	var req updateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, response.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	cart := scope(c).Cart()
	if err := cart.SetQuantity(c.Request().Context(), c.Param("id"), *req.Quantity); err != nil {
		return response.Error(c, toAppError(err))
	}
	return response.Success(c, cart.Snapshot())
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	cart := scope(c).Cart()
	cart.RemoveLine(c.Request().Context(), c.Param("id"))
	return response.Success(c, cart.Snapshot())
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	cart := scope(c).Cart()
	cart.Clear(c.Request().Context())
	return response.Success(c, cart.Snapshot())
}

func (h *CartHandler) Contains(c echo.Context) error {
	slug := c.QueryParam("productSlug")
	size := c.QueryParam("size")
	if slug == "" || size == "" {
		return response.Error(c, response.BadRequest("productSlug and size are required", nil))
	}

	return response.Success(c, containsResponse{
		ProductSlug: slug,
		Size:        size,
		InCart:      scope(c).Cart().Contains(slug, size),
	})
}
