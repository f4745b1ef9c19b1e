package handler

import (
	"github.com/labstack/echo/v4"

	"gofalre.io/storefront/api/response"
	"gofalre.io/storefront/catalog"
	"gofalre.io/storefront/models"
)

type WishlistHandler struct {
	catalog catalog.Catalog
}

func NewWishlistHandler(catalog catalog.Catalog) *WishlistHandler {
	return &WishlistHandler{catalog: catalog}
}

type wishlistResponse struct {
	Items models.Wishlist `json:"items"`
	Count int             `json:"count"`
}

type wishlistStatusResponse struct {
	ProductSlug string `json:"productSlug"`
	InWishlist  bool   `json:"inWishlist"`
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	items := scope(c).Wishlist().Snapshot()
	return response.Success(c, wishlistResponse{Items: items, Count: len(items)})
}

func (h *WishlistHandler) AddToWishlist(c echo.Context) error {
	product, err := h.catalog.Get(c.Param("slug"))
	if err != nil {
		return response.Error(c, toAppError(err))
	}

	wishlist := scope(c).Wishlist()
	wishlist.Add(c.Request().Context(), product.Slug, product.Name)
	return response.Created(c, wishlistStatusResponse{ProductSlug: product.Slug, InWishlist: true})
}

// RemoveFromWishlist accepts slugs that are no longer in the catalog so
// stale entries can still be removed.
func (h *WishlistHandler) RemoveFromWishlist(c echo.Context) error {
	slug := c.Param("slug")
	scope(c).Wishlist().Remove(c.Request().Context(), slug, h.displayName(slug))
	return response.Success(c, wishlistStatusResponse{ProductSlug: slug, InWishlist: false})
}

// ToggleWishlist only adds products from the catalog. A slug that left the
// catalog can still be toggled off when a stale entry holds it.
func (h *WishlistHandler) ToggleWishlist(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()
	wishlist := scope(c).Wishlist()

	product, err := h.catalog.Get(slug)
	if err != nil {
		if !wishlist.Contains(slug) {
			return response.Error(c, toAppError(err))
		}
		wishlist.Remove(ctx, slug, "")
		return response.Success(c, wishlistStatusResponse{ProductSlug: slug, InWishlist: false})
	}

	in := wishlist.Toggle(ctx, product.Slug, product.Name)
	return response.Success(c, wishlistStatusResponse{ProductSlug: product.Slug, InWishlist: in})
}

func (h *WishlistHandler) CheckWishlistStatus(c echo.Context) error {
	slug := c.Param("slug")
	return response.Success(c, wishlistStatusResponse{
		ProductSlug: slug,
		InWishlist:  scope(c).Wishlist().Contains(slug),
	})
}

func (h *WishlistHandler) ClearWishlist(c echo.Context) error {
	wishlist := scope(c).Wishlist()
	wishlist.Clear(c.Request().Context())
	return response.Success(c, wishlistResponse{Items: wishlist.Snapshot(), Count: 0})
}

func (h *WishlistHandler) displayName(slug string) string {
	if p, err := h.catalog.Get(slug); err == nil {
		return p.Name
	}
	return ""
}
