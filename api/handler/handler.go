// Package handler implements the storefront's HTTP endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"gofalre.io/storefront"
	"gofalre.io/storefront/api/response"
	"gofalre.io/storefront/cart"
	"gofalre.io/storefront/catalog"
)

// scope returns the visitor's storefront placed in the request context by
// the session middleware.
func scope(c echo.Context) *storefront.Storefront {
	return storefront.FromContext(c.Request().Context())
}

// toAppError maps domain errors onto API errors.
func toAppError(err error) error {
	switch {
	case errors.Is(err, cart.ErrQuantityLimit):
		return response.NewAppError("QUANTITY_LIMIT", "Maximum 10 units per product", http.StatusUnprocessableEntity, err)
	case errors.Is(err, catalog.ErrProductNotFound):
		return response.NotFound("Product", err)
	case errors.Is(err, catalog.ErrSizeNotFound):
		return response.NewAppError("SIZE_NOT_AVAILABLE", "Size not available for this product", http.StatusBadRequest, err)
	case cart.IsValidationError(err):
		return errors.Unwrap(err)
	default:
		return err
	}
}
