package router

import (
	"github.com/labstack/echo/v4"

	"gofalre.io/storefront/api/handler"
	"gofalre.io/storefront/api/middleware"
)

type Handlers struct {
	Health    *handler.HealthHandler
	Catalog   *handler.CatalogHandler
	Cart      *handler.CartHandler
	Wishlist  *handler.WishlistHandler
	WebSocket *handler.WebSocketHandler
}

func Setup(e *echo.Echo, h Handlers, session *middleware.SessionMiddleware) {
	SetupHealthRouter(e, h.Health)
	SetupCatalogRouter(e, h.Catalog)
	SetupCartRouter(e, h.Cart, session)
	SetupWishlistRouter(e, h.Wishlist, session)
	SetupWebSocketRouter(e, h.WebSocket, session)
}

func SetupHealthRouter(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/health", h.CheckHealth)
}

func SetupCatalogRouter(e *echo.Echo, h *handler.CatalogHandler) {
	catalogGroup := e.Group("/v1/catalog")
	catalogGroup.GET("", h.ListProducts)
	catalogGroup.GET("/:slug", h.GetProduct)
}

func SetupCartRouter(e *echo.Echo, h *handler.CartHandler, session *middleware.SessionMiddleware) {
	cartGroup := e.Group("/v1/cart")
	cartGroup.Use(session.Attach)

	cartGroup.GET("", h.GetCart)
	cartGroup.DELETE("", h.ClearCart)
	cartGroup.GET("/contains", h.Contains)
	cartGroup.POST("/items", h.AddItem)
	cartGroup.PATCH("/items/:id", h.UpdateItem)
	cartGroup.DELETE("/items/:id", h.RemoveItem)
}

func SetupWishlistRouter(e *echo.Echo, h *handler.WishlistHandler, session *middleware.SessionMiddleware) {
	wishlistGroup := e.Group("/v1/wishlist")
	wishlistGroup.Use(session.Attach)

	wishlistGroup.GET("", h.GetWishlist)
	wishlistGroup.DELETE("", h.ClearWishlist)
	wishlistGroup.POST("/:slug", h.AddToWishlist)
	wishlistGroup.DELETE("/:slug", h.RemoveFromWishlist)
	wishlistGroup.POST("/:slug/toggle", h.ToggleWishlist)
	wishlistGroup.GET("/:slug/status", h.CheckWishlistStatus)
}

func SetupWebSocketRouter(e *echo.Echo, h *handler.WebSocketHandler, session *middleware.SessionMiddleware) {
	e.GET("/v1/ws", h.HandleWebSocket, session.Attach)
}
