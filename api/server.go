// Package api exposes the storefront over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"gofalre.io/storefront"
	"gofalre.io/storefront/api/handler"
	"gofalre.io/storefront/api/middleware"
	"gofalre.io/storefront/api/response"
	"gofalre.io/storefront/api/router"
	"gofalre.io/storefront/catalog"
)

type Options struct {
	Manager       *storefront.Manager
	Catalog       catalog.Catalog
	SessionCookie string
	SecureCookie  bool
	// CheckOrigin guards websocket upgrades. Nil accepts same-origin
	// requests only.
	CheckOrigin func(r *http.Request) bool
	Logger      *zap.Logger
}

type Server struct {
	echo      *echo.Echo
	websocket *handler.WebSocketHandler
	logger    *zap.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.SessionCookie == "" {
		opts.SessionCookie = "aurora_session"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if rerr := response.Error(c, err); rerr != nil {
			logger.Error("Failed to write error response", zap.Error(rerr))
		}
	}

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("Recovered from panic",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
	}))

	ws := handler.NewWebSocketHandler(opts.CheckOrigin, logger)
	session := middleware.NewSessionMiddleware(opts.Manager, opts.SessionCookie, opts.SecureCookie, logger)
	router.Setup(e, router.Handlers{
		Health:    handler.NewHealthHandler(),
		Catalog:   handler.NewCatalogHandler(opts.Catalog),
		Cart:      handler.NewCartHandler(opts.Catalog, logger),
		Wishlist:  handler.NewWishlistHandler(opts.Catalog),
		WebSocket: ws,
	}, session)

	return &Server{
		echo:      e,
		websocket: ws,
		logger:    logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.websocket.CloseAll()
	return s.echo.Shutdown(ctx)
}
