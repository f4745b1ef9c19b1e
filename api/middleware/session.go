package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gofalre.io/storefront"
	"gofalre.io/storefront/api/response"
)

// SessionIDKey is the echo context key holding the visitor's session id.
const SessionIDKey = "session_id"

const sessionMaxAge = 30 * 24 * time.Hour

type SessionMiddleware struct {
	manager *storefront.Manager
	cookie  string
	secure  bool
	logger  *zap.Logger
}

func NewSessionMiddleware(manager *storefront.Manager, cookie string, secure bool, logger *zap.Logger) *SessionMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionMiddleware{
		manager: manager,
		cookie:  cookie,
		secure:  secure,
		logger:  logger,
	}
}

// Attach resolves the visitor's session from the cookie, issuing a new one
// when it is missing or malformed, and puts the session's storefront into
// the request context.
func (m *SessionMiddleware) Attach(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID := m.sessionID(c)

		sf, err := m.manager.Get(c.Request().Context(), sessionID)
		if err != nil {
			if errors.Is(err, storefront.ErrManagerClosed) {
				return response.Error(c, response.Unavailable("Storefront is shutting down", err))
			}
			m.logger.Error("Failed to open storefront", zap.String("session_id", sessionID), zap.Error(err))
			return response.Error(c, response.Internal("Failed to open session", err))
		}

		c.Set(SessionIDKey, sessionID)
		c.SetRequest(c.Request().WithContext(storefront.WithContext(c.Request().Context(), sf)))
		return next(c)
	}
}

func (m *SessionMiddleware) sessionID(c echo.Context) string {
	if ck, err := c.Cookie(m.cookie); err == nil {
		if id, err := uuid.Parse(ck.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     m.cookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
