package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

const (
	MessageTypeCart         = "cart"
	MessageTypeWishlist     = "wishlist"
	MessageTypeNotification = "notification"
)

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WebSocketHandler streams a visitor's cart, wishlist and notifications.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewWebSocketHandler(checkOrigin func(r *http.Request) bool, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// HandleWebSocket sends the current cart and wishlist, then every change and
// notification until the client goes away.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	sf := scope(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Warn("Failed to upgrade websocket", zap.Error(err))
		return nil
	}
	h.track(conn)
	defer h.untrack(conn)

	logger := h.logger.With(zap.String("session_id", sf.SessionID()))
	send := make(chan Message, sendBufferSize)
	push := func(m Message) {
		select {
		case send <- m:
		default:
			logger.Warn("Websocket client too slow, dropping message", zap.String("type", m.Type))
		}
	}

	push(Message{Type: MessageTypeCart, Data: sf.Cart().Snapshot()})
	push(Message{Type: MessageTypeWishlist, Data: sf.Wishlist().Snapshot()})

	unsubscribe := []func(){
		sf.Cart().Subscribe(func(v models.Cart) { push(Message{Type: MessageTypeCart, Data: v}) }),
		sf.Wishlist().Subscribe(func(v models.Wishlist) { push(Message{Type: MessageTypeWishlist, Data: v}) }),
		sf.Notifications().Subscribe(func(n models.Notification) { push(Message{Type: MessageTypeNotification, Data: n}) }),
	}

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(conn, send, done, logger)
	}()

	h.readPump(conn, logger)

	for _, fn := range unsubscribe {
		fn()
	}
	close(done)
	<-writerDone
	_ = conn.Close()
	return nil
}

// readPump discards client messages and returns when the connection fails.
func (h *WebSocketHandler) readPump(conn *websocket.Conn, logger *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("Websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (h *WebSocketHandler) writePump(conn *websocket.Conn, send <-chan Message, done <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case m := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				logger.Debug("Failed to write websocket message", zap.Error(err))
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WebSocketHandler) track(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *WebSocketHandler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// CloseAll sends a going-away close frame to every open connection and
// closes it. The HTTP server's Shutdown does not reach hijacked connections.
func (h *WebSocketHandler) CloseAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

func (h *WebSocketHandler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
