package websocket

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	applogger "FundFlow/pkg/logger"
)

// gorillaConn adapts a gorilla connection to the hub's Conn. Gorilla allows a
// single concurrent writer, so writes are serialized here.
type gorillaConn struct {
	mu           sync.Mutex
	ws           *websocket.Conn
	writeTimeout time.Duration
}

func (c *gorillaConn) WriteText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *gorillaConn) Close() error { return c.ws.Close() }

// Handler upgrades HTTP requests on the feed path and pumps inbound frames
// into the hub.
type Handler struct {
	hub          *Hub
	log          *applogger.Logger
	path         string
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	nextID       atomic.Uint64
}

// NewHandler creates the live-feed endpoint handler.
func NewHandler(hub *Hub, log *applogger.Logger, path string, writeTimeout time.Duration) *Handler {
	return &Handler{
		hub:          hub,
		log:          log,
		path:         path,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// RegisterRoutes attaches the feed route to the router.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET(h.path, h.serve)
}

func (h *Handler) serve(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	id := fmt.Sprintf("session-%d", h.nextID.Add(1))
	conn := &gorillaConn{ws: ws, writeTimeout: h.writeTimeout}

	ctx := c.Request().Context()
	h.hub.Register(ctx, id, conn)
	defer h.hub.Unregister(id)

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("websocket read failed",
					applogger.String("session", id),
					applogger.Error(err))
			}
			return nil
		}
		h.hub.HandleMessage(ctx, id, payload)
	}
}
