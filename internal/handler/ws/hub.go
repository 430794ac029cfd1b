// Package ws pushes snapshot notices to browser clients over WebSocket.
package ws

import (
	"net/http"
	"sync"
	"time"

	"OilPulse/internal/domain/models"
	"OilPulse/internal/store"
	"OilPulse/internal/usecase"
	xlogger "OilPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 4
)

// Hub fans every installed snapshot out to connected clients. A client that falls
// behind by more than sendBuffer notices is disconnected.
type Hub struct {
	logger       *xlogger.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *models.SnapshotNotice
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan models.SnapshotNotice
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub. Origins are checked by the CORS layer, not here.
func NewHub(logger *xlogger.Logger, pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		logger:       logger.With(xlogger.String("component", "ws_hub")),
		pingInterval: pingInterval,
		clients:      make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/ws", h.Serve)
}

// Publish is a store.Listener. It never blocks the reload that calls it.
func (h *Hub) Publish(snap *store.Snapshot) {
	notice := usecase.NoticeOf(snap)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &notice
	for c := range h.clients {
		select {
		case c.send <- notice:
		default:
			h.logger.Warn("Dropping slow websocket client")
			delete(h.clients, c)
			c.close()
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// Serve upgrades the request and streams notices until the client goes away. The
// current snapshot, if any, is sent right after the upgrade.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the error response
		h.logger.Warn("Websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	cl := &client{conn: conn, send: make(chan models.SnapshotNotice, sendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	h.clients[cl] = struct{}{}
	if h.last != nil {
		cl.send <- *h.last
	}
	h.mu.Unlock()

	go h.readPump(cl)
	h.writePump(cl)
	return nil
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		cl.close()
	}
}

// readPump discards client frames; it exists to observe close and pong frames.
func (h *Hub) readPump(cl *client) {
	defer h.remove(cl)
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case notice, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := cl.conn.WriteJSON(notice); err != nil {
				h.remove(cl)
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(cl)
				return
			}
		}
	}
}
