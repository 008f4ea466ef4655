// Package stream pushes completed validation runs to WebSocket subscribers.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second

	// sendBuffer bounds per-client queues; slow clients are dropped rather
	// than allowed to block the broadcaster.
	sendBuffer = 8
)

// Hub fans out run summaries to connected WebSocket clients. It implements
// contracts.RunBroadcaster.
type Hub struct {
	logger   *logger.Logger
	upgrader websocket.Upgrader

	clients   map[*client]bool
	clientsMu sync.Mutex
}

type client struct {
	conn *websocket.Conn
	send chan contracts.RunSummary
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// Broadcast queues a run summary for every connected client. Clients whose
// buffer is full are disconnected.
func (h *Hub) Broadcast(run *contracts.Run) {
	summary := run.Summarize()

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- summary:
		default:
			h.logger.Warn("Dropping slow WebSocket client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the client until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan contracts.RunSummary, sendBuffer)}

	h.clientsMu.Lock()
	h.clients[c] = true
	h.clientsMu.Unlock()

	h.logger.WithField("remote", r.RemoteAddr).Debug("WebSocket client connected")

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop consumes control frames and detects disconnects. Clients are not
// expected to send data.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case summary, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(summary); err != nil {
				h.logger.WithError(err).Debug("WebSocket write failed")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.clientsMu.Unlock()

	c.conn.Close()
}
