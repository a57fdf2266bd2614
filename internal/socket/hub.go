// Package socket fans in-app events out to a user's open websocket connections.
package socket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"jaothui-api-server/internal/logging"
)

const (
	// pongWait is how long a connection may stay silent before it is dropped.
	pongWait  = 60 * time.Second
	writeWait = 5 * time.Second
	readLimit = 4096
)

// client serialises writes to one connection. gorilla allows a single
// concurrent writer per conn.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// Hub tracks every open connection per profile id. A user may have several
// tabs or devices open at once. mu guards the registry only; socket writes
// happen outside it.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]*client
	logger  logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]*client),
		logger:  logger.With("component", "socket"),
	}
}

func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[userID]
	if !ok {
		conns = make(map[*websocket.Conn]*client)
		h.clients[userID] = conns
	}
	conns[conn] = &client{conn: conn}
	h.logger.Debug("websocket client registered", "user_id", userID, "connections", len(conns))
}

func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(userID, conn)
}

// remove expects h.mu to be held.
func (h *Hub) remove(userID string, conn *websocket.Conn) {
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
	h.logger.Debug("websocket client unregistered", "user_id", userID)
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Send writes message to every connection of userID and returns how many
// received it. Connections that fail the write are closed and dropped. A user
// with no open connection is not an error.
func (h *Hub) Send(userID string, message []byte) int {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for _, c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if err := c.write(message); err != nil {
			h.logger.Warn("websocket write failed", "user_id", userID, "error", err)
			c.conn.Close()
			h.Unregister(userID, c.conn)
			continue
		}
		sent++
	}
	return sent
}

// Notify sends v as JSON to userID's connections.
func (h *Hub) Notify(userID string, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encoding websocket event", "user_id", userID, "error", err)
		return
	}
	h.Send(userID, msg)
}

// Serve registers conn for userID and blocks reading until the client goes
// away. Client pings extend the read deadline; inbound messages are ignored.
func (h *Hub) Serve(userID string, conn *websocket.Conn) {
	h.Register(userID, conn)
	defer func() {
		h.Unregister(userID, conn)
		conn.Close()
	}()

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket closed unexpectedly", "user_id", userID, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
