package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/metrics"
)

// writeWait bounds a single websocket write so one dead peer cannot stall a
// broadcast.
const writeWait = 10 * time.Second

// Conn is the subset of *websocket.Conn the hub touches; tests substitute
// their own implementation.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Connection wraps a live socket with a write lock. Gorilla allows at most
// one concurrent writer, and both the hub (broadcasts) and the owning
// handler (acks, error frames) write to the same socket.
type Connection struct {
	conn Conn
	mu   sync.Mutex
}

func NewConnection(conn Conn) *Connection {
	return &Connection{conn: conn}
}

// Send marshals the payload and writes it as one text frame.
func (c *Connection) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.sendRaw(data)
}

func (c *Connection) sendRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub is the process-wide registry of live websocket connections per user.
// A user may hold several at once (phone plus browser tab).
type Hub struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Connection]struct{}
	log   *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		conns: make(map[uuid.UUID]map[*Connection]struct{}),
		log:   log,
	}
}

// Register adds the socket to the user's connection set and returns the
// wrapped connection plus an unregister func. Handlers defer the unregister
// so cleanup runs on every exit path, including panics and handshake errors.
func (h *Hub) Register(userID uuid.UUID, conn Conn) (*Connection, func()) {
	c := NewConnection(conn)

	h.mu.Lock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*Connection]struct{})
		h.conns[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	metrics.WebsocketConnections.Inc()
	h.log.Debug("websocket registered", "user_id", userID)

	var once sync.Once
	return c, func() {
		once.Do(func() {
			h.mu.Lock()
			// Close may have drained the registry already; only the path
			// that actually removes the connection adjusts the gauge.
			removed := false
			if set, ok := h.conns[userID]; ok {
				if _, in := set[c]; in {
					delete(set, c)
					removed = true
					if len(set) == 0 {
						delete(h.conns, userID)
					}
				}
			}
			h.mu.Unlock()

			if removed {
				metrics.WebsocketConnections.Dec()
			}
			c.conn.Close()
			h.log.Debug("websocket unregistered", "user_id", userID)
		})
	}
}

// Close tears down every registered connection, sending a going-away frame
// so peers see a clean close instead of a dropped stream. Called once during
// server shutdown; handlers still blocked in their read loops wake on the
// closed socket and run their (now no-op) unregister.
func (h *Hub) Close() {
	h.mu.Lock()
	drained := h.conns
	h.conns = make(map[uuid.UUID]map[*Connection]struct{})
	h.mu.Unlock()

	closeFrame := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	total := 0
	for _, set := range drained {
		for c := range set {
			c.mu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, closeFrame)
			c.conn.Close()
			c.mu.Unlock()
			metrics.WebsocketConnections.Dec()
			total++
		}
	}
	if total > 0 {
		h.log.Info("websockets closed on shutdown", "count", total)
	}
}

// Broadcast sends the payload to every live connection of the user. The
// payload is marshalled once. A write failure on one connection is logged
// and skipped; the rest still receive the message. Zero connections is a
// silent drop: the persisted record is the durable copy, the push is only a
// latency win.
func (h *Hub) Broadcast(userID uuid.UUID, channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("broadcast marshal", "user_id", userID, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.sendRaw(data); err != nil {
			h.log.Debug("websocket write failed", "user_id", userID, "error", err)
		}
	}
	if len(targets) > 0 {
		metrics.RecordBroadcast(channel)
	}
}

// Connections reports how many live sockets the user currently holds.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
