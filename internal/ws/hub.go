package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/shared/id"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// client is one connected UI. Writes are serialized per connection;
// gorilla allows at most one concurrent writer.
type client struct {
	id   id.ConnID
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Recorder counts stream activity. The metrics collector implements it; a
// nil recorder disables counting.
type Recorder interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
	IncViewsCreated()
	IncViewSwitches()
}

// Hub tracks connected UIs and broadcasts domain events to all of them.
// It is the controller's Emitter.
type Hub struct {
	mu      sync.Mutex
	clients map[id.ConnID]*client
	logger  *zap.Logger
	rec     Recorder
}

// NewHub creates an empty hub. rec may be nil.
func NewHub(logger *zap.Logger, rec Recorder) *Hub {
	return &Hub{
		clients: make(map[id.ConnID]*client),
		logger:  logger,
		rec:     rec,
	}
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{id: id.NewConnID(), conn: conn}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	if h.rec != nil {
		h.rec.IncWSConnections()
	}
	h.logger.Info("ui connected", zap.String("conn_id", c.id.String()))
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	if h.rec != nil {
		h.rec.DecWSConnections()
	}
	h.logger.Info("ui disconnected", zap.String("conn_id", c.id.String()))
}

func (h *Hub) record(direction, msgType string) {
	if h.rec != nil {
		h.rec.RecordWSMessage(direction, msgType)
	}
}

// Emit broadcasts a domain event to every connected UI. A connection that
// fails to take the write is left to its read loop to clean up.
func (h *Hub) Emit(ev types.UIEvent) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	env := Envelope{Type: ev.EventType(), Data: ev}
	h.record("out", env.Type)
	for _, c := range clients {
		if err := c.write(env); err != nil {
			h.logger.Debug("event broadcast failed",
				zap.String("conn_id", c.id.String()),
				zap.Error(err),
			)
		}
	}
}

// Count returns the number of connected UIs.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
