package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/ilyklain/khlan-saas/internal/model"
)

const (
	defaultPingInterval = 30 * time.Second
	sendBuffer          = 64
)

// Hub fans layout events out to connected WebSocket clients.
//
// Clients are not held to a read deadline: the page only listens, so
// liveness is judged by the ping loop alone.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	closed   bool
	done     chan struct{}
	snapshot func() model.Layout
	log      *zap.Logger

	pingInterval time.Duration
}

type wsClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. snapshot, if non-nil, supplies the layout sent to
// each client when it connects or asks for a sync.
func NewHub(snapshot func() model.Layout, log *zap.Logger) *Hub {
	return &Hub{
		clients:      make(map[*wsClient]struct{}),
		done:         make(chan struct{}),
		snapshot:     snapshot,
		log:          log.With(zap.String("component", "ws")),
		pingInterval: defaultPingInterval,
	}
}

// Run blocks until ctx is done, then drops every client and refuses new
// ones.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// register adds c; false once the hub has stopped.
func (h *Hub) register(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends ev to every client. It never blocks: a client whose
// buffer is full misses the event.
func (h *Hub) Publish(ev model.Event) {
	data, err := json.Marshal(struct {
		Type string `json:"type"`
		model.Event
	}{Type: "layout", Event: ev})
	if err != nil {
		h.log.Error("encode event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("client too slow, event dropped", zap.String("client", c.id))
		}
	}
}

// sendTo queues data for c if c is still registered.
func (h *Hub) sendTo(c *wsClient, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) snapshotMessage() []byte {
	if h.snapshot == nil {
		return nil
	}
	data, err := json.Marshal(map[string]interface{}{
		"type":    "snapshot",
		"widgets": h.snapshot(),
	})
	if err != nil {
		return nil
	}
	return data
}

// pingLoop drops the connection once a ping goes unanswered, which unblocks
// readPump.
func (c *wsClient) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.hub.pingInterval)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.hub.log.Debug("ping failed", zap.String("client", c.id), zap.Error(err))
				c.conn.CloseNow()
				return
			}
		}
	}
}

// HandleWS handles WebSocket upgrade and manages the connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for local tool
	})
	if err != nil {
		h.log.Warn("accept", zap.Error(err))
		return
	}

	client := &wsClient{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !h.register(client) {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	h.log.Debug("client connected", zap.String("client", client.id))

	// Registered first, so any mutation after this snapshot is also
	// delivered as an event.
	if msg := h.snapshotMessage(); msg != nil {
		h.sendTo(client, msg)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.pingLoop(ctx)
	go client.writePump(ctx)
	client.readPump(ctx)
}

func (c *wsClient) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.hub.log.Debug("client disconnected", zap.String("client", c.id))
		c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "sync" {
			if snap := c.hub.snapshotMessage(); snap != nil {
				c.hub.sendTo(c, snap)
			}
		}
	}
}

// writePump drains send. A closed send channel means the hub dropped the
// client, so the connection is closed too.
func (c *wsClient) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "server stopping")
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}
