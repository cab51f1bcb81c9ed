package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"greenhat/internal/models"
	"greenhat/internal/service"
)

const writeWait = 5 * time.Second

// Update is the summary pushed to dashboard clients after each poll or
// recompute tick.
type Update struct {
	Type            string         `json:"type"`
	FetchedAt       time.Time      `json:"fetched_at"`
	ActiveSessions  int            `json:"active_sessions"`
	EndedSessions   int            `json:"ended_sessions"`
	PendingPayments int            `json:"pending_payments"`
	Revenue         service.Totals `json:"revenue"`
}

// BuildUpdate summarizes a snapshot for broadcast.
func BuildUpdate(snap models.Snapshot, now time.Time) Update {
	active, ended := service.CountSessions(snap.Sessions)
	pending := 0
	for _, p := range snap.Payments {
		if p.Status == models.PaymentPending {
			pending++
		}
	}
	return Update{
		Type:            "snapshot",
		FetchedAt:       snap.FetchedAt,
		ActiveSessions:  active,
		EndedSessions:   ended,
		PendingPayments: pending,
		Revenue:         service.Aggregate(snap.Payments, now).Totals,
	}
}

// conn wraps a websocket connection with a write lock; gorilla allows a
// single concurrent writer.
type conn struct {
	sock *websocket.Conn
	mu   sync.Mutex
}

func (c *conn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(v)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub tracks dashboard connections and broadcasts snapshot updates.
type Hub struct {
	logger       *zap.Logger
	pingInterval time.Duration

	mu    sync.RWMutex
	conns map[*conn]struct{}
}

// NewHub builds the hub.
func NewHub(logger *zap.Logger, pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		logger:       logger,
		pingInterval: pingInterval,
		conns:        make(map[*conn]struct{}),
	}
}

// Add registers a new dashboard connection and starts its read loop.
func (h *Hub) Add(sock *websocket.Conn) {
	c := &conn{sock: sock}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	go h.readLoop(c)
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends the update to every connection, dropping dead ones.
func (h *Hub) Broadcast(update Update) {
	h.mu.RLock()
	var failed []*conn
	for c := range h.conns {
		if err := c.writeJSON(update); err != nil {
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range failed {
		h.logger.Debug("dropping dashboard connection after write failure")
		h.remove(c)
	}
}

// Run pings connections on an interval until ctx is cancelled, then closes
// everything.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.mu.RLock()
			var failed []*conn
			for c := range h.conns {
				if err := c.ping(); err != nil {
					failed = append(failed, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range failed {
				h.remove(c)
			}
		}
	}
}

// readLoop drains inbound frames so close/pong handling works, and removes
// the connection when the peer goes away.
func (h *Hub) readLoop(c *conn) {
	for {
		if _, _, err := c.sock.NextReader(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()
	if ok {
		_ = c.sock.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		_ = c.sock.Close()
		delete(h.conns, c)
	}
}
