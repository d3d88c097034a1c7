package notifications

import (
	"context"
	"errors"
	"sync"

	"squadup/internal/middleware"
	"squadup/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	hubName         = "inbox"
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

var (
	// ErrUserConnLimit is returned when a user already holds maxConnsPerUser sockets.
	ErrUserConnLimit = errors.New("user connection limit reached")
	// ErrServerConnLimit is returned when the hub is at capacity.
	ErrServerConnLimit = errors.New("server connection limit reached")
)

// Hub maps user ids to their open inbox sockets on this replica.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[*Client]struct{}
	total int
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Name identifies the hub in logs and metrics.
func (h *Hub) Name() string { return hubName }

// Register adds a connection for userID.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.conns[userID] = set
	}
	if len(set) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	c := newClient(h, conn, userID)
	set[c] = struct{}{}
	h.total++
	observability.WebSocketConnectionsTotal.Inc()
	return c, nil
}

// Unregister removes c and closes its send queue. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.UserID]
	if !ok {
		return
	}
	if _, exists := set[c]; !exists {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, c.UserID)
	}
	h.total--
	observability.WebSocketConnectionsTotal.Dec()
	close(c.Send)
}

// Deliver queues message on every socket userID holds on this replica.
func (h *Hub) Deliver(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data := []byte(message)
	for c := range h.conns[userID] {
		c.TrySend(data)
	}
}

// Connections returns how many sockets userID holds.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring forwards every user event published through n to local sockets.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.Subscribe(ctx, h.Deliver)
}

// Shutdown closes every send queue; each WritePump then writes a close frame
// and drops its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.conns {
		for c := range set {
			close(c.Send)
		}
		middleware.Logger.Debug("closed inbox sockets", "user_id", userID, "count", len(set))
	}
	observability.WebSocketConnectionsTotal.Sub(float64(h.total))
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	return nil
}
