package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/broker-roster/internal/core/domain"
	"github.com/lorrc/broker-roster/internal/core/ports"
	"github.com/lorrc/broker-roster/internal/infrastructure/metrics"
)

// ConnState is the lifecycle state of a single connection.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Conn is one subscriber as seen by the hub.
//
// Send must not block on network I/O. Close must be safe to call more than
// once and moves the connection to StateClosed.
type Conn interface {
	ID() string
	Send(event domain.Event) error
	Close()
	State() ConnState
}

// Hub maintains the set of live connections and fans change notifications
// out to them.
type Hub struct {
	// conns is the live set; only OPEN connections are ever added
	conns map[Conn]struct{}

	// closed is set by Shutdown; later registrations are refused
	closed bool

	// mu protects conns and closed. It is never held during a send.
	mu sync.RWMutex

	metrics *metrics.WebSocketMetrics
	logger  *slog.Logger
}

// Ensure Hub implements the ChangeNotifier interface.
var _ ports.ChangeNotifier = (*Hub)(nil)

// NewHub creates a new WebSocket hub. wsMetrics may be nil.
func NewHub(logger *slog.Logger, wsMetrics *metrics.WebSocketMetrics) *Hub {
	return &Hub{
		conns:   make(map[Conn]struct{}),
		metrics: wsMetrics,
		logger:  logger.With("component", "websocket_hub"),
	}
}

// Register adds an OPEN connection to the live set. Registering the same
// connection twice is a no-op, as is registering one that is not OPEN.
func (h *Hub) Register(conn Conn) {
	if state := conn.State(); state != StateOpen {
		h.logger.Debug("ignoring registration of non-open connection",
			"connection_id", conn.ID(),
			"state", state.String(),
		)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	if _, exists := h.conns[conn]; exists {
		h.mu.Unlock()
		return
	}
	h.conns[conn] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()

	h.metrics.SetActive(count)
	h.logger.Info("connection registered",
		"connection_id", conn.ID(),
		"total_connections", count,
	)
}

// Unregister removes a connection from the live set and closes it.
// It is safe to call for connections that were never registered.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	_, exists := h.conns[conn]
	delete(h.conns, conn)
	count := len(h.conns)
	h.mu.Unlock()

	conn.Close()

	if !exists {
		return
	}

	h.metrics.SetActive(count)
	h.logger.Info("connection unregistered",
		"connection_id", conn.ID(),
		"total_connections", count,
	)
}

// Broadcast attempts one send per live connection and returns how many
// succeeded. A connection whose send fails is unregistered; the others are
// unaffected.
func (h *Hub) Broadcast(event domain.Event) int {
	// Copy the set so sends happen without holding the lock
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	sent, failed := 0, 0
	for _, conn := range conns {
		if err := conn.Send(event); err != nil {
			failed++
			h.logger.Warn("send failed, dropping connection",
				"connection_id", conn.ID(),
				"event_type", event.Type,
				"error", err,
			)
			h.Unregister(conn)
			continue
		}
		sent++
	}

	h.metrics.ObserveBroadcast(sent, failed)
	h.logger.Debug("broadcast complete",
		"event_type", event.Type,
		"sent", sent,
		"failed", failed,
	)

	return sent
}

// NotifyChanged tells every live connection to refetch the broker list.
func (h *Hub) NotifyChanged(ctx context.Context) {
	sent := h.Broadcast(domain.NewBrokersChangedEvent())
	h.logger.DebugContext(ctx, "change notification sent", "recipients", sent)
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown closes every live connection and refuses further registrations.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	conns := make([]Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = make(map[Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}

	h.metrics.SetActive(0)
	h.logger.Info("websocket hub shut down", "closed_connections", len(conns))
}
