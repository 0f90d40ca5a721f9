package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lorrc/broker-roster/internal/core/domain"
)

var (
	// ErrConnectionClosed is returned when sending to a closed connection.
	ErrConnectionClosed = errors.New("websocket connection closed")
	// ErrSendBufferFull is returned when a slow peer has not drained its queue.
	ErrSendBufferFull = errors.New("websocket send buffer full")
)

// ClientConfig holds per-connection timing and buffer limits.
type ClientConfig struct {
	// Time allowed to write a message to the peer.
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration
	// Send pings to peer with this period. Must be less than PongWait.
	PingPeriod time.Duration
	// Maximum message size allowed from peer.
	MaxMessageSize int64
	// Outbound events buffered before sends start failing.
	SendBufferSize int
}

// DefaultClientConfig returns the standard connection limits.
func DefaultClientConfig() ClientConfig {
	pongWait := 60 * time.Second
	return ClientConfig{
		WriteWait:      10 * time.Second,
		PongWait:       pongWait,
		PingPeriod:     (pongWait * 9) / 10,
		MaxMessageSize: 1024,
		SendBufferSize: 256,
	}
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound events. It is never closed; done
	// signals the write pump instead.
	send chan domain.Event
	done chan struct{}

	state     atomic.Int32
	closeOnce sync.Once

	cfg    ClientConfig
	logger *slog.Logger
}

var _ Conn = (*Client)(nil)

// NewClient wraps an upgraded connection. The client starts in
// StateConnecting and becomes a broadcast target once Serve is called.
func NewClient(hub *Hub, conn *websocket.Conn, cfg ClientConfig, logger *slog.Logger) *Client {
	defaults := DefaultClientConfig()
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaults.SendBufferSize
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaults.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = (cfg.PongWait * 9) / 10
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaults.WriteWait
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}

	id := uuid.NewString()
	c := &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan domain.Event, cfg.SendBufferSize),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger.With("connection_id", id),
	}
	c.state.Store(int32(StateConnecting))
	return c
}

// ID returns the connection identifier used in logs.
func (c *Client) ID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// Send queues an event for the write pump without blocking.
func (c *Client) Send(event domain.Event) error {
	if c.State() != StateOpen {
		return ErrConnectionClosed
	}

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- event:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close marks the client closed and tells the write pump to send a close
// frame. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
	})
}

// Serve opens the client, registers it with the hub, queues the initial
// sync notification and starts the I/O pumps.
func (c *Client) Serve() {
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		_ = c.conn.Close()
		return
	}

	c.hub.Register(c)

	// The channel carries no backlog, so a fresh connection refetches at once
	if err := c.Send(domain.NewBrokersChangedEvent()); err != nil {
		c.logger.Debug("initial sync not queued", "error", err)
	}

	go c.writePump()
	go c.readPump()
}

// readPump pumps messages from the websocket connection.
// It runs in its own goroutine and is the only reader of the connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		c.handleIncomingMessage(message)
	}
}

// writePump pumps events from the send buffer to the websocket connection.
// It runs in its own goroutine and is the only writer of the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}
			if err := c.writeJSON(event); err != nil {
				c.logger.Debug("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}

		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.cfg.WriteWait)); err != nil {
				c.logger.Debug("failed to send close message", "error", err)
			}
			return
		}
	}
}

// writeJSON writes a JSON message to the websocket connection
func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type string `json:"type"`
}

// handleIncomingMessage processes messages received from the client
func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case "PING":
		// Client-side keep-alive; a full buffer just skips the reply
		_ = c.Send(domain.Event{Type: domain.EventPong})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}
