package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	wsAdapter "github.com/lorrc/broker-roster/internal/adapters/primary/websocket"
	"github.com/lorrc/broker-roster/internal/config"
	"github.com/lorrc/broker-roster/internal/infrastructure/logging"
)

// WebSocketHandler upgrades viewers on /ws and hands them to the hub
type WebSocketHandler struct {
	hub       *wsAdapter.Hub
	clientCfg wsAdapter.ClientConfig
	upgrader  websocket.Upgrader
	logger    *slog.Logger

	allowAnyOrigin bool
	allowedOrigins []string
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *wsAdapter.Hub, cfg *config.Config, logger *slog.Logger) *WebSocketHandler {
	ws := cfg.WebSocket
	h := &WebSocketHandler{
		hub: hub,
		clientCfg: wsAdapter.ClientConfig{
			WriteWait:      ws.WriteWait,
			PongWait:       ws.PongWait,
			PingPeriod:     ws.PingInterval,
			MaxMessageSize: ws.MaxMessageSize,
			SendBufferSize: ws.SendBufferSize,
		},
		logger:         logger.With("handler", "websocket"),
		allowAnyOrigin: cfg.IsDevelopment(),
		allowedOrigins: ws.AllowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  ws.ReadBufferSize,
		WriteBufferSize: ws.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and, outside development, only the configured hosts.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowAnyOrigin {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		h.logger.Warn("unparseable websocket origin", "origin", origin, "error", err)
		return false
	}
	if originAllowed(u.Host, h.allowedOrigins) {
		return true
	}

	h.logger.Warn("websocket origin rejected",
		"origin", origin,
		"remote_addr", r.RemoteAddr,
	)
	return false
}

// originAllowed matches host against exact entries and "*.domain" wildcards.
// A wildcard also matches the bare domain.
func originAllowed(host string, allowed []string) bool {
	for _, pattern := range allowed {
		if domain, ok := strings.CutPrefix(pattern, "*."); ok {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and blocks until the viewer disconnects
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.LoggerFromContext(r.Context(), h.logger)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	client := wsAdapter.NewClient(h.hub, conn, h.clientCfg, logger)
	logger.Info("viewer connected",
		"connection_id", client.ID(),
		"remote_addr", r.RemoteAddr,
	)

	client.Serve()
}
