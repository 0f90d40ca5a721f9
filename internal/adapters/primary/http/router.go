package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	mw "github.com/lorrc/broker-roster/internal/adapters/primary/http/middleware"
	"github.com/lorrc/broker-roster/internal/config"
	"github.com/lorrc/broker-roster/internal/infrastructure/metrics"
)

// RouterDeps collects everything the router mounts. Nil optional fields
// disable the corresponding feature.
type RouterDeps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Brokers   *BrokerHandler
	Health    *HealthHandler
	WebSocket *WebSocketHandler

	// Optional
	RateLimiter    *mw.RateLimiter
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

// NewRouter wires middleware and routes into a chi router
func NewRouter(d RouterDeps) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RecoveryLogger(d.Logger))
	r.Use(mw.RequestLogger(d.Logger))
	if d.HTTPMetrics != nil {
		r.Use(mw.Metrics(d.HTTPMetrics, d.Config.Metrics.Path))
	}

	// Health check endpoints (standard probe paths)
	d.Health.RegisterRoutes(r)

	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, d.Config.Metrics.Path, d.MetricsHandler)
	}

	// WebSocket route
	r.Get("/ws", d.WebSocket.ServeHTTP)

	// REST routes
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.Config.CORS.AllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
			},
			AllowedHeaders: []string{"Accept", "Content-Type", mw.RequestIDHeader},
			ExposedHeaders: []string{mw.RequestIDHeader},
			MaxAge:         d.Config.CORS.MaxAge,
		}))

		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware)
		}

		r.Route("/brokers", d.Brokers.RegisterRoutes)
	})

	return r
}
