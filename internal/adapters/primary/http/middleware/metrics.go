package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lorrc/broker-roster/internal/infrastructure/metrics"
)

// Metrics returns a middleware that records request counts and latency
// by chi route pattern. It skips the metrics and health endpoints and
// WebSocket upgrades, whose duration is the connection lifetime.
func Metrics(m *metrics.HTTPMetrics, metricsPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == metricsPath || path == "/health" || strings.HasPrefix(path, "/health/") || path == "/ws" {
				next.ServeHTTP(w, r)
				return
			}

			m.InFlightGauge.Inc()
			defer m.InFlightGauge.Dec()

			wrapped := newResponseWriter(w)
			timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
				route := routePattern(r)
				status := strconv.Itoa(wrapped.statusCode)
				m.RequestDuration.WithLabelValues(r.Method, route, status).Observe(v)
				m.RequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			}))

			next.ServeHTTP(wrapped, r)
			timer.ObserveDuration()
		})
	}
}

// routePattern returns the matched chi route template, not the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
