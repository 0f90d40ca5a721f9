package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics holds Prometheus metrics for the change broadcaster.
// A nil *WebSocketMetrics is valid and records nothing.
type WebSocketMetrics struct {
	ActiveConnections prometheus.Gauge
	BroadcastsTotal   prometheus.Counter
	MessagesSent      prometheus.Counter
	SendFailures      prometheus.Counter
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of registered WebSocket connections.",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "broadcasts_total",
			Help:      "Total number of change notifications broadcast.",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_sent_total",
			Help:      "Total number of messages handed to connections.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "send_failures_total",
			Help:      "Total number of sends that failed and evicted a connection.",
		}),
	}

	reg.MustRegister(m.ActiveConnections, m.BroadcastsTotal, m.MessagesSent, m.SendFailures)
	return m
}

// SetActive records the current connection count.
func (m *WebSocketMetrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.ActiveConnections.Set(float64(n))
}

// ObserveBroadcast records one broadcast and its per-connection outcome.
func (m *WebSocketMetrics) ObserveBroadcast(sent, failed int) {
	if m == nil {
		return
	}
	m.BroadcastsTotal.Inc()
	m.MessagesSent.Add(float64(sent))
	m.SendFailures.Add(float64(failed))
}
