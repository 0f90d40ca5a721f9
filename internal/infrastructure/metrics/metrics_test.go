package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebSocketMetrics(reg)

	m.SetActive(3)
	m.ObserveBroadcast(2, 1)
	m.ObserveBroadcast(2, 0)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.ActiveConnections))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BroadcastsTotal))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.MessagesSent))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SendFailures))
}

func TestWebSocketMetrics_NilIsNoop(t *testing.T) {
	var m *WebSocketMetrics

	assert.NotPanics(t, func() {
		m.SetActive(1)
		m.ObserveBroadcast(1, 1)
	})
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewWebSocketMetrics(reg)
	NewHTTPMetrics(reg)
	m.ObserveBroadcast(1, 0)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "broker_roster_websocket_broadcasts_total 1"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestDBMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDBMetrics(reg)

	m.ObserveQuery("SELECT", 2*time.Millisecond, false)
	m.ObserveQuery("INSERT", time.Millisecond, true)

	assert.Equal(t, 2, testutil.CollectAndCount(m.QueryDuration))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("INSERT")))

	var nilMetrics *DBMetrics
	assert.NotPanics(t, func() { nilMetrics.ObserveQuery("SELECT", time.Millisecond, true) })
}
