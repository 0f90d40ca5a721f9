package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/broker-roster/internal/core/domain"
	"github.com/lorrc/broker-roster/internal/infrastructure/metrics"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readWSEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event domain.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func waitForHubConnections(t *testing.T, app *testApp, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return app.hub.ConnectionCount() == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_MutationsReachWebSocketViewers(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	viewerA := dialWS(t, srv)
	viewerB := dialWS(t, srv)

	// Each viewer is told to fetch the roster as soon as it connects
	assert.Equal(t, domain.EventBrokersChanged, readWSEvent(t, viewerA).Type)
	assert.Equal(t, domain.EventBrokersChanged, readWSEvent(t, viewerB).Type)
	waitForHubConnections(t, app, 2)

	body, err := json.Marshal(map[string]any{
		"name":  "Ana",
		"email": "ana@example.com",
		"phone": "1",
	})
	require.NoError(t, err)

	resp, err := stdhttp.Post(srv.URL+"/api/brokers", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, stdhttp.StatusCreated, resp.StatusCode)

	assert.Equal(t, domain.EventBrokersChanged, readWSEvent(t, viewerA).Type)
	assert.Equal(t, domain.EventBrokersChanged, readWSEvent(t, viewerB).Type)
}

func TestRouter_FailedMutationDoesNotNotify(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	viewer := dialWS(t, srv)
	readWSEvent(t, viewer)
	waitForHubConnections(t, app, 1)

	req, err := stdhttp.NewRequest(stdhttp.MethodDelete, srv.URL+"/api/brokers/missing", nil)
	require.NoError(t, err)
	resp, err := stdhttp.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)

	require.NoError(t, viewer.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = viewer.ReadMessage()
	var netErr interface{ Timeout() bool }
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected no message, got %v", err)
}

func TestRouter_ClosedViewerIsDropped(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	viewer := dialWS(t, srv)
	readWSEvent(t, viewer)
	waitForHubConnections(t, app, 1)

	require.NoError(t, viewer.Close())
	waitForHubConnections(t, app, 0)

	// Mutations still succeed with nobody listening
	app.createBroker(t, "Ana", "ana@example.com")
}

func TestRouter_Metrics(t *testing.T) {
	cfg := testConfig()
	logger := testLogger()
	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	app := newTestApp(t)
	router := NewRouter(RouterDeps{
		Config:         cfg,
		Logger:         logger,
		Brokers:        NewBrokerHandler(nil, NewErrorHandler(logger), logger),
		Health:         NewHealthHandler(app.store, app.hub, "test"),
		WebSocket:      NewWebSocketHandler(app.hub, cfg, logger),
		HTTPMetrics:    httpMetrics,
		MetricsHandler: metrics.Handler(registry),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/health/live", nil))
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/brokers/some-id/unknown", nil))
	require.Equal(t, stdhttp.StatusNotFound, rec.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(httpMetrics.RequestsTotal))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil))
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "broker_roster_http_requests_total")
}

func TestRouter_CORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(stdhttp.MethodOptions, "/api/brokers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", stdhttp.MethodPost)
	rec := httptest.NewRecorder()

	app.router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

type failingStore struct{}

func (failingStore) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestHealthHandler(t *testing.T) {
	app := newTestApp(t)

	t.Run("ready", func(t *testing.T) {
		rec := app.do(t, stdhttp.MethodGet, "/health/ready", nil)
		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "healthy", resp.Checks["store"].Status)
	})

	t.Run("health reports connections", func(t *testing.T) {
		rec := app.do(t, stdhttp.MethodGet, "/health", nil)
		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Status      string `json:"status"`
			Connections int    `json:"connections"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, 0, resp.Connections)
	})

	t.Run("store down", func(t *testing.T) {
		h := NewHealthHandler(failingStore{}, nil, "test")
		rec := httptest.NewRecorder()
		h.HandleReadiness(rec, httptest.NewRequest(stdhttp.MethodGet, "/health/ready", nil))

		require.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "connection refused", resp.Checks["store"].Message)
	})
}
