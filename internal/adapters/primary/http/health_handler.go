package http

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"

	healthCheckTimeout = 5 * time.Second
)

// HealthChecker is implemented by the broker store
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ConnectionCounter reports the number of live WebSocket connections
type ConnectionCounter interface {
	ConnectionCount() int
}

// HealthHandler serves liveness, readiness and diagnostic probes
type HealthHandler struct {
	store     HealthChecker
	conns     ConnectionCounter
	startedAt time.Time
	version   string
}

// NewHealthHandler creates a new health handler. conns may be nil.
func NewHealthHandler(store HealthChecker, conns ConnectionCounter, version string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		conns:     conns,
		startedAt: time.Now(),
		version:   version,
	}
}

// HealthResponse is the body of every health probe
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check is the result of probing one dependency
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// RuntimeStats is the process snapshot included in /health
type RuntimeStats struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
}

// DetailedHealthResponse adds runtime and hub figures to HealthResponse
type DetailedHealthResponse struct {
	HealthResponse
	Memory      RuntimeStats `json:"memory"`
	Goroutines  int          `json:"goroutines"`
	Connections int          `json:"connections"`
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness reports that the process is up. It never touches the store.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    statusHealthy,
		Timestamp: now(),
	})
}

// HandleReadiness reports whether the store is reachable
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := h.report(r.Context(), statusUnhealthy)
	WriteJSON(w, httpStatusFor(resp.Status), resp)
}

// HandleHealth is the detailed probe used for debugging
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := DetailedHealthResponse{
		HealthResponse: h.report(r.Context(), statusDegraded),
		Memory: RuntimeStats{
			AllocBytes:      mem.Alloc,
			TotalAllocBytes: mem.TotalAlloc,
			SysBytes:        mem.Sys,
			NumGC:           mem.NumGC,
		},
		Goroutines: runtime.NumGoroutine(),
	}
	if h.conns != nil {
		resp.Connections = h.conns.ConnectionCount()
	}

	WriteJSON(w, httpStatusFor(resp.Status), resp)
}

// report runs the dependency checks. failStatus is the overall status
// used when any check fails.
func (h *HealthHandler) report(ctx context.Context, failStatus string) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	checks := map[string]Check{"store": h.checkStore(ctx)}

	status := statusHealthy
	for _, c := range checks {
		if c.Status != statusHealthy {
			status = failStatus
		}
	}

	return HealthResponse{
		Status:    status,
		Timestamp: now(),
		Version:   h.version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Checks:    checks,
	}
}

func (h *HealthHandler) checkStore(ctx context.Context) Check {
	if h.store == nil {
		return Check{Status: statusUnhealthy, Message: "Store not configured"}
	}

	start := time.Now()
	err := h.store.Ping(ctx)
	check := Check{Status: statusHealthy, Latency: time.Since(start).String()}
	if err != nil {
		check.Status = statusUnhealthy
		check.Message = err.Error()
	}
	return check
}

func httpStatusFor(status string) int {
	if status == statusHealthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
