// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

type Checker interface {
	Ping(ctx context.Context) error
}

// Dependency is a named readiness check. Optional dependencies report
// "degraded" without failing readiness.
type Dependency struct {
	Name     string
	Checker  Checker
	Optional bool
}

type Handler struct {
	deps     []Dependency
	timeout  time.Duration
	ready    atomic.Bool
	shutdown atomic.Bool
}

func NewHandler(deps ...Dependency) *Handler {
	h := &Handler{
		deps:    deps,
		timeout: 5 * time.Second,
	}
	h.ready.Store(true)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.shutdown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}

	writeStatus(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}

	if !h.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "not_ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := h.runChecks(ctx)

	status := "ok"
	statusCode := http.StatusOK
	for i, check := range checks {
		if check.Healthy {
			continue
		}
		if h.deps[i].Optional {
			if status == "ok" {
				status = "degraded"
			}
			continue
		}
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	writeStatus(w, statusCode, ReadinessResponse{
		Status: status,
		Checks: checks,
	})
}

func (h *Handler) runChecks(ctx context.Context) []HealthCheck {
	checks := make([]HealthCheck, len(h.deps))

	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = check(ctx, dep)
		}()
	}
	wg.Wait()

	return checks
}

func check(ctx context.Context, dep Dependency) HealthCheck {
	result := HealthCheck{Name: dep.Name, Healthy: true}

	if dep.Checker == nil {
		result.Healthy = false
		result.Message = dep.Name + " checker not configured"
		return result
	}

	start := time.Now()
	err := dep.Checker.Ping(ctx)
	result.Latency = time.Since(start).String()

	if err != nil {
		result.Healthy = false
		result.Message = "ping failed"
	}

	return result
}

func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(data)
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}
