// Package httptransport assembles the HTTP surface: common middleware, the
// operational endpoints, and every feature handler's routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ballotgate/internal/platform/metrics"
	"ballotgate/internal/platform/middleware"
	"ballotgate/internal/transport/http/shared"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports the health of one dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router wires middleware, operational endpoints and feature routes.
type Router struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	checks  map[string]HealthChecker
}

func NewRouter(logger *slog.Logger, m *metrics.Metrics) *Router {
	return &Router{
		logger:  logger,
		metrics: m,
		checks:  make(map[string]HealthChecker),
	}
}

// AddHealthCheck registers a named dependency for /healthz. Nil checkers are
// ignored so optional dependencies can be passed through unconditionally.
func (rt *Router) AddHealthCheck(name string, check HealthChecker) {
	if check != nil {
		rt.checks[name] = check
	}
}

// Build assembles the chi router with the common middleware stack and every
// feature handler's routes.
func (rt *Router) Build(handlers ...Registrar) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Device)
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	if rt.metrics != nil {
		r.Use(middleware.Latency(rt.metrics))
	}

	r.Get("/healthz", rt.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	deps := make(map[string]string, len(rt.checks))
	for name, check := range rt.checks {
		if err := check.Health(ctx); err != nil {
			rt.logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err.Error())
			deps[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	shared.WriteJSON(w, status, body)
}
