// Package httptransport assembles the HTTP surface: middleware chain,
// authenticated API routes and the public operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"regoffice/internal/platform/metrics"
	"regoffice/internal/platform/middleware"
	"regoffice/internal/transport/http/shared"
)

// Registrar mounts a handler's routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency for the health endpoint.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Deps carries everything the router wires together.
type Deps struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	JWTValidator middleware.JWTValidator
	Handlers     []Registrar
	HealthChecks []HealthCheck
}

// NewRouter builds the service router. API routes sit behind bearer auth;
// health and metrics stay public for the platform.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler(deps.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))
		for _, h := range deps.Handlers {
			h.Register(api)
		}
	})

	return r
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.Probe(ctx); err != nil {
				report[check.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			report[check.Name] = "ok"
		}
		shared.WriteJSON(w, status, report)
	}
}
