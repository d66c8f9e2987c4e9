package api

import (
	"field-route-service/internal/api/handlers"
	"field-route-service/internal/platform/metrics"
	"field-route-service/internal/ports"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Planner        handlers.RoutePlanner
	Directory      ports.BranchDirectory
	AllowedOrigins []string
	HealthChecks   map[string]handlers.HealthCheck
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps RouterDeps) http.Handler {
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	healthHandler := &handlers.HealthHandler{Checks: deps.HealthChecks}
	planningHandler := &handlers.PlanningHandler{Planner: deps.Planner}
	branchHandler := &handlers.BranchHandler{Directory: deps.Directory}

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /api/planning/route", planningHandler.Route)
	mux.HandleFunc("GET /api/branches", branchHandler.List)

	// Other methods get a JSON 405 instead of the mux's plain-text reply.
	for _, path := range []string{"/health", "/metrics", "/api/planning/route", "/api/branches"} {
		mux.HandleFunc(path, handlers.MethodNotAllowed)
	}

	var h http.Handler = mux
	h = loggingMiddleware(h)
	h = requestIDMiddleware(h)
	h = corsMiddleware(deps.AllowedOrigins)(h)
	return h
}
