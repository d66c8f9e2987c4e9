package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PlanDuration records end-to-end planning time by distance source.
	PlanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "route_plan_duration_seconds", Help: "Route planning duration in seconds.", Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}},
		[]string{"source"},
	)
	// PlannedStops records how many clients each plan visits.
	PlannedStops = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "route_plan_stops", Help: "Clients per planned route.", Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200}},
	)
	// TwoOptImprovements counts accepted 2-opt segment reversals.
	TwoOptImprovements = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "route_two_opt_improvements_total", Help: "Accepted 2-opt moves."},
	)
	// RoadFallbacks counts road-routing failures recovered with great-circle distances.
	RoadFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "road_routing_fallbacks_total", Help: "Road routing failures recovered locally."},
		[]string{"stage"},
	)
)

var regOnce sync.Once

// RegisterDefault registers collectors to Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PlanDuration)
		Registry.MustRegister(PlannedStops)
		Registry.MustRegister(TwoOptImprovements)
		Registry.MustRegister(RoadFallbacks)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
