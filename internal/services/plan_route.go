package services

import (
	"context"
	"errors"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/metrics"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type PlanningOptions struct {
	MaxClients     int
	DefaultClients int
	// PlanTimeout bounds a whole planning request.
	PlanTimeout time.Duration
	// RoadTimeout bounds each road lookup stage (matrix, leg geometry).
	RoadTimeout    time.Duration
	LegConcurrency int
	FallbackFactor float64
	FuelCostPerKm  float64
}

// PlanningService resolves a branch and its client pool, then selects,
// orders and assembles a field-visit route.
type PlanningService struct {
	directory ports.BranchDirectory
	// router is optional; without it distances are great-circle.
	router    ports.RoadRouter
	optimizer *RouteOptimizer
	opts      PlanningOptions
}

func NewPlanningService(
	directory ports.BranchDirectory,
	router ports.RoadRouter,
	optimizer *RouteOptimizer,
	opts PlanningOptions,
) *PlanningService {
	if optimizer == nil {
		optimizer = NewRouteOptimizer(DefaultMaxPasses)
	}
	if opts.MaxClients < 1 {
		opts.MaxClients = 200
	}
	opts.DefaultClients = min(max(opts.DefaultClients, 0), opts.MaxClients)

	return &PlanningService{
		directory: directory,
		router:    router,
		optimizer: optimizer,
		opts:      opts,
	}
}

type PlanRequest struct {
	Branch string
	// NumClients is the requested client count; nil selects the default.
	NumClients *int
}

func (s *PlanningService) MaxClients() int { return s.opts.MaxClients }

// Plan computes the route for req.
//
// Errors wrap domain.ErrInvalidArgument, domain.ErrNotFound or domain.ErrInternal.
// Road routing failures are recovered with great-circle distances.
func (s *PlanningService) Plan(ctx context.Context, req PlanRequest) (_ *domain.PlanningResult, err error) {
	defer obs.Time(ctx, "planning.Plan")(&err)
	start := time.Now()

	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "branch is required")
	}

	count := s.opts.DefaultClients
	if req.NumClients != nil {
		count = *req.NumClients
	}
	if count < 0 || count > s.opts.MaxClients {
		return nil, domain.Errorf(domain.ErrInvalidArgument,
			"num_clients must be between 0 and %d, got %d", s.opts.MaxClients, count)
	}

	if s.opts.PlanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.PlanTimeout)
		defer cancel()
	}

	depot, err := s.directory.LookupBranch(ctx, branch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidArgument) {
			return nil, fmt.Errorf("plan: %w", err)
		}
		return nil, wrapInternal("plan: lookup branch", err)
	}
	if err := domain.ValidateDepot(depot); err != nil {
		return nil, wrapInternal("plan: directory returned invalid depot", err)
	}

	pool, err := s.directory.LookupClients(ctx, depot.ID)
	if err != nil {
		return nil, wrapInternal("plan: lookup clients", err)
	}
	pool = sanitizePool(ctx, depot, pool)

	candidates, err := SelectCandidates(depot, pool, count)
	if err != nil {
		return nil, wrapInternal("plan: select candidates", err)
	}

	points := make([]domain.Location, 0, len(candidates)+1)
	points = append(points, depot)
	points = append(points, candidates...)

	m := BuildDistanceMatrix(ctx, s.router, points, MatrixOptions{
		Timeout:        s.opts.RoadTimeout,
		Concurrency:    s.opts.LegConcurrency,
		FallbackFactor: s.opts.FallbackFactor,
	})

	route, err := s.optimizer.Optimize(ctx, m)
	if err != nil {
		return nil, wrapInternal("plan: optimize", err)
	}
	if route.Aborted {
		log.Warn().
			Str("req_id", obs.RequestID(ctx)).
			Int("passes", route.Passes).
			Msg("route refinement cut short by deadline")
	}

	// Leg geometry only makes sense when distances came from the road network.
	var legs [][]domain.Coordinates
	if m.Source != SourceGreatCircle {
		legs = FetchRouteGeometry(ctx, s.router, route.Stops, s.opts.LegConcurrency, s.opts.RoadTimeout)
	}

	result := AssembleRoute(branch, m, route.Order, legs)
	result.EstimatedFuelCost = EstimateFuelCost(result.TotalDistanceKm, s.opts.FuelCostPerKm)

	metrics.PlanDuration.WithLabelValues(result.DataSource).Observe(time.Since(start).Seconds())
	metrics.PlannedStops.Observe(float64(result.ClientCount))

	log.Info().
		Str("req_id", obs.RequestID(ctx)).
		Str("branch", depot.ID).
		Int("pool", len(pool)).
		Int("clients", result.ClientCount).
		Float64("construction_km", route.ConstructionKm).
		Float64("total_km", result.TotalDistanceKm).
		Int("two_opt_improvements", route.Improvements).
		Str("source", result.DataSource).
		Msg("route planned")

	return result, nil
}

// sanitizePool drops clients that cannot be routed: invalid coordinates,
// repeated identifiers, and entries sharing the depot's identifier.
func sanitizePool(ctx context.Context, depot domain.Location, pool []domain.Location) []domain.Location {
	seen := make(map[string]struct{}, len(pool)+1)
	seen[depot.ID] = struct{}{}

	out := make([]domain.Location, 0, len(pool))
	for _, c := range pool {
		c.Kind = domain.KindClient

		reason := ""
		if err := c.Validate(); err != nil {
			reason = err.Error()
		} else if _, dup := seen[c.ID]; dup {
			reason = "duplicate id"
		}

		if reason != "" {
			log.Warn().
				Str("req_id", obs.RequestID(ctx)).
				Str("branch", depot.ID).
				Str("client", c.ID).
				Str("reason", reason).
				Msg("skipping client")
			continue
		}

		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func wrapInternal(op string, err error) error {
	if errors.Is(err, domain.ErrInternal) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrInternal, op, err)
}
