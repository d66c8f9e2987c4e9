package services

import (
	"context"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/metrics"
	"field-route-service/internal/platform/obs"
	"fmt"
	"math"
)

const (
	DefaultMaxPasses = 50
	DefaultEpsilon   = 1e-9
)

// RouteOptimizer orders stops into a short open path from a fixed depot.
//
// Construction is greedy nearest-neighbour; refinement is 2-opt with a bounded
// number of passes. It holds no per-request state and is safe for concurrent use.
type RouteOptimizer struct {
	MaxPasses int
	// Epsilon is the minimum gain (km) for a 2-opt move to count as an improvement.
	Epsilon float64
}

func NewRouteOptimizer(maxPasses int) *RouteOptimizer {
	if maxPasses < 1 {
		maxPasses = DefaultMaxPasses
	}
	return &RouteOptimizer{MaxPasses: maxPasses, Epsilon: DefaultEpsilon}
}

// OptimizedRoute is the optimizer output: indices into the matrix points
// starting with the depot, plus the costs before and after refinement.
type OptimizedRoute struct {
	Order          []int
	Stops          []domain.Location
	ConstructionKm float64
	FinalKm        float64
	Passes         int
	Improvements   int
	// Aborted is set when ctx ended refinement early; the route is still valid.
	Aborted bool
}

// Optimize computes the visiting order over m, whose point 0 is the depot.
func (o *RouteOptimizer) Optimize(ctx context.Context, m *DistanceMatrix) (_ *OptimizedRoute, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)

	if m == nil || len(m.Points) == 0 {
		return nil, fmt.Errorf("%w: optimize: distance matrix is empty", domain.ErrInternal)
	}
	if err := domain.ValidateDepot(m.Points[0]); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	if err := validateStops(m.Points); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	order := nearestNeighborOrder(m)
	construction := pathLength(m, order)

	maxPasses := o.MaxPasses
	if maxPasses < 1 {
		maxPasses = DefaultMaxPasses
	}
	eps := o.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	stats := twoOpt(ctx, m, order, maxPasses, eps)
	metrics.TwoOptImprovements.Add(float64(stats.improvements))

	stops := make([]domain.Location, len(order))
	for i, idx := range order {
		stops[i] = m.Points[idx]
	}

	return &OptimizedRoute{
		Order:          order,
		Stops:          stops,
		ConstructionKm: construction,
		FinalKm:        pathLength(m, order),
		Passes:         stats.passes,
		Improvements:   stats.improvements,
		Aborted:        stats.aborted,
	}, nil
}

// OptimizeLocations optimizes stops from depot over great-circle distances.
func (o *RouteOptimizer) OptimizeLocations(
	ctx context.Context,
	depot domain.Location,
	stops []domain.Location,
) (*OptimizedRoute, error) {
	points := make([]domain.Location, 0, len(stops)+1)
	points = append(points, depot)
	points = append(points, stops...)

	return o.Optimize(ctx, GreatCircleMatrix(points))
}

// validateStops rejects duplicate identifiers and non-finite coordinates.
// points[0] is the depot and takes part in the duplicate check.
func validateStops(points []domain.Location) error {
	seen := make(map[string]struct{}, len(points))
	for i, p := range points {
		if !isFinite(p.Lat) || !isFinite(p.Lon) {
			return fmt.Errorf("%w: stop %q has non-finite coordinates", domain.ErrInternal, p.ID)
		}
		if i > 0 {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("stop %d: %w", i, err)
			}
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: duplicate stop id %q", domain.ErrInvalidArgument, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
