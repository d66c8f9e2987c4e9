package services

import (
	"context"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/metrics"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// AssembleRoute turns an ordered route into the planning result.
//
// Steps are numbered from 1 at the depot. Leg distances come from m and are rounded to the metre before being
// accumulated, so the total always equals the sum of the per-stop legs.
// legs holds optional road geometry per leg (legs[i] joins order[i] and
// order[i+1]); a nil entry is drawn as a straight segment.
func AssembleRoute(
	branch string,
	m *DistanceMatrix,
	order []int,
	legs [][]domain.Coordinates,
) *domain.PlanningResult {
	stops := make([]domain.RouteStop, 0, len(order))

	cumulative := 0.0
	for step, idx := range order {
		leg := 0.0
		if step > 0 {
			leg = roundKm(m.At(order[step-1], idx))
		}
		cumulative = roundKm(cumulative + leg)

		stops = append(stops, domain.RouteStop{
			Location:           m.Points[idx],
			Step:               step + 1,
			DistanceFromLastKm: leg,
			CumulativeKm:       cumulative,
		})
	}

	result := &domain.PlanningResult{
		Branch:          branch,
		Stops:           stops,
		TotalDistanceKm: cumulative,
		ClientCount:     max(len(stops)-1, 0),
		DataSource:      m.Source,
	}
	if len(stops) > 0 {
		result.Depot = stops[0].Location
	}

	result.Polyline, result.RoadSnapped = buildPolyline(stops, legs)

	return result
}

// buildPolyline concatenates leg geometry, dropping the duplicated joint point
// between consecutive legs. It reports whether every leg was road-snapped.
// A single-point leg counts as snapped when its two stops share coordinates.
func buildPolyline(stops []domain.RouteStop, legs [][]domain.Coordinates) ([]domain.Coordinates, bool) {
	if len(stops) == 0 {
		return []domain.Coordinates{}, false
	}

	if len(legs) != len(stops)-1 || len(legs) == 0 {
		line := make([]domain.Coordinates, 0, len(stops))
		for _, s := range stops {
			line = append(line, s.Coordinates)
		}
		return line, false
	}

	snapped := true
	line := make([]domain.Coordinates, 0, len(stops)*8)
	line = append(line, stops[0].Coordinates)

	for i, geom := range legs {
		samePoint := len(geom) == 1 && stops[i].Coordinates == stops[i+1].Coordinates
		if len(geom) < 2 && !samePoint {
			snapped = false
			geom = []domain.Coordinates{stops[i].Coordinates, stops[i+1].Coordinates}
		}

		for j, p := range geom {
			if j == 0 && p == line[len(line)-1] {
				continue
			}
			line = append(line, p)
		}
	}

	return line, snapped
}

// FetchRouteGeometry retrieves road polylines along the ordered stops.
// Routers that resolve whole paths are asked first; if that fails, or the
// router has no path support, legs are fetched one by one.
func FetchRouteGeometry(
	ctx context.Context,
	router ports.RoadRouter,
	stops []domain.Location,
	concurrency int,
	timeout time.Duration,
) [][]domain.Coordinates {
	if router == nil || len(stops) < 2 {
		return nil
	}

	if pr, ok := router.(ports.RoadPathRouter); ok {
		legs, err := fetchPathGeometry(ctx, pr, stops, timeout)
		if err == nil {
			return legs
		}
		metrics.RoadFallbacks.WithLabelValues("path").Inc()
		log.Warn().
			Err(err).
			Str("req_id", obs.RequestID(ctx)).
			Int("stops", len(stops)).
			Msg("road path geometry unavailable, fetching legs individually")
	}

	return FetchLegGeometry(ctx, router, stops, concurrency, timeout)
}

func fetchPathGeometry(
	ctx context.Context,
	router ports.RoadPathRouter,
	stops []domain.Location,
	timeout time.Duration,
) ([][]domain.Coordinates, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	points := make([]domain.Coordinates, len(stops))
	for i, s := range stops {
		points[i] = s.Coordinates
	}

	path, err := router.Path(ctx, points)
	if err != nil {
		return nil, err
	}
	if len(path) != len(stops)-1 {
		return nil, fmt.Errorf("road path returned %d legs for %d stops", len(path), len(stops))
	}

	legs := make([][]domain.Coordinates, len(path))
	for i, leg := range path {
		legs[i] = leg.Polyline
	}
	return legs, nil
}

// FetchLegGeometry retrieves road polylines for consecutive stops with at most
// concurrency calls in flight. Failed legs are left nil.
func FetchLegGeometry(
	ctx context.Context,
	router ports.RoadRouter,
	stops []domain.Location,
	concurrency int,
	timeout time.Duration,
) [][]domain.Coordinates {
	if router == nil || len(stops) < 2 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	legs := make([][]domain.Coordinates, len(stops)-1)

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i := range legs {
		g.Go(func() error {
			leg, err := router.Route(ctx, stops[i].Coordinates, stops[i+1].Coordinates)
			if err != nil {
				metrics.RoadFallbacks.WithLabelValues("leg").Inc()
				log.Warn().
					Err(err).
					Str("req_id", obs.RequestID(ctx)).
					Str("from", stops[i].ID).
					Str("to", stops[i+1].ID).
					Msg("road leg geometry unavailable, drawing straight segment")
				return nil
			}
			legs[i] = leg.Polyline
			return nil
		})
	}

	_ = g.Wait()

	return legs
}

// EstimateFuelCost prices a route at perKm, rounded to whole currency units.
func EstimateFuelCost(totalKm, perKm float64) float64 {
	return math.Round(totalKm * perKm)
}

func roundKm(v float64) float64 {
	return math.Round(v*1000) / 1000
}
