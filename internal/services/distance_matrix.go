package services

import (
	"context"
	"field-route-service/internal/domain"
	"field-route-service/internal/geo"
	"field-route-service/internal/platform/metrics"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Distance sources reported with every plan.
const (
	SourceRoadNetwork = "road_network"
	SourceGreatCircle = "great_circle"
	SourceMixed       = "mixed"
)

// DistanceMatrix holds symmetric travel distances (km) between Points.
// Index 0 is the depot. Matrices are built per request and never persisted.
type DistanceMatrix struct {
	Points []domain.Location
	Dist   [][]float64
	Source string
}

func (m *DistanceMatrix) Len() int { return len(m.Points) }

func (m *DistanceMatrix) At(i, j int) float64 { return m.Dist[i][j] }

// GreatCircleMatrix computes haversine distances between all points.
func GreatCircleMatrix(points []domain.Location) *DistanceMatrix {
	n := len(points)
	dist := newSquare(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := geo.Haversine(points[i].Coordinates, points[j].Coordinates)
			dist[i][j], dist[j][i] = d, d
		}
	}
	return &DistanceMatrix{Points: points, Dist: dist, Source: SourceGreatCircle}
}

type MatrixOptions struct {
	// Timeout bounds the whole road lookup.
	Timeout time.Duration
	// Concurrency bounds pairwise lookups for routers without a matrix endpoint.
	Concurrency int
	// FallbackFactor scales great-circle distances substituted for unroutable pairs.
	FallbackFactor float64
}

// BuildDistanceMatrix returns road distances when router is set and answers in
// time, and great-circle distances otherwise. Road failures are never returned.
func BuildDistanceMatrix(
	ctx context.Context,
	router ports.RoadRouter,
	points []domain.Location,
	opts MatrixOptions,
) *DistanceMatrix {
	gc := GreatCircleMatrix(points)
	if router == nil || len(points) < 2 {
		return gc
	}

	if opts.FallbackFactor < 1 {
		opts.FallbackFactor = 1
	}

	roadCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		roadCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	road, err := roadDistances(roadCtx, router, points, opts.Concurrency)
	if err != nil {
		metrics.RoadFallbacks.WithLabelValues("matrix").Inc()
		log.Warn().
			Err(err).
			Str("req_id", obs.RequestID(ctx)).
			Int("points", len(points)).
			Msg("road matrix unavailable, using great-circle distances")
		return gc
	}

	n := len(points)
	dist := newSquare(n)
	pairs, fallbacks := 0, 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs++

			a, okA := usableDistance(road[i][j])
			b, okB := usableDistance(road[j][i])

			var d float64
			switch {
			case okA && okB:
				d = (a + b) / 2
			case okA:
				d = a
			case okB:
				d = b
			default:
				d = gc.Dist[i][j] * opts.FallbackFactor
				fallbacks++
			}
			dist[i][j], dist[j][i] = d, d
		}
	}

	source := SourceRoadNetwork
	switch {
	case fallbacks == pairs:
		source = SourceGreatCircle
	case fallbacks > 0:
		source = SourceMixed
	}

	if fallbacks > 0 {
		metrics.RoadFallbacks.WithLabelValues("cell").Add(float64(fallbacks))
		log.Info().
			Str("req_id", obs.RequestID(ctx)).
			Int("unroutable_pairs", fallbacks).
			Int("pairs", pairs).
			Msg("road matrix had unroutable pairs")
	}

	return &DistanceMatrix{Points: points, Dist: dist, Source: source}
}

// roadDistances prefers one batched matrix call and otherwise queries each
// unordered pair once with bounded concurrency.
func roadDistances(
	ctx context.Context,
	router ports.RoadRouter,
	points []domain.Location,
	concurrency int,
) ([][]float64, error) {
	coords := make([]domain.Coordinates, len(points))
	for i, p := range points {
		coords[i] = p.Coordinates
	}

	if mr, ok := router.(ports.RoadMatrixRouter); ok {
		m, err := mr.Matrix(ctx, coords)
		if err != nil {
			return nil, fmt.Errorf("road matrix: %w", err)
		}
		if len(m) != len(coords) {
			return nil, fmt.Errorf("road matrix: got %d rows, want %d", len(m), len(coords))
		}
		for i, row := range m {
			if len(row) != len(coords) {
				return nil, fmt.Errorf("road matrix: row %d has %d cells, want %d", i, len(row), len(coords))
			}
		}
		return m, nil
	}

	if concurrency < 1 {
		concurrency = 1
	}

	n := len(coords)
	out := newSquare(n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.Go(func() error {
				leg, err := router.Route(gctx, coords[i], coords[j])
				if err != nil {
					return fmt.Errorf("road leg %d->%d: %w", i, j, err)
				}
				// Each goroutine owns distinct cells.
				out[i][j], out[j][i] = leg.DistanceKm, leg.DistanceKm
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func usableDistance(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

func newSquare(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// validate checks shape and values before the optimizer consumes m.
func (m *DistanceMatrix) validate() error {
	if m == nil || len(m.Points) == 0 {
		return fmt.Errorf("%w: distance matrix is empty", domain.ErrInternal)
	}
	n := len(m.Points)
	if len(m.Dist) != n {
		return fmt.Errorf("%w: distance matrix has %d rows for %d points", domain.ErrInternal, len(m.Dist), n)
	}
	for i, row := range m.Dist {
		if len(row) != n {
			return fmt.Errorf("%w: distance matrix row %d has %d cells, want %d", domain.ErrInternal, i, len(row), n)
		}
		for j, v := range row {
			if _, ok := usableDistance(v); !ok {
				return fmt.Errorf("%w: distance %d->%d is %v", domain.ErrInternal, i, j, v)
			}
		}
	}
	return nil
}
