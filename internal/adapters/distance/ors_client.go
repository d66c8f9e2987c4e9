package distance

import (
	"context"
	"errors"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ORSClient implements RoadRouter, RoadMatrixRouter and RoadPathRouter using
// OpenRouteService.
//
// It coordinates:
//   - Rate-limited API calls with bounded retry/backoff
//   - Chunked distance matrices
//   - Multi-waypoint route geometry and single-leg directions, both cached per leg
//   - Address geocoding for seed data
//
// The client is safe for concurrent use.
type ORSClient struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	profile     string
	limiter     *rate.Limiter
	legCache    ports.LegCache
	maxElements int
	maxAttempts int
	backoff     time.Duration
	// maxWaypoints is the provider cap on coordinates per directions request.
	maxWaypoints int
}

type ORSOptions struct {
	BaseURL string
	Profile string
	// RequestsPerSecond and Burst configure the token bucket shared by all calls.
	RequestsPerSecond float64
	Burst             int
	// Timeout bounds a single HTTP attempt.
	Timeout  time.Duration
	LegCache ports.LegCache
}

var (
	_ ports.RoadRouter       = (*ORSClient)(nil)
	_ ports.RoadMatrixRouter = (*ORSClient)(nil)
	_ ports.RoadPathRouter   = (*ORSClient)(nil)
)

func NewORSClient(apiKey string, opts ORSOptions) (*ORSClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openrouteservice.org"
	}
	if opts.Profile == "" {
		opts.Profile = "driving-car"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}

	client := &ORSClient{
		session:      &http.Client{Timeout: opts.Timeout},
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		profile:      opts.Profile,
		limiter:      rate.NewLimiter(limit, opts.Burst),
		legCache:     opts.LegCache,
		maxElements:  3500,
		maxAttempts:  3,
		backoff:      200 * time.Millisecond,
		maxWaypoints: 50,
	}

	return client, nil
}

// Route returns the road leg between two points, consulting the leg cache first.
func (o *ORSClient) Route(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ ports.RoadLeg, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	if err := from.Validate(); err != nil {
		return ports.RoadLeg{}, fmt.Errorf("ors route: origin: %w", err)
	}
	if err := to.Validate(); err != nil {
		return ports.RoadLeg{}, fmt.Errorf("ors route: destination: %w", err)
	}

	if from == to {
		return ports.RoadLeg{DistanceKm: 0, Polyline: []domain.Coordinates{from}}, nil
	}

	// Check persistent leg cache before issuing external API calls.
	if leg, ok := o.cachedLeg(ctx, from, to); ok {
		return leg, nil
	}

	leg, err := o.fetchDirections(ctx, from, to)
	if err != nil {
		return ports.RoadLeg{}, fmt.Errorf("%w: ors directions: %w", domain.ErrUpstreamUnavailable, err)
	}
	o.storeLeg(ctx, from, to, leg)

	return leg, nil
}

// cachedLeg reads the leg cache; read failures count as misses.
func (o *ORSClient) cachedLeg(ctx context.Context, from, to domain.Coordinates) (ports.RoadLeg, bool) {
	if o.legCache == nil {
		return ports.RoadLeg{}, false
	}
	leg, ok, err := o.legCache.Get(ctx, from, to)
	if err != nil {
		log.Warn().Err(err).Str("req_id", obs.RequestID(ctx)).Msg("leg cache read failed")
		return ports.RoadLeg{}, false
	}
	return leg, ok
}

func (o *ORSClient) storeLeg(ctx context.Context, from, to domain.Coordinates, leg ports.RoadLeg) {
	if o.legCache == nil {
		return
	}
	if err := o.legCache.Put(ctx, from, to, leg); err != nil {
		log.Warn().Err(err).Str("req_id", obs.RequestID(ctx)).Msg("leg cache write failed")
	}
}

// Matrix returns the full road distance matrix for points in kilometers.
func (o *ORSClient) Matrix(
	ctx context.Context,
	points []domain.Coordinates,
) (_ [][]float64, err error) {
	defer obs.Time(ctx, "ors.Matrix")(&err)

	if len(points) == 0 {
		return [][]float64{}, nil
	}

	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("ors matrix: point %d: %w", i, err)
		}
	}

	out, err := o.fetchMatrix(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("%w: ors matrix: %w", domain.ErrUpstreamUnavailable, err)
	}

	return out, nil
}
