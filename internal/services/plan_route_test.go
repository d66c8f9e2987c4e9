package services

import (
	"context"
	"errors"
	"field-route-service/internal/adapters/distance"
	"field-route-service/internal/domain"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newTestPlanningService(dir *fakeDirectory, router *distance.MockMatrixRouter) *PlanningService {
	opts := PlanningOptions{
		MaxClients:     200,
		DefaultClients: 4,
		PlanTimeout:    5 * time.Second,
		RoadTimeout:    time.Second,
		LegConcurrency: 2,
		FallbackFactor: 1,
		FuelCostPerKm:  5.5,
	}
	if router == nil {
		return NewPlanningService(dir, nil, NewRouteOptimizer(DefaultMaxPasses), opts)
	}
	return NewPlanningService(dir, router, NewRouteOptimizer(DefaultMaxPasses), opts)
}

func seededDirectory() *fakeDirectory {
	dir := newFakeDirectory()
	dir.clients[testDepot.ID] = []domain.Location{
		client("c1", 23.2000, 85.3100),
		client("c2", 23.2600, 85.3700),
		client("c3", 23.1000, 85.2800),
		client("c4", 23.3000, 85.4000),
		client("c5", 23.1500, 85.2000),
		client("c6", 23.2200, 85.2500),
	}
	return dir
}

func assertResultInvariants(t *testing.T, res *domain.PlanningResult) {
	t.Helper()

	require.NotEmpty(t, res.Stops)
	assert.Equal(t, domain.KindBranch, res.Stops[0].Kind)
	assert.Zero(t, res.Stops[0].DistanceFromLastKm)
	assert.Equal(t, len(res.Stops)-1, res.ClientCount)

	seen := map[string]bool{}
	sum := 0.0
	for _, s := range res.Stops {
		assert.False(t, seen[s.ID], "duplicate stop %q", s.ID)
		seen[s.ID] = true
		sum += s.DistanceFromLastKm
	}
	assert.InDelta(t, sum, res.TotalDistanceKm, 1e-9)
}

func TestPlanGreatCircle(t *testing.T) {
	svc := newTestPlanningService(seededDirectory(), nil)

	res, err := svc.Plan(context.Background(), PlanRequest{Branch: "087", NumClients: intPtr(3)})
	require.NoError(t, err)

	assertResultInvariants(t, res)
	assert.Equal(t, "087", res.Branch)
	assert.Equal(t, 3, res.ClientCount)
	assert.Equal(t, SourceGreatCircle, res.DataSource)
	assert.False(t, res.RoadSnapped)
	assert.Len(t, res.Polyline, 4)
	assert.Equal(t, math.Round(res.TotalDistanceKm*5.5), res.EstimatedFuelCost)

	// The three nearest clients are visited.
	visited := ids(locationsOf(res.Stops[1:]))
	assert.ElementsMatch(t, []string{"c1", "c3", "c6"}, visited)
}

func TestPlanWholePoolWhenRequestExceedsPool(t *testing.T) {
	svc := newTestPlanningService(seededDirectory(), nil)

	res, err := svc.Plan(context.Background(), PlanRequest{Branch: "087", NumClients: intPtr(50)})
	require.NoError(t, err)

	assertResultInvariants(t, res)
	assert.ElementsMatch(t, []string{"c1", "c2", "c3", "c4", "c5", "c6"}, ids(locationsOf(res.Stops[1:])))
}

func TestPlanDefaultsClientCount(t *testing.T) {
	svc := newTestPlanningService(seededDirectory(), nil)

	res, err := svc.Plan(context.Background(), PlanRequest{Branch: " 087:Ranchi Branch "})
	require.NoError(t, err)
	assert.Equal(t, 4, res.ClientCount)
	assert.Equal(t, "087:Ranchi Branch", res.Branch)
}

func TestPlanZeroClientsIsDepotOnly(t *testing.T) {
	svc := newTestPlanningService(seededDirectory(), nil)

	res, err := svc.Plan(context.Background(), PlanRequest{Branch: "087", NumClients: intPtr(0)})
	require.NoError(t, err)
	require.Len(t, res.Stops, 1)
	assert.Zero(t, res.TotalDistanceKm)
	assert.Zero(t, res.ClientCount)
}

func TestPlanEmptyPoolIsDepotOnly(t *testing.T) {
	svc := newTestPlanningService(newFakeDirectory(), nil)

	res, err := svc.Plan(context.Background(), PlanRequest{Branch: "087", NumClients: intPtr(5)})
	require.NoError(t, err)
	require.Len(t, res.Stops, 1)
	assert.Equal(t, "087", res.Stops[0].ID)
}

func TestPlanErrors(t *testing.T) {
	svc := newTestPlanningService(seededDirectory(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  PlanRequest
		want error
	}{
		{"empty branch", PlanRequest{Branch: "  "}, domain.ErrInvalidArgument},
		{"negative count", PlanRequest{Branch: "087", NumClients: intPtr(-1)}, domain.ErrInvalidArgument},
		{"over max", PlanRequest{Branch: "087", NumClients: intPtr(201)}, domain.ErrInvalidArgument},
		{"unknown branch", PlanRequest{Branch: "999"}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Plan(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPlanDirectoryFailureIsInternal(t *testing.T) {
	dir := seededDirectory()
	dir.err = errors.New("connection reset")
	svc := newTestPlanningService(dir, nil)

	_, err := svc.Plan(context.Background(), PlanRequest{Branch: "087"})
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestPlanSkipsUnroutableClients(t *testing.T) {
	dir := seededDirectory()
	dir.clients[testDepot.ID] = append(dir.clients[testDepot.ID],
		client("bad-lat", 123, 85.3),
		client("nan", math.NaN(), 85.3),
		client("c1", 23.21, 85.32),
		client("087", 23.19, 85.31),
	)
	svc := newTestPlanningService(dir, nil)

	res, err := svc.Plan(context.Background(), PlanRequest{Branch: "087", NumClients: intPtr(100)})
	require.NoError(t, err)
	assertResultInvariants(t, res)
	assert.Equal(t, 6, res.ClientCount)
}

func TestPlanRoadNetwork(t *testing.T) {
	router := &distance.MockMatrixRouter{}
	svc := newTestPlanningService(seededDirectory(), router)

	res, err := svc.Plan(context.Background(), PlanRequest{Branch: "087", NumClients: intPtr(4)})
	require.NoError(t, err)

	assertResultInvariants(t, res)
	assert.Equal(t, SourceRoadNetwork, res.DataSource)
	assert.True(t, res.RoadSnapped)
	assert.EqualValues(t, 1, router.MatrixCalls())
	assert.EqualValues(t, 4, router.Calls())
	assert.Len(t, res.Polyline, 5)
}

func TestPlanRoadFailureFallsBack(t *testing.T) {
	router := &distance.MockMatrixRouter{
		MockRoadRouter: distance.MockRoadRouter{Err: domain.ErrUpstreamUnavailable},
		MatrixErr:      domain.ErrUpstreamUnavailable,
	}
	svc := newTestPlanningService(seededDirectory(), router)

	res, err := svc.Plan(context.Background(), PlanRequest{Branch: "087", NumClients: intPtr(4)})
	require.NoError(t, err)

	assertResultInvariants(t, res)
	assert.Equal(t, SourceGreatCircle, res.DataSource)
	assert.False(t, res.RoadSnapped)
	// No leg geometry requested after a great-circle fallback.
	assert.Zero(t, router.Calls())
}

func TestPlanIsDeterministic(t *testing.T) {
	svc := newTestPlanningService(seededDirectory(), nil)

	first, err := svc.Plan(context.Background(), PlanRequest{Branch: "087", NumClients: intPtr(6)})
	require.NoError(t, err)
	second, err := svc.Plan(context.Background(), PlanRequest{Branch: "087", NumClients: intPtr(6)})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func locationsOf(stops []domain.RouteStop) []domain.Location {
	out := make([]domain.Location, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.Location)
	}
	return out
}
