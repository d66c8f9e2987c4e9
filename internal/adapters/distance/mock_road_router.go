package distance

import (
	"context"
	"field-route-service/internal/domain"
	"field-route-service/internal/geo"
	"field-route-service/internal/ports"
	"sync/atomic"
	"time"
)

// MockRoadRouter is a deterministic RoadRouter for tests and offline runs.
// Distances come from DistanceFunc (great-circle when nil); legs are straight
// two-point polylines.
type MockRoadRouter struct {
	DistanceFunc func(from, to domain.Coordinates) float64
	// Err, when set, is returned by every Route call.
	Err error
	// Delay blocks each call until it elapses or ctx is done.
	Delay time.Duration

	calls atomic.Int64
}

var _ ports.RoadRouter = (*MockRoadRouter)(nil)

func (m *MockRoadRouter) Route(ctx context.Context, from, to domain.Coordinates) (ports.RoadLeg, error) {
	m.calls.Add(1)

	if err := m.wait(ctx); err != nil {
		return ports.RoadLeg{}, err
	}
	if m.Err != nil {
		return ports.RoadLeg{}, m.Err
	}

	return ports.RoadLeg{
		DistanceKm: m.distance(from, to),
		Polyline:   []domain.Coordinates{from, to},
	}, nil
}

// Calls reports how many Route calls were made.
func (m *MockRoadRouter) Calls() int64 {
	return m.calls.Load()
}

func (m *MockRoadRouter) distance(from, to domain.Coordinates) float64 {
	if m.DistanceFunc != nil {
		return m.DistanceFunc(from, to)
	}
	return geo.Haversine(from, to)
}

func (m *MockRoadRouter) wait(ctx context.Context) error {
	if m.Delay <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(m.Delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// MockMatrixRouter extends MockRoadRouter with batched matrices.
type MockMatrixRouter struct {
	MockRoadRouter
	MatrixErr error

	matrixCalls atomic.Int64
}

var _ ports.RoadMatrixRouter = (*MockMatrixRouter)(nil)

func (m *MockMatrixRouter) Matrix(ctx context.Context, points []domain.Coordinates) ([][]float64, error) {
	m.matrixCalls.Add(1)

	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.MatrixErr != nil {
		return nil, m.MatrixErr
	}

	out := make([][]float64, len(points))
	for i := range points {
		out[i] = make([]float64, len(points))
		for j := range points {
			if i != j {
				out[i][j] = m.distance(points[i], points[j])
			}
		}
	}
	return out, nil
}

func (m *MockMatrixRouter) MatrixCalls() int64 {
	return m.matrixCalls.Load()
}

// MockPathRouter extends MockMatrixRouter with whole-route geometry.
type MockPathRouter struct {
	MockMatrixRouter
	PathErr error

	pathCalls atomic.Int64
}

var _ ports.RoadPathRouter = (*MockPathRouter)(nil)

func (m *MockPathRouter) Path(ctx context.Context, points []domain.Coordinates) ([]ports.RoadLeg, error) {
	m.pathCalls.Add(1)

	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.PathErr != nil {
		return nil, m.PathErr
	}

	legs := make([]ports.RoadLeg, 0, max(len(points)-1, 0))
	for i := 1; i < len(points); i++ {
		from, to := points[i-1], points[i]
		if from == to {
			legs = append(legs, ports.RoadLeg{Polyline: []domain.Coordinates{from}})
			continue
		}
		legs = append(legs, ports.RoadLeg{
			DistanceKm: m.distance(from, to),
			Polyline:   []domain.Coordinates{from, to},
		})
	}
	return legs, nil
}

func (m *MockPathRouter) PathCalls() int64 {
	return m.pathCalls.Load()
}
