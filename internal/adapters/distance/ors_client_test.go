package distance

import (
	"context"
	"encoding/json"
	"errors"
	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ranchi = domain.Coordinates{Lat: 23.1815, Lon: 85.3055}
	khunti = domain.Coordinates{Lat: 23.0710, Lon: 85.2780}
	lohar  = domain.Coordinates{Lat: 23.4300, Lon: 84.6800}
)

func newTestClient(t *testing.T, srv *httptest.Server, cache ports.LegCache) *ORSClient {
	t.Helper()

	c, err := NewORSClient("test-key", ORSOptions{
		BaseURL:  srv.URL,
		Profile:  "driving-car",
		Timeout:  2 * time.Second,
		LegCache: cache,
	})
	require.NoError(t, err)
	c.backoff = time.Millisecond
	return c
}

func TestNewORSClientRejectsEmptyKey(t *testing.T) {
	_, err := NewORSClient("  ", ORSOptions{})
	assert.Error(t, err)
}

func TestRouteParsesGeoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/directions/driving-car", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "85.3055,23.1815", r.URL.Query().Get("start"))
		assert.Equal(t, "85.278,23.071", r.URL.Query().Get("end"))

		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[[85.3055,23.1815],[85.29,23.12],[85.278,23.071]]},"properties":{"summary":{"distance":14250.0}}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	leg, err := c.Route(context.Background(), ranchi, khunti)
	require.NoError(t, err)
	assert.InDelta(t, 14.25, leg.DistanceKm, 1e-9)
	require.Len(t, leg.Polyline, 3)
	assert.Equal(t, ranchi, leg.Polyline[0])
	assert.Equal(t, domain.Coordinates{Lat: 23.12, Lon: 85.29}, leg.Polyline[1])
}

func TestRouteSamePointSkipsUpstream(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	leg, err := c.Route(context.Background(), ranchi, ranchi)
	require.NoError(t, err)
	assert.Zero(t, leg.DistanceKm)
	assert.Zero(t, hits.Load())
}

func TestRouteRetriesTransientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[[85.3055,23.1815],[85.278,23.071]]},"properties":{"summary":{"distance":1000}}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	leg, err := c.Route(context.Background(), ranchi, khunti)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, leg.DistanceKm, 1e-9)
	assert.EqualValues(t, 3, hits.Load())
}

func TestRouteGivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	_, err := c.Route(context.Background(), ranchi, khunti)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.EqualValues(t, 3, hits.Load())
}

func TestRouteDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	_, err := c.Route(context.Background(), ranchi, khunti)
	require.Error(t, err)

	var he *httpStatusError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusForbidden, he.Code)
	assert.Equal(t, "bad key", he.Message)
	assert.EqualValues(t, 1, hits.Load())
}

type memoryLegCache struct {
	mu   sync.Mutex
	legs map[[2]domain.Coordinates]ports.RoadLeg
}

func (m *memoryLegCache) Get(_ context.Context, from, to domain.Coordinates) (ports.RoadLeg, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	leg, ok := m.legs[[2]domain.Coordinates{from, to}]
	return leg, ok, nil
}

func (m *memoryLegCache) Put(_ context.Context, from, to domain.Coordinates, leg ports.RoadLeg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legs[[2]domain.Coordinates{from, to}] = leg
	return nil
}

func TestRouteUsesLegCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[[85.3055,23.1815],[85.278,23.071]]},"properties":{"summary":{"distance":2500}}}]}`))
	}))
	defer srv.Close()

	cache := &memoryLegCache{legs: map[[2]domain.Coordinates]ports.RoadLeg{}}
	c := newTestClient(t, srv, cache)

	for range 3 {
		leg, err := c.Route(context.Background(), ranchi, khunti)
		require.NoError(t, err)
		assert.InDelta(t, 2.5, leg.DistanceKm, 1e-9)
	}
	assert.EqualValues(t, 1, hits.Load())
}

func TestMatrixChunksBySourceRows(t *testing.T) {
	var (
		mu      sync.Mutex
		batches [][]int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/matrix/driving-car", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req matrixRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "km", req.Units)
		assert.Equal(t, []string{"distance"}, req.Metrics)

		mu.Lock()
		batches = append(batches, req.Sources)
		mu.Unlock()

		rows := make([][]*float64, 0, len(req.Sources))
		for _, s := range req.Sources {
			row := make([]*float64, len(req.Locations))
			for j := range req.Locations {
				if s == 0 && j == 2 {
					continue
				}
				v := float64(s*10 + j)
				row[j] = &v
			}
			rows = append(rows, row)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"distances": rows})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	c.maxElements = 6

	m, err := c.Matrix(context.Background(), []domain.Coordinates{ranchi, khunti, lohar})
	require.NoError(t, err)
	require.Len(t, m, 3)

	assert.Equal(t, [][]int{{0, 1}, {2}}, batches)
	assert.Equal(t, 1.0, m[0][1])
	assert.True(t, math.IsNaN(m[0][2]))
	assert.Equal(t, 21.0, m[2][1])
}

func TestMatrixRejectsInvalidPoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be called")
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	_, err := c.Matrix(context.Background(), []domain.Coordinates{ranchi, {Lat: 95, Lon: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGeocodeManyDeduplicates(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "IN", r.URL.Query().Get("boundary.country"))
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[84.1,21.5]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	got, err := c.GeocodeMany(context.Background(), []string{"Deogarh,  Odisha", "Deogarh, Odisha", ""}, "IN")
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, domain.Coordinates{Lat: 21.5, Lon: 84.1}, got["Deogarh, Odisha"])
}
