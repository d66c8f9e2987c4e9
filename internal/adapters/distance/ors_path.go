package distance

import (
	"context"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
	"fmt"
)

type pathRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type pathResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Segments []struct {
				Distance float64 `json:"distance"`
			} `json:"segments"`
			// WayPoints indexes each requested waypoint in the geometry.
			WayPoints []int `json:"way_points"`
		} `json:"properties"`
	} `json:"features"`
}

// Path resolves the road legs along an ordered route.
//
// Cached legs and legs between identical points are filled locally. Each run of
// remaining legs goes to /v2/directions/{profile}/geojson as one multi-waypoint
// request, split at maxWaypoints with the boundary point shared by both chunks.
func (o *ORSClient) Path(
	ctx context.Context,
	points []domain.Coordinates,
) (_ []ports.RoadLeg, err error) {
	defer obs.Time(ctx, "ors.Path")(&err)

	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("ors path: point %d: %w", i, err)
		}
	}
	if len(points) < 2 {
		return []ports.RoadLeg{}, nil
	}

	legs := make([]ports.RoadLeg, len(points)-1)
	pending := make([]bool, len(legs))
	for i := range legs {
		from, to := points[i], points[i+1]
		if from == to {
			legs[i] = ports.RoadLeg{Polyline: []domain.Coordinates{from}}
			continue
		}
		if leg, ok := o.cachedLeg(ctx, from, to); ok {
			legs[i] = leg
			continue
		}
		pending[i] = true
	}

	for start := 0; start < len(legs); {
		if !pending[start] {
			start++
			continue
		}
		end := start
		for end < len(legs) && pending[end] {
			end++
		}

		if err := o.fetchPathRun(ctx, points, legs, start, end); err != nil {
			return nil, fmt.Errorf("%w: ors path: %w", domain.ErrUpstreamUnavailable, err)
		}
		start = end
	}

	return legs, nil
}

// fetchPathRun fills legs[start:end], which join points[start..end].
func (o *ORSClient) fetchPathRun(
	ctx context.Context,
	points []domain.Coordinates,
	legs []ports.RoadLeg,
	start, end int,
) error {
	step := max(o.maxWaypoints-1, 1)

	for s := start; s < end; s += step {
		e := min(s+step, end)

		fetched, err := o.fetchPath(ctx, points[s:e+1])
		if err != nil {
			return fmt.Errorf("legs [%d,%d): %w", s, e, err)
		}

		for k, leg := range fetched {
			legs[s+k] = leg
			o.storeLeg(ctx, points[s+k], points[s+k+1], leg)
		}
	}
	return nil
}

// fetchPath requests one route through waypoints and splits its geometry into legs.
func (o *ORSClient) fetchPath(ctx context.Context, waypoints []domain.Coordinates) ([]ports.RoadLeg, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	coords := make([][]float64, 0, len(waypoints))
	for _, p := range waypoints {
		coords = append(coords, p.CoordsToList())
	}

	var decoded pathResponse
	if err := o.postJSON(ctx, endpoint, pathRequest{Coordinates: coords}, &decoded); err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(decoded.Features) == 0 {
		return nil, fmt.Errorf("no route through %d waypoints", len(waypoints))
	}

	feature := decoded.Features[0]
	geometry := feature.Geometry.Coordinates
	wayPoints := feature.Properties.WayPoints
	segments := feature.Properties.Segments

	if len(wayPoints) != len(waypoints) {
		return nil, fmt.Errorf("expected %d way points; got %d", len(waypoints), len(wayPoints))
	}
	if len(segments) != len(waypoints)-1 {
		return nil, fmt.Errorf("expected %d segments; got %d", len(waypoints)-1, len(segments))
	}

	legs := make([]ports.RoadLeg, len(segments))
	for k := range legs {
		from, to := wayPoints[k], wayPoints[k+1]
		if from < 0 || to < from || to >= len(geometry) {
			return nil, fmt.Errorf("way point range [%d,%d] outside geometry of %d positions", from, to, len(geometry))
		}

		polyline := make([]domain.Coordinates, 0, to-from+1)
		for i := from; i <= to; i++ {
			c := geometry[i]
			// GeoJSON positions are [lon, lat] with an optional elevation.
			if len(c) < 2 {
				return nil, fmt.Errorf("invalid coordinate format at position %d", i)
			}
			polyline = append(polyline, domain.Coordinates{Lat: c[1], Lon: c[0]})
		}

		legs[k] = ports.RoadLeg{
			DistanceKm: segments[k].Distance / 1000,
			Polyline:   polyline,
		}
	}

	return legs, nil
}
