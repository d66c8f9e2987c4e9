package distance

import (
	"context"
	"encoding/json"
	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
	"fmt"
	"net/http"
	"strconv"
)

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// fetchDirections resolves one road leg via /v2/directions/{profile} (GeoJSON).
func (o *ORSClient) fetchDirections(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (ports.RoadLeg, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile)

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/geo+json, application/json")

		q := req.URL.Query()
		q.Set("start", lonLatParam(from))
		q.Set("end", lonLatParam(to))
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return ports.RoadLeg{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RoadLeg{}, fmt.Errorf("decode directions response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return ports.RoadLeg{}, fmt.Errorf("no route between %s and %s", lonLatParam(from), lonLatParam(to))
	}

	feature := decoded.Features[0]
	polyline := make([]domain.Coordinates, 0, len(feature.Geometry.Coordinates))
	for i, c := range feature.Geometry.Coordinates {
		// GeoJSON positions are [lon, lat] with an optional elevation.
		if len(c) < 2 {
			return ports.RoadLeg{}, fmt.Errorf("invalid coordinate format at position %d", i)
		}
		polyline = append(polyline, domain.Coordinates{Lat: c[1], Lon: c[0]})
	}

	return ports.RoadLeg{
		DistanceKm: feature.Properties.Summary.Distance / 1000,
		Polyline:   polyline,
	}, nil
}

func lonLatParam(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}
