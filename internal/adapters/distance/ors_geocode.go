package distance

import (
	"context"
	"encoding/json"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
	"fmt"
	"net/http"
	"strings"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// normalize ensures consistent lookups by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GeocodeMany resolves addresses individually using OpenRouteService (/geocode/search).
// Calls are deduplicated and may be retried via doWithRetry. country is an
// ISO 3166-1 code restricting results (e.g. "IN"); empty means unrestricted.
func (o *ORSClient) GeocodeMany(
	ctx context.Context,
	addresses []string,
	country string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.GeocodeMany")(&err)

	endpoint := o.baseURL + "/geocode/search"

	seen := make(map[string]struct{}, len(addresses))
	out := make(map[string]domain.Coordinates)
	for _, a := range addresses {
		norm := normalize(a)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}

		resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
			req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return nil, err
			}
			q := req.URL.Query()
			q.Set("text", norm)
			if country != "" {
				q.Set("boundary.country", country)
			}
			q.Set("size", "1")
			req.URL.RawQuery = q.Encode()
			return req, nil
		})
		if err != nil {
			return nil, fmt.Errorf("geocode %q: execute request: %w", norm, err)
		}

		var decoded geocodeResponse
		err = json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode geocode response: %w", err)
		}

		if len(decoded.Features) == 0 {
			return nil, fmt.Errorf("%w: no geocode results for %q", domain.ErrNotFound, norm)
		}

		coords := decoded.Features[0].Geometry.Coordinates
		if len(coords) < 2 {
			return nil, fmt.Errorf("invalid coordinate format for %q", norm)
		}

		out[norm] = domain.Coordinates{
			Lon: coords[0],
			Lat: coords[1],
		}
	}

	return out, nil
}
