package cache

import (
	"encoding/json"
	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
	"fmt"
	"math"
)

// legKey identifies a directed leg. Coordinates are rounded to 6 decimals
// (~0.1 m) so equal points produce equal keys.
func legKey(from, to domain.Coordinates) (origin, destination string) {
	return pointKey(from), pointKey(to)
}

func pointKey(c domain.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

type storedLeg struct {
	DistanceMeters int64        `json:"distance_meters"`
	Polyline       [][2]float64 `json:"polyline"`
}

func encodeLeg(leg ports.RoadLeg) storedLeg {
	pts := make([][2]float64, 0, len(leg.Polyline))
	for _, p := range leg.Polyline {
		pts = append(pts, p.LatLon())
	}
	return storedLeg{
		DistanceMeters: int64(math.Round(leg.DistanceKm * 1000)),
		Polyline:       pts,
	}
}

func (s storedLeg) decode() ports.RoadLeg {
	pts := make([]domain.Coordinates, 0, len(s.Polyline))
	for _, p := range s.Polyline {
		pts = append(pts, domain.Coordinates{Lat: p[0], Lon: p[1]})
	}
	return ports.RoadLeg{
		DistanceKm: float64(s.DistanceMeters) / 1000,
		Polyline:   pts,
	}
}

func marshalPolyline(leg storedLeg) (string, error) {
	b, err := json.Marshal(leg.Polyline)
	if err != nil {
		return "", fmt.Errorf("encode polyline: %w", err)
	}
	return string(b), nil
}
