// Package geo holds the great-circle math used as the baseline distance metric.
package geo

import (
	"field-route-service/internal/domain"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometers.
// It is symmetric, zero for identical points and never negative.
func Haversine(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h marginally outside [0, 1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Destination returns the point reached by travelling distanceKm from origin
// along the initial bearing (degrees clockwise from north).
func Destination(origin domain.Coordinates, distanceKm, bearingDeg float64) domain.Coordinates {
	delta := distanceKm / EarthRadiusKm
	theta := bearingDeg * math.Pi / 180
	lat1 := origin.Lat * math.Pi / 180
	lon1 := origin.Lon * math.Pi / 180

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	lon := math.Mod(lon2*180/math.Pi+540, 360) - 180
	return domain.Coordinates{Lat: lat2 * 180 / math.Pi, Lon: lon}
}
