package ports

import (
	"context"
	"field-route-service/internal/domain"
)

// Road distance and geometry between two points.
type RoadLeg struct {
	DistanceKm float64
	// Polyline is the sequence of coordinates along the road, from -> to.
	// It may be empty when the provider only reports distances.
	Polyline []domain.Coordinates
}

// Contract for retrieving road-network travel between two points.
// Implementations perform network I/O and must honor ctx deadlines.
type RoadRouter interface {
	// Return road distance and geometry for a single point pair.
	Route(ctx context.Context, from, to domain.Coordinates) (RoadLeg, error)
}
