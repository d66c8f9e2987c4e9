package ports

import (
	"context"
	"field-route-service/internal/domain"
)

// Optional extension of RoadRouter that resolves a whole ordered route.
type RoadPathRouter interface {
	RoadRouter
	// Return one leg per consecutive pair of points (len(points)-1 legs).
	// Legs between identical points carry a single-point polyline.
	Path(ctx context.Context, points []domain.Coordinates) ([]RoadLeg, error)
}
