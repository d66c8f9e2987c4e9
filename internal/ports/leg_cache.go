package ports

import (
	"context"
	"field-route-service/internal/domain"
)

// Persistent cache for road legs keyed by origin/destination coordinates.
type LegCache interface {
	// Return the cached leg and true on a hit.
	Get(ctx context.Context, from, to domain.Coordinates) (RoadLeg, bool, error)
	Put(ctx context.Context, from, to domain.Coordinates, leg RoadLeg) error
}
