package ports

import (
	"context"
	"field-route-service/internal/domain"
)

// Optional extension of RoadRouter that supports batched lookups.
type RoadMatrixRouter interface {
	RoadRouter
	// Return an n x n matrix of road distances in kilometers, indexed like points.
	// Unroutable cells are reported as NaN.
	Matrix(ctx context.Context, points []domain.Coordinates) ([][]float64, error)
}
