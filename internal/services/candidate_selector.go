package services

import (
	"cmp"
	"field-route-service/internal/domain"
	"field-route-service/internal/geo"
	"fmt"
	"slices"
)

// SelectCandidates picks the count clients nearest to depot by straight-line
// distance, returned in ascending distance order.
//
// When the pool holds no more than count clients the whole pool is returned.
// Ties keep their input order (stable sort), so identical inputs always yield
// identical selections.
func SelectCandidates(
	depot domain.Location,
	pool []domain.Location,
	count int,
) ([]domain.Location, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: select candidates: count must be >= 0, got %d", domain.ErrInvalidArgument, count)
	}
	if err := depot.Coordinates.Validate(); err != nil {
		return nil, fmt.Errorf("select candidates: depot: %w", err)
	}
	if depot.ID == "" {
		return nil, fmt.Errorf("%w: select candidates: depot id is missing", domain.ErrInvalidArgument)
	}

	type ranked struct {
		loc  domain.Location
		dist float64
	}

	ordered := make([]ranked, 0, len(pool))
	for _, loc := range pool {
		ordered = append(ordered, ranked{loc: loc, dist: geo.Haversine(depot.Coordinates, loc.Coordinates)})
	}

	slices.SortStableFunc(ordered, func(a, b ranked) int {
		return cmp.Compare(a.dist, b.dist)
	})

	n := min(count, len(ordered))
	out := make([]domain.Location, 0, n)
	for _, r := range ordered[:n] {
		out = append(out, r.loc)
	}

	return out, nil
}
