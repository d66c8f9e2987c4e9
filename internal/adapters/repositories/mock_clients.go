package repositories

import (
	"errors"
	"field-route-service/internal/domain"
	"field-route-service/internal/geo"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// GenerateMockClients places n clients uniformly over a disc of radiusKm around
// the branch. The same seed always produces the same clients.
func GenerateMockClients(branch BranchSeed, n int, radiusKm float64, seed uint64) ([]ClientSeed, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: mock clients: count must be >= 0, got %d", domain.ErrInvalidArgument, n)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: mock clients: radius must be positive, got %g", domain.ErrInvalidArgument, radiusKm)
	}
	center, err := seedCoordinates(branch.Lat, branch.Lon)
	if err != nil {
		return nil, fmt.Errorf("mock clients: branch %q: %w", branch.BranchID, err)
	}
	id := strings.TrimSpace(branch.BranchID)
	if id == "" {
		return nil, errors.New("mock clients: branch id is empty")
	}

	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	out := make([]ClientSeed, 0, n)
	for i := 0; i < n; i++ {
		// sqrt keeps the density uniform over the disc area.
		dist := radiusKm * math.Sqrt(r.Float64())
		bearing := r.Float64() * 360

		p := geo.Destination(center, dist, bearing)
		lat, lon := p.Lat, p.Lon

		out = append(out, ClientSeed{
			ClientID: fmt.Sprintf("%s-M%03d", id, i+1),
			BranchID: id,
			Name:     fmt.Sprintf("Mock Client %d", i+1),
			Lat:      &lat,
			Lon:      &lon,
		})
	}

	return out, nil
}
