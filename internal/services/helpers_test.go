package services

import (
	"context"
	"field-route-service/internal/domain"
	"fmt"
	"math"
	"strings"
	"sync"
)

var testDepot = domain.Location{
	ID:          "087",
	Name:        "Ranchi Branch",
	Kind:        domain.KindBranch,
	Coordinates: domain.Coordinates{Lat: 23.1815, Lon: 85.3055},
}

func client(id string, lat, lon float64) domain.Location {
	return domain.Location{
		ID:          id,
		Name:        "Client " + id,
		Kind:        domain.KindClient,
		Coordinates: domain.Coordinates{Lat: lat, Lon: lon},
	}
}

// planarMatrix builds a matrix from Euclidean distances between xy positions.
// The first position is the depot.
func planarMatrix(xy [][2]float64) *DistanceMatrix {
	points := make([]domain.Location, len(xy))
	for i := range xy {
		if i == 0 {
			points[i] = domain.Location{ID: "depot", Kind: domain.KindBranch}
			continue
		}
		points[i] = domain.Location{ID: fmt.Sprintf("c%d", i), Kind: domain.KindClient}
	}

	dist := newSquare(len(xy))
	for i := range xy {
		for j := range xy {
			dist[i][j] = math.Hypot(xy[i][0]-xy[j][0], xy[i][1]-xy[j][1])
		}
	}
	return &DistanceMatrix{Points: points, Dist: dist, Source: SourceGreatCircle}
}

type fakeDirectory struct {
	mu       sync.Mutex
	branches map[string]domain.Location
	clients  map[string][]domain.Location
	err      error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		branches: map[string]domain.Location{testDepot.ID: testDepot},
		clients:  map[string][]domain.Location{},
	}
}

func (f *fakeDirectory) LookupBranch(_ context.Context, id string) (domain.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return domain.Location{}, f.err
	}
	code, name, err := domain.NormalizeBranchID(id)
	if err != nil {
		return domain.Location{}, err
	}
	for _, b := range f.branches {
		if b.ID == code || strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	return domain.Location{}, domain.Errorf(domain.ErrNotFound, "branch %q not found", id)
}

func (f *fakeDirectory) LookupClients(_ context.Context, branchID string) ([]domain.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Location(nil), f.clients[branchID]...), nil
}

func (f *fakeDirectory) ListBranches(context.Context) ([]domain.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Branch, 0, len(f.branches))
	for _, b := range f.branches {
		out = append(out, domain.Branch{Location: b})
	}
	return out, nil
}
