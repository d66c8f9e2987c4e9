package distance

import (
	"context"
	"field-route-service/internal/domain"
	"fmt"
	"math"
)

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Sources   []int       `json:"sources"`
	Metrics   []string    `json:"metrics"`
	Units     string      `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
}

// fetchMatrix retrieves the n x n road distance matrix (km) for points.
// Requests are chunked by source rows so each stays below maxElements cells.
func (o *ORSClient) fetchMatrix(
	ctx context.Context,
	points []domain.Coordinates,
) ([][]float64, error) {
	n := len(points)
	if n > o.maxElements {
		return nil, fmt.Errorf("matrix of %d points exceeds provider limit of %d elements per row", n, o.maxElements)
	}

	rowsPerChunk := o.maxElements / n
	if rowsPerChunk < 1 {
		rowsPerChunk = 1
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, 0, n)
	for _, p := range points {
		locations = append(locations, p.CoordsToList())
	}

	out := make([][]float64, n)
	for start := 0; start < n; start += rowsPerChunk {
		end := min(start+rowsPerChunk, n)

		rows, err := o.fetchMatrixRows(ctx, endpoint, locations, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch matrix rows [%d,%d): %w", start, end, err)
		}
		copy(out[start:end], rows)
	}

	return out, nil
}

// fetchMatrixRows retrieves distances from sources [start, end) to every location.
func (o *ORSClient) fetchMatrixRows(
	ctx context.Context,
	endpoint string,
	locations [][]float64,
	start, end int,
) ([][]float64, error) {
	sources := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		sources = append(sources, i)
	}

	var mr matrixResponse
	err := o.postJSON(ctx, endpoint, matrixRequest{
		Locations: locations,
		Sources:   sources,
		Metrics:   []string{"distance"},
		Units:     "km",
	}, &mr)
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}

	if len(mr.Distances) != len(sources) {
		return nil, fmt.Errorf("expected %d source rows; got %d", len(sources), len(mr.Distances))
	}

	rows := make([][]float64, len(sources))
	for ri, raw := range mr.Distances {
		if len(raw) != len(locations) {
			return nil, fmt.Errorf(
				"row %d length does not match locations: got %d, want %d",
				start+ri, len(raw), len(locations),
			)
		}

		row := make([]float64, len(raw))
		for j, v := range raw {
			// ORS reports unroutable pairs as null.
			if v == nil {
				row[j] = math.NaN()
				continue
			}
			row[j] = *v
		}
		rows[ri] = row
	}

	return rows, nil
}
