package services

import "math"

// nearestNeighborOrder builds an open route over m starting at the depot (index 0).
//
// At each step the closest unvisited point is appended. Ties go to the lowest
// location identifier, then to the lowest index, so the result depends only on
// the matrix and the identifiers.
func nearestNeighborOrder(m *DistanceMatrix) []int {
	n := m.Len()
	if n == 0 {
		return []int{}
	}

	visited := make([]bool, n)
	visited[0] = true

	order := make([]int, 1, n)
	current := 0

	for len(order) < n {
		best := -1
		bestDist := math.Inf(1)

		for j := 1; j < n; j++ {
			if visited[j] {
				continue
			}

			d := m.At(current, j)
			if d < bestDist || (d == bestDist && lowerID(m, j, best)) {
				best = j
				bestDist = d
			}
		}

		visited[best] = true
		order = append(order, best)
		current = best
	}

	return order
}

// lowerID reports whether point j wins a distance tie against point best.
func lowerID(m *DistanceMatrix, j, best int) bool {
	if best < 0 {
		return true
	}
	a, b := m.Points[j].ID, m.Points[best].ID
	if a != b {
		return a < b
	}
	return j < best
}

// pathLength sums consecutive distances along order.
func pathLength(m *DistanceMatrix, order []int) float64 {
	total := 0.0
	for i := 1; i < len(order); i++ {
		total += m.At(order[i-1], order[i])
	}
	return total
}
