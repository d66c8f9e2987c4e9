package services

import (
	"context"
	"slices"
)

type twoOptStats struct {
	passes       int
	improvements int
	aborted      bool
}

// twoOpt refines an open route in place. route[0] is fixed.
//
// A move reverses route[i..k] when it shortens the path by more than eps.
// With k at the tail there is no following edge, so only the entry edge changes.
// The loop stops after a pass without improvement or after maxPasses passes.
// ctx is checked between passes only.
func twoOpt(ctx context.Context, m *DistanceMatrix, route []int, maxPasses int, eps float64) twoOptStats {
	var stats twoOptStats

	n := len(route)
	if n < 3 {
		return stats
	}

	for stats.passes < maxPasses {
		if ctx.Err() != nil {
			stats.aborted = true
			return stats
		}

		stats.passes++
		improved := false

		for i := 1; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				if twoOptDelta(m, route, i, k) < -eps {
					slices.Reverse(route[i : k+1])
					stats.improvements++
					improved = true
				}
			}
		}

		if !improved {
			break
		}
	}

	return stats
}

// twoOptDelta is the length change from reversing route[i..k].
func twoOptDelta(m *DistanceMatrix, route []int, i, k int) float64 {
	a, b := route[i-1], route[i]
	c := route[k]

	delta := m.At(a, c) - m.At(a, b)
	if k+1 < len(route) {
		d := route[k+1]
		delta += m.At(b, d) - m.At(c, d)
	}
	return delta
}
