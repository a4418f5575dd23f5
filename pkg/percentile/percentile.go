// Package percentile implements nearest-rank percentile selection.
package percentile

import (
	"math"
	"slices"
)

// NearestRank returns the p-th percentile (0 < p <= 1) of an ascending-sorted
// slice using the nearest-rank method: the element at index ceil(p*n)-1,
// clamped to [0, n-1]. No interpolation is performed.
//
// An empty slice yields 0.
//
// Example:
//
//	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
//	percentile.NearestRank(sorted, 0.5)  // 50
//	percentile.NearestRank(sorted, 0.95) // 100
func NearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	return sorted[Index(n, p)]
}

// Index returns the nearest-rank index for percentile p in a sorted slice of length n.
// n must be positive.
func Index(n int, p float64) int {
	idx := int(math.Ceil(p*float64(n))) - 1
	return max(0, min(idx, n-1))
}

// Sorted sorts values in place and returns NearestRank for each of ps, in order.
func Sorted(values []float64, ps ...float64) []float64 {
	slices.Sort(values)
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = NearestRank(values, p)
	}
	return out
}
