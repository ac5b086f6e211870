// Package stats holds the small numeric helpers shared by the estimator and
// the aggregator. Variances are population statistics (divide by n).
package stats

import (
	"math"
	"sort"
)

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PopulationVariance divides the sum of squared deviations by len(xs).
func PopulationVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs))
}

func PopulationStdDev(xs []float64) float64 {
	return math.Sqrt(PopulationVariance(xs))
}

// SortedCopy returns an ascending copy, leaving xs untouched.
func SortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

// NearestRank selects sorted[floor(n*p)] clamped to [0, n-1].
// No interpolation between neighbors.
func NearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// MedianAveraged averages the two middle elements for even n.
// The Monte Carlo report does not use it; see NearestRank.
func MedianAveraged(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// CoefficientOfVariation is population std dev / |mean| as a percentage.
// Returns NaN when the mean is zero.
func CoefficientOfVariation(xs []float64) float64 {
	m := Mean(xs)
	if m == 0 {
		return math.NaN()
	}
	return PopulationStdDev(xs) / math.Abs(m) * 100
}
