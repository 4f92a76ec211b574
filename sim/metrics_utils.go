// sim/metrics_utils.go
package sim

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Number is any value the metric helpers can aggregate.
type Number interface {
	constraints.Integer | constraints.Float
}

// Sum adds up a slice of numbers as float64.
func Sum[T Number](data []T) float64 {
	total := 0.0
	for _, v := range data {
		total += float64(v)
	}
	return total
}

// SumValues adds up the values of a map.
func SumValues[K comparable, T Number](m map[K]T) float64 {
	total := 0.0
	for _, v := range m {
		total += float64(v)
	}
	return total
}

// SortedKeys returns the keys of a string-keyed map in order.
func SortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CalculatePercentile returns the p-th percentile (0-100) of data using the
// empirical quantile. Returns 0 for empty input. data is not modified.
func CalculatePercentile[T Number](data []T, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	for i, v := range data {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)
	return stat.Quantile(p/100, stat.Empirical, sorted, nil)
}

// summarize fills the statistics of a latency sample set.
func summarize(name string, samples []float64) LoopMetrics {
	lm := LoopMetrics{Name: name, Count: len(samples), Samples: append([]float64(nil), samples...)}
	if len(samples) == 0 {
		return lm
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	lm.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		lm.StdDev = stat.StdDev(sorted, nil)
	}
	lm.Min = floats.Min(sorted)
	lm.Max = floats.Max(sorted)
	lm.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	lm.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	lm.P99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	if math.IsNaN(lm.StdDev) {
		lm.StdDev = 0
	}
	return lm
}
