package profile

import "sort"

// PercentileRank returns the percentage of sorted (ascending) that is at or
// below value.
func PercentileRank(value float64, sorted []float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, ErrEmptySample
	}
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i] > value })
	if i == len(sorted) {
		return 100, nil
	}
	return 100 * float64(i) / float64(len(sorted)), nil
}
