package pivot

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

// AggregationKind names a reduction over a bucket of values.
type AggregationKind string

const (
	Sum           AggregationKind = "sum"
	Count         AggregationKind = "count"
	Average       AggregationKind = "average"
	Mean          AggregationKind = "mean"
	Median        AggregationKind = "median"
	Min           AggregationKind = "min"
	Max           AggregationKind = "max"
	Sdev          AggregationKind = "sdev"
	CountNonEmpty AggregationKind = "count-non-empty"
	UniqueCount   AggregationKind = "unique-count"
)

// Aggregations lists every supported kind in display order.
var Aggregations = []AggregationKind{Sum, Count, Average, Mean, Median, Min, Max, Sdev, CountNonEmpty, UniqueCount}

// ParseAggregation resolves a name case-insensitively. Unknown or empty
// names fall back to Sum.
func ParseAggregation(s string) AggregationKind {
	k := AggregationKind(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range Aggregations {
		if a == k {
			return a
		}
	}
	return Sum
}

// Numbers returns the numeric-coercible values in input order.
func Numbers(values []dataset.Value) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Aggregate reduces values with kind. Count counts every value it is
// given; the numeric kinds ignore non-numeric values and return 0 when
// nothing numeric is left.
func Aggregate(kind AggregationKind, values []dataset.Value) float64 {
	switch ParseAggregation(string(kind)) {
	case Count:
		return float64(len(values))
	case CountNonEmpty:
		n := 0
		for _, v := range values {
			if !v.IsEmpty() {
				n++
			}
		}
		return float64(n)
	case UniqueCount:
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			seen[v.String()] = struct{}{}
		}
		return float64(len(seen))
	}

	nums := Numbers(values)
	if len(nums) == 0 {
		return 0
	}
	switch ParseAggregation(string(kind)) {
	case Average, Mean:
		return stat.Mean(nums, nil)
	case Median:
		return median(nums)
	case Min:
		return floats.Min(nums)
	case Max:
		return floats.Max(nums)
	case Sdev:
		return popStdDev(nums)
	default:
		return floats.Sum(nums)
	}
}

func median(nums []float64) float64 {
	s := make([]float64, len(nums))
	copy(s, nums)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// popStdDev is the population standard deviation, 0 for fewer than two values.
func popStdDev(nums []float64) float64 {
	n := float64(len(nums))
	if n <= 1 {
		return 0
	}
	_, variance := stat.MeanVariance(nums, nil)
	return math.Sqrt(variance * (n - 1) / n)
}
