package pivot

import (
	"sort"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

// SeriesSpec describes a chart: one category axis, one or two measures.
type SeriesSpec struct {
	X           string              `json:"x" yaml:"x"`
	Y           []string            `json:"y" yaml:"y"`
	Aggregation AggregationKind     `json:"aggregation" yaml:"aggregation"`
	Filters     []dataset.SetFilter `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// Point is one category with one aggregate per measure.
type Point struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// Series is the output of BuildSeries.
type Series struct {
	X           string          `json:"x"`
	Y           []string        `json:"y"`
	Aggregation AggregationKind `json:"aggregation"`
	Points      []Point         `json:"points"`
}

// BuildSeries groups rows by the string form of X and aggregates the
// non-empty cells of each measure, so Count here counts non-empty cells.
func BuildSeries(rows []dataset.Row, spec SeriesSpec) Series {
	ys := make([]string, 0, len(spec.Y))
	for _, y := range spec.Y {
		if y != "" {
			ys = append(ys, y)
		}
	}
	s := Series{X: spec.X, Y: ys, Aggregation: ParseAggregation(string(spec.Aggregation))}
	if spec.X == "" || len(ys) == 0 {
		return s
	}

	rows = dataset.FilterSet(rows, spec.Filters)
	order := make([]string, 0)
	buckets := make(map[string][][]dataset.Value)
	for _, r := range rows {
		label := r.Get(spec.X).String()
		b, ok := buckets[label]
		if !ok {
			order = append(order, label)
			b = make([][]dataset.Value, len(ys))
		}
		for i, y := range ys {
			if v := r.Get(y); !v.IsEmpty() {
				b[i] = append(b[i], v)
			}
		}
		buckets[label] = b
	}

	s.Points = make([]Point, 0, len(order))
	for _, label := range order {
		b := buckets[label]
		p := Point{Label: label, Values: make([]float64, len(ys))}
		for i := range ys {
			p.Values[i] = Aggregate(s.Aggregation, b[i])
		}
		s.Points = append(s.Points, p)
	}
	return s
}

// UniqueValues returns the distinct non-empty string values of column,
// sorted ascending.
func UniqueValues(rows []dataset.Row, column string) []string {
	if column == "" {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range rows {
		v := r.Get(column)
		if v.IsEmpty() {
			continue
		}
		s := v.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
