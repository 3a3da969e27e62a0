package pivot

import "github.com/KaramelBytes/datadeck-cli/internal/dataset"

// Filter keeps rows whose column, rendered as a string, equals Value.
// A filter with an empty column or value is inactive.
type Filter struct {
	Column string `json:"column" yaml:"column"`
	Value  string `json:"value" yaml:"value"`
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool { return f.Column != "" && f.Value != "" }

// Match applies the filter to one row.
func (f Filter) Match(r dataset.Row) bool {
	if !f.Active() {
		return true
	}
	return r.Get(f.Column).String() == f.Value
}

// Apply returns the rows matching every filter, in input order. With no
// active filter the input slice is returned as is.
func Apply(rows []dataset.Row, filters []Filter) []dataset.Row {
	active := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f.Active() {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return rows
	}
	out := make([]dataset.Row, 0, len(rows))
next:
	for _, r := range rows {
		for _, f := range active {
			if !f.Match(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}
