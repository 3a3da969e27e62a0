package dataset

import (
	"sort"
	"strings"
)

// DefaultPageSize is the number of rows shown per table page.
const DefaultPageSize = 50

// SetFilter keeps rows whose column string value is one of Values.
// An empty column or empty value list makes the filter inactive.
type SetFilter struct {
	Column string   `json:"column" yaml:"column"`
	Values []string `json:"values" yaml:"values"`
}

// Active reports whether the filter restricts anything.
func (f SetFilter) Active() bool { return f.Column != "" && len(f.Values) > 0 }

// Match applies the filter to a single row.
func (f SetFilter) Match(r Row) bool {
	if !f.Active() {
		return true
	}
	s := r.Get(f.Column).String()
	for _, v := range f.Values {
		if v == s {
			return true
		}
	}
	return false
}

// FilterSet keeps rows matching every active filter.
func FilterSet(rows []Row, filters []SetFilter) []Row {
	active := make([]SetFilter, 0, len(filters))
	for _, f := range filters {
		if f.Active() {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return rows
	}
	out := make([]Row, 0, len(rows))
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

// Search keeps rows where any cell contains term, case-insensitively.
func Search(rows []Row, term string) []Row {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]Row, 0)
	for _, r := range rows {
		for _, v := range r.values {
			if strings.Contains(strings.ToLower(v.String()), term) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Sort returns a stably sorted copy of rows ordered by column.
// Two numbers compare numerically, anything else by string form.
func Sort(rows []Row, column string, desc bool) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	if column == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := Compare(out[i].Get(column), out[j].Get(column))
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Compare orders two values, numbers before their string fallback.
func Compare(a, b Value) int {
	af, aok := a.Float()
	bf, bok := b.Float()
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(a.String(), b.String())
}

// Page is one window of a row slice.
type Page struct {
	Rows       []Row
	Number     int
	Size       int
	TotalRows  int
	TotalPages int
}

// Paginate returns the 1-based page n. Out of range pages are clamped.
func Paginate(rows []Row, n, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(rows)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	start := (n - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{Rows: rows[start:end], Number: n, Size: size, TotalRows: total, TotalPages: pages}
}

// ValueCounts counts rows per distinct non-empty string value of column.
func ValueCounts(rows []Row, column string) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		v := r.Get(column)
		if v.IsEmpty() {
			continue
		}
		counts[v.String()]++
	}
	return counts
}
