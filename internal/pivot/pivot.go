// Package pivot implements the field classifier, row filter, grouper,
// aggregator and pivot assembler. Every function here is a pure transform
// over an immutable dataset.
package pivot

import (
	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

// Record is one output row of a pivot.
type Record struct {
	// Key holds the row field values; nil for the grand total.
	Key Key
	// Level is the number of row fields in Key.
	Level int
	// Count is the number of source rows in the bucket.
	Count int
	// Values has one aggregate per value field over the whole bucket.
	Values []float64
	// Cells is indexed [column key][value field]; nil without column fields.
	Cells [][]float64
}

// Result is the assembled pivot.
type Result struct {
	Rows    []Field
	Columns []Field
	Values  []Field
	// ColumnKeys are the distinct column tuples, first-seen order.
	ColumnKeys []Key
	Records    []Record
	// Subtotals and Total are set only when Configuration.Subtotals is on.
	Subtotals    []Record
	Total        *Record
	FilteredRows int
}

// Empty reports whether the pivot produced no records.
func (r *Result) Empty() bool { return r == nil || len(r.Records) == 0 }

// CrossTab reports whether the result carries column keys.
func (r *Result) CrossTab() bool { return r != nil && len(r.Columns) > 0 }

// Labels returns the result keys of the value fields, e.g. "sales_sum".
func (r *Result) Labels() []string {
	out := make([]string, len(r.Values))
	for i, f := range r.Values {
		out[i] = f.Label()
	}
	return out
}

// Pivot filters, groups and aggregates ds according to cfg. Missing row or
// value fields yield an empty result rather than an error.
func Pivot(ds *dataset.Dataset, cfg Configuration) *Result {
	res := &Result{Rows: cfg.Rows, Columns: cfg.Columns, Values: cfg.Values}
	if ds == nil || len(cfg.Rows) == 0 || len(cfg.Values) == 0 {
		return res
	}

	rows := Apply(ds.Rows, cfg.Filters)
	res.FilteredRows = len(rows)

	var cols *Grouper
	if len(cfg.Columns) > 0 {
		cols = NewGrouper(cfg.ColumnNames())
		for _, r := range rows {
			cols.Add(r)
		}
		for _, g := range cols.Groups() {
			res.ColumnKeys = append(res.ColumnKeys, g.Key)
		}
	}

	rowNames := cfg.RowNames()
	for _, g := range GroupBy(rows, rowNames) {
		res.Records = append(res.Records, assemble(g.Key, g.Rows, cfg.Values, cols))
	}

	if cfg.Subtotals {
		for level := 1; level < len(rowNames); level++ {
			for _, g := range GroupBy(rows, rowNames[:level]) {
				res.Subtotals = append(res.Subtotals, assemble(g.Key, g.Rows, cfg.Values, cols))
			}
		}
		total := assemble(nil, rows, cfg.Values, cols)
		res.Total = &total
	}
	return res
}

// assemble aggregates one bucket. Cross-tab cells with no rows get the
// aggregation's empty value.
func assemble(key Key, rows []dataset.Row, values []Field, cols *Grouper) Record {
	rec := Record{Key: key, Level: len(key), Count: len(rows), Values: aggregateFields(rows, values)}
	if cols == nil {
		return rec
	}
	split := make([][]dataset.Row, len(cols.Groups()))
	for _, r := range rows {
		if i, ok := cols.Find(cols.KeyOf(r)); ok {
			split[i] = append(split[i], r)
		}
	}
	rec.Cells = make([][]float64, len(split))
	for i, part := range split {
		rec.Cells[i] = aggregateFields(part, values)
	}
	return rec
}

func aggregateFields(rows []dataset.Row, fields []Field) []float64 {
	out := make([]float64, len(fields))
	buf := make([]dataset.Value, len(rows))
	for i, f := range fields {
		for j, r := range rows {
			buf[j] = r.Get(f.Name)
		}
		out[i] = Aggregate(f.Aggregation, buf)
	}
	return out
}

// Maps flattens the records for export: row field values keyed by field
// name and aggregates keyed by label. Cross-tab cells are keyed
// "<column key> / <label>".
func (r *Result) Maps() []map[string]any {
	if r == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(r.Records))
	for _, rec := range r.Records {
		out = append(out, r.recordMap(rec))
	}
	return out
}

func (r *Result) recordMap(rec Record) map[string]any {
	labels := r.Labels()
	m := make(map[string]any, len(rec.Key)+len(labels)*(1+len(r.ColumnKeys)))
	for i, v := range rec.Key {
		if i < len(r.Rows) {
			m[r.Rows[i].Name] = v.Interface()
		}
	}
	for i, l := range labels {
		m[l] = rec.Values[i]
	}
	for ci, ck := range r.ColumnKeys {
		prefix := ck.String() + " / "
		for i, l := range labels {
			m[prefix+l] = rec.Cells[ci][i]
		}
	}
	return m
}
