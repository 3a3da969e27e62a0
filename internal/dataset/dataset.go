// Package dataset holds the in-memory table model shared by the loaders,
// the pivot engine and the renderers.
package dataset

import (
	"github.com/google/uuid"
)

// Schema is the ordered set of column names shared by every row of a dataset.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema builds a schema. Duplicate names keep their first position.
func NewSchema(names []string) *Schema {
	s := &Schema{names: make([]string, 0, len(names)), index: make(map[string]int, len(names))}
	for _, n := range names {
		if _, dup := s.index[n]; dup {
			continue
		}
		s.index[n] = len(s.names)
		s.names = append(s.names, n)
	}
	return s
}

// Columns returns a copy of the column names in order.
func (s *Schema) Columns() []string {
	if len(s.names) == 0 {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len is the number of columns.
func (s *Schema) Len() int { return len(s.names) }

// Index returns the position of name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Row is an immutable record whose values line up with its schema.
type Row struct {
	schema *Schema
	values []Value
}

// NewRow pads or truncates values to the schema width.
func NewRow(s *Schema, values []Value) Row {
	v := make([]Value, s.Len())
	copy(v, values)
	return Row{schema: s, values: v}
}

// Get returns the cell for column, or Null when the column is unknown.
func (r Row) Get(column string) Value {
	if r.schema == nil {
		return Null
	}
	i, ok := r.schema.index[column]
	if !ok {
		return Null
	}
	return r.values[i]
}

// At returns the i-th cell.
func (r Row) At(i int) Value {
	if i < 0 || i >= len(r.values) {
		return Null
	}
	return r.values[i]
}

// Len is the number of cells.
func (r Row) Len() int { return len(r.values) }

// Map returns the row as column -> payload.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	if r.schema == nil {
		return m
	}
	for i, n := range r.schema.names {
		m[n] = r.values[i].Interface()
	}
	return m
}

// Dataset is one loaded table. A new ID is minted on every load so that
// cached views can tell a replaced dataset from the one they were built on.
type Dataset struct {
	ID     uuid.UUID
	Name   string
	Sheet  string
	Sheets []string
	Schema *Schema
	Rows   []Row
}

// New builds a dataset from already parsed values.
func New(name string, columns []string, values [][]Value) *Dataset {
	s := NewSchema(columns)
	rows := make([]Row, 0, len(values))
	for _, v := range values {
		rows = append(rows, NewRow(s, v))
	}
	return &Dataset{ID: uuid.New(), Name: name, Schema: s, Rows: rows}
}

// FromRecords parses raw string records with ParseCell.
func FromRecords(name string, header []string, records [][]string) *Dataset {
	values := make([][]Value, 0, len(records))
	for _, rec := range records {
		row := make([]Value, len(rec))
		for i, cell := range rec {
			row[i] = ParseCell(cell)
		}
		values = append(values, row)
	}
	return New(name, header, values)
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	if d == nil || d.Schema == nil {
		return nil
	}
	return d.Schema.Columns()
}

// Len is the row count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Column returns every value of column in row order.
func (d *Dataset) Column(name string) []Value {
	out := make([]Value, 0, len(d.Rows))
	for _, r := range d.Rows {
		out = append(out, r.Get(name))
	}
	return out
}
