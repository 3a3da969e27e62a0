package pivot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration describes one pivot: row, column and value fields plus
// equality filters. Subtotals enables per-prefix rollup records.
type Configuration struct {
	Rows      []Field  `json:"rows" yaml:"rows"`
	Columns   []Field  `json:"columns" yaml:"columns"`
	Values    []Field  `json:"values" yaml:"values"`
	Filters   []Filter `json:"filters" yaml:"filters"`
	Subtotals bool     `json:"subtotals,omitempty" yaml:"subtotals,omitempty"`
}

func names(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// RowNames returns the row field names in order.
func (c Configuration) RowNames() []string { return names(c.Rows) }

// ColumnNames returns the column field names in order.
func (c Configuration) ColumnNames() []string { return names(c.Columns) }

// WithDefaults fills field types from the classified fields and gives value
// fields without an aggregation the default for their type. Aggregation
// names are canonicalized.
func (c Configuration) WithDefaults(fields []Field) Configuration {
	types := make(map[string]FieldType, len(fields))
	for _, f := range fields {
		types[f.Name] = f.Type
	}
	fill := func(in []Field) []Field {
		out := make([]Field, len(in))
		for i, f := range in {
			if f.Type == "" {
				f.Type = types[f.Name]
			}
			out[i] = f
		}
		return out
	}
	out := c
	out.Rows = fill(c.Rows)
	out.Columns = fill(c.Columns)
	out.Values = fill(c.Values)
	for i, f := range out.Values {
		if f.Aggregation == "" {
			out.Values[i].Aggregation = DefaultAggregation(f.Type)
		} else {
			out.Values[i].Aggregation = ParseAggregation(string(f.Aggregation))
		}
	}
	out.Filters = append([]Filter(nil), c.Filters...)
	return out
}

// Validate checks that every field exists in columns and that no field is
// placed in more than one list. The engine itself does not require this.
func (c Configuration) Validate(columns []string) error {
	known := make(map[string]bool, len(columns))
	for _, col := range columns {
		known[col] = true
	}
	placed := make(map[string]string)
	check := func(list string, fields []Field) error {
		for _, f := range fields {
			if f.Name == "" {
				return fmt.Errorf("%s: empty field name", list)
			}
			if len(known) > 0 && !known[f.Name] {
				return fmt.Errorf("%s: unknown field %q", list, f.Name)
			}
			if prev, ok := placed[f.Name]; ok {
				return fmt.Errorf("field %q is already used in %s", f.Name, prev)
			}
			placed[f.Name] = list
		}
		return nil
	}
	if err := check("rows", c.Rows); err != nil {
		return err
	}
	if err := check("columns", c.Columns); err != nil {
		return err
	}
	if err := check("values", c.Values); err != nil {
		return err
	}
	for _, f := range c.Filters {
		if f.Active() && len(known) > 0 && !known[f.Column] {
			return fmt.Errorf("filters: unknown column %q", f.Column)
		}
	}
	return nil
}

// LoadConfiguration reads a YAML pivot configuration.
func LoadConfiguration(path string) (Configuration, error) {
	var c Configuration
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read pivot config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse pivot config: %w", err)
	}
	return c, nil
}

// MarshalYAMLConfig renders c as YAML.
func MarshalYAMLConfig(c Configuration) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal pivot config: %w", err)
	}
	return b, nil
}
