package pivot

import (
	"math"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

const (
	// ClassifySample is the number of leading rows inspected per column.
	ClassifySample = 10
	// NumericThreshold is the share of numeric samples a column must exceed.
	NumericThreshold = 0.7
)

// FieldType is the inferred type of a column.
type FieldType string

const (
	Numeric FieldType = "numeric"
	Textual FieldType = "text"
)

// Field is a column reference used by a pivot configuration.
// Aggregation only matters for value fields.
type Field struct {
	Name        string          `json:"name" yaml:"name"`
	Type        FieldType       `json:"type,omitempty" yaml:"type,omitempty"`
	Aggregation AggregationKind `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
}

// Label is the result key of a value field, e.g. "sales_sum".
func (f Field) Label() string {
	return f.Name + "_" + string(ParseAggregation(string(f.Aggregation)))
}

// ClassifyColumn infers the type of a column from its leading values.
func ClassifyColumn(values []dataset.Value) FieldType {
	if len(values) > ClassifySample {
		values = values[:ClassifySample]
	}
	var present, numeric int
	for _, v := range values {
		if v.IsEmpty() {
			continue
		}
		present++
		if f, ok := v.Float(); ok && !math.IsInf(f, 0) {
			numeric++
		}
	}
	if present > 0 && float64(numeric) > float64(present)*NumericThreshold {
		return Numeric
	}
	return Textual
}

// Classify returns one Field per column in schema order.
func Classify(ds *dataset.Dataset) []Field {
	if ds == nil || ds.Len() == 0 {
		return nil
	}
	rows := ds.Rows
	if len(rows) > ClassifySample {
		rows = rows[:ClassifySample]
	}
	cols := ds.Columns()
	fields := make([]Field, 0, len(cols))
	sample := make([]dataset.Value, len(rows))
	for _, c := range cols {
		for i, r := range rows {
			sample[i] = r.Get(c)
		}
		fields = append(fields, Field{Name: c, Type: ClassifyColumn(sample)})
	}
	return fields
}

// DefaultAggregation is the aggregation assigned when a field is added to
// the value list without an explicit choice.
func DefaultAggregation(t FieldType) AggregationKind {
	if t == Numeric {
		return Sum
	}
	return Count
}
