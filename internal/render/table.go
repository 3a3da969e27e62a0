// Package render turns pivot results, chart series and table pages into
// markdown, CSV, JSON and PNG output.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
	"github.com/KaramelBytes/datadeck-cli/internal/pivot"
	"github.com/KaramelBytes/datadeck-cli/internal/utils"
)

// Format selects a text output encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts markdown (md), csv or json, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use markdown, csv or json)", s)
	}
}

// Placeholder cells for subtotal and grand total rows.
const (
	AllCell   = "(all)"
	TotalCell = "Total"
)

// Table is a rectangular block of already formatted cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// FormatFloat prints f with a fixed number of decimals; a negative value
// keeps the shortest round-tripping form.
func FormatFloat(f float64, decimals int) string {
	if decimals < 0 {
		return dataset.FormatNumber(f)
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// PivotTable lays out a pivot result: row field columns, then one column
// per (column key, value) cell, then the per-row aggregates. Subtotal rows
// and the grand total follow the records.
func PivotTable(res *pivot.Result, decimals int) Table {
	if res == nil {
		return Table{}
	}
	labels := res.Labels()
	t := Table{Header: make([]string, 0, len(res.Rows)+len(labels)*(len(res.ColumnKeys)+1))}
	for _, f := range res.Rows {
		t.Header = append(t.Header, f.Name)
	}
	for _, ck := range res.ColumnKeys {
		for _, l := range labels {
			t.Header = append(t.Header, ck.String()+" / "+l)
		}
	}
	t.Header = append(t.Header, labels...)

	add := func(rec pivot.Record, fill string) {
		row := make([]string, 0, len(t.Header))
		for i := range res.Rows {
			switch {
			case i < len(rec.Key):
				row = append(row, rec.Key[i].String())
			case i == 0:
				row = append(row, TotalCell)
			default:
				row = append(row, fill)
			}
		}
		for _, cell := range rec.Cells {
			for _, v := range cell {
				row = append(row, FormatFloat(v, decimals))
			}
		}
		for _, v := range rec.Values {
			row = append(row, FormatFloat(v, decimals))
		}
		t.Rows = append(t.Rows, row)
	}
	for _, rec := range res.Records {
		add(rec, "")
	}
	for _, rec := range res.Subtotals {
		add(rec, AllCell)
	}
	if res.Total != nil {
		add(*res.Total, AllCell)
	}
	return t
}

// SeriesTable lays out a chart series as one row per category.
func SeriesTable(s pivot.Series, decimals int) Table {
	t := Table{Header: []string{s.X}}
	for _, y := range s.Y {
		t.Header = append(t.Header, y+"_"+string(s.Aggregation))
	}
	for _, p := range s.Points {
		row := []string{p.Label}
		for _, v := range p.Values {
			row = append(row, FormatFloat(v, decimals))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// PageTable lays out one page of raw rows.
func PageTable(columns []string, page dataset.Page) Table {
	t := Table{Header: columns}
	for _, r := range page.Rows {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = r.Get(c).String()
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Markdown writes t as a GitHub-flavored table.
func (t Table) Markdown(w io.Writer) error {
	if len(t.Header) == 0 {
		_, err := io.WriteString(w, "_No data_\n")
		return err
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("| ")
		for i := range t.Header {
			if i > 0 {
				b.WriteString(" | ")
			}
			if i < len(cells) {
				b.WriteString(safeCell(cells[i]))
			}
		}
		b.WriteString(" |\n")
	}
	writeRow(t.Header)
	b.WriteString("|")
	for range t.Header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range t.Rows {
		writeRow(r)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// CSV writes t with a header record.
func (t Table) CSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Write encodes t in the given format. JSON emits v instead of the
// formatted cells so numbers stay numbers.
func Write(w io.Writer, f Format, t Table, v any) error {
	switch f {
	case FormatCSV:
		return t.CSV(w)
	case FormatJSON:
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err
	default:
		return t.Markdown(w)
	}
}

func safeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
