package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
	"github.com/KaramelBytes/datadeck-cli/internal/pivot"
)

func sales() *dataset.Dataset {
	return dataset.FromRecords("sales.csv",
		[]string{"region", "year", "qty"},
		[][]string{
			{"A", "2023", "10"},
			{"A", "2024", "20.5"},
			{"B", "2023", "5"},
		})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "MD": FormatMarkdown, "csv": FormatCSV, "Json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	require.ErrorContains(t, err, "unsupported format")
}

func TestFormatFloat(t *testing.T) {
	require.Equal(t, "20.50", FormatFloat(20.5, 2))
	require.Equal(t, "21", FormatFloat(20.5, 0))
	require.Equal(t, "20.5", FormatFloat(20.5, -1))
}

func TestPivotTableFlatMarkdown(t *testing.T) {
	res := pivot.Pivot(sales(), pivot.Configuration{
		Rows:   []pivot.Field{{Name: "region"}},
		Values: []pivot.Field{{Name: "qty", Aggregation: pivot.Sum}},
	})
	tbl := PivotTable(res, 1)
	require.Equal(t, []string{"region", "qty_sum"}, tbl.Header)
	require.Equal(t, [][]string{{"A", "30.5"}, {"B", "5.0"}}, tbl.Rows)

	var buf bytes.Buffer
	require.NoError(t, tbl.Markdown(&buf))
	require.Equal(t, "| region | qty_sum |\n| --- | --- |\n| A | 30.5 |\n| B | 5.0 |\n", buf.String())
}

func TestPivotTableCrossTabWithTotals(t *testing.T) {
	res := pivot.Pivot(sales(), pivot.Configuration{
		Rows:      []pivot.Field{{Name: "region"}},
		Columns:   []pivot.Field{{Name: "year"}},
		Values:    []pivot.Field{{Name: "qty", Aggregation: pivot.Count}},
		Subtotals: true,
	})
	tbl := PivotTable(res, 0)
	require.Equal(t, []string{"region", "2023 / qty_count", "2024 / qty_count", "qty_count"}, tbl.Header)
	require.Equal(t, []string{"A", "1", "1", "2"}, tbl.Rows[0])
	require.Equal(t, []string{"B", "1", "0", "1"}, tbl.Rows[1])
	require.Equal(t, []string{TotalCell, "2", "1", "3"}, tbl.Rows[len(tbl.Rows)-1])
}

func TestSubtotalRowsAreFilled(t *testing.T) {
	res := pivot.Pivot(sales(), pivot.Configuration{
		Rows:      []pivot.Field{{Name: "region"}, {Name: "year"}},
		Values:    []pivot.Field{{Name: "qty", Aggregation: pivot.Sum}},
		Subtotals: true,
	})
	tbl := PivotTable(res, -1)
	// three leaf records, two region subtotals, one total
	require.Len(t, tbl.Rows, 6)
	require.Equal(t, []string{"A", AllCell, "30.5"}, tbl.Rows[3])
	require.Equal(t, []string{TotalCell, AllCell, "35.5"}, tbl.Rows[5])
}

func TestCSVAndJSON(t *testing.T) {
	res := pivot.Pivot(sales(), pivot.Configuration{
		Rows:   []pivot.Field{{Name: "region"}},
		Values: []pivot.Field{{Name: "qty", Aggregation: pivot.Max}},
	})
	var csvOut bytes.Buffer
	require.NoError(t, Write(&csvOut, FormatCSV, PivotTable(res, -1), res.Maps()))
	require.Equal(t, "region,qty_max\nA,20.5\nB,5\n", csvOut.String())

	var jsonOut bytes.Buffer
	require.NoError(t, Write(&jsonOut, FormatJSON, PivotTable(res, -1), res.Maps()))
	require.Contains(t, jsonOut.String(), `"qty_max": 20.5`)
	require.Contains(t, jsonOut.String(), `"region": "A"`)
}

func TestSeriesAndPageTables(t *testing.T) {
	ds := sales()
	s := pivot.BuildSeries(ds.Rows, pivot.SeriesSpec{X: "year", Y: []string{"qty"}, Aggregation: pivot.Average})
	tbl := SeriesTable(s, 2)
	require.Equal(t, []string{"year", "qty_average"}, tbl.Header)
	require.Equal(t, [][]string{{"2023", "7.50"}, {"2024", "20.50"}}, tbl.Rows)

	page := dataset.Paginate(ds.Rows, 1, 2)
	pt := PageTable(ds.Columns(), page)
	require.Len(t, pt.Rows, 2)
	require.Equal(t, []string{"A", "2023", "10"}, pt.Rows[0])
}

func TestEmptyMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table{}.Markdown(&buf))
	require.Equal(t, "_No data_\n", buf.String())
}

func TestThemes(t *testing.T) {
	for _, name := range Themes() {
		require.Len(t, ThemeColors(name), 5, name)
	}
	require.Equal(t, ThemeColors("default"), ThemeColors("unknown"))
	c, err := parseHex("#0f8")
	require.NoError(t, err)
	require.Equal(t, uint8(0x00), c.R)
	require.Equal(t, uint8(0xff), c.G)
	require.Equal(t, uint8(0x88), c.B)
	_, err = parseHex("#12345")
	require.Error(t, err)
}

func TestChartPNG(t *testing.T) {
	ds := sales()
	s := pivot.BuildSeries(ds.Rows, pivot.SeriesSpec{X: "region", Y: []string{"qty", "year"}, Aggregation: pivot.Sum})

	var buf bytes.Buffer
	require.NoError(t, WriteChartPNG(&buf, s, ChartOptions{Kind: ChartBar, Theme: "neon"}))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	path := filepath.Join(t.TempDir(), "trend.png")
	require.NoError(t, SaveChart(s, ChartOptions{Kind: ChartLine, Theme: "plasma", Title: "Trend"}, path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(b), "\x89PNG"))
}

func TestChartEmptySeries(t *testing.T) {
	_, err := NewChart(pivot.Series{X: "region"}, ChartOptions{})
	require.ErrorIs(t, err, ErrEmptySeries)
}
