package profile

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

var scores = []string{"10", "11", "9.5", "10.5", "9.8", "10.2", "8.8", "9.7", "50", "10.1"}

func fixture() *dataset.Dataset {
	header := []string{"Group", "Score", "When", "Note", "Blank"}
	var records [][]string
	for i, s := range scores {
		group := "A"
		if i%3 == 0 {
			group = "B"
		}
		note := strings.Repeat("n", 70) + fmt.Sprint(i)
		records = append(records, []string{group, s, fmt.Sprintf("2024-01-%02d", i+1), note, ""})
	}
	return dataset.FromRecords("wine.csv", header, records)
}

func column(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not in report", name)
	return ColumnSummary{}
}

func TestProfileKinds(t *testing.T) {
	rep := Profile(fixture(), DefaultOptions())
	if rep.Rows != 10 || rep.Processed != 10 {
		t.Fatalf("rows=%d processed=%d", rep.Rows, rep.Processed)
	}
	want := map[string]string{
		"Group": KindCategorical,
		"Score": KindNumeric,
		"When":  KindDatetime,
		"Note":  KindText,
		"Blank": KindEmpty,
	}
	for name, kind := range want {
		if got := column(t, rep, name).Kind; got != kind {
			t.Errorf("%s: kind=%s want %s", name, got, kind)
		}
	}
}

func TestProfileNumericStats(t *testing.T) {
	rep := Profile(fixture(), DefaultOptions())
	c := column(t, rep, "Score")
	var sum float64
	for _, s := range scores {
		f, _ := dataset.ParseNumber(s)
		sum += f
	}
	if math.Abs(c.Mean-sum/10) > 1e-9 {
		t.Fatalf("mean=%v want %v", c.Mean, sum/10)
	}
	if c.Min != 8.8 || c.Max != 50 {
		t.Fatalf("min/max=%v/%v", c.Min, c.Max)
	}
	if c.Std <= 0 {
		t.Fatalf("expected positive std, got %v", c.Std)
	}
	if c.OutliersCount != 1 {
		t.Fatalf("expected one outlier, got %d (max |z| %.2f)", c.OutliersCount, c.OutliersMaxAbsZ)
	}
}

func TestProfileTopValues(t *testing.T) {
	rep := Profile(fixture(), DefaultOptions())
	c := column(t, rep, "Group")
	if len(c.TopValues) != 2 || c.TopValues[0].Value != "A" || c.TopValues[0].Count != 6 {
		t.Fatalf("unexpected top values: %+v", c.TopValues)
	}
	if c.Unique != 2 {
		t.Fatalf("unique=%d", c.Unique)
	}
}

func TestProfileMaxRows(t *testing.T) {
	opt := DefaultOptions()
	opt.MaxRows = 4
	opt.SampleRows = 2
	rep := Profile(fixture(), opt)
	if rep.Processed != 4 || len(rep.Samples) != 2 {
		t.Fatalf("processed=%d samples=%d", rep.Processed, len(rep.Samples))
	}
	if len(rep.Warnings) != 1 {
		t.Fatalf("expected a MaxRows warning, got %v", rep.Warnings)
	}
	// four rows are too few to score outliers
	if c := column(t, rep, "Score"); c.OutlierThreshold != 0 {
		t.Fatalf("unexpected outlier scoring on %d values", c.NonNull)
	}
}

func TestMarkdownSections(t *testing.T) {
	md := Profile(fixture(), DefaultOptions()).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: wine.csv",
		"Rows: 10",
		"Columns: 5",
		"[SCHEMA]",
		"- Score: numeric (non-null 10, missing 0.0%)",
		"outliers: 1 above |z|>3.5",
		"- Group: categorical",
		"top: A(6), B(4)",
		"- Blank: empty (non-null 0, missing 100.0%)",
		"[HEAD AND SAMPLE ROWS]",
		"| Group | Score | When | Note | Blank |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
	if strings.Contains(md, "[NOTES]") {
		t.Errorf("unexpected notes section")
	}
}

func TestMedianMAD(t *testing.T) {
	med, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	if med != 3 || mad != 1 {
		t.Fatalf("median=%v mad=%v", med, mad)
	}
	if q := quantile([]float64{0, 10}, 0.25); q != 2.5 {
		t.Fatalf("quantile=%v", q)
	}
}

func TestProfileNil(t *testing.T) {
	rep := Profile(nil, DefaultOptions())
	if len(rep.Cols) != 0 || !strings.Contains(rep.Markdown(), "Rows: 0") {
		t.Fatalf("unexpected report for nil dataset: %+v", rep)
	}
}

func TestProfileWithoutSamples(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 0
	md := Profile(fixture(), opt).Markdown()
	if strings.Contains(md, "[HEAD AND SAMPLE ROWS]") {
		t.Fatalf("expected no sample rows section")
	}
}
