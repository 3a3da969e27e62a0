package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/datadeck-cli/internal/ai"
)

const salesCSV = `region,city,qty,price
North,Oslo,10,2.5
North,Bergen,5,1
South,Rome,7,3
`

// fakeRuntime answers every request with reply and records the last request.
type fakeRuntime struct {
	reply string
	calls int
	last  ai.GenerateRequest
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.calls++
	f.last = req
	return &ai.GenerateResponse{
		Model:   req.Model,
		Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: f.reply}}},
		Usage:   ai.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}, nil
}

var fake = &fakeRuntime{}

func init() {
	ai.RegisterRuntime("fake", func(ai.RuntimeConfig) ai.Runtime { return fake })
}

// resetFlags restores every flag to its default; cobra keeps values and
// Changed state between Execute calls on the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with an isolated HOME and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is execute for commands that must succeed.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

// setup isolates HOME and writes the sales fixture.
func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DATADECK_MODEL", "")
	path := filepath.Join(home, "sales.csv")
	if err := os.WriteFile(path, []byte(salesCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCLI_PivotCSV(t *testing.T) {
	path := setup(t)
	out := runCmd(t, "pivot", path, "--rows", "region", "--values", "qty:sum", "--format", "csv")
	if !strings.HasPrefix(out, "region,qty_sum\n") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	for _, want := range []string{"North,15.00", "South,7.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCLI_PivotSubtotalsMarkdown(t *testing.T) {
	path := setup(t)
	out := runCmd(t, "pivot", path, "-r", "region,city", "-v", "qty", "--subtotals", "--decimals", "0")
	for _, want := range []string{"| region | city | qty_sum |", "| North | (all) | 15 |", "| Total | (all) | 22 |"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCLI_PivotExportAndSaveConfig(t *testing.T) {
	path := setup(t)
	dir := filepath.Dir(path)
	export := filepath.Join(dir, "out", "summary.json")
	saved := filepath.Join(dir, "pivot.yaml")
	out := runCmd(t, "pivot", path, "-r", "region", "-v", "price:max", "--filter", "region=North",
		"--export", export, "--save-config", saved)
	if !strings.Contains(out, "Exported pivot summary") || !strings.Contains(out, "Saved pivot configuration") {
		t.Fatalf("missing confirmations:\n%s", out)
	}

	b, err := os.ReadFile(export)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var exp struct {
		Data     []map[string]any `json:"data"`
		DataInfo struct {
			TotalRows int `json:"totalRows"`
			Columns   int `json:"columns"`
		} `json:"dataInfo"`
	}
	if err := json.Unmarshal(b, &exp); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if exp.DataInfo.TotalRows != 2 || exp.DataInfo.Columns != 4 {
		t.Fatalf("unexpected dataInfo: %+v", exp.DataInfo)
	}
	if len(exp.Data) != 1 || exp.Data[0]["price_max"] != 2.5 {
		t.Fatalf("unexpected data: %+v", exp.Data)
	}

	// the saved YAML reproduces the pivot
	out = runCmd(t, "pivot", path, "--config-file", saved, "--format", "csv")
	if !strings.Contains(out, "North,2.50") || strings.Contains(out, "South") {
		t.Fatalf("config-file pivot mismatch:\n%s", out)
	}
}

func TestCLI_PivotRejectsUnknownColumn(t *testing.T) {
	path := setup(t)
	if _, err := execute(t, "", "pivot", path, "-r", "country", "-v", "qty"); err == nil {
		t.Fatalf("expected error for unknown row field")
	}
	if _, err := execute(t, "", "pivot", path, "-r", "region", "-v", "qty:total"); err == nil {
		t.Fatalf("expected error for unknown aggregation")
	}
}

func TestCLI_PivotBatchOutputDir(t *testing.T) {
	path := setup(t)
	dir := filepath.Dir(path)
	second := filepath.Join(dir, "more.csv")
	if err := os.WriteFile(second, []byte("region,qty\nEast,3\nEast,4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "pivots")
	out := runCmd(t, "pivot-batch", filepath.Join(dir, "*.csv"), "-r", "region", "-v", "qty", "--format", "csv", "--output-dir", outDir)
	if !strings.Contains(out, "[1/2] Processing") || !strings.Contains(out, "[2/2] Processing") {
		t.Fatalf("missing progress lines:\n%s", out)
	}
	b, err := os.ReadFile(filepath.Join(outDir, "more.pivot.csv"))
	if err != nil {
		t.Fatalf("read batch output: %v", err)
	}
	if string(b) != "region,qty_sum\nEast,7.00\n" {
		t.Fatalf("unexpected batch output: %q", b)
	}
	if _, err := os.Stat(filepath.Join(outDir, "sales.pivot.csv")); err != nil {
		t.Fatalf("expected sales output: %v", err)
	}
}

func TestCLI_FieldsAndValues(t *testing.T) {
	path := setup(t)
	out := runCmd(t, "fields", path, "--format", "csv")
	for _, want := range []string{"region,text,count", "qty,numeric,sum"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	out = runCmd(t, "values", path, "region", "--counts")
	if out != "North\t2\nSouth\t1\n" {
		t.Fatalf("unexpected values output: %q", out)
	}
}

func TestCLI_TableSortAndPage(t *testing.T) {
	path := setup(t)
	out := runCmd(t, "table", path, "--sort", "qty", "--desc", "--page-size", "2")
	lines := strings.Split(out, "\n")
	if len(lines) < 4 || !strings.Contains(lines[2], "Oslo") || !strings.Contains(lines[3], "Rome") {
		t.Fatalf("unexpected order:\n%s", out)
	}
	if !strings.Contains(out, "Page 1 of 2 (3 of 3 rows)") {
		t.Fatalf("missing footer:\n%s", out)
	}

	out = runCmd(t, "table", path, "--where", "region=South", "--format", "csv")
	if out != "region,city,qty,price\nSouth,Rome,7,3\n" {
		t.Fatalf("unexpected filtered table: %q", out)
	}
}

func TestCLI_ChartSeriesAndPNG(t *testing.T) {
	path := setup(t)
	out := runCmd(t, "chart", path, "--x", "region", "--y", "qty", "--format", "csv")
	if !strings.Contains(out, "North,15.00") {
		t.Fatalf("unexpected series:\n%s", out)
	}

	img := filepath.Join(filepath.Dir(path), "qty.png")
	out = runCmd(t, "chart", path, "--x", "region", "--y", "qty,price", "--type", "line", "--theme", "neon", "-o", img)
	if !strings.Contains(out, "Generated line chart with 2 data points") {
		t.Fatalf("unexpected chart output:\n%s", out)
	}
	b, err := os.ReadFile(img)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("chart is not a PNG")
	}

	if _, err := execute(t, "", "chart", path, "--x", "region", "--y", "qty", "--type", "pie"); err == nil {
		t.Fatalf("expected error for unsupported chart type")
	}
}

func TestCLI_Profile(t *testing.T) {
	path := setup(t)
	out := runCmd(t, "profile", path)
	for _, want := range []string{"[DATASET SUMMARY]", "[SCHEMA]", "- qty: numeric"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	setup(t)
	runCmd(t, "config", "set", "model", "gpt-4o")
	runCmd(t, "config", "set", "openai_api_key", "sk-1234567890")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "gpt-4o") {
		t.Fatalf("model not persisted:\n%s", out)
	}
	if strings.Contains(out, "sk-1234567890") {
		t.Fatalf("api key not masked:\n%s", out)
	}
	if _, err := execute(t, "", "config", "set", "provider", "acme"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestCLI_ModelsShowAndCost(t *testing.T) {
	setup(t)
	out := runCmd(t, "models", "show", "--provider", "gemini", "--format", "csv")
	if !strings.Contains(out, "gemini-1.5-flash,gemini,1000000") || strings.Contains(out, "gpt-4o") {
		t.Fatalf("unexpected catalog:\n%s", out)
	}
	out = runCmd(t, "models", "cost", "--model", "gpt-4o", "--prompt", "1000", "--completion", "1000")
	if !strings.Contains(out, "~$0.0125") {
		t.Fatalf("unexpected cost:\n%s", out)
	}
	if _, err := execute(t, "", "models", "cost", "--model", "nope"); err == nil {
		t.Fatalf("expected error for unknown model")
	}
}

func TestCLI_InsightWithFakeProvider(t *testing.T) {
	path := setup(t)
	fake.reply = "```json\n{\"analysis\":\"North sells most.\",\"insights\":[\"North leads\"],\"recommendations\":[\"Grow South\"]}\n```"
	out := runCmd(t, "insight", path, "--provider", "fake", "--model", "m1", "--command", "Where to invest?")
	for _, want := range []string{"North sells most.", "North leads", "Grow South"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if fake.last.Model != "m1" {
		t.Fatalf("model not forwarded: %q", fake.last.Model)
	}
	user := fake.last.Messages[len(fake.last.Messages)-1].Content
	if !strings.Contains(user, "Where to invest?") || !strings.Contains(user, "[SCHEMA]") {
		t.Fatalf("prompt lacks request or data context:\n%s", user)
	}

	out = runCmd(t, "insight", path, "--provider", "fake", "--json")
	var resp struct {
		Analysis       string `json:"analysis"`
		Status         string `json:"status"`
		FilesProcessed int    `json:"filesProcessed"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if resp.Status != "success" || resp.FilesProcessed != 1 || resp.Analysis != "North sells most." {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCLI_InsightUnknownProvider(t *testing.T) {
	path := setup(t)
	_, err := execute(t, "", "insight", path, "--provider", "acme")
	if err == nil || !strings.Contains(err.Error(), "provider not supported") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}
}

func TestCLI_ChatOneShotAndREPL(t *testing.T) {
	path := setup(t)
	fake.reply = "Hello from the assistant"
	out := runCmd(t, "chat", path, "--provider", "fake", "-m", "hi")
	if !strings.Contains(out, "Hello from the assistant") {
		t.Fatalf("unexpected one-shot output:\n%s", out)
	}

	fake.calls = 0
	out, err := execute(t, "first question\n\nsecond question\nexit\n", "chat", "--provider", "fake")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if fake.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", fake.calls)
	}
	if strings.Count(out, "Hello from the assistant") != 2 {
		t.Fatalf("expected two answers:\n%s", out)
	}
	// second call carries the first exchange as history
	var sawHistory bool
	for _, m := range fake.last.Messages {
		if m.Role == "assistant" && m.Content == "Hello from the assistant" {
			sawHistory = true
		}
	}
	if !sawHistory {
		t.Fatalf("history not forwarded: %+v", fake.last.Messages)
	}
}
