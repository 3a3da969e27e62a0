package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadeck-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/datadeck-cli/internal/config"
	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
	"github.com/KaramelBytes/datadeck-cli/internal/loader"
	"github.com/KaramelBytes/datadeck-cli/internal/pivot"
	"github.com/KaramelBytes/datadeck-cli/internal/utils"
)

// loadFlags are shared by every command that reads a data file.
type loadFlags struct {
	sheet      string
	sheetIndex int
	delimiter  string
	maxRows    int
}

func (l *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.sheet, "sheet", "", "XLSX sheet or SQLite table name")
	cmd.Flags().IntVar(&l.sheetIndex, "sheet-index", 1, "1-based sheet/table index (used if --sheet not provided)")
	cmd.Flags().StringVar(&l.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|'")
	cmd.Flags().IntVar(&l.maxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
}

func (l *loadFlags) options() (loader.Options, error) {
	d, err := parseDelimiter(l.delimiter)
	if err != nil {
		return loader.Options{}, err
	}
	return loader.Options{
		Sheet:      l.sheet,
		SheetIndex: l.sheetIndex,
		Delimiter:  d,
		MaxRows:    l.maxRows,
		Logger:     logger,
	}, nil
}

func (l *loadFlags) load(ctx context.Context, path string) (*dataset.Dataset, error) {
	opt, err := l.options()
	if err != nil {
		return nil, err
	}
	return loader.LoadFile(ctx, path, opt)
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

// parseFields turns "region,city" style flag values into fields.
func parseFields(names []string) []pivot.Field {
	var out []pivot.Field
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, pivot.Field{Name: n})
		}
	}
	return out
}

// parseValueSpecs parses "column[:aggregation]" entries. The aggregation
// must be one of pivot.Aggregations when given.
func parseValueSpecs(specs []string) ([]pivot.Field, error) {
	var out []pivot.Field
	for _, s := range specs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		name, agg := s, ""
		if i := strings.LastIndexByte(s, ':'); i >= 0 {
			name, agg = strings.TrimSpace(s[:i]), strings.ToLower(strings.TrimSpace(s[i+1:]))
		}
		if name == "" {
			return nil, fmt.Errorf("invalid --values entry %q: missing column", s)
		}
		f := pivot.Field{Name: name}
		if agg != "" {
			if !knownAggregation(agg) {
				return nil, fmt.Errorf("unknown aggregation %q (use %s)", agg, aggregationNames())
			}
			f.Aggregation = pivot.AggregationKind(agg)
		}
		out = append(out, f)
	}
	return out, nil
}

func knownAggregation(s string) bool {
	for _, a := range pivot.Aggregations {
		if string(a) == s {
			return true
		}
	}
	return false
}

func aggregationNames() string {
	names := make([]string, len(pivot.Aggregations))
	for i, a := range pivot.Aggregations {
		names[i] = string(a)
	}
	return strings.Join(names, "|")
}

// parseFilters parses "column=value" equality filters.
func parseFilters(specs []string) ([]pivot.Filter, error) {
	var out []pivot.Filter
	for _, s := range specs {
		col, val, ok := strings.Cut(s, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --filter %q (use column=value)", s)
		}
		out = append(out, pivot.Filter{Column: col, Value: val})
	}
	return out, nil
}

// parseSetFilters parses "column=v1|v2" multi-value filters.
func parseSetFilters(specs []string) ([]dataset.SetFilter, error) {
	var out []dataset.SetFilter
	for _, s := range specs {
		col, vals, ok := strings.Cut(s, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --where %q (use column=v1|v2)", s)
		}
		out = append(out, dataset.SetFilter{Column: col, Values: strings.Split(vals, "|")})
	}
	return out, nil
}

func decimalPlaces(cmd *cobra.Command, flag int) int {
	if cmd.Flags().Changed("decimals") || cfg == nil {
		return flag
	}
	return cfg.DecimalPlaces
}

// writeOrPrint writes data to path when set, otherwise to w.
func writeOrPrint(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(w, "✓ Wrote %s\n", path)
	return nil
}

func selectModel(cfg *cfgpkg.Global, provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.Model != "" {
		return cfg.Model
	}
	return ai.DefaultModel(provider)
}

func selectProvider(cfg *cfgpkg.Global, explicit string) string {
	p := strings.ToLower(strings.TrimSpace(explicit))
	if p == "" && cfg != nil {
		p = strings.ToLower(strings.TrimSpace(cfg.Provider))
	}
	if p == "" {
		p = ai.ProviderOpenAI
	}
	return p
}

func buildRuntime(cfg *cfgpkg.Global, provider string) (ai.Runtime, error) {
	rc := ai.RuntimeConfig{
		HTTPTimeout: 60 * time.Second,
		RetryMax:    3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
		Logger:      logger,
	}
	if cfg != nil {
		if cfg.HTTPTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		}
		if cfg.RetryMaxAttempts > 0 {
			rc.RetryMax = cfg.RetryMaxAttempts
		}
		if cfg.RetryBaseDelayMs > 0 {
			rc.BaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		}
		if cfg.RetryMaxDelayMs > 0 {
			rc.MaxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
		}
		rc.APIKey = cfg.APIKey(provider)
		if provider == ai.ProviderOpenAI {
			rc.BaseURL = cfg.OpenAIBaseURL
		}
	}
	rt, ok := ai.GetRuntime(provider, rc)
	if !ok {
		return nil, fmt.Errorf("provider not supported: %s (use %s)", provider, strings.Join(ai.Providers(), "|"))
	}
	return rt, nil
}

func fileInfo(path string) (name, kind string, size int64) {
	name = path
	if st, err := os.Stat(path); err == nil {
		name, size = st.Name(), st.Size()
	}
	kind = "application/octet-stream"
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		kind = "text/csv"
	case strings.HasSuffix(lower, ".tsv"):
		kind = "text/tab-separated-values"
	case strings.HasSuffix(lower, ".json"):
		kind = "application/json"
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xlsm"):
		kind = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		kind = "application/vnd.sqlite3"
	}
	return name, kind, size
}
