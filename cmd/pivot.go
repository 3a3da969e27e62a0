package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
	"github.com/KaramelBytes/datadeck-cli/internal/pivot"
	"github.com/KaramelBytes/datadeck-cli/internal/render"
	"github.com/KaramelBytes/datadeck-cli/internal/utils"
)

// pivotFlags are shared by pivot and pivot-batch.
type pivotFlags struct {
	rows       []string
	cols       []string
	values     []string
	filters    []string
	subtotals  bool
	configFile string
	format     string
	decimals   int
}

func (p *pivotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&p.rows, "rows", "r", nil, "row fields, in nesting order (comma-separated or repeatable)")
	cmd.Flags().StringSliceVarP(&p.cols, "cols", "c", nil, "column fields for a cross-tab")
	cmd.Flags().StringSliceVarP(&p.values, "values", "v", nil, "value fields as column[:aggregation], e.g. qty:sum ("+aggregationNames()+")")
	cmd.Flags().StringArrayVar(&p.filters, "filter", nil, "keep rows where column equals value: column=value (repeatable)")
	cmd.Flags().BoolVar(&p.subtotals, "subtotals", false, "add subtotal rows per row-field level and a grand total")
	cmd.Flags().StringVar(&p.configFile, "config-file", "", "YAML pivot configuration (flags override its lists)")
	cmd.Flags().StringVar(&p.format, "format", "markdown", "output format: markdown|csv|json")
	cmd.Flags().IntVar(&p.decimals, "decimals", 2, "decimal places for aggregates (-1 = shortest exact)")
}

// configuration merges --config-file with the list flags that were set.
func (p *pivotFlags) configuration(cmd *cobra.Command) (pivot.Configuration, error) {
	var conf pivot.Configuration
	if p.configFile != "" {
		c, err := pivot.LoadConfiguration(p.configFile)
		if err != nil {
			return conf, err
		}
		conf = c
	}
	f := cmd.Flags()
	if f.Changed("rows") || p.configFile == "" {
		conf.Rows = parseFields(p.rows)
	}
	if f.Changed("cols") || p.configFile == "" {
		conf.Columns = parseFields(p.cols)
	}
	if f.Changed("values") || p.configFile == "" {
		vals, err := parseValueSpecs(p.values)
		if err != nil {
			return conf, err
		}
		conf.Values = vals
	}
	if f.Changed("filter") || p.configFile == "" {
		filters, err := parseFilters(p.filters)
		if err != nil {
			return conf, err
		}
		conf.Filters = filters
	}
	if f.Changed("subtotals") || p.configFile == "" {
		conf.Subtotals = p.subtotals
	}
	return conf, nil
}

// resolve fills types and default aggregations from ds and validates the
// field placement against its columns.
func resolveConfiguration(ds *dataset.Dataset, conf pivot.Configuration) (pivot.Configuration, error) {
	conf = conf.WithDefaults(pivot.Classify(ds))
	if err := conf.Validate(ds.Columns()); err != nil {
		return conf, fmt.Errorf("%s: %w", ds.Name, err)
	}
	return conf, nil
}

func renderPivot(res *pivot.Result, format render.Format, decimals int) ([]byte, error) {
	var buf bytes.Buffer
	if err := render.Write(&buf, format, render.PivotTable(res, decimals), res.Maps()); err != nil {
		return nil, err
	}
	if format == render.FormatMarkdown && res.Empty() {
		if len(res.Rows) == 0 || len(res.Values) == 0 {
			buf.WriteString("\nAdd at least one --rows field and one --values field to build a pivot.\n")
		} else {
			buf.WriteString("\nNo rows match the current filters.\n")
		}
	}
	return buf.Bytes(), nil
}

var (
	pvLoad       loadFlags
	pvFlags      pivotFlags
	pvOutput     string
	pvExport     string
	pvSaveConfig string
)

var pivotCmd = &cobra.Command{
	Use:   "pivot <file>",
	Short: "Build a pivot table: group by row/column fields and aggregate values",
	Example: `  datadeck pivot sales.csv --rows region --values qty:sum
  datadeck pivot sales.csv -r region,city -c year -v qty:average -v price:max --subtotals
  datadeck pivot sales.xlsx --sheet 2 -r region -v qty --filter year=2024 --export summary.json
  datadeck pivot sales.csv --config-file pivot.yaml --format csv -o out.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(pvFlags.format)
		if err != nil {
			return err
		}
		conf, err := pvFlags.configuration(cmd)
		if err != nil {
			return err
		}
		ds, err := pvLoad.load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if conf, err = resolveConfiguration(ds, conf); err != nil {
			return err
		}

		engine := pivot.NewEngine(logger)
		res := engine.Pivot(ds, conf)
		out, err := renderPivot(res, format, decimalPlaces(cmd, pvFlags.decimals))
		if err != nil {
			return err
		}
		if err := writeOrPrint(cmd.OutOrStdout(), pvOutput, out); err != nil {
			return err
		}

		if pvExport != "" {
			exp := pivot.NewExport(conf, engine.Pivot(ds, conf), len(ds.Columns()), time.Now())
			b, err := exp.JSON()
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(pvExport, b); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported pivot summary to %s\n", pvExport)
		}
		if pvSaveConfig != "" {
			b, err := pivot.MarshalYAMLConfig(conf)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(pvSaveConfig, b); err != nil {
				return fmt.Errorf("write pivot config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved pivot configuration to %s\n", pvSaveConfig)
		}
		hits, misses := engine.Stats()
		logger.Debug("Pivot finished", zap.Int("cache_hits", hits), zap.Int("cache_misses", misses))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pivotCmd)
	pvLoad.register(pivotCmd)
	pvFlags.register(pivotCmd)
	pivotCmd.Flags().StringVarP(&pvOutput, "output", "o", "", "write the table to a file instead of stdout")
	pivotCmd.Flags().StringVar(&pvExport, "export", "", "write a JSON summary (timestamp, configuration, data, dataInfo)")
	pivotCmd.Flags().StringVar(&pvSaveConfig, "save-config", "", "save the resolved pivot configuration as YAML")
}
