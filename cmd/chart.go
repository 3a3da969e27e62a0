package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/datadeck-cli/internal/pivot"
	"github.com/KaramelBytes/datadeck-cli/internal/render"
)

var (
	chLoad     loadFlags
	chX        string
	chY        []string
	chAgg      string
	chWhere    []string
	chKind     string
	chTheme    string
	chTitle    string
	chOutput   string
	chWidth    float64
	chHeight   float64
	chFormat   string
	chDecimals int
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Aggregate one or two measures by a category and render a chart",
	Example: `  datadeck chart sales.csv --x region --y qty --agg sum -o qty.png
  datadeck chart sales.csv --x month --y revenue,cost --type line --theme plasma -o trend.png
  datadeck chart sales.csv --x region --y qty --where "year=2023|2024"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chX == "" || len(chY) == 0 {
			return fmt.Errorf("--x and --y are required")
		}
		if len(chY) > 2 {
			return fmt.Errorf("at most two --y measures are supported, got %d", len(chY))
		}
		kind := strings.ToLower(chKind)
		if kind != render.ChartBar && kind != render.ChartLine {
			return fmt.Errorf("unsupported --type: %s (use bar|line)", chKind)
		}
		agg := strings.ToLower(strings.TrimSpace(chAgg))
		if agg != "" && !knownAggregation(agg) {
			return fmt.Errorf("unknown aggregation %q (use %s)", agg, aggregationNames())
		}
		filters, err := parseSetFilters(chWhere)
		if err != nil {
			return err
		}
		ds, err := chLoad.load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, c := range append([]string{chX}, chY...) {
			if _, ok := ds.Schema.Index(c); !ok {
				return fmt.Errorf("unknown column %q", c)
			}
		}

		series := pivot.BuildSeries(ds.Rows, pivot.SeriesSpec{
			X:           chX,
			Y:           chY,
			Aggregation: pivot.AggregationKind(agg),
			Filters:     filters,
		})
		if chOutput == "" {
			format, err := render.ParseFormat(chFormat)
			if err != nil {
				return err
			}
			return render.Write(cmd.OutOrStdout(), format, render.SeriesTable(series, decimalPlaces(cmd, chDecimals)), series)
		}
		opt := render.ChartOptions{
			Kind:   kind,
			Theme:  chTheme,
			Title:  chTitle,
			Width:  vg.Length(chWidth) * vg.Inch,
			Height: vg.Length(chHeight) * vg.Inch,
		}
		if err := render.SaveChart(series, opt, chOutput); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Generated %s chart with %d data points: %s\n", kind, len(series.Points), chOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chLoad.register(chartCmd)
	chartCmd.Flags().StringVar(&chX, "x", "", "category column (X axis)")
	chartCmd.Flags().StringSliceVar(&chY, "y", nil, "one or two measure columns (Y axis)")
	chartCmd.Flags().StringVar(&chAgg, "agg", "sum", "aggregation: "+aggregationNames())
	chartCmd.Flags().StringArrayVar(&chWhere, "where", nil, "keep rows whose column is one of the values: column=v1|v2 (repeatable)")
	chartCmd.Flags().StringVar(&chKind, "type", render.ChartBar, "chart type: bar|line")
	chartCmd.Flags().StringVar(&chTheme, "theme", "default", "color theme: "+strings.Join(render.Themes(), "|"))
	chartCmd.Flags().StringVar(&chTitle, "title", "", "chart title")
	chartCmd.Flags().StringVarP(&chOutput, "output", "o", "", "image path (.png, .svg, .pdf); prints the series when omitted")
	chartCmd.Flags().Float64Var(&chWidth, "width", 10, "image width in inches")
	chartCmd.Flags().Float64Var(&chHeight, "height", 6, "image height in inches")
	chartCmd.Flags().StringVar(&chFormat, "format", "markdown", "series output format when no image is written: markdown|csv|json")
	chartCmd.Flags().IntVar(&chDecimals, "decimals", 2, "decimal places for printed aggregates")
}
