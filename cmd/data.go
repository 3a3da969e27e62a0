package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
	"github.com/KaramelBytes/datadeck-cli/internal/pivot"
	"github.com/KaramelBytes/datadeck-cli/internal/render"
)

var (
	fieldsLoad   loadFlags
	fieldsFormat string
)

var fieldsCmd = &cobra.Command{
	Use:   "fields <file>",
	Short: "List columns with their inferred type and default aggregation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(fieldsFormat)
		if err != nil {
			return err
		}
		ds, err := fieldsLoad.load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fields := pivot.Classify(ds)
		for i := range fields {
			fields[i].Aggregation = pivot.DefaultAggregation(fields[i].Type)
		}
		t := render.Table{Header: []string{"field", "type", "aggregation"}}
		for _, f := range fields {
			t.Rows = append(t.Rows, []string{f.Name, string(f.Type), string(f.Aggregation)})
		}
		return render.Write(cmd.OutOrStdout(), format, t, fields)
	},
}

var sheetsLoad loadFlags

var sheetsCmd = &cobra.Command{
	Use:   "sheets <file>",
	Short: "List worksheets (Excel) or tables (SQLite) in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := sheetsLoad.load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(ds.Sheets) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(single table)")
			return nil
		}
		for i, s := range ds.Sheets {
			marker := " "
			if s == ds.Sheet {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d. %s\n", marker, i+1, s)
		}
		return nil
	},
}

var (
	valuesLoad   loadFlags
	valuesCounts bool
)

var valuesCmd = &cobra.Command{
	Use:   "values <file> <column>",
	Short: "List the distinct values of a column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := valuesLoad.load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		col := args[1]
		if _, ok := ds.Schema.Index(col); !ok {
			return fmt.Errorf("unknown column %q", col)
		}
		vals := pivot.UniqueValues(ds.Rows, col)
		if !valuesCounts {
			for _, v := range vals {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		}
		counts := dataset.ValueCounts(ds.Rows, col)
		sort.SliceStable(vals, func(i, j int) bool { return counts[vals[i]] > counts[vals[j]] })
		for _, v := range vals {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", v, counts[v])
		}
		return nil
	},
}

var (
	tableLoad     loadFlags
	tableSearch   string
	tableWhere    []string
	tableSort     string
	tableDesc     bool
	tablePage     int
	tablePageSize int
	tableFormat   string
)

var tableCmd = &cobra.Command{
	Use:   "table <file>",
	Short: "Browse rows with search, filters, sorting and pagination",
	Example: `  datadeck table sales.csv --search north --sort qty --desc
  datadeck table sales.xlsx --sheet Q1 --where "region=North|South" --page 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(tableFormat)
		if err != nil {
			return err
		}
		filters, err := parseSetFilters(tableWhere)
		if err != nil {
			return err
		}
		ds, err := tableLoad.load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if tableSort != "" {
			if _, ok := ds.Schema.Index(tableSort); !ok {
				return fmt.Errorf("unknown sort column %q", tableSort)
			}
		}
		rows := dataset.FilterSet(ds.Rows, filters)
		rows = dataset.Search(rows, tableSearch)
		if tableSort != "" {
			rows = dataset.Sort(rows, tableSort, tableDesc)
		}
		size := tablePageSize
		if !cmd.Flags().Changed("page-size") && cfg != nil && cfg.PageSize > 0 {
			size = cfg.PageSize
		}
		page := dataset.Paginate(rows, tablePage, size)

		records := make([]map[string]any, len(page.Rows))
		for i, r := range page.Rows {
			records[i] = r.Map()
		}
		if err := render.Write(cmd.OutOrStdout(), format, render.PageTable(ds.Columns(), page), records); err != nil {
			return err
		}
		if format == render.FormatMarkdown {
			fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d of %d rows)\n",
				page.Number, page.TotalPages, page.TotalRows, ds.Len())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd, sheetsCmd, valuesCmd, tableCmd)

	fieldsLoad.register(fieldsCmd)
	fieldsCmd.Flags().StringVar(&fieldsFormat, "format", "markdown", "output format: markdown|csv|json")

	sheetsLoad.register(sheetsCmd)

	valuesLoad.register(valuesCmd)
	valuesCmd.Flags().BoolVar(&valuesCounts, "counts", false, "show row counts, most frequent first")

	tableLoad.register(tableCmd)
	tableCmd.Flags().StringVar(&tableSearch, "search", "", "keep rows where any cell contains this text")
	tableCmd.Flags().StringArrayVar(&tableWhere, "where", nil, "keep rows whose column is one of the values: column=v1|v2 (repeatable)")
	tableCmd.Flags().StringVar(&tableSort, "sort", "", "column to sort by")
	tableCmd.Flags().BoolVar(&tableDesc, "desc", false, "sort descending")
	tableCmd.Flags().IntVar(&tablePage, "page", 1, "1-based page number")
	tableCmd.Flags().IntVar(&tablePageSize, "page-size", dataset.DefaultPageSize, "rows per page")
	tableCmd.Flags().StringVar(&tableFormat, "format", "markdown", "output format: markdown|csv|json")
}
