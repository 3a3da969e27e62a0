package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadeck-cli/internal/loader"
	"github.com/KaramelBytes/datadeck-cli/internal/pivot"
	"github.com/KaramelBytes/datadeck-cli/internal/render"
	"github.com/KaramelBytes/datadeck-cli/internal/utils"
)

var (
	pbLoad      loadFlags
	pbFlags     pivotFlags
	pbOutputDir string
	pbWorkers   int
	pbQuiet     bool
)

var pivotBatchCmd = &cobra.Command{
	Use:   "pivot-batch <files...>",
	Short: "Apply one pivot configuration to many files",
	Example: `  datadeck pivot-batch "data/*.csv" -r region -v qty:sum
  datadeck pivot-batch q1.xlsx q2.xlsx --config-file pivot.yaml --format csv --output-dir out/`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(pbFlags.format)
		if err != nil {
			return err
		}
		conf, err := pbFlags.configuration(cmd)
		if err != nil {
			return err
		}
		files, err := loader.ExpandPaths(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched (supported: %s)", strings.Join(loader.Extensions(), ", "))
		}
		opt, err := pbLoad.options()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !pbQuiet {
			fmt.Fprintf(out, "Loading %d file(s) with %d worker(s)...\n", len(files), pbWorkers)
		}
		sets, err := loader.LoadAll(cmd.Context(), files, opt, pbWorkers)
		if err != nil {
			return err
		}

		engine := pivot.NewEngine(logger)
		decimals := decimalPlaces(cmd, pbFlags.decimals)
		total := len(sets)
		for i, ds := range sets {
			if !pbQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(files[i]))
			}
			resolved, err := resolveConfiguration(ds, conf)
			if err != nil {
				return err
			}
			body, err := renderPivot(engine.Pivot(ds, resolved), format, decimals)
			if err != nil {
				return err
			}
			if pbOutputDir == "" {
				if format == render.FormatMarkdown {
					fmt.Fprintf(out, "\n## %s\n\n", filepath.Base(files[i]))
				}
				if _, err := out.Write(body); err != nil {
					return err
				}
				continue
			}
			base := strings.TrimSuffix(filepath.Base(files[i]), filepath.Ext(files[i]))
			if ds.Sheet != "" {
				base += "__" + ds.Sheet
			}
			dest := filepath.Join(pbOutputDir, base+".pivot."+extension(format))
			if err := utils.SafeWriteFile(dest, body); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			if !pbQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", dest)
			}
		}
		return nil
	},
}

func extension(f render.Format) string {
	if f == render.FormatMarkdown {
		return "md"
	}
	return string(f)
}

func init() {
	rootCmd.AddCommand(pivotBatchCmd)
	pbLoad.register(pivotBatchCmd)
	pbFlags.register(pivotBatchCmd)
	pivotBatchCmd.Flags().StringVar(&pbOutputDir, "output-dir", "", "write one output file per input into this directory")
	pivotBatchCmd.Flags().IntVar(&pbWorkers, "workers", 4, "files loaded concurrently")
	pivotBatchCmd.Flags().BoolVar(&pbQuiet, "quiet", false, "suppress progress and non-essential output")
}
