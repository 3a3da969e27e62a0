package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadeck-cli/internal/ai"
	"github.com/KaramelBytes/datadeck-cli/internal/render"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog and estimate costs",
	Example: `  datadeck models show
  datadeck models show --provider gemini --format json
  datadeck models cost --model gpt-4o-mini --prompt 6000 --completion 1000`,
}

var (
	showProvider string
	showFormat   string
)

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show known models with context size and pricing",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(showFormat)
		if err != nil {
			return err
		}
		var list []ai.ModelInfo
		for _, m := range ai.Catalog() {
			if showProvider == "" || strings.EqualFold(m.Provider, showProvider) {
				list = append(list, m)
			}
		}
		t := render.Table{Header: []string{"model", "provider", "context", "input $/1K", "output $/1K", "default"}}
		for _, m := range list {
			def := ""
			if ai.DefaultModel(m.Provider) == m.Name {
				def = "*"
			}
			t.Rows = append(t.Rows, []string{
				m.Name, m.Provider, fmt.Sprint(m.ContextTokens),
				fmt.Sprintf("%.6f", m.InputPerK), fmt.Sprintf("%.6f", m.OutputPerK), def,
			})
		}
		return render.Write(cmd.OutOrStdout(), format, t, list)
	},
}

var (
	costModel      string
	costPrompt     int
	costCompletion int
)

var modelsCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate the USD cost of a request",
	RunE: func(cmd *cobra.Command, args []string) error {
		model := costModel
		if model == "" {
			model = selectModel(cfg, selectProvider(cfg, ""), "")
		}
		usd, ok := ai.EstimateCostUSD(model, costPrompt, costCompletion)
		if !ok {
			return fmt.Errorf("unknown model %q (see 'datadeck models show')", model)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ~$%.4f for %d prompt + %d completion tokens\n", model, usd, costPrompt, costCompletion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsCostCmd)

	modelsShowCmd.Flags().StringVar(&showProvider, "provider", "", "only list models of this provider")
	modelsShowCmd.Flags().StringVar(&showFormat, "format", "markdown", "output format: markdown|csv|json")

	modelsCostCmd.Flags().StringVar(&costModel, "model", "", "model name (default from config)")
	modelsCostCmd.Flags().IntVar(&costPrompt, "prompt", 0, "prompt tokens")
	modelsCostCmd.Flags().IntVar(&costCompletion, "completion", 0, "completion tokens")
}
