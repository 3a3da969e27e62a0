package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datadeck-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataDeck configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "provider: %s\n", cfg.Provider)
		fmt.Fprintf(w, "model: %s\n", selectModel(cfg, cfg.Provider, ""))
		fmt.Fprintf(w, "openai_api_key: %s\n", mask(cfg.OpenAIAPIKey))
		if cfg.OpenAIBaseURL != "" {
			fmt.Fprintf(w, "openai_base_url: %s\n", cfg.OpenAIBaseURL)
		}
		fmt.Fprintf(w, "gemini_api_key: %s\n", mask(cfg.GeminiAPIKey))
		if cfg.MaxTokens > 0 {
			fmt.Fprintf(w, "max_tokens: %d\n", cfg.MaxTokens)
		}
		if cfg.Temperature > 0 {
			fmt.Fprintf(w, "temperature: %.3f\n", cfg.Temperature)
		}
		fmt.Fprintf(w, "prompt_token_limit: %d\n", cfg.PromptTokenLimit)
		fmt.Fprintf(w, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(w, "retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		fmt.Fprintf(w, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(w, "log_format: %s\n", cfg.LogFormat)
		fmt.Fprintf(w, "decimal_places: %d\n", cfg.DecimalPlaces)
		fmt.Fprintf(w, "page_size: %d\n", cfg.PageSize)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := cfg.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
