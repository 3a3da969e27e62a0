package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Provider      string `mapstructure:"provider" yaml:"provider"`
	Model         string `mapstructure:"model" yaml:"model"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" yaml:"openai_base_url,omitempty"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key" yaml:"gemini_api_key"`

	MaxTokens        int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature      float64 `mapstructure:"temperature" yaml:"temperature"`
	PromptTokenLimit int     `mapstructure:"prompt_token_limit" yaml:"prompt_token_limit"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Output
	DecimalPlaces int `mapstructure:"decimal_places" yaml:"decimal_places"`
	PageSize      int `mapstructure:"page_size" yaml:"page_size"`
}

// APIKey returns the key configured for the given provider.
func (g *Global) APIKey(provider string) string {
	switch provider {
	case "gemini":
		return g.GeminiAPIKey
	default:
		return g.OpenAIAPIKey
	}
}

// Set assigns a single key by its config name.
func (g *Global) Set(key, val string) error {
	switch key {
	case "provider":
		switch val {
		case "openai", "OpenAI", "OPENAI":
			g.Provider = "openai"
		case "gemini", "Gemini", "GEMINI":
			g.Provider = "gemini"
		default:
			return fmt.Errorf("invalid provider: %s (use openai or gemini)", val)
		}
	case "model":
		g.Model = val
	case "openai_api_key":
		g.OpenAIAPIKey = val
	case "openai_base_url":
		g.OpenAIBaseURL = val
	case "gemini_api_key":
		g.GeminiAPIKey = val
	case "log_level":
		g.LogLevel = val
	case "log_format":
		g.LogFormat = val
	case "temperature":
		f, err := parseFloat(key, val)
		if err != nil {
			return err
		}
		g.Temperature = f
	case "max_tokens", "prompt_token_limit", "http_timeout_sec", "retry_max_attempts",
		"retry_base_delay_ms", "retry_max_delay_ms", "decimal_places", "page_size":
		i, err := parseInt(key, val)
		if err != nil {
			return err
		}
		*g.intField(key) = i
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func (g *Global) intField(key string) *int {
	switch key {
	case "max_tokens":
		return &g.MaxTokens
	case "prompt_token_limit":
		return &g.PromptTokenLimit
	case "http_timeout_sec":
		return &g.HTTPTimeoutSec
	case "retry_max_attempts":
		return &g.RetryMaxAttempts
	case "retry_base_delay_ms":
		return &g.RetryBaseDelayMs
	case "retry_max_delay_ms":
		return &g.RetryMaxDelayMs
	case "decimal_places":
		return &g.DecimalPlaces
	default:
		return &g.PageSize
	}
}

// Path resolves the config file location: cfgFile when given, otherwise
// ~/.datadeck/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datadeck", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datadeck/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATADECK")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("max_tokens", 0)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("prompt_token_limit", 6000)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("decimal_places", 2)
	v.SetDefault("page_size", 50)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".datadeck"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Provider-standard env vars as fallbacks
	if c.OpenAIAPIKey == "" {
		c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	return &c, nil
}

func parseInt(key, val string) (int, error) {
	i, err := cast.ToIntE(strings.TrimSpace(val))
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid int for %s: %v", key, val)
	}
	return i, nil
}

func parseFloat(key, val string) (float64, error) {
	f, err := cast.ToFloat64E(strings.TrimSpace(val))
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid float for %s: %v", key, val)
	}
	return f, nil
}
