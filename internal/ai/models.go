package ai

import "sort"

// ModelInfo carries the context window and illustrative pricing used for
// prompt budgeting and cost hints. Prices should be checked against the
// provider's published rates.
type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"gpt-4o-mini":      {Name: "gpt-4o-mini", Provider: ProviderOpenAI, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"gpt-4o":           {Name: "gpt-4o", Provider: ProviderOpenAI, ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01},
	"gpt-4.1-mini":     {Name: "gpt-4.1-mini", Provider: ProviderOpenAI, ContextTokens: 1000000, InputPerK: 0.0004, OutputPerK: 0.0016},
	"gemini-1.5-flash": {Name: "gemini-1.5-flash", Provider: ProviderGemini, ContextTokens: 1000000, InputPerK: 0.000075, OutputPerK: 0.0003},
	"gemini-1.5-pro":   {Name: "gemini-1.5-pro", Provider: ProviderGemini, ContextTokens: 2000000, InputPerK: 0.00125, OutputPerK: 0.005},
	"gemini-2.0-flash": {Name: "gemini-2.0-flash", Provider: ProviderGemini, ContextTokens: 1000000, InputPerK: 0.0001, OutputPerK: 0.0004},
}

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderGemini: "gemini-1.5-flash",
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string { return defaultModels[provider] }

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// Catalog returns the known models sorted by provider then name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, m := range models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out
}
