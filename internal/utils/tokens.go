package utils

import "strings"

// Token estimation uses the rough 4 characters per token heuristic; it only
// needs to keep prompts inside a model's context window.

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncationMarker is appended to text cut by TruncateToTokenLimit.
const TruncationMarker = "\n[... truncated ...]"

// TruncateToTokenLimit cuts text to roughly fit within limit tokens,
// preferring the last line break before the cut so tables stay whole.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	markerLen := len([]rune(TruncationMarker))
	if charLimit <= markerLen {
		return string(runes[:charLimit])
	}
	cut := string(runes[:charLimit-markerLen])
	if i := strings.LastIndexByte(cut, '\n'); i > len(cut)/2 {
		cut = cut[:i]
	}
	return cut + TruncationMarker
}

// TokenBreakdown returns a simple breakdown map of labeled sections to token counts.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
