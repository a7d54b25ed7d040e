package llm

import "strings"

// UsesResponsesAPI reports whether model must be routed through the OpenAI
// Responses API (GPT-5-series) instead of Chat Completions.
func UsesResponsesAPI(model string) bool {
	return strings.HasPrefix(model, "gpt-5")
}

// UsesMaxCompletionTokens reports whether model's Chat Completions request
// must use the max_completion_tokens field instead of the legacy max_tokens.
func UsesMaxCompletionTokens(model string) bool {
	for _, prefix := range []string{"gpt-5", "gpt-4.1", "gpt-4o", "o1", "o3"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// NoTemperatureSupport reports whether model rejects an explicit
// temperature field.
func NoTemperatureSupport(model string) bool {
	for _, prefix := range []string{"gpt-5", "o1", "o3"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
