package llm

import "testing"

func TestUsesResponsesAPI(t *testing.T) {
	cases := map[string]bool{
		"gpt-5-nano": true,
		"gpt-5":      true,
		"gpt-4o":     false,
		"o1":         false,
		"claude-3":   false,
	}
	for model, want := range cases {
		if got := UsesResponsesAPI(model); got != want {
			t.Errorf("UsesResponsesAPI(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestUsesMaxCompletionTokens(t *testing.T) {
	cases := map[string]bool{
		"gpt-5-nano":  true,
		"gpt-4.1":     true,
		"gpt-4o":      true,
		"o1-preview":  true,
		"o3-mini":     true,
		"gpt-4-turbo": false,
		"claude-3":    false,
	}
	for model, want := range cases {
		if got := UsesMaxCompletionTokens(model); got != want {
			t.Errorf("UsesMaxCompletionTokens(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestNoTemperatureSupport(t *testing.T) {
	cases := map[string]bool{
		"gpt-5-nano":  true,
		"o1-preview":  true,
		"o3-mini":     true,
		"gpt-4-turbo": false,
		"gpt-4o":      false,
	}
	for model, want := range cases {
		if got := NoTemperatureSupport(model); got != want {
			t.Errorf("NoTemperatureSupport(%q) = %v, want %v", model, got, want)
		}
	}
}
