// Package llm defines the provider-agnostic summarization capability used
// by the compaction engine: summarize(prompt, purpose, max_tokens) ->
// (text, usage). Implementations live in the openai, anthropic, and ollama
// subpackages and are selected by internal/llm/providers.
package llm

import "context"

// Config configures a single LLM provider instance.
type Config struct {
	Provider string // openai | openai-compatible | ollama | anthropic
	Model    string
	APIKey   string
	BaseURL  string

	SummaryMaxChars int
	ReasoningEffort string
	SummaryPrompt   string

	// ReasoningHeadroom is the extra output-token budget reserved for
	// reasoning on models that share a token pool between thinking and
	// visible text (spec's GPT-5 "+2000" constant, exposed as a tunable
	// per the source's own design note).
	ReasoningHeadroom int
}

// UsageRecord is returned (even on failure, via Error) for every call.
type UsageRecord struct {
	Provider        string
	Model           string
	PromptTokens    *int
	CompletionTokens *int
	TotalTokens     *int
	DurationMS      int64
	Purpose         string
	Status          string // success | error
	ErrorMessage    string
}

// Provider is the capability every backend implements.
type Provider interface {
	// Summarize issues one non-streaming completion call and returns the
	// extracted text plus a populated UsageRecord. On failure, the error is
	// an *Error carrying the UsageRecord so callers can persist usage
	// accounting even for failed calls (spec's usage-on-failure
	// requirement, modeled as a structured error instead of a
	// sentinel-prefixed string per the design note in spec.md §9).
	Summarize(ctx context.Context, prompt, purpose string, maxTokens int) (string, UsageRecord, error)

	// TestConnection issues a trivial probe call. A trivial (too-short)
	// response is still success — only transport-level failures
	// (401/404/429/timeout) are failures here.
	TestConnection(ctx context.Context) error
}
