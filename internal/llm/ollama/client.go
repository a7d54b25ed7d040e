// Package ollama implements recap's LLM Provider against a local Ollama
// instance's OpenAI-compatible Chat Completions endpoint: no auth, legacy
// request shape (max_tokens + temperature), default base
// http://localhost:11434, per spec.md §4.4.
package ollama

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"recap/internal/llm"
	"recap/internal/observability"
)

const (
	requestTimeout = 120 * time.Second
	defaultBaseURL = "http://localhost:11434/v1"
)

// Client implements llm.Provider against Ollama.
type Client struct {
	sdk   openai.Client
	model string
}

// New builds a Client from cfg. No API key is sent.
func New(cfg llm.Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := observability.NewHTTPClient(nil)
	opts := []option.RequestOption{
		option.WithBaseURL(base),
		option.WithHTTPClient(httpClient),
		option.WithAPIKey("ollama"), // SDK requires a non-empty key; Ollama ignores it
	}
	return &Client{sdk: openai.NewClient(opts...), model: cfg.Model}
}

// Summarize implements llm.Provider.
func (c *Client) Summarize(ctx context.Context, prompt, purpose string, maxTokens int) (string, llm.UsageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(0.3),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	start := time.Now()
	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	dur := time.Since(start)

	usage := llm.UsageRecord{Provider: "ollama", Model: c.model, Purpose: purpose, DurationMS: dur.Milliseconds(), Status: "success"}
	if err != nil {
		return "", llm.UsageRecord{}, llm.NewTransportError(usage, "ollama request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.UsageRecord{}, llm.NewTransportError(usage, "ollama returned no choices", errors.New("empty choices"))
	}

	promptTokens := int(resp.Usage.PromptTokens)
	completionTokens := int(resp.Usage.CompletionTokens)
	totalTokens := int(resp.Usage.TotalTokens)
	usage.PromptTokens = &promptTokens
	usage.CompletionTokens = &completionTokens
	usage.TotalTokens = &totalTokens

	return resp.Choices[0].Message.Content, usage, nil
}

// TestConnection implements llm.Provider. Ollama requires no credentials,
// so success here means only that the local daemon is reachable.
func (c *Client) TestConnection(ctx context.Context) error {
	_, _, err := c.Summarize(ctx, "ping", "test-connection", 16)
	return err
}
