// Package anthropic implements recap's LLM Provider against
// /v1/messages. Reduced from the teacher's streaming/tool-calling client to
// the single non-streaming summarization call this domain needs.
package anthropic

import (
	"context"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"recap/internal/llm"
	"recap/internal/observability"
)

const requestTimeout = 120 * time.Second

// Client implements llm.Provider against the Anthropic Messages API.
type Client struct {
	sdk   anthropic.Client
	model string
	cfg   llm.Config
}

// New builds a Client from cfg.
func New(cfg llm.Config) *Client {
	httpClient := observability.NewHTTPClient(nil)
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(httpClient),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	return &Client{sdk: anthropic.NewClient(opts...), model: model, cfg: cfg}
}

// Summarize implements llm.Provider.
func (c *Client) Summarize(ctx context.Context, prompt, purpose string, maxTokens int) (string, llm.UsageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	start := time.Now()
	resp, err := c.sdk.Messages.New(ctx, params)
	dur := time.Since(start)

	usage := llm.UsageRecord{Provider: "anthropic", Model: c.model, Purpose: purpose, DurationMS: dur.Milliseconds(), Status: "success"}
	if err != nil {
		return "", llm.UsageRecord{}, llm.NewTransportError(usage, "anthropic request failed", err)
	}

	promptTokens := int(resp.Usage.InputTokens)
	completionTokens := int(resp.Usage.OutputTokens)
	totalTokens := promptTokens + completionTokens
	usage.PromptTokens = &promptTokens
	usage.CompletionTokens = &completionTokens
	usage.TotalTokens = &totalTokens

	text := firstTextBlock(resp)
	return text, usage, nil
}

// firstTextBlock extracts the first content block of the response, per
// spec.md §4.4's Anthropic extraction rule.
func firstTextBlock(resp *anthropic.Message) string {
	if len(resp.Content) == 0 {
		return ""
	}
	block := resp.Content[0]
	if text := block.AsText(); text.Text != "" {
		return text.Text
	}
	return ""
}

// TestConnection implements llm.Provider.
func (c *Client) TestConnection(ctx context.Context) error {
	_, _, err := c.Summarize(ctx, "ping", "test-connection", 16)
	return err
}
