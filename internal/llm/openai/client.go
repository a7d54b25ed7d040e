// Package openai implements recap's LLM Provider over both the OpenAI
// Responses API (GPT-5-series) and Chat Completions, dispatching on the
// model-capability routing predicates in internal/llm. Reduced from the
// teacher's full streaming/tool-calling client to the single non-streaming
// summarization call this domain needs.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/respjson"
	"github.com/openai/openai-go/v2/responses"
	"github.com/openai/openai-go/v2/shared"

	"recap/internal/llm"
	"recap/internal/observability"
)

const requestTimeout = 120 * time.Second

// Client implements llm.Provider against OpenAI, or any OpenAI-compatible
// endpoint when BaseURL is set (the "openai-compatible" provider name).
type Client struct {
	sdk     openai.Client
	model   string
	cfg     llm.Config
}

// New builds a Client from cfg, instrumenting the HTTP transport with
// tracing via observability.NewHTTPClient.
func New(cfg llm.Config) *Client {
	httpClient := observability.NewHTTPClient(nil)
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{sdk: openai.NewClient(opts...), model: cfg.Model, cfg: cfg}
}

// Summarize implements llm.Provider.
func (c *Client) Summarize(ctx context.Context, prompt, purpose string, maxTokens int) (string, llm.UsageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	start := time.Now()
	usage := llm.UsageRecord{Provider: "openai", Model: c.model, Purpose: purpose, Status: "success"}

	var text string
	var err error
	var promptTok, completionTok, totalTok int

	if llm.UsesResponsesAPI(c.model) {
		text, promptTok, completionTok, totalTok, err = c.summarizeResponses(ctx, prompt, maxTokens)
	} else {
		text, promptTok, completionTok, totalTok, err = c.summarizeChatCompletions(ctx, prompt, maxTokens)
	}
	usage.DurationMS = time.Since(start).Milliseconds()

	if err != nil {
		return "", llm.UsageRecord{}, llm.NewTransportError(usage, "openai request failed", err)
	}
	if promptTok > 0 {
		usage.PromptTokens = &promptTok
	}
	if completionTok > 0 {
		usage.CompletionTokens = &completionTok
	}
	if totalTok > 0 {
		usage.TotalTokens = &totalTok
	}

	if llm.UsesResponsesAPI(c.model) && llm.IsTrivialText(text) {
		return "", llm.UsageRecord{}, llm.NewTrivialResponseError(usage)
	}

	return text, usage, nil
}

// summarizeResponses issues a Responses API call. Request shape per
// spec.md §4.4 boundary scenario 4: field `input` (single string),
// `max_output_tokens` with +headroom when reasoning is enabled, optional
// `reasoning.effort`, explicit `text.format.type="text"`.
func (c *Client) summarizeResponses(ctx context.Context, prompt string, maxTokens int) (string, int, int, int, error) {
	outputBudget := maxTokens
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfText: &shared.ResponseFormatTextParam{Type: "text"},
			},
		},
	}
	if c.cfg.ReasoningEffort != "" {
		headroom := c.cfg.ReasoningHeadroom
		if headroom == 0 {
			headroom = 2000
		}
		outputBudget += headroom
		params.Reasoning = shared.ReasoningParam{Effort: shared.ReasoningEffort(c.cfg.ReasoningEffort)}
	}
	params.MaxOutputTokens = openai.Int(int64(outputBudget))

	resp, err := c.sdk.Responses.New(ctx, params)
	if err != nil {
		return "", 0, 0, 0, err
	}

	text := resp.OutputText()

	var promptTok, completionTok, totalTok int
	if resp.Usage.InputTokens != 0 || resp.Usage.OutputTokens != 0 {
		promptTok = int(resp.Usage.InputTokens)
		completionTok = int(resp.Usage.OutputTokens)
		totalTok = int(resp.Usage.TotalTokens)
	}
	return text, promptTok, completionTok, totalTok, nil
}

// summarizeChatCompletions builds a Chat Completions request per
// spec.md §4.4's three-way branch: legacy (max_tokens + temperature),
// new-with-temperature (max_completion_tokens + temperature), and
// new-without-temperature (max_completion_tokens only).
func (c *Client) summarizeChatCompletions(ctx context.Context, prompt string, maxTokens int) (string, int, int, int, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	if llm.UsesMaxCompletionTokens(c.model) {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	} else {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	if !llm.NoTemperatureSupport(c.model) {
		params.Temperature = openai.Float(0.3)
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", 0, 0, 0, err
	}
	if len(resp.Choices) == 0 {
		return "", 0, 0, 0, errors.New("openai: empty choices")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		// Some reasoning-enabled models surface output only via a
		// non-standard reasoning_content field; fall back and warn.
		if rc, ok := extraField(resp.Choices[0].Message.JSON.ExtraFields, "reasoning_content"); ok {
			observability.LoggerWithTrace(ctx).Warn().Msg("openai: content empty, falling back to reasoning_content")
			text = rc
		}
	}

	return text, int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens), int(resp.Usage.TotalTokens), nil
}

// extraField extracts a string-valued field from a JSON companion struct's
// ExtraFields map. respjson.Field.Raw() returns the raw JSON text (quotes
// included for a string), so it needs one more unmarshal to recover the
// Go string value.
func extraField(fields map[string]respjson.Field, key string) (string, bool) {
	f, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal([]byte(f.Raw()), &s); err != nil {
		return "", false
	}
	return s, true
}

// TestConnection implements llm.Provider.
func (c *Client) TestConnection(ctx context.Context) error {
	_, _, err := testConnection(ctx, c)
	return err
}

func testConnection(ctx context.Context, c *Client) (string, llm.UsageRecord, error) {
	text, usage, err := c.Summarize(ctx, "ping", "test-connection", 16)
	if err != nil {
		var lerr *llm.Error
		if errors.As(err, &lerr) && lerr.Kind == llm.KindTrivialResponse {
			// A trivial response still proves reachability and auth.
			return text, usage, nil
		}
		return "", llm.UsageRecord{}, err
	}
	return text, usage, nil
}
