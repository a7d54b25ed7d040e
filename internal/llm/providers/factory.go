// Package providers selects and constructs the configured llm.Provider
// implementation, mirroring the teacher's switch-dispatch factory shape.
package providers

import (
	"fmt"

	"recap/internal/llm"
	"recap/internal/llm/anthropic"
	"recap/internal/llm/ollama"
	"recap/internal/llm/openai"
)

// Build constructs the llm.Provider named by cfg.Provider.
func Build(cfg llm.Config) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai", "openai-compatible":
		if cfg.Provider == "openai" && cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: openai requires an api key", llm.ErrConfig)
		}
		return openai.New(cfg), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: anthropic requires an api key", llm.ErrConfig)
		}
		return anthropic.New(cfg), nil
	case "ollama":
		return ollama.New(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", llm.ErrConfig, cfg.Provider)
	}
}
