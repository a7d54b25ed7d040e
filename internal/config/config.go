// Package config loads Recap's configuration from the environment, with an
// optional .env file for local development, following the same
// env-first/no-YAML convention the rest of the daemon's ambient stack uses.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the root configuration for the recapd process.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string
	// LogPath, when non-empty, writes logs to a file instead of stdout.
	LogPath  string
	LogLevel string

	LLM     LLMConfig
	Sources SourcesConfig
	Obs     ObsConfig
}

// LLMConfig configures the active LLM provider used by the compaction
// engine. Matches the shape named in spec §4.4.
type LLMConfig struct {
	Provider         string // openai | openai-compatible | ollama | anthropic
	Model            string
	APIKey           string
	BaseURL          string
	SummaryMaxChars  int
	ReasoningEffort  string
	SummaryPrompt    string
	ReasoningHeadroom int
}

// SourcesConfig configures the filesystem/HTTP source adapters.
type SourcesConfig struct {
	ClaudeHome     string
	GitAuthorEmail string
}

// ObsConfig configures observability (tracing only; logging is configured
// directly on Config).
type ObsConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// OTLP is the OTLP/HTTP trace collector endpoint. Empty disables export
	// without disabling span creation.
	OTLP string
}

// Load reads configuration from the environment, loading a .env file from
// the working directory first if present (errors from a missing .env are
// ignored, matching the teacher's best-effort loading convention).
func Load() (Config, error) {
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()

	cfg := Config{
		DBPath:   firstNonEmpty(os.Getenv("RECAP_DB_PATH"), home+"/.recap/recap.db"),
		LogPath:  os.Getenv("RECAP_LOG_PATH"),
		LogLevel: firstNonEmpty(os.Getenv("RECAP_LOG_LEVEL"), "info"),
		LLM: LLMConfig{
			Provider:          firstNonEmpty(os.Getenv("RECAP_LLM_PROVIDER"), ""),
			Model:             os.Getenv("RECAP_LLM_MODEL"),
			APIKey:            os.Getenv("RECAP_LLM_API_KEY"),
			BaseURL:           os.Getenv("RECAP_LLM_BASE_URL"),
			SummaryMaxChars:   intFromEnv("RECAP_LLM_SUMMARY_MAX_CHARS", 2000),
			ReasoningEffort:   os.Getenv("RECAP_LLM_REASONING_EFFORT"),
			SummaryPrompt:     os.Getenv("RECAP_LLM_SUMMARY_PROMPT"),
			ReasoningHeadroom: intFromEnv("RECAP_LLM_REASONING_HEADROOM", 2000),
		},
		Sources: SourcesConfig{
			ClaudeHome:     firstNonEmpty(os.Getenv("RECAP_CLAUDE_HOME"), home+"/.claude"),
			GitAuthorEmail: os.Getenv("RECAP_GIT_AUTHOR_EMAIL"),
		},
		Obs: ObsConfig{
			ServiceName:    firstNonEmpty(os.Getenv("RECAP_SERVICE_NAME"), "recapd"),
			ServiceVersion: firstNonEmpty(os.Getenv("RECAP_SERVICE_VERSION"), "dev"),
			Environment:    firstNonEmpty(os.Getenv("RECAP_ENVIRONMENT"), "development"),
			OTLP:           os.Getenv("RECAP_OTLP_ENDPOINT"),
		},
	}

	if cfg.LLM.Provider != "" {
		switch cfg.LLM.Provider {
		case "openai", "openai-compatible", "ollama", "anthropic":
		default:
			return Config{}, fmt.Errorf("config: unknown llm provider %q", cfg.LLM.Provider)
		}
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func intFromEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
