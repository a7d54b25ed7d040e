package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recap/internal/llm"
)

// UsageLogStore persists every llm.UsageRecord emitted by the LLM Provider,
// including failed calls (spec.md §4.4's usage-on-failure requirement).
type UsageLogStore struct {
	db *sql.DB
}

// Record persists one usage record for userID.
func (s *UsageLogStore) Record(ctx context.Context, userID string, u llm.UsageRecord) error {
	const q = `
INSERT INTO llm_usage_log (
	id, user_id, provider, model, prompt_tokens, completion_tokens, total_tokens,
	duration_ms, purpose, status, error_message, created_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?);
`
	var errMsg *string
	if u.ErrorMessage != "" {
		errMsg = &u.ErrorMessage
	}
	_, err := s.db.ExecContext(ctx, q,
		uuid.NewString(), userID, u.Provider, u.Model, u.PromptTokens, u.CompletionTokens, u.TotalTokens,
		u.DurationMS, u.Purpose, u.Status, errMsg, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("persistence: record usage: %w", err)
	}
	return nil
}
