package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SummaryStore persists WorkSummary rows, owned exclusively by the
// compaction engine.
type SummaryStore struct {
	db *sql.DB
}

// Upsert writes w. On conflict (user, project_path, scale, period_start),
// every non-identity field is replaced and updated_at advances — the
// caller (compaction engine) is responsible for the idempotence rule
// (completed periods are never re-upserted; this store performs no such
// check itself).
func (s *SummaryStore) Upsert(ctx context.Context, w WorkSummary) (WorkSummary, error) {
	keyActivities, err := json.Marshal(w.KeyActivities)
	if err != nil {
		return WorkSummary{}, err
	}
	gitCommitsSummary, err := json.Marshal(w.GitCommitsSummary)
	if err != nil {
		return WorkSummary{}, err
	}
	sourceSnapshotIDs, err := json.Marshal(w.SourceSnapshotIDs)
	if err != nil {
		return WorkSummary{}, err
	}

	id := w.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	const q = `
INSERT INTO work_summaries (
	id, user_id, project_path, scale, period_start, period_end,
	summary, key_activities, git_commits_summary, previous_context,
	source_snapshot_ids, llm_model, created_at, updated_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(user_id, project_path, scale, period_start) DO UPDATE SET
	period_end = excluded.period_end,
	summary = excluded.summary,
	key_activities = excluded.key_activities,
	git_commits_summary = excluded.git_commits_summary,
	previous_context = excluded.previous_context,
	source_snapshot_ids = excluded.source_snapshot_ids,
	llm_model = excluded.llm_model,
	updated_at = excluded.updated_at
RETURNING id, created_at;
`
	row := s.db.QueryRowContext(ctx, q,
		id, w.UserID, w.ProjectPath, string(w.Scale), w.PeriodStart, w.PeriodEnd,
		w.Summary, string(keyActivities), string(gitCommitsSummary), w.PreviousContext,
		string(sourceSnapshotIDs), w.LLMModel, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	var gotID, createdAt string
	if err := row.Scan(&gotID, &createdAt); err != nil {
		return WorkSummary{}, fmt.Errorf("persistence: upsert summary: %w", err)
	}
	w.ID = gotID
	w.UpdatedAt = now
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		w.CreatedAt = t
	}
	return w, nil
}

// Get returns the summary for (userID, projectPath, scale, periodStart), or
// ErrNotFound.
func (s *SummaryStore) Get(ctx context.Context, userID, projectPath string, scale Scale, periodStart string) (WorkSummary, error) {
	const q = `
SELECT id, user_id, project_path, scale, period_start, period_end, summary,
	key_activities, git_commits_summary, previous_context, source_snapshot_ids,
	llm_model, created_at, updated_at
FROM work_summaries
WHERE user_id = ? AND project_path = ? AND scale = ? AND period_start = ?;
`
	row := s.db.QueryRowContext(ctx, q, userID, projectPath, string(scale), periodStart)
	w, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return WorkSummary{}, ErrNotFound
	}
	return w, err
}

// PreviousContext returns the most recent summary for
// (userID, projectPath, scale) whose period_start is strictly before
// before, per the "lookup not a pointer graph" design note (spec.md §9).
func (s *SummaryStore) PreviousContext(ctx context.Context, userID, projectPath string, scale Scale, before string) (*WorkSummary, error) {
	const q = `
SELECT id, user_id, project_path, scale, period_start, period_end, summary,
	key_activities, git_commits_summary, previous_context, source_snapshot_ids,
	llm_model, created_at, updated_at
FROM work_summaries
WHERE user_id = ? AND project_path = ? AND scale = ? AND period_start < ?
ORDER BY period_start DESC
LIMIT 1;
`
	row := s.db.QueryRowContext(ctx, q, userID, projectPath, string(scale), before)
	w, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// PeriodStartsAtScale returns every distinct period_start recorded at scale
// for (userID, projectPath), used by the compaction engine to discover
// which lower-level periods have source summaries.
func (s *SummaryStore) PeriodStartsAtScale(ctx context.Context, userID, projectPath string, scale Scale) ([]string, error) {
	const q = `
SELECT DISTINCT period_start FROM work_summaries
WHERE user_id = ? AND project_path = ? AND scale = ?
ORDER BY period_start ASC;
`
	rows, err := s.db.QueryContext(ctx, q, userID, projectPath, string(scale))
	if err != nil {
		return nil, fmt.Errorf("persistence: period starts at scale: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListByPeriod returns every scale-level summary for (userID, projectPath)
// whose period_start falls within [from, to), used by higher-level
// roll-ups to gather their constituent summaries.
func (s *SummaryStore) ListByPeriod(ctx context.Context, userID, projectPath string, scale Scale, from, to string) ([]WorkSummary, error) {
	const q = `
SELECT id, user_id, project_path, scale, period_start, period_end, summary,
	key_activities, git_commits_summary, previous_context, source_snapshot_ids,
	llm_model, created_at, updated_at
FROM work_summaries
WHERE user_id = ? AND project_path = ? AND scale = ? AND period_start >= ? AND period_start < ?
ORDER BY period_start ASC;
`
	rows, err := s.db.QueryContext(ctx, q, userID, projectPath, string(scale), from, to)
	if err != nil {
		return nil, fmt.Errorf("persistence: list summaries by period: %w", err)
	}
	defer rows.Close()

	var out []WorkSummary
	for rows.Next() {
		w, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// DeleteMatching deletes summaries for userID matching the optional filters
// (fromDate, toDate inclusive on period_start; scales, when non-empty,
// restricts to those scales) in a single statement, for force-recompact.
func (s *SummaryStore) DeleteMatching(ctx context.Context, userID string, fromDate, toDate string, scales []Scale) error {
	q := `DELETE FROM work_summaries WHERE user_id = ?`
	args := []any{userID}
	if fromDate != "" {
		q += ` AND period_start >= ?`
		args = append(args, fromDate)
	}
	if toDate != "" {
		q += ` AND period_start <= ?`
		args = append(args, toDate)
	}
	if len(scales) > 0 {
		q += ` AND scale IN (` + placeholders(len(scales)) + `)`
		for _, sc := range scales {
			args = append(args, string(sc))
		}
	}
	_, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("persistence: delete summaries: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += "?"
	}
	return out
}

func scanSummary(row interface{ Scan(...any) error }) (WorkSummary, error) {
	var w WorkSummary
	var scale, keyActivities, gitCommitsSummary, sourceSnapshotIDs, createdAt, updatedAt string
	if err := row.Scan(
		&w.ID, &w.UserID, &w.ProjectPath, &scale, &w.PeriodStart, &w.PeriodEnd, &w.Summary,
		&keyActivities, &gitCommitsSummary, &w.PreviousContext, &sourceSnapshotIDs,
		&w.LLMModel, &createdAt, &updatedAt,
	); err != nil {
		return WorkSummary{}, err
	}
	w.Scale = Scale(scale)
	_ = json.Unmarshal([]byte(keyActivities), &w.KeyActivities)
	_ = json.Unmarshal([]byte(gitCommitsSummary), &w.GitCommitsSummary)
	_ = json.Unmarshal([]byte(sourceSnapshotIDs), &w.SourceSnapshotIDs)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		w.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		w.UpdatedAt = t
	}
	return w, nil
}
