package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotStore persists SnapshotRawData rows, owned exclusively by the
// bucketer; compaction only reads through it.
type SnapshotStore struct {
	db *sql.DB
}

// Upsert writes s, replacing any existing row for
// (user_id, session_id, hour_bucket) in full (spec.md §4.2's "on conflict
// replace the entire row and bump raw_size_bytes"). Applying the same
// bucket twice produces identical row state (testable property 2).
func (s *SnapshotStore) Upsert(ctx context.Context, snap SnapshotRawData) (string, error) {
	userMessages, err := json.Marshal(snap.UserMessages)
	if err != nil {
		return "", err
	}
	assistantSummaries, err := json.Marshal(snap.AssistantSummaries)
	if err != nil {
		return "", err
	}
	toolCalls, err := json.Marshal(snap.ToolCalls)
	if err != nil {
		return "", err
	}
	filesModified, err := json.Marshal(snap.FilesModified)
	if err != nil {
		return "", err
	}
	gitCommits, err := json.Marshal(snap.GitCommits)
	if err != nil {
		return "", err
	}

	id := snap.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	const q = `
INSERT INTO snapshot_raw_data (
	id, user_id, session_id, project_path, hour_bucket,
	user_messages, assistant_summaries, tool_calls, files_modified, git_commits,
	message_count, raw_size_bytes, created_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(user_id, session_id, hour_bucket) DO UPDATE SET
	project_path = excluded.project_path,
	user_messages = excluded.user_messages,
	assistant_summaries = excluded.assistant_summaries,
	tool_calls = excluded.tool_calls,
	files_modified = excluded.files_modified,
	git_commits = excluded.git_commits,
	message_count = excluded.message_count,
	raw_size_bytes = excluded.raw_size_bytes
RETURNING id;
`
	row := s.db.QueryRowContext(ctx, q,
		id, snap.UserID, snap.SessionID, snap.ProjectPath, snap.HourBucket,
		string(userMessages), string(assistantSummaries), string(toolCalls), string(filesModified), string(gitCommits),
		snap.MessageCount, snap.RawSizeBytes, now.Format(time.RFC3339Nano),
	)
	var gotID string
	if err := row.Scan(&gotID); err != nil {
		return "", fmt.Errorf("persistence: upsert snapshot: %w", err)
	}
	return gotID, nil
}

// ListByPeriod returns every snapshot for (userID, projectPath) whose
// hour_bucket falls within [fromHour, toHour).
func (s *SnapshotStore) ListByPeriod(ctx context.Context, userID, projectPath, fromHour, toHour string) ([]SnapshotRawData, error) {
	const q = `
SELECT id, user_id, session_id, project_path, hour_bucket, user_messages,
	assistant_summaries, tool_calls, files_modified, git_commits,
	message_count, raw_size_bytes, created_at
FROM snapshot_raw_data
WHERE user_id = ? AND project_path = ? AND hour_bucket >= ? AND hour_bucket < ?
ORDER BY hour_bucket ASC;
`
	rows, err := s.db.QueryContext(ctx, q, userID, projectPath, fromHour, toHour)
	if err != nil {
		return nil, fmt.Errorf("persistence: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRawData
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// GetByID returns the snapshot with the given id, or ErrNotFound.
func (s *SnapshotStore) GetByID(ctx context.Context, id string) (SnapshotRawData, error) {
	const q = `
SELECT id, user_id, session_id, project_path, hour_bucket, user_messages,
	assistant_summaries, tool_calls, files_modified, git_commits,
	message_count, raw_size_bytes, created_at
FROM snapshot_raw_data WHERE id = ?;
`
	row := s.db.QueryRowContext(ctx, q, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRawData{}, ErrNotFound
	}
	return snap, err
}

// ListWithoutHourlySummary returns snapshots for (userID, projectPath)
// whose hour_bucket has no corresponding hourly WorkSummary, plus the
// current hour unconditionally (in-progress refresh, per spec.md §4.5's
// discovery rule).
func (s *SnapshotStore) ListWithoutHourlySummary(ctx context.Context, userID, projectPath, currentHour string) ([]string, error) {
	const q = `
SELECT DISTINCT sn.hour_bucket
FROM snapshot_raw_data sn
LEFT JOIN work_summaries ws
	ON ws.user_id = sn.user_id AND ws.project_path = sn.project_path
	AND ws.scale = 'hourly' AND ws.period_start = sn.hour_bucket
WHERE sn.user_id = ? AND sn.project_path = ? AND (ws.id IS NULL OR sn.hour_bucket = ?)
ORDER BY sn.hour_bucket ASC;
`
	rows, err := s.db.QueryContext(ctx, q, userID, projectPath, currentHour)
	if err != nil {
		return nil, fmt.Errorf("persistence: list pending hours: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var hour string
		if err := rows.Scan(&hour); err != nil {
			return nil, err
		}
		out = append(out, hour)
	}
	return out, rows.Err()
}

func scanSnapshot(rows interface{ Scan(...any) error }) (SnapshotRawData, error) {
	var snap SnapshotRawData
	var userMessages, assistantSummaries, toolCalls, filesModified, gitCommits, createdAt string
	if err := rows.Scan(
		&snap.ID, &snap.UserID, &snap.SessionID, &snap.ProjectPath, &snap.HourBucket,
		&userMessages, &assistantSummaries, &toolCalls, &filesModified, &gitCommits,
		&snap.MessageCount, &snap.RawSizeBytes, &createdAt,
	); err != nil {
		return SnapshotRawData{}, fmt.Errorf("persistence: scan snapshot: %w", err)
	}
	_ = json.Unmarshal([]byte(userMessages), &snap.UserMessages)
	_ = json.Unmarshal([]byte(assistantSummaries), &snap.AssistantSummaries)
	_ = json.Unmarshal([]byte(toolCalls), &snap.ToolCalls)
	_ = json.Unmarshal([]byte(filesModified), &snap.FilesModified)
	_ = json.Unmarshal([]byte(gitCommits), &snap.GitCommits)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		snap.CreatedAt = t
	}
	return snap, nil
}
