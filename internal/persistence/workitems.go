package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkItemStore persists WorkItem rows, owned exclusively by the synthesizer.
type WorkItemStore struct {
	db *sql.DB
}

// Upsert writes w keyed on (user_id, content_hash). When the existing row
// has hours_source = user_modified, hours and hours_source are preserved
// and only title/description/timestamps refresh (spec.md §4.7's update
// policy); commit_hash is set only when currently NULL (COALESCE).
func (s *WorkItemStore) Upsert(ctx context.Context, w WorkItem) (WorkItem, error) {
	id := w.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	const q = `
INSERT INTO work_items (
	id, user_id, source, source_id, content_hash, title, description, hours,
	date, hours_source, hours_estimated, start_time, end_time, project_path,
	session_id, commit_hash, parent_id, jira_key, synced, created_at, updated_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(user_id, content_hash) DO UPDATE SET
	title = excluded.title,
	description = excluded.description,
	hours = CASE WHEN work_items.hours_source = 'user_modified' THEN work_items.hours ELSE excluded.hours END,
	hours_source = CASE WHEN work_items.hours_source = 'user_modified' THEN work_items.hours_source ELSE excluded.hours_source END,
	start_time = excluded.start_time,
	end_time = excluded.end_time,
	commit_hash = COALESCE(work_items.commit_hash, excluded.commit_hash),
	updated_at = excluded.updated_at
RETURNING id, hours, hours_source, commit_hash, created_at;
`
	row := s.db.QueryRowContext(ctx, q,
		id, w.UserID, w.Source, w.SourceID, w.ContentHash, w.Title, w.Description, w.Hours,
		w.Date, string(w.HoursSource), w.HoursEstimated, w.StartTime, w.EndTime, w.ProjectPath,
		w.SessionID, w.CommitHash, w.ParentID, w.JiraKey, w.Synced, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	var gotID, hoursSource, createdAt string
	var gotCommitHash sql.NullString
	if err := row.Scan(&gotID, &w.Hours, &hoursSource, &gotCommitHash, &createdAt); err != nil {
		return WorkItem{}, fmt.Errorf("persistence: upsert work item: %w", err)
	}
	w.ID = gotID
	w.HoursSource = HoursSource(hoursSource)
	if gotCommitHash.Valid {
		w.CommitHash = &gotCommitHash.String
	}
	w.UpdatedAt = now
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		w.CreatedAt = t
	}
	return w, nil
}

// ExistsByContentHash reports whether a WorkItem already exists for
// (userID, contentHash), so callers can distinguish created from updated.
func (s *WorkItemStore) ExistsByContentHash(ctx context.Context, userID, contentHash string) (bool, error) {
	const q = `SELECT 1 FROM work_items WHERE user_id = ? AND content_hash = ? LIMIT 1;`
	var one int
	err := s.db.QueryRowContext(ctx, q, userID, contentHash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("persistence: exists by content hash: %w", err)
	}
	return true, nil
}

// CommitHashesForSource returns the set of commit_hash values already
// persisted for userID under the given source (used for cross-source
// dedup, spec.md §4.7).
func (s *WorkItemStore) CommitHashesForSource(ctx context.Context, userID, source string) (map[string]bool, error) {
	const q = `SELECT commit_hash FROM work_items WHERE user_id = ? AND source = ? AND commit_hash IS NOT NULL;`
	rows, err := s.db.QueryContext(ctx, q, userID, source)
	if err != nil {
		return nil, fmt.Errorf("persistence: commit hashes for source: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out[h] = true
	}
	return out, rows.Err()
}
