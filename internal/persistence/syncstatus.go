package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SyncStatusStore persists adapter sync health, supplemental to spec.md
// (grounded on original_source's SyncService: get_or_create_status,
// mark_syncing/mark_success/mark_error/mark_idle).
type SyncStatusStore struct {
	db *sql.DB
}

// GetOrCreate returns the status row for (userID, source), creating an idle
// one if absent.
func (s *SyncStatusStore) GetOrCreate(ctx context.Context, userID, source string) (SyncStatus, error) {
	st, err := s.get(ctx, userID, source)
	if err == nil {
		return st, nil
	}
	if err != ErrNotFound {
		return SyncStatus{}, err
	}
	st = SyncStatus{UserID: userID, Source: source, State: SyncIdle}
	if err := s.upsert(ctx, st); err != nil {
		return SyncStatus{}, err
	}
	return st, nil
}

func (s *SyncStatusStore) get(ctx context.Context, userID, source string) (SyncStatus, error) {
	const q = `SELECT user_id, source, state, last_synced_at, last_error FROM sync_status WHERE user_id = ? AND source = ?;`
	row := s.db.QueryRowContext(ctx, q, userID, source)
	var st SyncStatus
	var state string
	var lastSyncedAt, lastError sql.NullString
	if err := row.Scan(&st.UserID, &st.Source, &state, &lastSyncedAt, &lastError); err != nil {
		if err == sql.ErrNoRows {
			return SyncStatus{}, ErrNotFound
		}
		return SyncStatus{}, err
	}
	st.State = SyncState(state)
	if lastSyncedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastSyncedAt.String); err == nil {
			st.LastSyncedAt = &t
		}
	}
	if lastError.Valid {
		st.LastError = &lastError.String
	}
	return st, nil
}

func (s *SyncStatusStore) upsert(ctx context.Context, st SyncStatus) error {
	const q = `
INSERT INTO sync_status (user_id, source, state, last_synced_at, last_error)
VALUES (?,?,?,?,?)
ON CONFLICT(user_id, source) DO UPDATE SET
	state = excluded.state, last_synced_at = excluded.last_synced_at, last_error = excluded.last_error;
`
	var lastSyncedAt *string
	if st.LastSyncedAt != nil {
		v := st.LastSyncedAt.Format(time.RFC3339Nano)
		lastSyncedAt = &v
	}
	_, err := s.db.ExecContext(ctx, q, st.UserID, st.Source, string(st.State), lastSyncedAt, st.LastError)
	if err != nil {
		return fmt.Errorf("persistence: upsert sync status: %w", err)
	}
	return nil
}

// MarkSyncing transitions the status to syncing.
func (s *SyncStatusStore) MarkSyncing(ctx context.Context, userID, source string) error {
	return s.upsert(ctx, SyncStatus{UserID: userID, Source: source, State: SyncSyncing})
}

// MarkSuccess transitions the status to success and stamps last_synced_at.
func (s *SyncStatusStore) MarkSuccess(ctx context.Context, userID, source string) error {
	now := time.Now().UTC()
	return s.upsert(ctx, SyncStatus{UserID: userID, Source: source, State: SyncSuccess, LastSyncedAt: &now})
}

// MarkError transitions the status to error and records msg.
func (s *SyncStatusStore) MarkError(ctx context.Context, userID, source, msg string) error {
	return s.upsert(ctx, SyncStatus{UserID: userID, Source: source, State: SyncError, LastError: &msg})
}

// MarkIdle resets the status to idle.
func (s *SyncStatusStore) MarkIdle(ctx context.Context, userID, source string) error {
	return s.upsert(ctx, SyncStatus{UserID: userID, Source: source, State: SyncIdle})
}
