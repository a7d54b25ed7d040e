package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BatchStore persists BatchJob/BatchRequest rows for the compaction
// engine's asynchronous batch-mode path.
type BatchStore struct {
	db *sql.DB
}

// CreateJob inserts a new BatchJob, failing with ErrBatchAlreadyPending if
// userID already has a non-terminal job (spec.md §4.5: "only one pending
// batch job per user at a time").
func (s *BatchStore) CreateJob(ctx context.Context, job BatchJob) (BatchJob, error) {
	const pendingQ = `
SELECT state FROM batch_jobs WHERE user_id = ?
AND state NOT IN ('completed','failed','expired','cancelled')
LIMIT 1;
`
	var existing string
	err := s.db.QueryRowContext(ctx, pendingQ, job.UserID).Scan(&existing)
	if err == nil {
		return BatchJob{}, ErrBatchAlreadyPending
	}
	if err != sql.ErrNoRows {
		return BatchJob{}, fmt.Errorf("persistence: check pending batch: %w", err)
	}

	id := job.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.State == "" {
		job.State = BatchCreated
	}

	const insertQ = `
INSERT INTO batch_jobs (id, user_id, provider, provider_batch_id, state, created_at, updated_at)
VALUES (?,?,?,?,?,?,?);
`
	if _, err := s.db.ExecContext(ctx, insertQ, id, job.UserID, job.Provider, job.ProviderBatchID, string(job.State), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano)); err != nil {
		return BatchJob{}, fmt.Errorf("persistence: create batch job: %w", err)
	}
	job.ID = id
	job.CreatedAt = now
	job.UpdatedAt = now
	return job, nil
}

// UpdateState advances job id through the state machine
// created -> submitted -> in_progress -> (completed|failed|expired|cancelled).
func (s *BatchStore) UpdateState(ctx context.Context, id string, state BatchState) error {
	const q = `UPDATE batch_jobs SET state = ?, updated_at = ? WHERE id = ?;`
	res, err := s.db.ExecContext(ctx, q, string(state), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("persistence: update batch state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddRequest inserts one constituent request of a batch job.
func (s *BatchStore) AddRequest(ctx context.Context, req BatchRequest) (BatchRequest, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.State == "" {
		req.State = BatchCreated
	}

	const q = `
INSERT INTO batch_requests (id, batch_job_id, snapshot_id, prompt, state, result, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?);
`
	if _, err := s.db.ExecContext(ctx, q, id, req.BatchJobID, req.SnapshotID, req.Prompt, string(req.State), req.Result, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano)); err != nil {
		return BatchRequest{}, fmt.Errorf("persistence: add batch request: %w", err)
	}
	req.ID = id
	req.CreatedAt = now
	req.UpdatedAt = now
	return req, nil
}

// CompleteRequest records a batch request's result and terminal state.
func (s *BatchStore) CompleteRequest(ctx context.Context, id string, state BatchState, result string) error {
	const q = `UPDATE batch_requests SET state = ?, result = ?, updated_at = ? WHERE id = ?;`
	_, err := s.db.ExecContext(ctx, q, string(state), result, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("persistence: complete batch request: %w", err)
	}
	return nil
}

// RequestsForJob returns every BatchRequest belonging to jobID.
func (s *BatchStore) RequestsForJob(ctx context.Context, jobID string) ([]BatchRequest, error) {
	const q = `
SELECT id, batch_job_id, snapshot_id, prompt, state, result, created_at, updated_at
FROM batch_requests WHERE batch_job_id = ?;
`
	rows, err := s.db.QueryContext(ctx, q, jobID)
	if err != nil {
		return nil, fmt.Errorf("persistence: list batch requests: %w", err)
	}
	defer rows.Close()

	var out []BatchRequest
	for rows.Next() {
		var r BatchRequest
		var state, createdAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.BatchJobID, &r.SnapshotID, &r.Prompt, &state, &r.Result, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		r.State = BatchState(state)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			r.UpdatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
