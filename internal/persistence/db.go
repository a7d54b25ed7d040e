// Package persistence implements Recap's embedded relational store on top
// of modernc.org/sqlite, following the teacher's store-per-entity shape
// (internal/persistence/databases/projects_store_postgres.go) translated
// from Postgres/pgx syntax to database/sql over SQLite.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("persistence: not found")

// ErrBatchAlreadyPending is returned by BatchStore.CreateJob when a user already
// has a non-terminal batch job.
var ErrBatchAlreadyPending = errors.New("persistence: batch job already pending")

// Store bundles every entity-specific store over one shared connection.
type Store struct {
	db *sql.DB

	Snapshots *SnapshotStore
	Summaries *SummaryStore
	WorkItems *WorkItemStore
	Batches   *BatchStore
	Sync      *SyncStatusStore
	Usage     *UsageLogStore
}

// Open opens (creating if necessary) the SQLite database at path and runs
// schema bootstrap.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("persistence: open: %w", err)
	}
	// SQLite allows only one writer at a time; cap the pool so database/sql
	// doesn't hand out concurrent connections that would serialize behind
	// SQLITE_BUSY anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	s.Snapshots = &SnapshotStore{db: db}
	s.Summaries = &SummaryStore{db: db}
	s.WorkItems = &WorkItemStore{db: db}
	s.Batches = &BatchStore{db: db}
	s.Sync = &SyncStatusStore{db: db}
	s.Usage = &UsageLogStore{db: db}

	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		schemaSnapshots,
		schemaSummaries,
		schemaWorkItems,
		schemaBatchJobs,
		schemaBatchRequests,
		schemaSyncStatus,
		schemaUsageLog,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("persistence: init schema: %w", err)
		}
	}
	return nil
}
