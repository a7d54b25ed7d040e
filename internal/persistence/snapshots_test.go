package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recap.db")
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSnapshotStore_UpsertIsIdempotent(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	snap := SnapshotRawData{
		UserID:       "u1",
		SessionID:    "s1",
		ProjectPath:  "/home/u/proj",
		HourBucket:   "2026-01-26T22:00:00",
		UserMessages: []string{"hello"},
		MessageCount: 1,
		RawSizeBytes: 5,
	}

	id1, err := store.Snapshots.Upsert(ctx, snap)
	require.NoError(t, err)

	snap.ID = "" // simulate re-applying the same bucket from scratch
	id2, err := store.Snapshots.Upsert(ctx, snap)
	require.NoError(t, err)
	require.Equal(t, id1, id2, "upserting the same bucket twice must target the same row")

	rows, err := store.Snapshots.ListByPeriod(ctx, "u1", "/home/u/proj", "2026-01-26T00:00:00", "2026-01-27T00:00:00")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 5, rows[0].RawSizeBytes)
}

func TestSummaryStore_PreviousContextLookup(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Summaries.Upsert(ctx, WorkSummary{
		UserID: "u1", ProjectPath: "/p", Scale: ScaleDaily,
		PeriodStart: "2026-01-25T00:00:00+00:00", PeriodEnd: "2026-01-26T00:00:00+00:00",
		Summary: "yesterday",
	})
	require.NoError(t, err)

	prev, err := store.Summaries.PreviousContext(ctx, "u1", "/p", ScaleDaily, "2026-01-26T00:00:00+00:00")
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.Equal(t, "yesterday", prev.Summary)

	none, err := store.Summaries.PreviousContext(ctx, "u1", "/p", ScaleDaily, "2026-01-25T00:00:00+00:00")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestWorkItemStore_PreservesUserModifiedHours(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.WorkItems.Upsert(ctx, WorkItem{
		UserID: "u1", Source: "claude_code", ContentHash: "hash1",
		Title: "original", Hours: 2.0, Date: "2026-01-26", HoursSource: HoursSourceSession,
	})
	require.NoError(t, err)

	item.HoursSource = HoursSourceUserModified
	item.Hours = 4.5
	_, err = store.WorkItems.Upsert(ctx, item)
	require.NoError(t, err)

	resynced, err := store.WorkItems.Upsert(ctx, WorkItem{
		UserID: "u1", Source: "claude_code", ContentHash: "hash1",
		Title: "resynced title", Hours: 1.0, Date: "2026-01-26", HoursSource: HoursSourceSession,
	})
	require.NoError(t, err)
	require.Equal(t, 4.5, resynced.Hours, "user_modified hours must survive resync")
	require.Equal(t, HoursSourceUserModified, resynced.HoursSource)
	require.Equal(t, "resynced title", resynced.Title, "title still refreshes")
}

func TestBatchStore_RejectsSecondPendingJob(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Batches.CreateJob(ctx, BatchJob{UserID: "u1", Provider: "openai"})
	require.NoError(t, err)

	_, err = store.Batches.CreateJob(ctx, BatchJob{UserID: "u1", Provider: "openai"})
	require.ErrorIs(t, err, ErrBatchAlreadyPending)
}
