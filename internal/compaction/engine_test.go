package compaction

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"recap/internal/persistence"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := persistence.Open(context.Background(), filepath.Join(t.TempDir(), "recap.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &Engine{Store: store, SummaryMaxChars: 2000}
}

func TestCompactHourly_RuleBasedFallbackWhenNoProvider(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 26, 23, 30, 0, 0, time.UTC)

	_, err := e.Store.Snapshots.Upsert(ctx, persistence.SnapshotRawData{
		UserID: "u1", SessionID: "s1", ProjectPath: "/p",
		HourBucket:   "2026-01-26T22:00:00",
		GitCommits:   []persistence.GitCommit{{Hash: "abc123", Message: "feat: add login", Additions: 50, Deletions: 10}},
		FilesModified: []string{"src/main.rs", "src/lib.rs"},
		MessageCount: 0,
	})
	if err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	if err := e.CompactHourly(ctx, "u1", "/p", "2026-01-26T22:00:00", now); err != nil {
		t.Fatalf("CompactHourly: %v", err)
	}

	sum, err := e.Store.Summaries.Get(ctx, "u1", "/p", persistence.ScaleHourly, "2026-01-26T22:00:00")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if sum.LLMModel != nil {
		t.Fatalf("expected rule-based summary (nil LLMModel), got %v", *sum.LLMModel)
	}
	if want := "1 筆 commit"; !strings.Contains(sum.Summary, want) {
		t.Fatalf("summary missing %q: %q", want, sum.Summary)
	}
}

func TestCompactHourly_SkipsCompletedPeriodAlreadySummarized(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC)

	_, err := e.Store.Snapshots.Upsert(ctx, persistence.SnapshotRawData{
		UserID: "u1", SessionID: "s1", ProjectPath: "/p",
		HourBucket: "2026-01-26T22:00:00",
	})
	if err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	if err := e.CompactHourly(ctx, "u1", "/p", "2026-01-26T22:00:00", now); err != nil {
		t.Fatalf("first compact: %v", err)
	}
	first, err := e.Store.Summaries.Get(ctx, "u1", "/p", persistence.ScaleHourly, "2026-01-26T22:00:00")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}

	// Re-running compaction for the same (now completed) hour must not
	// touch updated_at again.
	if err := e.CompactHourly(ctx, "u1", "/p", "2026-01-26T22:00:00", now); err != nil {
		t.Fatalf("second compact: %v", err)
	}
	second, err := e.Store.Summaries.Get(ctx, "u1", "/p", persistence.ScaleHourly, "2026-01-26T22:00:00")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("completed period was recompacted: %v != %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestCompactPeriod_DailyRollsUpHourlies(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 26, 23, 0, 0, 0, time.UTC)

	for _, hour := range []string{"2026-01-26T09:00:00", "2026-01-26T14:00:00"} {
		if _, err := e.Store.Snapshots.Upsert(ctx, persistence.SnapshotRawData{
			UserID: "u1", SessionID: "s1", ProjectPath: "/p", HourBucket: hour,
		}); err != nil {
			t.Fatalf("seed snapshot: %v", err)
		}
		if err := e.CompactHourly(ctx, "u1", "/p", hour, now); err != nil {
			t.Fatalf("compact hourly %s: %v", hour, err)
		}
	}

	if err := e.CompactPeriod(ctx, "u1", "/p", persistence.ScaleHourly, persistence.ScaleDaily, "2026-01-26T00:00:00+00:00", now); err != nil {
		t.Fatalf("CompactPeriod: %v", err)
	}

	daily, err := e.Store.Summaries.Get(ctx, "u1", "/p", persistence.ScaleDaily, "2026-01-26T00:00:00+00:00")
	if err != nil {
		t.Fatalf("get daily summary: %v", err)
	}
	if len(daily.SourceSnapshotIDs) != 2 {
		t.Fatalf("expected 2 source summaries rolled up, got %d", len(daily.SourceSnapshotIDs))
	}
}
