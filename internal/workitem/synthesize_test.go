package workitem

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"recap/internal/persistence"
)

func TestDeriveHours_ClampsAndDefaults(t *testing.T) {
	start := time.Date(2026, 1, 26, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		start     *time.Time
		end       *time.Time
		wantHours float64
		wantEst   bool
	}{
		{"missing timestamps", nil, nil, defaultHours, true},
		{"too short clamps to min", &start, tp(start.Add(2 * time.Minute)), minHours, true},
		{"too long clamps to max", &start, tp(start.Add(20 * time.Hour)), maxHours, true},
		{"normal duration", &start, tp(start.Add(90 * time.Minute)), 1.5, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, est := DeriveHours(c.start, c.end)
			if got != c.wantHours || est != c.wantEst {
				t.Fatalf("got (%v, %v) want (%v, %v)", got, est, c.wantHours, c.wantEst)
			}
		})
	}
}

func tp(t time.Time) *time.Time { return &t }

func TestSynthesizeClaudeDay_DedupsAgainstGitCommits(t *testing.T) {
	store, err := persistence.Open(context.Background(), filepath.Join(t.TempDir(), "recap.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	gitHash := "deadbeef"
	if _, err := store.WorkItems.Upsert(ctx, persistence.WorkItem{
		UserID: "u1", Source: "gitlab", ContentHash: "git-hash-1",
		Title: "commit", Hours: 1, Date: "2026-01-26", HoursSource: persistence.HoursSourceSession,
		CommitHash: &gitHash,
	}); err != nil {
		t.Fatalf("seed git work item: %v", err)
	}

	item, err := SynthesizeClaudeDay(ctx, store.WorkItems, ClaudeDayBundle{
		UserID: "u1", ProjectPath: "/p", Date: "2026-01-26", SessionID: "s1",
		CommitHashes: []string{gitHash, "other-hash"},
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if item.CommitHash == nil || *item.CommitHash != "other-hash" {
		t.Fatalf("expected dedup to skip git-attributed commit, got %v", item.CommitHash)
	}
}

func TestSynthesizeClaudeDay_IsIdempotentOnContentHash(t *testing.T) {
	store, err := persistence.Open(context.Background(), filepath.Join(t.TempDir(), "recap.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	bundle := ClaudeDayBundle{UserID: "u1", ProjectPath: "/p", Date: "2026-01-26", SessionID: "s1"}
	first, err := SynthesizeClaudeDay(ctx, store.WorkItems, bundle)
	if err != nil {
		t.Fatalf("first synthesize: %v", err)
	}
	second, err := SynthesizeClaudeDay(ctx, store.WorkItems, bundle)
	if err != nil {
		t.Fatalf("second synthesize: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same row, got %s != %s", first.ID, second.ID)
	}
}
