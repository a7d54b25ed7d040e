package snapshot

import (
	"testing"
	"time"

	"recap/internal/session"
)

func mustLocation(t *testing.T, name string, offsetSeconds int) *time.Location {
	t.Helper()
	return time.FixedZone(name, offsetSeconds)
}

func TestTruncateToHour_BoundaryScenario(t *testing.T) {
	loc := mustLocation(t, "UTC+8", 8*3600)
	ts, err := time.Parse(time.RFC3339, "2026-01-26T14:35:22+00:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := TruncateToHour(ts, loc)
	want := "2026-01-26T22:00:00"
	if got != want {
		t.Errorf("TruncateToHour = %q, want %q", got, want)
	}
}

func TestBucketize_SkipsNoRealProject(t *testing.T) {
	events := []session.Event{{Timestamp: time.Now(), Role: session.RoleUser, Content: session.Content{Text: "Help me implement X"}}}
	if got := Bucketize("s1", "", events, time.UTC); got != nil {
		t.Errorf("expected nil buckets for empty path, got %v", got)
	}
	if got := Bucketize("s1", "/", events, time.UTC); got != nil {
		t.Errorf("expected nil buckets for root path, got %v", got)
	}
}

func TestBucketize_AggregatesFilesModifiedOnceInsertionOrdered(t *testing.T) {
	base := time.Date(2026, 1, 26, 14, 0, 0, 0, time.UTC)
	events := []session.Event{
		{Timestamp: base, Role: session.RoleAssistant, Content: session.Content{IsArray: true, Blocks: []session.Block{
			{Type: session.BlockToolUse, Tool: &session.ToolUse{Name: "Edit", Input: map[string]any{"file_path": "a.go"}}},
		}}},
		{Timestamp: base.Add(time.Minute), Role: session.RoleAssistant, Content: session.Content{IsArray: true, Blocks: []session.Block{
			{Type: session.BlockToolUse, Tool: &session.ToolUse{Name: "Write", Input: map[string]any{"file_path": "b.go"}}},
		}}},
		{Timestamp: base.Add(2 * time.Minute), Role: session.RoleAssistant, Content: session.Content{IsArray: true, Blocks: []session.Block{
			{Type: session.BlockToolUse, Tool: &session.ToolUse{Name: "Edit", Input: map[string]any{"file_path": "a.go"}}},
		}}},
	}
	buckets := Bucketize("s1", "/home/u/proj", events, time.UTC)
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}
	b := buckets[0]
	if len(b.FilesModified) != 2 || b.FilesModified[0] != "a.go" || b.FilesModified[1] != "b.go" {
		t.Errorf("FilesModified = %v, want [a.go b.go]", b.FilesModified)
	}
	if len(b.ToolCalls) != 3 {
		t.Errorf("ToolCalls = %d, want 3", len(b.ToolCalls))
	}
}

func TestBucketize_MessageCountOnlyMeaningful(t *testing.T) {
	base := time.Date(2026, 1, 26, 14, 0, 0, 0, time.UTC)
	events := []session.Event{
		{Timestamp: base, Role: session.RoleUser, Content: session.Content{Text: "warmup"}},
		{Timestamp: base.Add(time.Minute), Role: session.RoleUser, Content: session.Content{Text: "hi"}},
		{Timestamp: base.Add(2 * time.Minute), Role: session.RoleUser, Content: session.Content{Text: "Help me implement X"}},
	}
	buckets := Bucketize("s1", "/home/u/proj", events, time.UTC)
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}
	if buckets[0].MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", buckets[0].MessageCount)
	}
	if len(buckets[0].UserMessages) != 3 {
		t.Errorf("UserMessages len = %d, want 3 (non-meaningful still stored)", len(buckets[0].UserMessages))
	}
}
