// Package snapshot partitions a session's events into local-time hour
// buckets and aggregates them into SnapshotRawData rows.
package snapshot

import (
	"time"

	"recap/internal/session"
)

const (
	maxUserMessageChars      = 500
	maxAssistantSummaryChars = 200
	maxFilesModified         = 50
)

// ToolCallRecord is one entry of Bucket.ToolCalls.
type ToolCallRecord struct {
	Tool         string
	InputSummary string
	Timestamp    time.Time
}

// CommitRecord is one entry of Bucket.GitCommits, populated later by the
// git enricher; the bucketer itself never sets this field.
type CommitRecord struct {
	Hash      string
	Message   string
	Timestamp time.Time
	Additions int
	Deletions int
}

// Bucket is the in-memory accumulation of one (session, hour) window before
// it is persisted as a SnapshotRawData row.
type Bucket struct {
	SessionID          string
	ProjectPath        string
	HourBucket         string // YYYY-MM-DDThh:00:00, naive local
	UserMessages       []string
	AssistantSummaries []string
	ToolCalls          []ToolCallRecord
	FilesModified      []string
	filesModifiedSet   map[string]bool
	GitCommits         []CommitRecord
	MessageCount       int
	RawSizeBytes       int
}

func newBucket(sessionID, projectPath, hourBucket string) *Bucket {
	return &Bucket{
		SessionID:        sessionID,
		ProjectPath:      projectPath,
		HourBucket:       hourBucket,
		filesModifiedSet: make(map[string]bool),
	}
}

// TruncateToHour converts t to loc and zeroes minute/second/nanosecond,
// returning the naive local hour-bucket string YYYY-MM-DDThh:00:00.
func TruncateToHour(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	truncated := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	return truncated.Format("2006-01-02T15:04:05")
}

// Bucketize partitions events for a single (user, project, session) into
// hour buckets and applies the aggregation rules. Events with unparseable
// timestamps never reach this stage (session.Parse already drops them);
// here we just assign by local hour. Returns buckets in the order their
// hour key first appeared, which — because events are supplied in source
// (timestamp) order — is non-decreasing lexicographically (invariant 1).
func Bucketize(sessionID, projectPath string, events []session.Event, loc *time.Location) []*Bucket {
	if isNoRealProject(projectPath) {
		return nil
	}

	order := []string{}
	buckets := map[string]*Bucket{}

	for _, ev := range events {
		key := TruncateToHour(ev.Timestamp, loc)
		b, ok := buckets[key]
		if !ok {
			b = newBucket(sessionID, projectPath, key)
			buckets[key] = b
			order = append(order, key)
		}
		applyEvent(b, ev)
	}

	out := make([]*Bucket, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		b.RawSizeBytes = estimateSize(b)
		out = append(out, b)
	}
	return out
}

// isNoRealProject reports whether path resolves to "no real project" per
// the bucketer's skip condition.
func isNoRealProject(path string) bool {
	return path == "" || path == "/"
}

func applyEvent(b *Bucket, ev session.Event) {
	switch ev.Role {
	case session.RoleUser:
		text := ev.Content.Text
		b.UserMessages = append(b.UserMessages, truncateRunes(text, maxUserMessageChars))
		if ev.IsMeaningful() {
			b.MessageCount++
		}
	case session.RoleAssistant:
		if ev.Content.IsArray {
			for _, blk := range ev.Content.Blocks {
				switch blk.Type {
				case session.BlockText:
					b.AssistantSummaries = append(b.AssistantSummaries, truncateRunes(blk.Text, maxAssistantSummaryChars))
				case session.BlockToolUse:
					if blk.Tool != nil {
						recordToolCall(b, *blk.Tool, ev.Timestamp)
					}
				}
			}
		} else if ev.Content.Text != "" {
			b.AssistantSummaries = append(b.AssistantSummaries, truncateRunes(ev.Content.Text, maxAssistantSummaryChars))
		}
		if ev.Content.Tool != nil {
			recordToolCall(b, *ev.Content.Tool, ev.Timestamp)
		}
	case session.RoleTool:
		if ev.Content.Tool != nil {
			recordToolCall(b, *ev.Content.Tool, ev.Timestamp)
		}
	}
}

func recordToolCall(b *Bucket, tool session.ToolUse, ts time.Time) {
	summary := session.InputSummary(tool)
	b.ToolCalls = append(b.ToolCalls, ToolCallRecord{Tool: tool.Name, InputSummary: summary, Timestamp: ts})

	if (tool.Name == "Edit" || tool.Name == "Write") && summary != "" {
		if !b.filesModifiedSet[summary] && len(b.FilesModified) < maxFilesModified {
			b.filesModifiedSet[summary] = true
			b.FilesModified = append(b.FilesModified, summary)
		}
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func estimateSize(b *Bucket) int {
	n := 0
	for _, m := range b.UserMessages {
		n += len(m)
	}
	for _, m := range b.AssistantSummaries {
		n += len(m)
	}
	for _, tc := range b.ToolCalls {
		n += len(tc.Tool) + len(tc.InputSummary)
	}
	for _, f := range b.FilesModified {
		n += len(f)
	}
	for _, c := range b.GitCommits {
		n += len(c.Hash) + len(c.Message)
	}
	return n
}
