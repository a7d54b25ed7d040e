// Package workitem synthesizes persistence.WorkItem rows from parsed
// sessions and git commits, applying the content-hash, hour-derivation,
// dedup, and update-policy rules of spec.md §4.7.
package workitem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"time"

	"recap/internal/persistence"
	"recap/internal/session"
)

const (
	minHours     = 0.1
	maxHours     = 8.0
	defaultHours = 0.5

	sourceClaude     = "claude_code"
	sourceAntigravity = "antigravity"
	sourceGit        = "gitlab"
)

// ClaudeDayBundle is every meaningful event across every session a user had
// in one project on one calendar date, the unit the Claude adapter
// synthesizes one WorkItem per (spec.md §4.7).
type ClaudeDayBundle struct {
	UserID      string
	ProjectPath string
	Date        string // YYYY-MM-DD, local
	SessionID   string // representative session id (first by time)
	Events      []session.Event
	CommitHashes []string // commits attributed to this bundle before dedup
	StartTime   *time.Time
	EndTime     *time.Time
}

// ClaudeDayContentHash returns SHA-256(user_id || project_path || date),
// hex-encoded (spec.md §4.7's content-hash rule for Claude daily bundles).
func ClaudeDayContentHash(userID, projectPath, date string) string {
	sum := sha256.Sum256([]byte(userID + projectPath + date))
	return hex.EncodeToString(sum[:])
}

// AntigravitySessionContentHash returns the 64-bit FNV hash of
// "session:"+user_id+project_path+session_id, hex-encoded.
func AntigravitySessionContentHash(userID, projectPath, sessionID string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte("session:" + userID + projectPath + sessionID))
	return hex.EncodeToString(h.Sum(nil))
}

// DeriveHours computes duration in hours between start and end, clamped to
// [0.1, 8.0]; missing either timestamp yields the 0.5 default.
func DeriveHours(start, end *time.Time) (hours float64, estimated bool) {
	if start == nil || end == nil {
		return defaultHours, true
	}
	minutes := end.Sub(*start).Minutes()
	h := minutes / 60
	if h < minHours {
		return minHours, true
	}
	if h > maxHours {
		return maxHours, true
	}
	return h, false
}

func title(projectPath string, eventCount int) string {
	return fmt.Sprintf("%s (%d events)", projectPath, eventCount)
}

// SynthesizeClaudeDay builds one WorkItem from a ClaudeDayBundle, applying
// cross-source dedup against existing Git-sourced commit hashes and calling
// store.Upsert (whose SQL enforces the update policy: user_modified hours
// are preserved, commit_hash is set only once).
func SynthesizeClaudeDay(ctx context.Context, store *persistence.WorkItemStore, b ClaudeDayBundle) (persistence.WorkItem, error) {
	gitHashes, err := store.CommitHashesForSource(ctx, b.UserID, sourceGit)
	if err != nil {
		return persistence.WorkItem{}, fmt.Errorf("workitem: load git commit hashes: %w", err)
	}

	var commitHash *string
	for _, h := range b.CommitHashes {
		if gitHashes[h] {
			continue // already attributed to Git; remains Git's
		}
		v := h
		commitHash = &v
		break
	}

	hours, estimated := DeriveHours(b.StartTime, b.EndTime)

	meaningful := 0
	for _, e := range b.Events {
		if e.IsMeaningful() {
			meaningful++
		}
	}

	item := persistence.WorkItem{
		UserID:         b.UserID,
		Source:         sourceClaude,
		ContentHash:    ClaudeDayContentHash(b.UserID, b.ProjectPath, b.Date),
		Title:          title(b.ProjectPath, meaningful),
		Description:    describeBundle(b),
		Hours:          hours,
		Date:           b.Date,
		HoursSource:    persistence.HoursSourceSession,
		HoursEstimated: estimated,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		ProjectPath:    b.ProjectPath,
		SessionID:      b.SessionID,
		CommitHash:     commitHash,
		Synced:         true,
	}
	return store.Upsert(ctx, item)
}

func describeBundle(b ClaudeDayBundle) string {
	for _, e := range b.Events {
		if e.IsMeaningful() {
			return e.Content.Text
		}
	}
	return ""
}

// AntigravitySession is one session surfaced by the Antigravity adapter,
// the unit it synthesizes one WorkItem per.
type AntigravitySession struct {
	UserID      string
	ProjectPath string
	SessionID   string
	Date        string
	Title       string
	StartTime   *time.Time
	EndTime     *time.Time
}

// SynthesizeAntigravitySession builds one WorkItem per Antigravity session.
func SynthesizeAntigravitySession(ctx context.Context, store *persistence.WorkItemStore, s AntigravitySession) (persistence.WorkItem, error) {
	hours, estimated := DeriveHours(s.StartTime, s.EndTime)
	item := persistence.WorkItem{
		UserID:         s.UserID,
		Source:         sourceAntigravity,
		ContentHash:    AntigravitySessionContentHash(s.UserID, s.ProjectPath, s.SessionID),
		Title:          s.Title,
		Hours:          hours,
		Date:           s.Date,
		HoursSource:    persistence.HoursSourceSession,
		HoursEstimated: estimated,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		ProjectPath:    s.ProjectPath,
		SessionID:      s.SessionID,
		Synced:         true,
	}
	return store.Upsert(ctx, item)
}
