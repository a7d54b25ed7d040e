// Package claude implements the filesystem source adapter reading Claude
// Code's own session transcripts from ~/.claude/projects.
package claude

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"recap/internal/gitenrich"
	"recap/internal/persistence"
	"recap/internal/session"
	"recap/internal/workitem"
)

// Adapter reads Claude Code session transcripts rooted at Home/projects.
type Adapter struct {
	Home           string // defaults to "<user home>/.claude"
	Store          *persistence.Store
	GitAuthorEmail string
	Location       *time.Location
}

func (a *Adapter) loc() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.Local
}

// SourceName identifies this adapter in sync_status and WorkItem.source.
func (a *Adapter) SourceName() string { return "claude_code" }

// IsAvailable reports whether the projects directory exists.
func (a *Adapter) IsAvailable() bool {
	_, err := os.Stat(a.projectsDir())
	return err == nil
}

func (a *Adapter) projectsDir() string {
	return filepath.Join(a.Home, "projects")
}

// Project is one discovered project directory.
type Project struct {
	Name         string
	Path         string
	SessionCount int
}

// DiscoverProjects lists every subdirectory of projects/ that contains at
// least one *.jsonl session file.
func (a *Adapter) DiscoverProjects() ([]Project, error) {
	entries, err := os.ReadDir(a.projectsDir())
	if err != nil {
		return nil, fmt.Errorf("claude: read projects dir: %w", err)
	}

	var out []Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sessionFiles, err := filepath.Glob(filepath.Join(a.projectsDir(), entry.Name(), "*.jsonl"))
		if err != nil || len(sessionFiles) == 0 {
			continue
		}
		out = append(out, Project{
			Name:         entry.Name(),
			Path:         DecodeProjectPath(entry.Name()),
			SessionCount: len(sessionFiles),
		})
	}
	return out, nil
}

// DecodeProjectPath reverses the directory-name encoding used by Claude
// Code: the absolute project path with every "/" replaced by "-".
func DecodeProjectPath(dirName string) string {
	trimmed := strings.TrimPrefix(dirName, "-")
	return "/" + strings.ReplaceAll(trimmed, "-", "/")
}

// SyncResult summarizes one sync_sessions call (spec.md §4.6).
type SyncResult struct {
	ProjectsScanned  int
	SessionsProcessed int
	SessionsSkipped  int
	WorkItemsCreated int
	WorkItemsUpdated int
}

// parsedSession is one session.jsonl file's events plus its path-derived
// identity.
type parsedSession struct {
	SessionID   string
	ProjectPath string
	Events      []session.Event
}

// SyncSessions discovers every project, parses every session file
// concurrently (distinct (project, session) pairs may be captured
// concurrently, per spec.md §5), and synthesizes one WorkItem per
// (project, date) bundle of meaningful events.
func (a *Adapter) SyncSessions(ctx context.Context, userID string) (SyncResult, error) {
	var result SyncResult

	projects, err := a.DiscoverProjects()
	if err != nil {
		return result, err
	}
	result.ProjectsScanned = len(projects)

	var mu sessionCollector
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, proj := range projects {
		proj := proj
		dir := filepath.Join(a.projectsDir(), proj.Name)
		files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
		if err != nil {
			continue
		}
		for _, f := range files {
			f := f
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				events, err := session.Parse(f)
				if err != nil {
					mu.addSkipped()
					return nil // a malformed session file never aborts the sync
				}
				sessionID := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
				mu.add(parsedSession{SessionID: sessionID, ProjectPath: proj.Path, Events: events})
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("claude: sync sessions: %w", err)
	}

	for i := range mu.sessions {
		for j := range mu.sessions[i].Events {
			ev := &mu.sessions[i].Events[j]
			ev.Timestamp = ev.Timestamp.In(a.loc())
		}
	}
	bundles := bundleByProjectDay(mu.sessions)
	result.SessionsProcessed = len(mu.sessions)
	result.SessionsSkipped = mu.skipped

	for _, b := range bundles {
		b.UserID = userID
		if day, err := time.ParseInLocation("2006-01-02", b.Date, a.loc()); err == nil {
			b.CommitHashes = gitenrich.CommitHashesInRange(ctx, b.ProjectPath, day, day.Add(24*time.Hour), a.GitAuthorEmail)
		}
		contentHash := workitem.ClaudeDayContentHash(userID, b.ProjectPath, b.Date)
		existed, err := a.Store.WorkItems.ExistsByContentHash(ctx, userID, contentHash)
		if err != nil {
			return result, fmt.Errorf("claude: check existing work item: %w", err)
		}
		if _, err := workitem.SynthesizeClaudeDay(ctx, a.Store.WorkItems, b); err != nil {
			return result, fmt.Errorf("claude: synthesize work item: %w", err)
		}
		if existed {
			result.WorkItemsUpdated++
		} else {
			result.WorkItemsCreated++
		}
	}

	return result, nil
}

// sessionCollector accumulates results from concurrent session-file
// parses; every method is safe to call from multiple goroutines.
type sessionCollector struct {
	mu       sync.Mutex
	sessions []parsedSession
	skipped  int
}

func (c *sessionCollector) add(s parsedSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = append(c.sessions, s)
}

func (c *sessionCollector) addSkipped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped++
}

// bundleByProjectDay groups every session's meaningful events into one
// ClaudeDayBundle per (project, calendar date of the event timestamps in
// the zone they carry; SyncSessions converts them to the adapter's local
// location first).
func bundleByProjectDay(sessions []parsedSession) []workitem.ClaudeDayBundle {
	type key struct {
		project string
		date    string
	}
	bundles := map[key]*workitem.ClaudeDayBundle{}
	var order []key

	for _, s := range sessions {
		for _, e := range s.Events {
			if !e.IsMeaningful() {
				continue
			}
			date := e.Timestamp.Format("2006-01-02")
			k := key{s.ProjectPath, date}
			b, ok := bundles[k]
			if !ok {
				b = &workitem.ClaudeDayBundle{ProjectPath: s.ProjectPath, Date: date, SessionID: s.SessionID}
				bundles[k] = b
				order = append(order, k)
			}
			if !e.Timestamp.IsZero() && (b.StartTime == nil || e.Timestamp.Before(*b.StartTime)) {
				b.SessionID = s.SessionID
			}
			b.Events = append(b.Events, e)
			updateTimeRange(b, e.Timestamp)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].project != order[j].project {
			return order[i].project < order[j].project
		}
		return order[i].date < order[j].date
	})

	out := make([]workitem.ClaudeDayBundle, 0, len(order))
	for _, k := range order {
		out = append(out, *bundles[k])
	}
	return out
}

func updateTimeRange(b *workitem.ClaudeDayBundle, t time.Time) {
	if t.IsZero() {
		return
	}
	if b.StartTime == nil || t.Before(*b.StartTime) {
		start := t
		b.StartTime = &start
	}
	if b.EndTime == nil || t.After(*b.EndTime) {
		end := t
		b.EndTime = &end
	}
}
