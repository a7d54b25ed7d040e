// Package scheduler coordinates compaction cycles: once at process start,
// after every source sync, and on manual trigger, coalescing overlapping
// triggers per user (spec.md §4.9).
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"recap/internal/compaction"
)

// CycleFunc runs one compaction cycle for a user and project.
type CycleFunc func(ctx context.Context, userID, projectPath string, now time.Time) compaction.Result

// Scheduler coalesces concurrent compaction triggers per user: while a
// cycle is running for a user, a further trigger records its project as
// pending rather than starting a concurrent cycle, and each pending project
// is run once the current cycle finishes.
type Scheduler struct {
	Run    CycleFunc
	Logger zerolog.Logger

	mu      sync.Mutex
	running map[string]bool
	pending map[string]map[string]bool // userID -> project paths triggered while a cycle ran

	cron *cron.Cron
}

// NewScheduler constructs a Scheduler ready to accept triggers.
func NewScheduler(run CycleFunc, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Run:     run,
		Logger:  logger,
		running: map[string]bool{},
		pending: map[string]map[string]bool{},
	}
}

// Trigger requests a compaction cycle for (userID, projectPath). If one is
// already running for userID, this call records projectPath as pending and
// returns immediately instead of starting a concurrent cycle; repeated
// triggers for the same project coalesce into one pending run.
func (s *Scheduler) Trigger(ctx context.Context, userID, projectPath string) {
	s.mu.Lock()
	if s.running[userID] {
		if s.pending[userID] == nil {
			s.pending[userID] = map[string]bool{}
		}
		s.pending[userID][projectPath] = true
		s.mu.Unlock()
		return
	}
	s.running[userID] = true
	s.mu.Unlock()

	go s.runLoop(ctx, userID, projectPath)
}

// runLoop runs one cycle, then runs each project triggered while a cycle
// was in flight, one at a time, until no pending trigger remains.
func (s *Scheduler) runLoop(ctx context.Context, userID, projectPath string) {
	for {
		res := s.Run(ctx, userID, projectPath, time.Now())
		for _, err := range res.Errors {
			s.Logger.Warn().Err(err).Str("user_id", userID).Str("project_path", projectPath).Msg("compaction cycle reported an error")
		}

		s.mu.Lock()
		found := false
		for p := range s.pending[userID] {
			delete(s.pending[userID], p)
			projectPath, found = p, true
			break
		}
		if found {
			s.mu.Unlock()
			continue
		}
		s.running[userID] = false
		s.mu.Unlock()
		return
	}
}

// StartPeriodicSweep wires an optional operator-configured cron schedule
// that calls fn(ctx) on every tick, for installations that want a
// heartbeat beyond "on sync" triggers (spec.md §4.9 notes the core itself
// has no cron-like mode; this is the outer daemon process's own loop).
func (s *Scheduler) StartPeriodicSweep(ctx context.Context, spec string, fn func(ctx context.Context)) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() { fn(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the periodic sweep, if one was started.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
