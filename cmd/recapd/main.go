// Command recapd is the Recap coding-activity observability daemon: it
// syncs Claude Code and Antigravity sessions, buckets them into hourly
// snapshots, and compacts those into rolling work summaries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"recap/internal/compaction"
	"recap/internal/config"
	"recap/internal/llm"
	"recap/internal/llm/providers"
	"recap/internal/observability"
	"recap/internal/persistence"
	"recap/internal/scheduler"
	"recap/internal/sources/antigravity"
	"recap/internal/sources/claude"
)

// syncUser is the single hard-coded local user every adapter and
// compaction cycle runs under; Recap has no multi-tenant auth layer.
const syncUser = "local"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogPath, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdown, err := observability.InitOTel(ctx, cfg.Obs)
	if err != nil {
		log.Warn().Err(err).Msg("otel init failed, continuing without tracing")
	}
	if shutdown != nil {
		defer func() { _ = shutdown(context.Background()) }()
	}

	store, err := persistence.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("failed to open database")
	}
	defer store.Close()

	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		provider, err = providers.Build(llm.Config{
			Provider:          cfg.LLM.Provider,
			Model:             cfg.LLM.Model,
			APIKey:            cfg.LLM.APIKey,
			BaseURL:           cfg.LLM.BaseURL,
			SummaryMaxChars:   cfg.LLM.SummaryMaxChars,
			ReasoningEffort:   cfg.LLM.ReasoningEffort,
			SummaryPrompt:     cfg.LLM.SummaryPrompt,
			ReasoningHeadroom: cfg.LLM.ReasoningHeadroom,
		})
		if err != nil {
			log.Warn().Err(err).Msg("llm provider configuration invalid, falling back to rule-based summaries")
			provider = nil
		}
	}

	engine := &compaction.Engine{
		Store:           store,
		Provider:        provider,
		SummaryMaxChars: cfg.LLM.SummaryMaxChars,
		PromptTemplate:  cfg.LLM.SummaryPrompt,
		Logger:          log.Logger,
	}

	claudeAdapter := &claude.Adapter{
		Home:           cfg.Sources.ClaudeHome,
		Store:          store,
		GitAuthorEmail: cfg.Sources.GitAuthorEmail,
	}
	antigravityAdapter := &antigravity.Adapter{Store: store}

	sched := scheduler.NewScheduler(func(ctx context.Context, userID, projectPath string, now time.Time) compaction.Result {
		return engine.RunCycle(ctx, userID, projectPath, now)
	}, log.Logger)

	runSync := func(ctx context.Context) {
		syncAllSources(ctx, store, claudeAdapter, antigravityAdapter, sched)
	}

	// Run once at process start (spec.md §4.9).
	runSync(ctx)

	// Optional operator-configured periodic sweep, in addition to the
	// core's own "after every sync" trigger.
	if spec := os.Getenv("RECAP_SYNC_CRON"); spec != "" {
		if err := sched.StartPeriodicSweep(ctx, spec, runSync); err != nil {
			log.Warn().Err(err).Str("cron", spec).Msg("failed to start periodic sweep")
		} else {
			defer sched.Stop()
		}
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

// syncAllSources runs every available source adapter, then triggers
// compaction for each project path the Claude adapter discovered, per
// spec.md §4.9's "after every source sync" rule.
func syncAllSources(ctx context.Context, store *persistence.Store, claudeAdapter *claude.Adapter, antigravityAdapter *antigravity.Adapter, sched *scheduler.Scheduler) {
	projectPaths := map[string]bool{}

	if claudeAdapter.IsAvailable() {
		if err := store.Sync.MarkSyncing(ctx, syncUser, claudeAdapter.SourceName()); err != nil {
			log.Warn().Err(err).Msg("mark syncing failed")
		}
		projects, err := claudeAdapter.DiscoverProjects()
		if err != nil {
			log.Warn().Err(err).Msg("claude: discover projects failed")
		}
		for _, p := range projects {
			projectPaths[p.Path] = true
		}
		result, err := claudeAdapter.SyncSessions(ctx, syncUser)
		if err != nil {
			_ = store.Sync.MarkError(ctx, syncUser, claudeAdapter.SourceName(), err.Error())
			log.Warn().Err(err).Msg("claude sync failed")
		} else {
			_ = store.Sync.MarkSuccess(ctx, syncUser, claudeAdapter.SourceName())
			log.Info().Interface("result", result).Msg("claude sync complete")
		}
	}

	if antigravityAdapter.IsAvailable(ctx) {
		result, err := antigravityAdapter.SyncSessions(ctx, syncUser)
		if err != nil {
			_ = store.Sync.MarkError(ctx, syncUser, antigravityAdapter.SourceName(), err.Error())
			log.Warn().Err(err).Msg("antigravity sync failed")
		} else {
			_ = store.Sync.MarkSuccess(ctx, syncUser, antigravityAdapter.SourceName())
			log.Info().Interface("result", result).Msg("antigravity sync complete")
		}
	}

	for path := range projectPaths {
		sched.Trigger(ctx, syncUser, path)
	}
}
