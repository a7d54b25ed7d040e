package compaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"recap/internal/llm"
	"recap/internal/persistence"
)

var tracer = otel.Tracer("recap/compaction")

// Engine rolls up snapshots into summaries across the hourly/daily/weekly/
// monthly hierarchy (spec.md §4.5). Provider may be nil, in which case
// every level falls back to the rule-based generator.
type Engine struct {
	Store           *persistence.Store
	Provider        llm.Provider
	SummaryMaxChars int
	PromptTemplate  string // fmt template with two %s verbs: previous_context summary first, aggregated text second
	Logger          zerolog.Logger
}

// Result accumulates non-fatal per-period errors across a compaction cycle
// (spec.md §4.5's "errors from one period never abort the cycle").
type Result struct {
	Compacted int
	Errors    []error
}

func (r *Result) fail(err error) {
	r.Errors = append(r.Errors, err)
}

// RunCycle performs one full hourly -> daily -> weekly -> monthly pass for
// (userID, projectPath), discovering pending periods at each level.
func (e *Engine) RunCycle(ctx context.Context, userID, projectPath string, now time.Time) Result {
	var res Result

	hours, err := e.pendingHours(ctx, userID, projectPath, now)
	if err != nil {
		res.fail(fmt.Errorf("compaction: discover hours: %w", err))
	}
	for _, h := range hours {
		if err := e.CompactHourly(ctx, userID, projectPath, h, now); err != nil {
			res.fail(err)
			continue
		}
		res.Compacted++
	}

	days, err := e.pendingPeriods(ctx, userID, projectPath, persistence.ScaleHourly, persistence.ScaleDaily, dayBounds, now)
	if err != nil {
		res.fail(fmt.Errorf("compaction: discover days: %w", err))
	}
	for _, d := range days {
		if err := e.CompactPeriod(ctx, userID, projectPath, persistence.ScaleHourly, persistence.ScaleDaily, d, now); err != nil {
			res.fail(err)
			continue
		}
		res.Compacted++
	}

	weeks, err := e.pendingPeriods(ctx, userID, projectPath, persistence.ScaleDaily, persistence.ScaleWeekly, weekBounds, now)
	if err != nil {
		res.fail(fmt.Errorf("compaction: discover weeks: %w", err))
	}
	for _, w := range weeks {
		if err := e.CompactPeriod(ctx, userID, projectPath, persistence.ScaleDaily, persistence.ScaleWeekly, w, now); err != nil {
			res.fail(err)
			continue
		}
		res.Compacted++
	}

	months, err := e.pendingPeriods(ctx, userID, projectPath, persistence.ScaleWeekly, persistence.ScaleMonthly, monthBounds, now)
	if err != nil {
		res.fail(fmt.Errorf("compaction: discover months: %w", err))
	}
	for _, m := range months {
		if err := e.CompactPeriod(ctx, userID, projectPath, persistence.ScaleWeekly, persistence.ScaleMonthly, m, now); err != nil {
			res.fail(err)
			continue
		}
		res.Compacted++
	}

	return res
}

// ForceRecompact deletes WorkSummary rows matching the optional filters
// (spec.md §4.5's force-recompact: snapshots and work items are never
// touched) then runs a full compaction cycle for projectPath. The delete is
// not limited to projectPath: matching summaries of the user's other
// projects are deleted too, and this call does not regenerate them.
func (e *Engine) ForceRecompact(ctx context.Context, userID, projectPath, fromDate, toDate string, scales []persistence.Scale, now time.Time) (Result, error) {
	if err := e.Store.Summaries.DeleteMatching(ctx, userID, fromDate, toDate, scales); err != nil {
		return Result{}, fmt.Errorf("compaction: force recompact delete: %w", err)
	}
	res := e.RunCycle(ctx, userID, projectPath, now)
	return res, nil
}

// pendingHours wraps SnapshotStore.ListWithoutHourlySummary with the current
// hour's bucket (spec.md §4.5's "PLUS the current hour regardless").
func (e *Engine) pendingHours(ctx context.Context, userID, projectPath string, now time.Time) ([]string, error) {
	currentHour, _ := hourBounds(now)
	return e.Store.Snapshots.ListWithoutHourlySummary(ctx, userID, projectPath, currentHour)
}

type boundsFn func(time.Time) (string, string)

// pendingPeriods returns period_start values at `to` scale that have source
// summaries at `from` scale but lack a `to`-scale summary, plus the period
// containing now unconditionally.
func (e *Engine) pendingPeriods(ctx context.Context, userID, projectPath string, from, to persistence.Scale, bounds boundsFn, now time.Time) ([]string, error) {
	sources, err := e.Store.Summaries.PeriodStartsAtScale(ctx, userID, projectPath, from)
	if err != nil {
		return nil, err
	}
	targets, err := e.Store.Summaries.PeriodStartsAtScale(ctx, userID, projectPath, to)
	if err != nil {
		return nil, err
	}
	haveTarget := map[string]bool{}
	for _, t := range targets {
		haveTarget[t] = true
	}

	seen := map[string]bool{}
	var out []string
	for _, s := range sources {
		parsed, err := parsePeriodStart(s, from)
		if err != nil {
			continue
		}
		start, _ := bounds(parsed)
		if seen[start] {
			continue
		}
		seen[start] = true
		if !haveTarget[start] {
			out = append(out, start)
		}
	}

	currentStart, _ := bounds(now)
	if !seen[currentStart] || haveTarget[currentStart] {
		out = append(out, currentStart)
	}
	return out, nil
}

func parsePeriodStart(s string, scale persistence.Scale) (time.Time, error) {
	if scale == persistence.ScaleHourly {
		return time.ParseInLocation("2006-01-02T15:00:00", s, time.UTC)
	}
	return time.Parse("2006-01-02T15:04:05-07:00", s)
}

// CompactHourly rolls up snapshot_raw_data for the hour containing anchor
// into a WorkSummary(scale=hourly).
func (e *Engine) CompactHourly(ctx context.Context, userID, projectPath string, hourBucket string, now time.Time) error {
	ctx, span := tracer.Start(ctx, "compact_hourly", trace.WithAttributes(trAttrs(userID, projectPath, hourBucket)...))
	defer span.End()

	anchor, err := time.ParseInLocation("2006-01-02T15:00:00", hourBucket, now.Location())
	if err != nil {
		return fmt.Errorf("compaction: parse hour bucket %q: %w", hourBucket, err)
	}
	start, end := hourBounds(anchor)

	if !e.shouldRecompact(ctx, userID, projectPath, persistence.ScaleHourly, start, end, now) {
		return nil
	}

	snapshots, err := e.Store.Snapshots.ListByPeriod(ctx, userID, projectPath, start, end)
	if err != nil {
		return fmt.Errorf("compaction: list snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return nil
	}

	text, commits, files := aggregateHourly(snapshots)
	previous, err := e.Store.Summaries.PreviousContext(ctx, userID, projectPath, persistence.ScaleHourly, start)
	if err != nil {
		return fmt.Errorf("compaction: previous context: %w", err)
	}

	summaryText, model := e.generate(ctx, userID, persistence.ScaleHourly, text, previous, commits, files)

	ids := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		ids = append(ids, s.ID)
	}

	_, err = e.Store.Summaries.Upsert(ctx, persistence.WorkSummary{
		UserID:            userID,
		ProjectPath:       projectPath,
		Scale:             persistence.ScaleHourly,
		PeriodStart:       start,
		PeriodEnd:         end,
		Summary:           summaryText,
		GitCommitsSummary: commitLines(commits),
		SourceSnapshotIDs: ids,
		LLMModel:          model,
	})
	if err != nil {
		return fmt.Errorf("compaction: upsert hourly summary: %w", err)
	}
	return nil
}

// CompactPeriod rolls up `from`-scale summaries into one `to`-scale summary
// covering the period containing periodStartRaw (as a `to`-scale boundary).
func (e *Engine) CompactPeriod(ctx context.Context, userID, projectPath string, from, to persistence.Scale, periodStartRaw string, now time.Time) error {
	ctx, span := tracer.Start(ctx, "compact_period", trace.WithAttributes(trAttrs(userID, projectPath, periodStartRaw)...))
	span.SetAttributes(attribute.String("recap.scale", string(to)))
	defer span.End()

	anchor, err := parsePeriodStart(periodStartRaw, to)
	if err != nil {
		return fmt.Errorf("compaction: parse period start %q: %w", periodStartRaw, err)
	}

	var bounds boundsFn
	switch to {
	case persistence.ScaleDaily:
		bounds = dayBounds
	case persistence.ScaleWeekly:
		bounds = weekBounds
	case persistence.ScaleMonthly:
		bounds = monthBounds
	default:
		return fmt.Errorf("compaction: unsupported target scale %q", to)
	}
	start, end := bounds(anchor)

	if !e.shouldRecompact(ctx, userID, projectPath, to, start, end, now) {
		return nil
	}

	// Hourly period_start values are naive strings without the "+00:00"
	// suffix that day bounds carry; compare them against naive bounds.
	listStart, listEnd := start, end
	if from == persistence.ScaleHourly {
		listStart, listEnd = strings.TrimSuffix(start, "+00:00"), strings.TrimSuffix(end, "+00:00")
	}
	sources, err := e.Store.Summaries.ListByPeriod(ctx, userID, projectPath, from, listStart, listEnd)
	if err != nil {
		return fmt.Errorf("compaction: list source summaries: %w", err)
	}
	if len(sources) == 0 {
		return nil
	}

	text := aggregatePeriod(sources)
	previous, err := e.Store.Summaries.PreviousContext(ctx, userID, projectPath, to, start)
	if err != nil {
		return fmt.Errorf("compaction: previous context: %w", err)
	}

	summaryText, model := e.generate(ctx, userID, to, text, previous, nil, nil)

	ids := make([]string, 0, len(sources))
	for _, s := range sources {
		ids = append(ids, s.ID)
	}

	_, err = e.Store.Summaries.Upsert(ctx, persistence.WorkSummary{
		UserID:            userID,
		ProjectPath:       projectPath,
		Scale:             to,
		PeriodStart:       start,
		PeriodEnd:         end,
		Summary:           summaryText,
		SourceSnapshotIDs: ids,
		LLMModel:          model,
	})
	if err != nil {
		return fmt.Errorf("compaction: upsert %s summary: %w", to, err)
	}
	return nil
}

// shouldRecompact implements the idempotence rule: skip only when a summary
// already exists for a completed period.
func (e *Engine) shouldRecompact(ctx context.Context, userID, projectPath string, scale persistence.Scale, start, end string, now time.Time) bool {
	_, err := e.Store.Summaries.Get(ctx, userID, projectPath, scale, start)
	exists := err == nil
	if !exists {
		return true
	}
	return !isCompleted(end, scale, now)
}

// generate chooses the LLM path when a provider is configured and succeeds,
// falling back to the rule-based generator otherwise (spec.md §4.5 step 4).
func (e *Engine) generate(ctx context.Context, userID string, scale persistence.Scale, aggregated string, previous *persistence.WorkSummary, commits []persistence.GitCommit, files []string) (text string, model *string) {
	if e.Provider != nil {
		prompt := e.buildPrompt(aggregated, previous)
		budget := outputTokenBudget(scale, e.effectiveSummaryMaxChars())
		out, usage, err := e.Provider.Summarize(ctx, prompt, "compaction:"+string(scale), budget)

		record := usage
		var lerr *llm.Error
		if err != nil && errors.As(err, &lerr) && lerr.Usage != nil {
			record = *lerr.Usage
		}
		if e.Store != nil && e.Store.Usage != nil {
			if logErr := e.Store.Usage.Record(ctx, userID, record); logErr != nil {
				e.Logger.Warn().Err(logErr).Msg("failed to persist llm usage log")
			}
		}

		if err == nil {
			llmTag := "llm"
			return out, &llmTag
		}
		e.Logger.Warn().Err(err).Str("scale", string(scale)).Msg("llm summarize failed, falling back to rule-based summary")
	}
	return ruleBasedSummary(commits, files, aggregated), nil
}

func (e *Engine) buildPrompt(aggregated string, previous *persistence.WorkSummary) string {
	prevText := ""
	if previous != nil {
		prevText = previous.Summary
	}
	tmpl := e.PromptTemplate
	if tmpl == "" {
		tmpl = "Previous context:\n%s\n\nActivity:\n%s"
	}
	return fmt.Sprintf(tmpl, prevText, aggregated)
}

func (e *Engine) effectiveSummaryMaxChars() int {
	if e.SummaryMaxChars > 0 {
		return e.SummaryMaxChars
	}
	return 2000
}

func commitLines(commits []persistence.GitCommit) []string {
	var out []string
	for _, c := range commits {
		out = append(out, fmt.Sprintf("%s: %s (+%d-%d)", c.Hash, c.Message, c.Additions, c.Deletions))
	}
	return out
}

func trAttrs(userID, projectPath, period string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("recap.user_id", userID),
		attribute.String("recap.project_path", projectPath),
		attribute.String("recap.period", period),
	}
}
