package compaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recap/internal/llm"
	"recap/internal/persistence"
)

// SubmitHourlyBatch gathers every hour pending an hourly summary for
// (userID, projectPath) and submits them as one BatchJob (spec.md §4.5's
// batch mode). Only one pending job per user is allowed; CreateJob returns
// persistence.ErrBatchAlreadyPending otherwise.
func (e *Engine) SubmitHourlyBatch(ctx context.Context, userID, projectPath, provider string, now time.Time) (persistence.BatchJob, error) {
	hours, err := e.pendingHours(ctx, userID, projectPath, now)
	if err != nil {
		return persistence.BatchJob{}, fmt.Errorf("compaction: discover pending hours: %w", err)
	}

	job, err := e.Store.Batches.CreateJob(ctx, persistence.BatchJob{UserID: userID, Provider: provider})
	if err != nil {
		return persistence.BatchJob{}, err
	}

	for _, hourBucket := range hours {
		anchor, err := time.ParseInLocation("2006-01-02T15:00:00", hourBucket, now.Location())
		if err != nil {
			continue
		}
		start, end := hourBounds(anchor)
		snapshots, err := e.Store.Snapshots.ListByPeriod(ctx, userID, projectPath, start, end)
		if err != nil || len(snapshots) == 0 {
			continue
		}
		text, _, _ := aggregateHourly(snapshots)
		previous, _ := e.Store.Summaries.PreviousContext(ctx, userID, projectPath, persistence.ScaleHourly, start)
		prompt := e.buildPrompt(text, previous)

		ids := make([]string, 0, len(snapshots))
		for _, s := range snapshots {
			ids = append(ids, s.ID)
		}
		snapshotID := ""
		if len(ids) > 0 {
			snapshotID = ids[0]
		}
		if _, err := e.Store.Batches.AddRequest(ctx, persistence.BatchRequest{
			BatchJobID: job.ID,
			SnapshotID: snapshotID,
			Prompt:     prompt,
		}); err != nil {
			return job, fmt.Errorf("compaction: add batch request: %w", err)
		}
	}

	if err := e.Store.Batches.UpdateState(ctx, job.ID, persistence.BatchSubmitted); err != nil {
		return job, fmt.Errorf("compaction: mark batch submitted: %w", err)
	}
	job.State = persistence.BatchSubmitted
	return job, nil
}

// PollBatch advances job through in_progress by running every still-pending
// request's summarization and recording its result. Only completed results
// are saved as WorkSummary rows. The job then ends in BatchFailed when
// requests failed in this poll and none of its requests is completed, and
// in BatchCompleted otherwise.
func (e *Engine) PollBatch(ctx context.Context, userID, projectPath, jobID string, now time.Time) (persistence.BatchState, error) {
	if err := e.Store.Batches.UpdateState(ctx, jobID, persistence.BatchInProgress); err != nil {
		return "", fmt.Errorf("compaction: mark batch in_progress: %w", err)
	}

	requests, err := e.Store.Batches.RequestsForJob(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("compaction: list batch requests: %w", err)
	}

	anyFailed := false
	for i, req := range requests {
		if req.State.IsTerminal() {
			continue
		}

		if e.Provider == nil {
			if err := e.Store.Batches.CompleteRequest(ctx, req.ID, persistence.BatchFailed, ""); err != nil {
				return "", err
			}
			requests[i].State = persistence.BatchFailed
			anyFailed = true
			continue
		}

		out, usage, err := e.Provider.Summarize(ctx, req.Prompt, "compaction:batch", outputTokenBudget(persistence.ScaleHourly, e.effectiveSummaryMaxChars()))
		record := usage
		var lerr *llm.Error
		if err != nil && errors.As(err, &lerr) && lerr.Usage != nil {
			record = *lerr.Usage
		}
		if e.Store.Usage != nil {
			_ = e.Store.Usage.Record(ctx, userID, record)
		}
		if err != nil {
			if cmplErr := e.Store.Batches.CompleteRequest(ctx, req.ID, persistence.BatchFailed, ""); cmplErr != nil {
				return "", cmplErr
			}
			requests[i].State = persistence.BatchFailed
			anyFailed = true
			continue
		}

		if cmplErr := e.Store.Batches.CompleteRequest(ctx, req.ID, persistence.BatchCompleted, out); cmplErr != nil {
			return "", cmplErr
		}
		requests[i].State = persistence.BatchCompleted
		if err := e.saveBatchResult(ctx, userID, projectPath, req.SnapshotID, out); err != nil {
			e.Logger.Warn().Err(err).Str("snapshot_id", req.SnapshotID).Msg("failed to save batch result as summary")
		}
	}

	final := persistence.BatchCompleted
	if anyFailed && len(requests) > 0 && allRequestsFailed(requests) {
		final = persistence.BatchFailed
	}
	if err := e.Store.Batches.UpdateState(ctx, jobID, final); err != nil {
		return "", fmt.Errorf("compaction: mark batch terminal: %w", err)
	}
	return final, nil
}

func allRequestsFailed(requests []persistence.BatchRequest) bool {
	for _, r := range requests {
		if r.State == persistence.BatchCompleted {
			return false
		}
	}
	return true
}

// saveBatchResult persists a completed batch request's text as the hourly
// WorkSummary for its snapshot's hour bucket.
func (e *Engine) saveBatchResult(ctx context.Context, userID, projectPath, snapshotID, text string) error {
	if snapshotID == "" {
		return nil
	}

	snap, err := e.snapshotByID(ctx, snapshotID)
	if err != nil {
		return err
	}
	llmTag := "llm"
	_, err = e.Store.Summaries.Upsert(ctx, persistence.WorkSummary{
		UserID:            userID,
		ProjectPath:       projectPath,
		Scale:             persistence.ScaleHourly,
		PeriodStart:       snap.HourBucket,
		PeriodEnd:         addHour(snap.HourBucket),
		Summary:           text,
		SourceSnapshotIDs: []string{snap.ID},
		LLMModel:          &llmTag,
	})
	return err
}

func (e *Engine) snapshotByID(ctx context.Context, id string) (persistence.SnapshotRawData, error) {
	return e.Store.Snapshots.GetByID(ctx, id)
}

func addHour(hourBucket string) string {
	t, err := time.Parse("2006-01-02T15:00:00", hourBucket)
	if err != nil {
		return hourBucket
	}
	return t.Add(time.Hour).Format("2006-01-02T15:00:00")
}
