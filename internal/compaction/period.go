// Package compaction rolls up hourly snapshots into progressively coarser
// WorkSummary rows (hourly -> daily -> weekly -> monthly), using an LLM when
// configured and a rule-based generator otherwise.
package compaction

import (
	"time"

	"recap/internal/persistence"
)

// hourBounds returns the [start, end) naive-local hour_bucket strings for
// the hour containing t. Uses a calendar construction rather than
// time.Truncate, which truncates on the absolute instant and mis-buckets
// half-hour-offset zones (e.g. UTC+5:30).
func hourBounds(t time.Time) (start, end string) {
	h := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	return h.Format("2006-01-02T15:04:05"), h.Add(time.Hour).Format("2006-01-02T15:04:05")
}

// dayBounds returns the [start, end) RFC3339 period bounds (legacy +00:00
// suffix, per spec.md §4.5) for the calendar day containing t.
func dayBounds(t time.Time) (start, end string) {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return rfc3339(d), rfc3339(d.AddDate(0, 0, 1))
}

// weekBounds returns the [start, end) bounds of the ISO week (Monday start)
// containing t.
func weekBounds(t time.Time) (start, end string) {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(d.Weekday()) + 6) % 7 // Sunday=0 -> 6 days back to Monday
	monday := d.AddDate(0, 0, -back)
	return rfc3339(monday), rfc3339(monday.AddDate(0, 0, 7))
}

// monthBounds returns the [start, end) calendar-month bounds containing t.
func monthBounds(t time.Time) (start, end string) {
	m := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return rfc3339(m), rfc3339(m.AddDate(0, 1, 0))
}

func rfc3339(t time.Time) string {
	return t.Format("2006-01-02T15:04:05") + "+00:00"
}

// isCompleted reports whether the period [start, end) ended strictly before
// now, per the idempotence rule (spec.md §4.5): completed periods are
// skipped if a summary already exists.
func isCompleted(end string, scale persistence.Scale, now time.Time) bool {
	layout := "2006-01-02T15:04:05"
	if scale == persistence.ScaleHourly {
		// end is a naive-local hour_bucket string; parse it in now's zone
		// rather than as UTC, or a completed hour looks incomplete (and
		// vice versa) on any non-UTC system.
		t, err := time.ParseInLocation(layout, end, now.Location())
		if err != nil {
			return false
		}
		return t.Before(now)
	}
	raw := end[:len(end)-len("+00:00")]
	t, err := time.Parse(layout, raw)
	if err != nil {
		return false
	}
	return t.Before(now.UTC())
}
