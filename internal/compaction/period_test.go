package compaction

import (
	"testing"
	"time"

	"recap/internal/persistence"
)

func TestWeekBounds_MondayStart(t *testing.T) {
	// 2026-01-28 is a Wednesday; the ISO week runs Mon 2026-01-26 .. Mon 2026-02-02.
	wed := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	start, end := weekBounds(wed)
	if start != "2026-01-26T00:00:00+00:00" {
		t.Fatalf("start = %q", start)
	}
	if end != "2026-02-02T00:00:00+00:00" {
		t.Fatalf("end = %q", end)
	}
}

func TestWeekBounds_Sunday(t *testing.T) {
	sun := time.Date(2026, 2, 1, 23, 0, 0, 0, time.UTC)
	start, end := weekBounds(sun)
	if start != "2026-01-26T00:00:00+00:00" {
		t.Fatalf("start = %q", start)
	}
	if end != "2026-02-02T00:00:00+00:00" {
		t.Fatalf("end = %q", end)
	}
}

func TestMonthBounds(t *testing.T) {
	mid := time.Date(2026, 1, 26, 22, 0, 0, 0, time.UTC)
	start, end := monthBounds(mid)
	if start != "2026-01-01T00:00:00+00:00" || end != "2026-02-01T00:00:00+00:00" {
		t.Fatalf("got %q %q", start, end)
	}
}

func TestIsCompleted(t *testing.T) {
	now := time.Date(2026, 1, 27, 12, 0, 0, 0, time.UTC)
	if !isCompleted("2026-01-27T00:00:00+00:00", persistence.ScaleDaily, now) {
		t.Fatal("yesterday's day (ending at today's midnight) should be completed")
	}
	if isCompleted("2026-01-28T00:00:00+00:00", persistence.ScaleDaily, now) {
		t.Fatal("today's in-progress day should not be completed yet")
	}
}

func TestIsCompleted_HourlyNonUTCZone(t *testing.T) {
	// hour_bucket strings are naive local; a non-UTC zone must not be
	// compared against a UTC-parsed instant.
	loc := time.FixedZone("UTC+9", 9*60*60)
	now := time.Date(2026, 1, 27, 21, 30, 0, 0, loc)

	if !isCompleted("2026-01-27T21:00:00", persistence.ScaleHourly, now) {
		t.Fatal("the 20:00-21:00 local hour has ended and should be completed")
	}
	if isCompleted("2026-01-27T22:00:00", persistence.ScaleHourly, now) {
		t.Fatal("the in-progress 21:00-22:00 local hour should not be completed yet")
	}
}
