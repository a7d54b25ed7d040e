package compaction

import (
	"strings"
	"testing"

	"recap/internal/persistence"
)

func TestAggregateHourly_CapsMessagesAndToolCalls(t *testing.T) {
	var msgs []string
	for i := 0; i < 15; i++ {
		msgs = append(msgs, "msg")
	}
	var tools []persistence.ToolCall
	for i := 0; i < 25; i++ {
		tools = append(tools, persistence.ToolCall{Tool: "Read", InputSummary: "f.go"})
	}
	snap := persistence.SnapshotRawData{UserMessages: msgs, ToolCalls: tools, FilesModified: []string{"a.go", "a.go", "b.go"}}

	text, _, files := aggregateHourly([]persistence.SnapshotRawData{snap})

	if strings.Count(text, "msg") != 10 {
		t.Fatalf("expected 10 messages, got %d occurrences", strings.Count(text, "msg"))
	}
	if strings.Count(text, "Read(f.go)") != 20 {
		t.Fatalf("expected 20 tool calls, got %d", strings.Count(text, "Read(f.go)"))
	}
	if len(files) != 2 {
		t.Fatalf("expected deduped files, got %v", files)
	}
}

func TestTargetChars_ScalesPerTable(t *testing.T) {
	const c = 800
	cases := map[persistence.Scale]int{
		persistence.ScaleHourly:  100,
		persistence.ScaleDaily:   200,
		persistence.ScaleWeekly:  400,
		persistence.ScaleMonthly: 600,
		persistence.ScaleYearly:  800,
	}
	for scale, want := range cases {
		if got := targetChars(scale, c); got != want {
			t.Errorf("%s: got %d want %d", scale, got, want)
		}
	}
}
