package session

import (
	"strings"
	"testing"
)

func TestParseReader_SkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"timestamp":"2026-01-26T14:00:00+00:00","message":{"role":"user","content":"hello there"}}`,
		`not json at all`,
		`{"timestamp":"bad-timestamp","message":{"role":"user","content":"ignored"}}`,
		`{"timestamp":"2026-01-26T14:05:00+00:00","message":{"role":"assistant","content":[{"type":"text","text":"ok"},{"type":"tool_use","name":"Edit","input":{"file_path":"/a/b.go"}}]}}`,
	}, "\n")

	events, err := ParseReader("test", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Content.Text != "hello there" {
		t.Errorf("first event text = %q", events[0].Content.Text)
	}
	if !events[1].Content.IsArray || len(events[1].Content.Blocks) != 2 {
		t.Fatalf("second event blocks = %+v", events[1].Content)
	}
	if events[1].Content.Blocks[1].Tool == nil || events[1].Content.Blocks[1].Tool.Name != "Edit" {
		t.Errorf("expected tool_use block for Edit, got %+v", events[1].Content.Blocks[1])
	}
}

func TestParseReader_EmptyFileYieldsNoEvents(t *testing.T) {
	events, err := ParseReader("empty", strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}

func TestParseReader_AllLinesInvalid(t *testing.T) {
	_, err := ParseReader("bad", strings.NewReader("not json\nalso not json"))
	if err == nil {
		t.Fatal("expected error when every line fails to parse")
	}
}
