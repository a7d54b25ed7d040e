package session

import "testing"

func TestIsMeaningfulText(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"warmup", false},
		{"Warmup please", false},
		{"<command-x>", false},
		{"<system-reminder>stuff</system-reminder>", false},
		{"hi", false},
		{"Help me implement X", true},
	}
	for _, c := range cases {
		if got := IsMeaningfulText(c.text); got != c.want {
			t.Errorf("IsMeaningfulText(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestInputSummary(t *testing.T) {
	cases := []struct {
		name  string
		tool  ToolUse
		want  string
	}{
		{
			name: "edit shortens deep path",
			tool: ToolUse{Name: "Edit", Input: map[string]any{"file_path": "/a/b/c/d/e.go"}},
			want: ".../c/d/e.go",
		},
		{
			name: "bash truncates",
			tool: ToolUse{Name: "Bash", Input: map[string]any{"command": string(make([]byte, 80))}},
		},
		{
			name: "grep passes pattern verbatim",
			tool: ToolUse{Name: "Grep", Input: map[string]any{"pattern": "func Foo"}},
			want: "func Foo",
		},
		{
			name: "unknown tool has no summary",
			tool: ToolUse{Name: "WebFetch", Input: map[string]any{"url": "https://example.com"}},
			want: "",
		},
	}
	for _, c := range cases {
		got := InputSummary(c.tool)
		if c.name == "bash truncates" {
			if len([]rune(got)) != 61 {
				t.Errorf("%s: got len %d, want 61 (60 + ellipsis)", c.name, len([]rune(got)))
			}
			continue
		}
		if got != c.want {
			t.Errorf("%s: InputSummary = %q, want %q", c.name, got, c.want)
		}
	}
}
