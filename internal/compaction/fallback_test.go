package compaction

import (
	"strings"
	"testing"

	"recap/internal/persistence"
)

func TestRuleBasedSummary_BoundaryScenario(t *testing.T) {
	commits := []persistence.GitCommit{
		{Hash: "abc123", Message: "feat: add login", Additions: 50, Deletions: 10},
	}
	files := []string{"src/main.rs", "src/lib.rs"}

	got := ruleBasedSummary(commits, files, "")

	lines := strings.Split(got, "\n")
	if !strings.Contains(lines[0], "1 筆 commit") {
		t.Fatalf("header missing commit count: %q", lines[0])
	}
	if !strings.Contains(lines[0], "修改 2 個檔案") {
		t.Fatalf("header missing file count: %q", lines[0])
	}
	if !strings.Contains(got, "- abc123: feat: add login") {
		t.Fatalf("missing commit bullet: %q", got)
	}
	if !strings.Contains(got, "- 修改: `src/main.rs`, `src/lib.rs`") {
		t.Fatalf("missing files bullet: %q", got)
	}
}

func TestRuleBasedSummary_NoCommitsOrFilesFallsBackToText(t *testing.T) {
	text := strings.Repeat("x", 300)
	got := ruleBasedSummary(nil, nil, text)
	if len([]rune(got)) != 200 {
		t.Fatalf("expected 200-rune truncation, got %d", len([]rune(got)))
	}
}

func TestRuleBasedSummary_CapsAtFiveBullets(t *testing.T) {
	var commits []persistence.GitCommit
	for i := 0; i < 8; i++ {
		commits = append(commits, persistence.GitCommit{Hash: "h", Message: "m"})
	}
	got := ruleBasedSummary(commits, nil, "")
	if strings.Count(got, "- h: m") != 5 {
		t.Fatalf("expected exactly 5 commit bullets, got: %q", got)
	}
}
