package compaction

import (
	"fmt"
	"strings"

	"recap/internal/persistence"
)

const maxFallbackBullets = 5
const maxFallbackTextLen = 200

// ruleBasedSummary produces a deterministic summary when no LLM is
// configured or the LLM call failed, per spec.md §4.5 step 4's fallback:
// a one-line metric header ("N 筆 commit, 修改 M 個檔案"), up to 5 commit
// bullets, and a files-modified bullet; or, with neither commits nor files,
// the first 200 characters of the aggregated text.
func ruleBasedSummary(commits []persistence.GitCommit, files []string, aggregatedText string) string {
	if len(commits) == 0 && len(files) == 0 {
		return truncateRunes(aggregatedText, maxFallbackTextLen)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d 筆 commit, 修改 %d 個檔案\n", len(commits), len(files))

	n := len(commits)
	if n > maxFallbackBullets {
		n = maxFallbackBullets
	}
	for i := 0; i < n; i++ {
		c := commits[i]
		msg := c.Message
		if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
			msg = msg[:idx]
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.Hash, msg)
	}

	if len(files) > 0 {
		quoted := make([]string, len(files))
		for i, f := range files {
			quoted[i] = "`" + f + "`"
		}
		fmt.Fprintf(&b, "- 修改: %s\n", strings.Join(quoted, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
