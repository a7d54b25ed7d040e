package compaction

import (
	"fmt"
	"strings"

	"recap/internal/persistence"
)

const maxHourlyMessages = 10
const maxHourlyToolCalls = 20

// lengthSpec is one row of the scale-to-length mapping (spec.md §4.5).
type lengthSpec struct {
	targetCharsNumerator   int
	targetCharsDenominator int
	inputCap               int
}

func lengthSpecFor(scale persistence.Scale) lengthSpec {
	switch scale {
	case persistence.ScaleHourly:
		return lengthSpec{1, 8, 4000}
	case persistence.ScaleDaily:
		return lengthSpec{1, 4, 6000}
	case persistence.ScaleWeekly:
		return lengthSpec{1, 2, 8000}
	case persistence.ScaleMonthly:
		return lengthSpec{3, 4, 10000}
	default: // yearly
		return lengthSpec{1, 1, 12000}
	}
}

// targetChars returns the target summary length for scale given the
// operator-configured base summaryMaxChars (C).
func targetChars(scale persistence.Scale, summaryMaxChars int) int {
	l := lengthSpecFor(scale)
	return summaryMaxChars * l.targetCharsNumerator / l.targetCharsDenominator
}

// outputTokenBudget is 2x the target character count, per the table.
func outputTokenBudget(scale persistence.Scale, summaryMaxChars int) int {
	return 2 * targetChars(scale, summaryMaxChars)
}

// aggregateHourly renders one hour's snapshots into a single prompt-ready
// text block: up to 10 user messages, tool calls as "Tool(input_summary)"
// up to 20, all files modified, and commit lines "hash: msg (+add-del)".
func aggregateHourly(snapshots []persistence.SnapshotRawData) (text string, commits []persistence.GitCommit, files []string) {
	var b strings.Builder
	seenFiles := map[string]bool{}

	msgCount := 0
	for _, snap := range snapshots {
		for _, m := range snap.UserMessages {
			if msgCount >= maxHourlyMessages {
				break
			}
			b.WriteString(m)
			b.WriteString("\n")
			msgCount++
		}
	}

	toolCount := 0
	for _, snap := range snapshots {
		for _, tc := range snap.ToolCalls {
			if toolCount >= maxHourlyToolCalls {
				break
			}
			fmt.Fprintf(&b, "%s(%s)\n", tc.Tool, tc.InputSummary)
			toolCount++
		}
	}

	for _, snap := range snapshots {
		for _, f := range snap.FilesModified {
			if !seenFiles[f] {
				seenFiles[f] = true
				files = append(files, f)
				b.WriteString(f)
				b.WriteString("\n")
			}
		}
	}

	for _, snap := range snapshots {
		for _, c := range snap.GitCommits {
			commits = append(commits, c)
			fmt.Fprintf(&b, "%s: %s (+%d-%d)\n", c.Hash, c.Message, c.Additions, c.Deletions)
		}
	}

	return strings.TrimRight(b.String(), "\n"), commits, files
}

// aggregatePeriod concatenates prior-level summaries as "[period_start]
// summary" for daily/weekly/monthly/yearly roll-ups.
func aggregatePeriod(summaries []persistence.WorkSummary) string {
	var b strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&b, "[%s] %s\n", s.PeriodStart, s.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}
