package llm

import "strings"

// IsTrivialText reports whether trimmed text has fewer than 20 characters —
// the threshold at which a Responses API result is treated as model
// exhaustion by reasoning rather than a usable summary.
func IsTrivialText(text string) bool {
	return len([]rune(strings.TrimSpace(text))) < 20
}
