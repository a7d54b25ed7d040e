package session

import "strings"

var fileTools = map[string]bool{"Edit": true, "Write": true, "Read": true}
var patternTools = map[string]bool{"Glob": true, "Grep": true}
var agentTools = map[string]bool{"Agent": true, "Task": true}

// InputSummary derives the short, loggable summary of a tool invocation per
// the tool-call normalization rules: file-touching tools shorten to the
// last three path segments, Bash truncates to 60 chars, pattern-search
// tools pass through verbatim, Agent/Task truncate to 50 chars, everything
// else has no summary.
func InputSummary(tool ToolUse) string {
	switch {
	case fileTools[tool.Name]:
		path, _ := tool.Input["file_path"].(string)
		if path == "" {
			path, _ = tool.Input["path"].(string)
		}
		return shortenPath(path)
	case tool.Name == "Bash":
		cmd, _ := tool.Input["command"].(string)
		return truncate(cmd, 60, "…")
	case patternTools[tool.Name]:
		pattern, _ := tool.Input["pattern"].(string)
		return pattern
	case agentTools[tool.Name]:
		desc, _ := tool.Input["description"].(string)
		return truncate(desc, 50, "")
	default:
		return ""
	}
}

// shortenPath reduces a path to its last three segments, prefixed with
// ".../" when it was deeper than three segments.
func shortenPath(path string) string {
	if path == "" {
		return ""
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) <= 3 {
		return path
	}
	return ".../" + strings.Join(segs[len(segs)-3:], "/")
}
