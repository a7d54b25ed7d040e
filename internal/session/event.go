// Package session parses coding-assistant session transcripts (JSONL files
// or equivalent in-memory structures from an HTTP-API source) into
// normalized event records.
package session

import "time"

// Role is the speaker of an Event.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Content is a tagged union over the shapes a transcript message body can
// take: plain text, a single tool invocation, or a nested array of blocks.
// Unknown block types are kept as BlockOther entries rather than treated
// as an error.
type Content struct {
	Text    string
	Tool    *ToolUse
	Blocks  []Block
	IsArray bool
}

// ToolUse is a single tool invocation extracted from a message.
type ToolUse struct {
	Name  string
	Input map[string]any
}

// BlockType discriminates entries inside an Array content payload.
type BlockType string

const (
	BlockText    BlockType = "text"
	BlockToolUse BlockType = "tool_use"
	BlockOther   BlockType = "other"
)

// Block is one entry of an Array content payload.
type Block struct {
	Type BlockType
	Text string
	Tool *ToolUse
}

// Event is one normalized transcript record.
type Event struct {
	Timestamp time.Time
	Role      Role
	Content   Content

	// Metadata, present on some sources, absent on others.
	CWD       string
	SessionID string
	AgentID   string
	GitBranch string
}

// IsMeaningful reports whether a user event passes the meaningful-message
// filter: trimmed, case-folded text that is not "warmup" (or prefixed with
// it), does not start with a command/system tag, and is at least 10
// characters long.
func (e Event) IsMeaningful() bool {
	if e.Role != RoleUser {
		return false
	}
	return IsMeaningfulText(e.Content.Text)
}

// IsMeaningfulText applies the meaningful-message filter to raw text,
// independent of any Event wrapper.
func IsMeaningfulText(text string) bool {
	trimmed := trimAndFold(text)
	if trimmed == "" {
		return false
	}
	if trimmed == "warmup" || hasPrefixFold(trimmed, "warmup") {
		return false
	}
	if hasPrefixFold(trimmed, "<command-") || hasPrefixFold(trimmed, "<system-") {
		return false
	}
	return len([]rune(trimmed)) >= 10
}
