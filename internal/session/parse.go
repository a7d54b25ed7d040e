package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// rawLine mirrors one JSONL record: {timestamp, message:{role, content},
// cwd?, sessionId?, agentId?, gitBranch?}.
type rawLine struct {
	Timestamp string `json:"timestamp"`
	Message   struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
	CWD       string `json:"cwd"`
	SessionID string `json:"sessionId"`
	AgentID   string `json:"agentId"`
	GitBranch string `json:"gitBranch"`
}

// rawBlock mirrors one entry of an array-shaped content payload.
type rawBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ErrEmptyOrUnreadable is returned when the file cannot be opened, or every
// non-blank line in it fails to parse.
type ErrEmptyOrUnreadable struct {
	Path string
	Err  error
}

func (e *ErrEmptyOrUnreadable) Error() string {
	return fmt.Sprintf("session: %s: %v", e.Path, e.Err)
}

func (e *ErrEmptyOrUnreadable) Unwrap() error { return e.Err }

// Parse reads a JSONL transcript file and returns its events ordered by
// their embedded timestamp, skipping malformed lines. An empty file yields
// an empty, non-error result. A file that cannot be opened, or in which
// every non-blank line fails to parse, returns ErrEmptyOrUnreadable.
func Parse(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ErrEmptyOrUnreadable{Path: path, Err: err}
	}
	defer f.Close()
	return ParseReader(path, f)
}

// ParseReader parses transcript content from an already-open reader. path
// is used only for error messages.
func ParseReader(path string, r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var events []Event
	totalLines := 0
	parsedLines := 0

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytesTrimSpace(line)) == 0 {
			continue
		}
		totalLines++

		var raw rawLine
		if err := json.Unmarshal(line, &raw); err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw.Timestamp)
		if err != nil {
			continue
		}
		content, ok := parseContent(raw.Message.Content)
		if !ok {
			continue
		}

		parsedLines++
		events = append(events, Event{
			Timestamp: ts,
			Role:      Role(raw.Message.Role),
			Content:   content,
			CWD:       raw.CWD,
			SessionID: raw.SessionID,
			AgentID:   raw.AgentID,
			GitBranch: raw.GitBranch,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ErrEmptyOrUnreadable{Path: path, Err: err}
	}
	if totalLines > 0 && parsedLines == 0 {
		return nil, &ErrEmptyOrUnreadable{Path: path, Err: fmt.Errorf("no line parsed")}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
	return events, nil
}

func parseContent(raw json.RawMessage) (Content, bool) {
	if len(raw) == 0 {
		return Content{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Content{Text: s}, true
	}

	var blocks []rawBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		out := make([]Block, 0, len(blocks))
		for _, b := range blocks {
			switch b.Type {
			case "text":
				out = append(out, Block{Type: BlockText, Text: b.Text})
			case "tool_use":
				var input map[string]any
				_ = json.Unmarshal(b.Input, &input)
				out = append(out, Block{Type: BlockToolUse, Tool: &ToolUse{Name: b.Name, Input: input}})
			default:
				out = append(out, Block{Type: BlockOther})
			}
		}
		return Content{Blocks: out, IsArray: true}, true
	}

	var single rawBlock
	if err := json.Unmarshal(raw, &single); err == nil && single.Type == "tool_use" {
		var input map[string]any
		_ = json.Unmarshal(single.Input, &input)
		return Content{Tool: &ToolUse{Name: single.Name, Input: input}}, true
	}

	return Content{}, false
}

func bytesTrimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
