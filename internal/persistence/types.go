package persistence

import "time"

// SnapshotRawData is one row per (user, session, hour_bucket). See
// spec.md §3.
type SnapshotRawData struct {
	ID                 string
	UserID             string
	SessionID          string
	ProjectPath        string
	HourBucket         string // YYYY-MM-DDThh:00:00, naive local
	UserMessages       []string
	AssistantSummaries []string
	ToolCalls          []ToolCall
	FilesModified      []string
	GitCommits         []GitCommit
	MessageCount       int
	RawSizeBytes       int
	CreatedAt          time.Time
}

type ToolCall struct {
	Tool         string    `json:"tool"`
	InputSummary string    `json:"input_summary"`
	Timestamp    time.Time `json:"timestamp"`
}

type GitCommit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Additions int       `json:"additions"`
	Deletions int       `json:"deletions"`
}

// Scale enumerates WorkSummary rollup levels.
type Scale string

const (
	ScaleHourly  Scale = "hourly"
	ScaleDaily   Scale = "daily"
	ScaleWeekly  Scale = "weekly"
	ScaleMonthly Scale = "monthly"
	ScaleYearly  Scale = "yearly"
)

// WorkSummary is one row per (user, project_path, scale, period_start). See
// spec.md §3.
type WorkSummary struct {
	ID                string
	UserID            string
	ProjectPath       string
	Scale             Scale
	PeriodStart       string
	PeriodEnd         string
	Summary           string
	KeyActivities     []string
	GitCommitsSummary []string
	PreviousContext   *string
	SourceSnapshotIDs []string
	LLMModel          *string // nil => rule-based
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HoursSource enumerates where a WorkItem's Hours value came from.
type HoursSource string

const (
	HoursSourceSession      HoursSource = "session"
	HoursSourceUserModified HoursSource = "user_modified"
)

// WorkItem is one row per unit of reported work. See spec.md §3.
type WorkItem struct {
	ID             string
	UserID         string
	Source         string // claude_code | antigravity | gitlab | manual | aggregated
	SourceID       string
	ContentHash    string
	Title          string
	Description    string
	Hours          float64
	Date           string
	HoursSource    HoursSource
	HoursEstimated bool
	StartTime      *time.Time
	EndTime        *time.Time
	ProjectPath    string
	SessionID      string
	CommitHash     *string
	ParentID       *string
	JiraKey        *string
	Synced         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BatchState enumerates the asynchronous batch job state machine.
type BatchState string

const (
	BatchCreated    BatchState = "created"
	BatchSubmitted  BatchState = "submitted"
	BatchInProgress BatchState = "in_progress"
	BatchCompleted  BatchState = "completed"
	BatchFailed     BatchState = "failed"
	BatchExpired    BatchState = "expired"
	BatchCancelled  BatchState = "cancelled"
)

// IsTerminal reports whether s is a terminal batch state.
func (s BatchState) IsTerminal() bool {
	switch s {
	case BatchCompleted, BatchFailed, BatchExpired, BatchCancelled:
		return true
	default:
		return false
	}
}

// BatchJob is one asynchronous LLM-batch submission.
type BatchJob struct {
	ID              string
	UserID          string
	Provider        string
	ProviderBatchID string
	State           BatchState
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BatchRequest is one constituent request of a BatchJob.
type BatchRequest struct {
	ID         string
	BatchJobID string
	SnapshotID string
	Prompt     string
	State      BatchState
	Result     *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SyncState enumerates adapter health, supplemental to spec.md (grounded
// on original_source's SyncService).
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSyncing SyncState = "syncing"
	SyncSuccess SyncState = "success"
	SyncError   SyncState = "error"
)

// SyncStatus tracks one source adapter's health for one user.
type SyncStatus struct {
	UserID       string
	Source       string
	State        SyncState
	LastSyncedAt *time.Time
	LastError    *string
}

// UsageLog persists one llm.UsageRecord.
type UsageLog struct {
	ID               string
	UserID           string
	Provider         string
	Model            string
	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
	DurationMS       int64
	Purpose          string
	Status           string
	ErrorMessage     *string
	CreatedAt        time.Time
}
