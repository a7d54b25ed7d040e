package persistence

const schemaSnapshots = `
CREATE TABLE IF NOT EXISTS snapshot_raw_data (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	project_path TEXT NOT NULL,
	hour_bucket TEXT NOT NULL,
	user_messages TEXT NOT NULL DEFAULT '[]',
	assistant_summaries TEXT NOT NULL DEFAULT '[]',
	tool_calls TEXT NOT NULL DEFAULT '[]',
	files_modified TEXT NOT NULL DEFAULT '[]',
	git_commits TEXT NOT NULL DEFAULT '[]',
	message_count INTEGER NOT NULL DEFAULT 0,
	raw_size_bytes INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_session_hour
	ON snapshot_raw_data(user_id, session_id, hour_bucket);
`

const schemaSummaries = `
CREATE TABLE IF NOT EXISTS work_summaries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	project_path TEXT NOT NULL,
	scale TEXT NOT NULL,
	period_start TEXT NOT NULL,
	period_end TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	key_activities TEXT NOT NULL DEFAULT '[]',
	git_commits_summary TEXT NOT NULL DEFAULT '[]',
	previous_context TEXT,
	source_snapshot_ids TEXT NOT NULL DEFAULT '[]',
	llm_model TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_summaries_unique
	ON work_summaries(user_id, project_path, scale, period_start);
`

const schemaWorkItems = `
CREATE TABLE IF NOT EXISTS work_items (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	source TEXT NOT NULL,
	source_id TEXT,
	content_hash TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	hours REAL NOT NULL DEFAULT 0,
	date TEXT NOT NULL,
	hours_source TEXT NOT NULL DEFAULT 'session',
	hours_estimated INTEGER NOT NULL DEFAULT 0,
	start_time TEXT,
	end_time TEXT,
	project_path TEXT,
	session_id TEXT,
	commit_hash TEXT,
	parent_id TEXT,
	jira_key TEXT,
	synced INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_work_items_unique
	ON work_items(user_id, content_hash);
CREATE INDEX IF NOT EXISTS idx_work_items_source
	ON work_items(user_id, source, commit_hash);
`

const schemaBatchJobs = `
CREATE TABLE IF NOT EXISTS batch_jobs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	provider_batch_id TEXT,
	state TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_batch_jobs_user_state
	ON batch_jobs(user_id, state);
`

const schemaBatchRequests = `
CREATE TABLE IF NOT EXISTS batch_requests (
	id TEXT PRIMARY KEY,
	batch_job_id TEXT NOT NULL,
	snapshot_id TEXT NOT NULL,
	prompt TEXT NOT NULL,
	state TEXT NOT NULL,
	result TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_batch_requests_job
	ON batch_requests(batch_job_id);
`

const schemaSyncStatus = `
CREATE TABLE IF NOT EXISTS sync_status (
	user_id TEXT NOT NULL,
	source TEXT NOT NULL,
	state TEXT NOT NULL,
	last_synced_at TEXT,
	last_error TEXT,
	PRIMARY KEY (user_id, source)
);
`

const schemaUsageLog = `
CREATE TABLE IF NOT EXISTS llm_usage_log (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt_tokens INTEGER,
	completion_tokens INTEGER,
	total_tokens INTEGER,
	duration_ms INTEGER NOT NULL,
	purpose TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TEXT NOT NULL
);
`
