package store

// migrations are applied in order; schema_version records progress.
var migrations = []string{
	// v1: core event/session/agent tables
	`
	CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		working_directory TEXT NOT NULL DEFAULT '',
		event_count INTEGER NOT NULL DEFAULT 0,
		agent_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE agents (
		id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		first_seen_at TEXT NOT NULL,
		last_activity_at TEXT NOT NULL,
		tool_call_count INTEGER NOT NULL DEFAULT 0,
		error_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (id, session_id)
	);
	CREATE TABLE events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		agent_id TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL,
		hook_kind TEXT NOT NULL,
		category TEXT NOT NULL,
		tool TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		input TEXT NOT NULL DEFAULT '',
		output TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		metadata TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX idx_events_session ON events(session_id, timestamp);
	`,
	// v2: planning tables (tasks, sprints)
	`
	CREATE TABLE tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		sprint_id TEXT NOT NULL DEFAULT '',
		section TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		status TEXT NOT NULL,
		depends_on TEXT NOT NULL DEFAULT '[]',
		blocked_by TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		completed_at TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX idx_tasks_project ON tasks(project_id, status);
	CREATE TABLE sprints (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		order_num INTEGER NOT NULL DEFAULT 1,
		completed_tasks INTEGER NOT NULL DEFAULT 0,
		total_tasks INTEGER NOT NULL DEFAULT 0
	);
	`,
	// v3: correlation tables
	`
	CREATE TABLE agent_task_bindings (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		task_id TEXT NOT NULL,
		confidence REAL NOT NULL,
		bound_at TEXT NOT NULL,
		expired_at TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX idx_bindings_session ON agent_task_bindings(session_id, expired_at);
	CREATE TABLE task_items (
		agent_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		subject TEXT NOT NULL,
		status TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (agent_id, session_id, subject)
	);
	CREATE TABLE file_changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		agent_id TEXT NOT NULL DEFAULT '',
		event_id TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL,
		tool TEXT NOT NULL DEFAULT '',
		changed_at TEXT NOT NULL
	);
	CREATE TABLE correlation_audit (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		agent_id TEXT NOT NULL DEFAULT '',
		session_id TEXT NOT NULL DEFAULT '',
		confidence REAL NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		reason TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`,
}
