package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, zero CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
// The database file is created with 0600 permissions and its parent directory with 0700.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				return nil, fmt.Errorf("creating database file: %w", err)
			}
			_ = f.Close()
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		slog.Info("applying migration", "version", i+1)
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", i+1); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Sessions ---

func (s *SQLiteStore) CreateSession(rec *SessionRecord) error {
	_, err := s.db.Exec(`INSERT INTO sessions (id, started_at, ended_at, status, working_directory, event_count, agent_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, formatTime(rec.StartedAt), formatTime(rec.EndedAt), rec.Status,
		rec.WorkingDirectory, rec.EventCount, rec.AgentCount)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(id string) (*SessionRecord, error) {
	var rec SessionRecord
	var startedAt, endedAt string
	err := s.db.QueryRow(`SELECT id, started_at, ended_at, status, working_directory, event_count, agent_count
		FROM sessions WHERE id = ?`, id).
		Scan(&rec.ID, &startedAt, &endedAt, &rec.Status, &rec.WorkingDirectory, &rec.EventCount, &rec.AgentCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	rec.StartedAt = parseTime(startedAt)
	rec.EndedAt = parseTime(endedAt)
	return &rec, nil
}

func (s *SQLiteStore) UpdateSessionStatus(id string, status SessionStatus, endedAt time.Time) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ?, ended_at = ? WHERE id = ?",
		status, formatTime(endedAt), id)
	if err != nil {
		return fmt.Errorf("updating session status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IncrementSessionEvents(id string) error {
	_, err := s.db.Exec("UPDATE sessions SET event_count = event_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("incrementing session events: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IncrementSessionAgents(id string) error {
	_, err := s.db.Exec("UPDATE sessions SET agent_count = agent_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("incrementing session agents: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSessions(limit int) ([]SessionRecord, error) {
	query := `SELECT id, started_at, ended_at, status, working_directory, event_count, agent_count
		FROM sessions ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.Status, &rec.WorkingDirectory, &rec.EventCount, &rec.AgentCount); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		rec.StartedAt = parseTime(startedAt)
		rec.EndedAt = parseTime(endedAt)
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

// --- Agents ---

func (s *SQLiteStore) CreateAgent(a *AgentRecord) error {
	_, err := s.db.Exec(`INSERT INTO agents (id, session_id, name, type, status, first_seen_at, last_activity_at, tool_call_count, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.Name, a.Type, a.Status,
		formatTime(a.FirstSeenAt), formatTime(a.LastActivityAt), a.ToolCallCount, a.ErrorCount)
	if err != nil {
		return fmt.Errorf("inserting agent: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAgent(id, sessionID string) (*AgentRecord, error) {
	row := s.db.QueryRow(`SELECT id, session_id, name, type, status, first_seen_at, last_activity_at, tool_call_count, error_count
		FROM agents WHERE id = ? AND session_id = ?`, id, sessionID)
	a, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agent %q in session %q: %w", id, sessionID, ErrNotFound)
	}
	return a, err
}

func (s *SQLiteStore) UpdateAgentStatus(id, sessionID string, status AgentStatus) error {
	_, err := s.db.Exec("UPDATE agents SET status = ? WHERE id = ? AND session_id = ?", status, id, sessionID)
	if err != nil {
		return fmt.Errorf("updating agent status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RenameAgent(id, sessionID, name string) error {
	_, err := s.db.Exec("UPDATE agents SET name = ? WHERE id = ? AND session_id = ?", name, id, sessionID)
	if err != nil {
		return fmt.Errorf("renaming agent: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TouchAgent(id, sessionID string, at time.Time, toolCalls, errCount int) error {
	_, err := s.db.Exec(`UPDATE agents SET last_activity_at = ?,
		tool_call_count = tool_call_count + ?, error_count = error_count + ?
		WHERE id = ? AND session_id = ?`,
		formatTime(at), toolCalls, errCount, id, sessionID)
	if err != nil {
		return fmt.Errorf("touching agent: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAgents(sessionID string) ([]AgentRecord, error) {
	rows, err := s.db.Query(`SELECT id, session_id, name, type, status, first_seen_at, last_activity_at, tool_call_count, error_count
		FROM agents WHERE session_id = ? ORDER BY first_seen_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectAgents(rows)
}

func (s *SQLiteStore) AgentsInStatus(sessionID string, statuses ...AgentStatus) ([]AgentRecord, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, 0, len(statuses)+1)
	args = append(args, sessionID)
	for _, st := range statuses {
		args = append(args, st)
	}

	rows, err := s.db.Query(`SELECT id, session_id, name, type, status, first_seen_at, last_activity_at, tool_call_count, error_count
		FROM agents WHERE session_id = ? AND status IN (`+placeholders+`) ORDER BY first_seen_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing agents by status: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectAgents(rows)
}

// --- Events ---

func (s *SQLiteStore) InsertEvent(e *EventRecord) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		meta = []byte("{}")
	}
	_, err = s.db.Exec(`INSERT INTO events (id, session_id, agent_id, timestamp, hook_kind, category, tool, file_path, input, output, error, duration_ms, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.AgentID, formatTime(e.Timestamp), e.HookKind, e.Category,
		e.Tool, e.FilePath, e.Input, e.Output, e.Error, e.DurationMS, string(meta))
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListEvents(sessionID string, limit int) ([]EventRecord, error) {
	query := `SELECT id, session_id, agent_id, timestamp, hook_kind, category, tool, file_path, input, output, error, duration_ms, metadata
		FROM events WHERE session_id = ? ORDER BY timestamp DESC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		var ts, meta string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.AgentID, &ts, &e.HookKind, &e.Category,
			&e.Tool, &e.FilePath, &e.Input, &e.Output, &e.Error, &e.DurationMS, &meta); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Timestamp = parseTime(ts)
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &e.Metadata)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// --- Tasks ---

func (s *SQLiteStore) CreateTask(t *TaskRecord) error {
	dependsOn, _ := json.Marshal(t.DependsOn)
	blockedBy, _ := json.Marshal(t.BlockedBy)
	_, err := s.db.Exec(`INSERT INTO tasks (id, project_id, sprint_id, section, title, status, depends_on, blocked_by, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.SprintID, t.Section, t.Title, t.Status,
		string(dependsOn), string(blockedBy), formatTime(t.CreatedAt), formatTime(t.CompletedAt))
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTask(id string) (*TaskRecord, error) {
	row := s.db.QueryRow(`SELECT id, project_id, sprint_id, section, title, status, depends_on, blocked_by, created_at, completed_at
		FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return t, err
}

func (s *SQLiteStore) UpdateTaskStatus(id string, status TaskStatus, completedAt time.Time) error {
	_, err := s.db.Exec("UPDATE tasks SET status = ?, completed_at = ? WHERE id = ?",
		status, formatTime(completedAt), id)
	if err != nil {
		return fmt.Errorf("updating task status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListTasks(f TaskFilter) ([]TaskRecord, error) {
	query := `SELECT id, project_id, sprint_id, section, title, status, depends_on, blocked_by, created_at, completed_at
		FROM tasks WHERE 1=1`
	var args []interface{}

	if f.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Section != "" {
		query += " AND section = ?"
		args = append(args, f.Section)
	}
	if len(f.IDs) > 0 {
		placeholders := strings.Repeat("?,", len(f.IDs))
		query += " AND id IN (" + placeholders[:len(placeholders)-1] + ")"
		for _, id := range f.IDs {
			args = append(args, id)
		}
	}

	query += " ORDER BY created_at"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []TaskRecord
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// TasksMatchingTitle returns a project's tasks whose lowercased title
// contains the needle. Backs the gold-path title-similarity lookup.
func (s *SQLiteStore) TasksMatchingTitle(projectID, needle string) ([]TaskRecord, error) {
	rows, err := s.db.Query(`SELECT id, project_id, sprint_id, section, title, status, depends_on, blocked_by, created_at, completed_at
		FROM tasks WHERE project_id = ? AND lower(title) LIKE '%' || lower(?) || '%'`,
		projectID, needle)
	if err != nil {
		return nil, fmt.Errorf("matching tasks by title: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []TaskRecord
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// --- Sprints ---

func (s *SQLiteStore) CreateSprint(rec *SprintRecord) error {
	_, err := s.db.Exec(`INSERT INTO sprints (id, project_id, name, order_num, completed_tasks, total_tasks)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProjectID, rec.Name, rec.OrderNum, rec.CompletedTasks, rec.TotalTasks)
	if err != nil {
		return fmt.Errorf("inserting sprint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSprint(id string) (*SprintRecord, error) {
	var rec SprintRecord
	err := s.db.QueryRow(`SELECT id, project_id, name, order_num, completed_tasks, total_tasks
		FROM sprints WHERE id = ?`, id).
		Scan(&rec.ID, &rec.ProjectID, &rec.Name, &rec.OrderNum, &rec.CompletedTasks, &rec.TotalTasks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sprint %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting sprint: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) RecomputeSprintRollup(sprintID string) error {
	_, err := s.db.Exec(`UPDATE sprints SET
		total_tasks = (SELECT COUNT(*) FROM tasks WHERE sprint_id = ?),
		completed_tasks = (SELECT COUNT(*) FROM tasks WHERE sprint_id = ? AND status = 'completed')
		WHERE id = ?`, sprintID, sprintID, sprintID)
	if err != nil {
		return fmt.Errorf("recomputing sprint rollup: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ProjectRollup(projectID string) (int, int, error) {
	var completed, total int
	err := s.db.QueryRow(`SELECT
		COUNT(CASE WHEN status = 'completed' THEN 1 END), COUNT(*)
		FROM tasks WHERE project_id = ?`, projectID).
		Scan(&completed, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("computing project rollup: %w", err)
	}
	return completed, total, nil
}

// --- Bindings ---

func (s *SQLiteStore) CreateBinding(b *BindingRecord) error {
	_, err := s.db.Exec(`INSERT INTO agent_task_bindings (id, agent_id, session_id, task_id, confidence, bound_at, expired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.AgentID, b.SessionID, b.TaskID, b.Confidence, formatTime(b.BoundAt), formatTime(b.ExpiredAt))
	if err != nil {
		return fmt.Errorf("inserting binding: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ActiveBindingsForSession(sessionID string, minConfidence float64) ([]BindingRecord, error) {
	rows, err := s.db.Query(`SELECT id, agent_id, session_id, task_id, confidence, bound_at, expired_at
		FROM agent_task_bindings
		WHERE session_id = ? AND expired_at = '' AND confidence >= ?
		ORDER BY confidence DESC, bound_at`,
		sessionID, minConfidence)
	if err != nil {
		return nil, fmt.Errorf("listing session bindings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectBindings(rows)
}

func (s *SQLiteStore) ActiveBindingsForAgent(agentID, sessionID string, minConfidence float64) ([]BindingRecord, error) {
	rows, err := s.db.Query(`SELECT id, agent_id, session_id, task_id, confidence, bound_at, expired_at
		FROM agent_task_bindings
		WHERE agent_id = ? AND session_id = ? AND expired_at = '' AND confidence >= ?
		ORDER BY confidence DESC, bound_at`,
		agentID, sessionID, minConfidence)
	if err != nil {
		return nil, fmt.Errorf("listing agent bindings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectBindings(rows)
}

func (s *SQLiteStore) ExpireBinding(id string, at time.Time) error {
	_, err := s.db.Exec("UPDATE agent_task_bindings SET expired_at = ? WHERE id = ? AND expired_at = ''",
		formatTime(at), id)
	if err != nil {
		return fmt.Errorf("expiring binding: %w", err)
	}
	return nil
}

// --- Task items ---

func (s *SQLiteStore) UpsertTaskItem(i *TaskItemRecord) error {
	_, err := s.db.Exec(`INSERT INTO task_items (agent_id, session_id, subject, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(agent_id, session_id, subject) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		i.AgentID, i.SessionID, i.Subject, i.Status, formatTime(i.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting task item: %w", err)
	}
	return nil
}

// --- File changes ---

func (s *SQLiteStore) RecordFileChange(c *FileChangeRecord) error {
	_, err := s.db.Exec(`INSERT INTO file_changes (session_id, agent_id, event_id, path, tool, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.SessionID, c.AgentID, c.EventID, c.Path, c.Tool, formatTime(c.ChangedAt))
	if err != nil {
		return fmt.Errorf("recording file change: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListFileChanges(sessionID string) ([]FileChangeRecord, error) {
	rows, err := s.db.Query(`SELECT id, session_id, agent_id, event_id, path, tool, changed_at
		FROM file_changes WHERE session_id = ? ORDER BY changed_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing file changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var changes []FileChangeRecord
	for rows.Next() {
		var c FileChangeRecord
		var changedAt string
		if err := rows.Scan(&c.ID, &c.SessionID, &c.AgentID, &c.EventID, &c.Path, &c.Tool, &changedAt); err != nil {
			return nil, fmt.Errorf("scanning file change: %w", err)
		}
		c.ChangedAt = parseTime(changedAt)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// --- Audit ---

func (s *SQLiteStore) AppendAudit(a *AuditRecord) error {
	_, err := s.db.Exec(`INSERT INTO correlation_audit (id, task_id, agent_id, session_id, confidence, source, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TaskID, a.AgentID, a.SessionID, a.Confidence, a.Source, a.Reason, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// --- Helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAgent(row rowScanner) (*AgentRecord, error) {
	var a AgentRecord
	var firstSeen, lastActivity string
	err := row.Scan(&a.ID, &a.SessionID, &a.Name, &a.Type, &a.Status,
		&firstSeen, &lastActivity, &a.ToolCallCount, &a.ErrorCount)
	if err != nil {
		return nil, err
	}
	a.FirstSeenAt = parseTime(firstSeen)
	a.LastActivityAt = parseTime(lastActivity)
	return &a, nil
}

func collectAgents(rows *sql.Rows) ([]AgentRecord, error) {
	var agents []AgentRecord
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

func scanTask(row rowScanner) (*TaskRecord, error) {
	var t TaskRecord
	var dependsOn, blockedBy, createdAt, completedAt string
	err := row.Scan(&t.ID, &t.ProjectID, &t.SprintID, &t.Section, &t.Title, &t.Status,
		&dependsOn, &blockedBy, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(dependsOn), &t.DependsOn)
	_ = json.Unmarshal([]byte(blockedBy), &t.BlockedBy)
	t.CreatedAt = parseTime(createdAt)
	t.CompletedAt = parseTime(completedAt)
	return &t, nil
}

func scanTaskRows(rows *sql.Rows) (*TaskRecord, error) {
	t, err := scanTask(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	return t, nil
}

func collectBindings(rows *sql.Rows) ([]BindingRecord, error) {
	var bindings []BindingRecord
	for rows.Next() {
		var b BindingRecord
		var boundAt, expiredAt string
		if err := rows.Scan(&b.ID, &b.AgentID, &b.SessionID, &b.TaskID, &b.Confidence, &boundAt, &expiredAt); err != nil {
			return nil, fmt.Errorf("scanning binding: %w", err)
		}
		b.BoundAt = parseTime(boundAt)
		b.ExpiredAt = parseTime(expiredAt)
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeFormat, s)
	return t
}
