package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// SessionStatus is the lifecycle state of a session.
// Terminal states are soft: any later event reactivates the session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionError     SessionStatus = "error"
)

// AgentStatus is the lifecycle state of an agent within a session.
type AgentStatus string

const (
	AgentActive    AgentStatus = "active"
	AgentIdle      AgentStatus = "idle"
	AgentError     AgentStatus = "error"
	AgentCompleted AgentStatus = "completed"
	AgentShutdown  AgentStatus = "shutdown"
)

// TaskStatus is the planning state of a tracked project task.
type TaskStatus string

const (
	TaskBacklog    TaskStatus = "backlog"
	TaskPlanned    TaskStatus = "planned"
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskInReview   TaskStatus = "in_review"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
	TaskDeferred   TaskStatus = "deferred"
)

// Store is the persistence interface for Overseer.
// Defined at the consumer side per Go conventions.
type Store interface {
	// Sessions
	CreateSession(s *SessionRecord) error
	GetSession(id string) (*SessionRecord, error)
	UpdateSessionStatus(id string, status SessionStatus, endedAt time.Time) error
	IncrementSessionEvents(id string) error
	IncrementSessionAgents(id string) error
	ListSessions(limit int) ([]SessionRecord, error)

	// Agents
	CreateAgent(a *AgentRecord) error
	GetAgent(id, sessionID string) (*AgentRecord, error)
	UpdateAgentStatus(id, sessionID string, status AgentStatus) error
	RenameAgent(id, sessionID, name string) error
	TouchAgent(id, sessionID string, at time.Time, toolCalls, errors int) error
	ListAgents(sessionID string) ([]AgentRecord, error)
	AgentsInStatus(sessionID string, statuses ...AgentStatus) ([]AgentRecord, error)

	// Events
	InsertEvent(e *EventRecord) error
	ListEvents(sessionID string, limit int) ([]EventRecord, error)

	// Tasks
	CreateTask(t *TaskRecord) error
	GetTask(id string) (*TaskRecord, error)
	UpdateTaskStatus(id string, status TaskStatus, completedAt time.Time) error
	ListTasks(f TaskFilter) ([]TaskRecord, error)
	TasksMatchingTitle(projectID, needle string) ([]TaskRecord, error)

	// Sprints
	CreateSprint(s *SprintRecord) error
	GetSprint(id string) (*SprintRecord, error)
	RecomputeSprintRollup(sprintID string) error
	ProjectRollup(projectID string) (completed, total int, err error)

	// Agent/task bindings
	CreateBinding(b *BindingRecord) error
	ActiveBindingsForSession(sessionID string, minConfidence float64) ([]BindingRecord, error)
	ActiveBindingsForAgent(agentID, sessionID string, minConfidence float64) ([]BindingRecord, error)
	ExpireBinding(id string, at time.Time) error

	// Agent-declared task items
	UpsertTaskItem(i *TaskItemRecord) error

	// File changes
	RecordFileChange(c *FileChangeRecord) error
	ListFileChanges(sessionID string) ([]FileChangeRecord, error)

	// Correlation audit trail
	AppendAudit(a *AuditRecord) error

	Close() error
}

// SessionRecord represents one continuous interaction with the agent runtime.
type SessionRecord struct {
	ID               string
	StartedAt        time.Time
	EndedAt          time.Time
	Status           SessionStatus
	WorkingDirectory string
	EventCount       int
	AgentCount       int
}

// AgentRecord represents one actor (main assistant or subagent) in a session.
type AgentRecord struct {
	ID             string
	SessionID      string
	Name           string
	Type           string
	Status         AgentStatus
	FirstSeenAt    time.Time
	LastActivityAt time.Time
	ToolCallCount  int
	ErrorCount     int
}

// EventRecord is a canonical, immutable hook event.
type EventRecord struct {
	ID         string
	SessionID  string
	AgentID    string
	Timestamp  time.Time
	HookKind   string
	Category   string
	Tool       string
	FilePath   string
	Input      string
	Output     string
	Error      string
	DurationMS int64
	Metadata   map[string]any
}

// TaskRecord is an externally planned project task.
// Only the completion engine moves a task to completed; everything else is
// owned by the planning input.
type TaskRecord struct {
	ID          string
	ProjectID   string
	SprintID    string
	Section     string
	Title       string
	Status      TaskStatus
	DependsOn   []string
	BlockedBy   []string
	CreatedAt   time.Time
	CompletedAt time.Time
}

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	ProjectID string
	Status    TaskStatus
	Section   string
	IDs       []string
	Limit     int
}

// SprintRecord groups tasks; OrderNum 1 is the current sprint.
type SprintRecord struct {
	ID             string
	ProjectID      string
	Name           string
	OrderNum       int
	CompletedTasks int
	TotalTasks     int
}

// BindingRecord is the hypothesis "this agent is working this task".
// A binding is consumed (expired) by any completion attempt.
type BindingRecord struct {
	ID         string
	AgentID    string
	SessionID  string
	TaskID     string
	Confidence float64
	BoundAt    time.Time
	ExpiredAt  time.Time
}

// TaskItemRecord is an agent's own declared todo item.
type TaskItemRecord struct {
	AgentID   string
	SessionID string
	Subject   string
	Status    string
	UpdatedAt time.Time
}

// FileChangeRecord tracks a file touched by a file-change event.
type FileChangeRecord struct {
	ID        int64
	SessionID string
	AgentID   string
	EventID   string
	Path      string
	Tool      string
	ChangedAt time.Time
}

// AuditRecord documents one auto-completion decision, append-only.
type AuditRecord struct {
	ID         string
	TaskID     string
	AgentID    string
	SessionID  string
	Confidence float64
	Source     string
	Reason     string
	CreatedAt  time.Time
}
