// Package notify fans typed state-change notifications out to real-time
// observers and tracks which project each session belongs to.
package notify

import "time"

// Notification types emitted by the correlation engine.
const (
	TypeAgentEvent        = "agent_event"
	TypeAgentStatus       = "agent_status"
	TypeAgentCreated      = "agent_created"
	TypeAgentRenamed      = "agent_renamed"
	TypeSessionStatus     = "session_status"
	TypeTaskStatusChanged = "task_status_changed"
	TypeTaskCompleted     = "task_completed"
	TypeProjectProgress   = "project_progress"
	TypeTeamCreated       = "team_created"
)

// Notification is the envelope delivered to observers.
type Notification struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Notifier publishes state changes and answers session/project membership
// questions. Delivery is best-effort: failures must never abort the state
// mutation that produced the notification.
type Notifier interface {
	Broadcast(eventType string, payload any, sessionID string)
	SessionsForProject(projectID string) []string
	ProjectForSession(sessionID string) string
	BindSessionToProject(sessionID, workingDirectory string) error
}

// AgentStatusPayload accompanies agent_status notifications.
type AgentStatusPayload struct {
	AgentID   string `json:"agent"`
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// AgentCreatedPayload accompanies agent_created notifications.
type AgentCreatedPayload struct {
	AgentID   string    `json:"agent"`
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentRenamedPayload accompanies agent_renamed notifications.
type AgentRenamedPayload struct {
	AgentID   string `json:"agent"`
	SessionID string `json:"sessionId"`
	OldName   string `json:"oldName"`
	NewName   string `json:"newName"`
}

// SessionStatusPayload accompanies session_status notifications.
type SessionStatusPayload struct {
	SessionID string `json:"session"`
	Status    string `json:"status"`
}

// TaskStatusChangedPayload accompanies task_status_changed notifications.
type TaskStatusChangedPayload struct {
	TaskID    string `json:"taskId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	Reason    string `json:"reason"`
	Source    string `json:"source"`
}

// TaskCompletedPayload accompanies task_completed notifications.
type TaskCompletedPayload struct {
	TaskID     string  `json:"taskId"`
	TaskTitle  string  `json:"taskTitle"`
	AgentID    string  `json:"agentId"`
	SessionID  string  `json:"sessionId"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// ProjectProgressPayload accompanies project_progress notifications.
type ProjectProgressPayload struct {
	ProjectID      string  `json:"projectId"`
	CompletedTasks int     `json:"completedTasks"`
	TotalTasks     int     `json:"totalTasks"`
	Percent        float64 `json:"percent"`
}

// TeamCreatedPayload accompanies team_created notifications.
type TeamCreatedPayload struct {
	TeamName  string    `json:"teamName"`
	CreatedBy string    `json:"createdBy"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}
