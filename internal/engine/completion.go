package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/kolapsis/overseer/internal/hooks"
	"github.com/kolapsis/overseer/internal/notify"
	"github.com/kolapsis/overseer/internal/store"
)

// Confidence levels assigned by each binding source.
const (
	confidenceGoldPath       = 1.0
	confidenceExplicitTaskID = 0.95
	confidenceSubjectMatch   = 0.80
)

// minSubjectLen guards the gold path against matching trivially short
// subjects like "fix" against half the backlog.
const minSubjectLen = 5

// completionContext carries the who/why of one completion attempt into the
// audit trail and notifications.
type completionContext struct {
	AgentID    string
	SessionID  string
	Confidence float64
	Source     string
	Reason     string
	Force      bool
	At         time.Time
}

// completeTask is the single gate through which every task completion goes.
// It refuses terminal and parked tasks, protects future sprints unless
// forced, and on success updates rollups, writes the audit record, and
// broadcasts. Returns whether the task actually transitioned.
func (e *Engine) completeTask(taskID string, cctx completionContext) bool {
	task, err := e.store.GetTask(taskID)
	if err != nil {
		e.try("completion lookup", err)
		return false
	}

	switch task.Status {
	case store.TaskCompleted, store.TaskDeferred, store.TaskBacklog:
		return false
	}

	if !cctx.Force && task.SprintID != "" {
		sprint, err := e.store.GetSprint(task.SprintID)
		if err != nil {
			e.try("sprint lookup", err)
		} else if sprint.OrderNum > 1 {
			slog.Debug("completion withheld for future sprint",
				"task", taskID, "sprint", sprint.ID, "order", sprint.OrderNum)
			return false
		}
	}

	at := cctx.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := e.store.UpdateTaskStatus(taskID, store.TaskCompleted, at); err != nil {
		e.try("task status", err)
		return false
	}

	e.try("completion audit", e.store.AppendAudit(&store.AuditRecord{
		ID:         newID(),
		TaskID:     taskID,
		AgentID:    cctx.AgentID,
		SessionID:  cctx.SessionID,
		Confidence: cctx.Confidence,
		Source:     cctx.Source,
		Reason:     cctx.Reason,
		CreatedAt:  at,
	}))

	e.notifier.Broadcast(notify.TypeTaskStatusChanged, notify.TaskStatusChangedPayload{
		TaskID:    taskID,
		OldStatus: string(task.Status),
		NewStatus: string(store.TaskCompleted),
		Reason:    cctx.Reason,
		Source:    cctx.Source,
	}, cctx.SessionID)
	e.notifier.Broadcast(notify.TypeTaskCompleted, notify.TaskCompletedPayload{
		TaskID:     taskID,
		TaskTitle:  task.Title,
		AgentID:    cctx.AgentID,
		SessionID:  cctx.SessionID,
		Source:     cctx.Source,
		Confidence: cctx.Confidence,
	}, cctx.SessionID)

	if task.SprintID != "" {
		e.try("sprint rollup", e.store.RecomputeSprintRollup(task.SprintID))
	}
	e.broadcastProgress(task.ProjectID, cctx.SessionID)
	return true
}

func (e *Engine) broadcastProgress(projectID, sessionID string) {
	if projectID == "" {
		return
	}
	completed, total, err := e.store.ProjectRollup(projectID)
	if err != nil {
		e.try("project rollup", err)
		return
	}
	percent := 0.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}
	e.notifier.Broadcast(notify.TypeProjectProgress, notify.ProjectProgressPayload{
		ProjectID:      projectID,
		CompletedTasks: completed,
		TotalTasks:     total,
		Percent:        percent,
	}, sessionID)
}

// bindAgentToTask records the hypothesis that an agent works on a task.
// Unknown task ids are ignored.
func (e *Engine) bindAgentToTask(agentID, sessionID, taskID string, confidence float64, at time.Time) {
	if _, err := e.store.GetTask(taskID); err != nil {
		return
	}
	e.try("task binding", e.store.CreateBinding(&store.BindingRecord{
		ID:         newID(),
		AgentID:    agentID,
		SessionID:  sessionID,
		TaskID:     taskID,
		Confidence: confidence,
		BoundAt:    at,
	}))
}

// autoCompleteTasksForSession settles every binding of the session whose
// confidence reaches the threshold. Called on SessionEnd.
func (e *Engine) autoCompleteTasksForSession(sessionID string, at time.Time) {
	bindings, err := e.store.ActiveBindingsForSession(sessionID, e.threshold)
	if err != nil {
		e.try("session bindings", err)
		return
	}
	e.settleBindings(bindings, "session_end", at)
}

// autoCompleteTasksForAgent settles one agent's bindings, on SubagentStop.
func (e *Engine) autoCompleteTasksForAgent(agentID, sessionID string, at time.Time) {
	bindings, err := e.store.ActiveBindingsForAgent(agentID, sessionID, e.threshold)
	if err != nil {
		e.try("agent bindings", err)
		return
	}
	e.settleBindings(bindings, "subagent_stop", at)
}

// settleBindings attempts a completion per distinct task, highest
// confidence first, and consumes each acted binding whether or not the
// task transitioned. Consuming on attempt is what keeps a second settle
// pass from completing anything twice.
func (e *Engine) settleBindings(bindings []store.BindingRecord, source string, at time.Time) {
	seen := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		if seen[b.TaskID] {
			continue
		}
		seen[b.TaskID] = true
		e.completeTask(b.TaskID, completionContext{
			AgentID:    b.AgentID,
			SessionID:  b.SessionID,
			Confidence: b.Confidence,
			Source:     source,
			Reason:     fmt.Sprintf("binding settled at %s (confidence %.2f)", source, b.Confidence),
			At:         at,
		})
		e.try("binding expiry", e.store.ExpireBinding(b.ID, at))
	}
}

// processTaskItems ingests an agent's own todo list from a TaskUpdate or
// TodoWrite call. A completed item triggers the gold path; an in-progress
// item with a unique project-task match creates a medium-confidence binding.
func (e *Engine) processTaskItems(ev *store.EventRecord, raw hooks.RawEvent) {
	input := hooks.ToolInput(raw.Data)
	if input == nil {
		return
	}
	items, ok := input["todos"].([]any)
	if !ok {
		items, ok = input["items"].([]any)
	}
	if !ok {
		return
	}

	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		subject, _ := m["content"].(string)
		if subject == "" {
			subject, _ = m["subject"].(string)
		}
		status, _ := m["status"].(string)
		if subject == "" || status == "" {
			continue
		}

		e.try("task item", e.store.UpsertTaskItem(&store.TaskItemRecord{
			AgentID:   ev.AgentID,
			SessionID: ev.SessionID,
			Subject:   subject,
			Status:    status,
			UpdatedAt: ev.Timestamp,
		}))

		switch status {
		case "completed":
			e.completeBySubject(ev, subject)
		case "in_progress":
			e.bindBySubject(ev, subject)
		}
	}
}

// completeBySubject is the gold path: the agent itself declared one of its
// items done, so a matching project task completes at full confidence.
// Ambiguity resolves only through an exact title match; otherwise nothing
// happens.
func (e *Engine) completeBySubject(ev *store.EventRecord, subject string) {
	projectID := e.notifier.ProjectForSession(ev.SessionID)
	if projectID == "" {
		return
	}
	target := e.matchTask(projectID, subject)
	if target == nil {
		return
	}
	e.completeTask(target.ID, completionContext{
		AgentID:    ev.AgentID,
		SessionID:  ev.SessionID,
		Confidence: confidenceGoldPath,
		Source:     "gold_path",
		Reason:     fmt.Sprintf("agent reported %q completed", subject),
		At:         ev.Timestamp,
	})
}

// bindBySubject binds the agent to the unique open task matching an item
// the agent just started working on.
func (e *Engine) bindBySubject(ev *store.EventRecord, subject string) {
	projectID := e.notifier.ProjectForSession(ev.SessionID)
	if projectID == "" {
		return
	}
	target := e.matchTask(projectID, subject)
	if target == nil {
		return
	}
	e.bindAgentToTask(ev.AgentID, ev.SessionID, target.ID, confidenceSubjectMatch, ev.Timestamp)
}

// matchTask resolves a declared subject against the project's open tasks:
// one open substring match wins directly, several fall back to a single
// exact title match, anything else matches nothing.
func (e *Engine) matchTask(projectID, subject string) *store.TaskRecord {
	needle := normalizeSubject(subject)
	if len([]rune(needle)) < minSubjectLen {
		return nil
	}
	tasks, err := e.store.TasksMatchingTitle(projectID, needle)
	if err != nil {
		e.try("title match", err)
		return nil
	}

	var candidates []store.TaskRecord
	for _, t := range tasks {
		if t.Status == store.TaskCompleted || t.Status == store.TaskDeferred {
			continue
		}
		candidates = append(candidates, t)
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return &candidates[0]
	}

	var exact *store.TaskRecord
	for i := range candidates {
		if strings.ToLower(candidates[i].Title) == needle {
			if exact != nil {
				return nil
			}
			exact = &candidates[i]
		}
	}
	return exact
}

var bracketPrefix = regexp.MustCompile(`^\s*(\[[^\]]*\]\s*)+`)

// normalizeSubject strips leading bracket tags like "[P1] " and lowercases
// the rest for matching.
func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(bracketPrefix.ReplaceAllString(subject, "")))
}

// CompleteTasksByIDs force-completes the given tasks, bypassing the sprint
// guard. Operator entry point used by the batch HTTP endpoint.
func (e *Engine) CompleteTasksByIDs(ids []string, reason string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	tasks, err := e.store.ListTasks(store.TaskFilter{IDs: ids})
	if err != nil {
		return 0, fmt.Errorf("listing tasks: %w", err)
	}
	return e.forceComplete(tasks, reason), nil
}

// CompleteTasksBySection force-completes every task of a project section.
func (e *Engine) CompleteTasksBySection(projectID, section, reason string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tasks, err := e.store.ListTasks(store.TaskFilter{ProjectID: projectID, Section: section})
	if err != nil {
		return 0, fmt.Errorf("listing tasks: %w", err)
	}
	return e.forceComplete(tasks, reason), nil
}

func (e *Engine) forceComplete(tasks []store.TaskRecord, reason string) int {
	if reason == "" {
		reason = "operator batch completion"
	}
	n := 0
	for _, t := range tasks {
		if e.completeTask(t.ID, completionContext{
			Confidence: 1,
			Source:     "operator",
			Reason:     reason,
			Force:      true,
		}) {
			n++
		}
	}
	return n
}
