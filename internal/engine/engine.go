// Package engine is the ingestion and correlation core: it normalizes hook
// events, drives session/agent lifecycle, matches subagent spawns to stops,
// and auto-completes tracked tasks when correlation confidence is high
// enough. One Engine instance holds all process-wide correlation state and
// processes events strictly one at a time.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kolapsis/overseer/internal/hooks"
	"github.com/kolapsis/overseer/internal/notify"
	"github.com/kolapsis/overseer/internal/store"
)

// Options tune the correlation engine.
type Options struct {
	// ConfidenceThreshold is the minimum binding confidence considered for
	// auto-completion.
	ConfidenceThreshold float64
	// NamingWindow bounds retroactive agent renames, compared between event
	// timestamps rather than wall clock.
	NamingWindow time.Duration
}

// agentRef remembers a recently created agent for retroactive renaming.
// placeholder marks agents whose name is just their id because no naming
// signal was available at creation time.
type agentRef struct {
	id          string
	sessionID   string
	name        string
	createdAt   time.Time
	placeholder bool
}

const recentAgentLimit = 32

// Engine processes hook events against the store and broadcasts every
// state change through the notifier.
type Engine struct {
	mu       sync.Mutex
	store    store.Store
	notifier notify.Notifier

	threshold    float64
	namingWindow time.Duration

	// Process-wide correlation state, mutated only under mu.
	leaderSession string
	pendingNames  []string            // FIFO of subagent names revealed by Task spawns
	subagentFIFO  map[string][]string // parent sessionID → pending synthetic agent ids
	nameCounters  map[string]int      // sessionID + "\x00" + lowercased base name → count
	mainAgents    map[string]string   // sessionID → originating agent id
	recentAgents  []agentRef
}

// New creates an Engine. Zero Options fields fall back to defaults.
func New(st store.Store, notifier notify.Notifier, opts Options) *Engine {
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = 0.75
	}
	if opts.NamingWindow <= 0 {
		opts.NamingWindow = 60 * time.Second
	}
	return &Engine{
		store:        st,
		notifier:     notifier,
		threshold:    opts.ConfidenceThreshold,
		namingWindow: opts.NamingWindow,
		subagentFIFO: make(map[string][]string),
		nameCounters: make(map[string]int),
		mainAgents:   make(map[string]string),
	}
}

// ProcessEvent runs the full pipeline for one raw hook payload:
// classify → mutate → persist → broadcast. It returns the canonical event.
// Only a failure to persist the session, agent, or event itself is an
// error; naming, completion, and broadcast problems are logged and
// swallowed so the ingestion path never rejects pressure.
func (e *Engine) ProcessEvent(raw hooks.RawEvent) (*store.EventRecord, error) {
	if raw.SessionID == "" {
		return nil, errors.New("event has no session id")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ev := e.normalize(raw)

	if err := e.applyLifecycle(ev, raw); err != nil {
		return nil, fmt.Errorf("applying lifecycle: %w", err)
	}

	if err := e.store.InsertEvent(ev); err != nil {
		return nil, fmt.Errorf("persisting event: %w", err)
	}
	e.try("session event counter", e.store.IncrementSessionEvents(ev.SessionID))

	// Everything past this point is enrichment: it must never undo the
	// persisted event.
	e.enrich(ev, raw)

	e.notifier.Broadcast(notify.TypeAgentEvent, ev, ev.SessionID)

	return ev, nil
}

// enrich runs the hook-specific correlation steps.
func (e *Engine) enrich(ev *store.EventRecord, raw hooks.RawEvent) {
	switch hooks.Kind(ev.HookKind) {
	case hooks.KindStop:
		// End of an assistant turn, not of the session: the agent goes
		// idle while the human reviews output. Session status untouched.
		e.setAgentStatus(ev.AgentID, ev.SessionID, store.AgentIdle)
	case hooks.KindSessionEnd:
		e.completeSession(ev)
	case hooks.KindSubagentStop:
		e.handleSubagentStop(ev)
	case hooks.KindPostToolUse:
		switch ev.Tool {
		case "Task":
			e.observeTaskSpawn(ev, raw)
		case "TaskUpdate", "TodoWrite":
			e.processTaskItems(ev, raw)
		case "TeamCreate":
			e.announceTeam(ev, raw)
		}
	}

	if ev.Category == string(hooks.CategoryError) {
		e.setAgentStatus(ev.AgentID, ev.SessionID, store.AgentError)
	}

	if ev.Category == string(hooks.CategoryFileChange) && ev.FilePath != "" {
		e.try("file change", e.store.RecordFileChange(&store.FileChangeRecord{
			SessionID: ev.SessionID,
			AgentID:   ev.AgentID,
			EventID:   ev.ID,
			Path:      ev.FilePath,
			Tool:      ev.Tool,
			ChangedAt: ev.Timestamp,
		}))
	}

	if taskID, ok := ev.Metadata["task_id"].(string); ok && taskID != "" {
		e.bindAgentToTask(ev.AgentID, ev.SessionID, taskID, confidenceExplicitTaskID, ev.Timestamp)
	}
}

// setAgentStatus updates an agent's status and broadcasts the change.
// Best-effort by design.
func (e *Engine) setAgentStatus(agentID, sessionID string, status store.AgentStatus) {
	e.try("agent status", e.store.UpdateAgentStatus(agentID, sessionID, status))
	e.notifier.Broadcast(notify.TypeAgentStatus, notify.AgentStatusPayload{
		AgentID:   agentID,
		SessionID: sessionID,
		Status:    string(status),
	}, sessionID)
}

// announceTeam emits the team_created notification for TeamCreate tool calls.
func (e *Engine) announceTeam(ev *store.EventRecord, raw hooks.RawEvent) {
	name := ""
	if input := hooks.ToolInput(raw.Data); input != nil {
		name, _ = input["name"].(string)
	}
	if name == "" {
		name, _ = ev.Metadata["team_name"].(string)
	}
	if name == "" {
		return
	}
	e.notifier.Broadcast(notify.TypeTeamCreated, notify.TeamCreatedPayload{
		TeamName:  name,
		CreatedBy: ev.AgentID,
		SessionID: ev.SessionID,
		Timestamp: ev.Timestamp,
	}, ev.SessionID)
}

// try logs and discards an error from a step that must not fail the
// pipeline. The name shows up in logs, nowhere else.
func (e *Engine) try(step string, err error) {
	if err != nil {
		slog.Warn("ingestion step degraded", "step", step, "error", err)
	}
}

// rememberAgent records a creation for the retroactive-rename window.
func (e *Engine) rememberAgent(id, sessionID, name string, at time.Time, placeholder bool) {
	e.recentAgents = append(e.recentAgents, agentRef{id: id, sessionID: sessionID, name: name, createdAt: at, placeholder: placeholder})
	if len(e.recentAgents) > recentAgentLimit {
		e.recentAgents = e.recentAgents[len(e.recentAgents)-recentAgentLimit:]
	}
}

func newID() string {
	return uuid.NewString()
}
