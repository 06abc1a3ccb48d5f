package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/kolapsis/overseer/internal/hooks"
	"github.com/kolapsis/overseer/internal/notify"
	"github.com/kolapsis/overseer/internal/store"
)

// applyLifecycle makes sure the session and agent behind an event exist and
// are active. Terminal statuses are soft: any later event reopens them.
// This is the only pipeline stage allowed to fail the whole call, since an
// event without its session or agent row would be an orphan.
func (e *Engine) applyLifecycle(ev *store.EventRecord, raw hooks.RawEvent) error {
	sess, err := e.store.GetSession(ev.SessionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		sess = &store.SessionRecord{
			ID:               ev.SessionID,
			StartedAt:        ev.Timestamp,
			Status:           store.SessionActive,
			WorkingDirectory: raw.WorkingDirectory,
		}
		if err := e.store.CreateSession(sess); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		if e.leaderSession == "" {
			// First session this process ever sees drives the whole run.
			e.leaderSession = ev.SessionID
		}
		e.try("project binding", e.notifier.BindSessionToProject(ev.SessionID, raw.WorkingDirectory))
		e.notifier.Broadcast(notify.TypeSessionStatus, notify.SessionStatusPayload{
			SessionID: ev.SessionID,
			Status:    string(store.SessionActive),
		}, ev.SessionID)

	case err != nil:
		return fmt.Errorf("loading session: %w", err)

	default:
		if sess.Status != store.SessionActive {
			if err := e.store.UpdateSessionStatus(ev.SessionID, store.SessionActive, time.Time{}); err != nil {
				return fmt.Errorf("reactivating session: %w", err)
			}
			e.notifier.Broadcast(notify.TypeSessionStatus, notify.SessionStatusPayload{
				SessionID: ev.SessionID,
				Status:    string(store.SessionActive),
			}, ev.SessionID)
			e.reactivateOriginAgent(ev)
		}
		if raw.WorkingDirectory != "" && e.notifier.ProjectForSession(ev.SessionID) == "" {
			e.try("project binding", e.notifier.BindSessionToProject(ev.SessionID, raw.WorkingDirectory))
		}
	}

	agent, err := e.ensureAgent(ev, raw)
	if err != nil {
		return err
	}

	toolCalls, errCount := 0, 0
	if hooks.Kind(ev.HookKind) == hooks.KindPostToolUse {
		toolCalls = 1
	}
	if ev.Category == string(hooks.CategoryError) {
		errCount = 1
	}
	e.try("agent activity", e.store.TouchAgent(ev.AgentID, ev.SessionID, ev.Timestamp, toolCalls, errCount))

	// A fresh event on an agent parked in a terminal status means it is
	// working again.
	if agent.Status == store.AgentCompleted || agent.Status == store.AgentShutdown || agent.Status == store.AgentIdle {
		e.setAgentStatus(ev.AgentID, ev.SessionID, store.AgentActive)
	}
	return nil
}

// reactivateOriginAgent wakes the session's originating agent when the
// session itself comes back from a terminal status. The event's own agent
// is handled by the regular lifecycle path; this only covers the case
// where a subagent's event revives the session while the main agent was
// already marked done.
func (e *Engine) reactivateOriginAgent(ev *store.EventRecord) {
	origin, ok := e.mainAgents[ev.SessionID]
	if !ok || origin == ev.AgentID {
		return
	}
	agent, err := e.store.GetAgent(origin, ev.SessionID)
	if err != nil {
		e.try("origin agent lookup", err)
		return
	}
	if agent.Status == store.AgentCompleted || agent.Status == store.AgentShutdown {
		e.setAgentStatus(origin, ev.SessionID, store.AgentActive)
	}
}

// ensureAgent loads the event's agent, creating and naming it on first sight.
func (e *Engine) ensureAgent(ev *store.EventRecord, raw hooks.RawEvent) (*store.AgentRecord, error) {
	agent, err := e.store.GetAgent(ev.AgentID, ev.SessionID)
	if err == nil {
		return agent, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("loading agent: %w", err)
	}

	name, placeholder := e.resolveName(ev, raw)
	agent = &store.AgentRecord{
		ID:             ev.AgentID,
		SessionID:      ev.SessionID,
		Name:           name,
		Type:           raw.AgentType,
		Status:         store.AgentActive,
		FirstSeenAt:    ev.Timestamp,
		LastActivityAt: ev.Timestamp,
	}
	if err := e.store.CreateAgent(agent); err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	if _, ok := e.mainAgents[ev.SessionID]; !ok {
		e.mainAgents[ev.SessionID] = agent.ID
	}
	e.try("session agent counter", e.store.IncrementSessionAgents(ev.SessionID))
	e.rememberAgent(agent.ID, agent.SessionID, agent.Name, ev.Timestamp, placeholder)
	e.notifier.Broadcast(notify.TypeAgentCreated, notify.AgentCreatedPayload{
		AgentID:   agent.ID,
		SessionID: agent.SessionID,
		Name:      agent.Name,
		Type:      agent.Type,
		Status:    string(agent.Status),
		Timestamp: agent.FirstSeenAt,
	}, ev.SessionID)
	return agent, nil
}

// completeSession handles SessionEnd: every agent still working or idle is
// considered done, the session closes, and high-confidence task bindings of
// the session are settled.
func (e *Engine) completeSession(ev *store.EventRecord) {
	agents, err := e.store.AgentsInStatus(ev.SessionID, store.AgentActive, store.AgentIdle)
	if err != nil {
		e.try("listing session agents", err)
	}
	for _, a := range agents {
		e.setAgentStatus(a.ID, a.SessionID, store.AgentCompleted)
	}

	e.try("session status", e.store.UpdateSessionStatus(ev.SessionID, store.SessionCompleted, ev.Timestamp))
	e.notifier.Broadcast(notify.TypeSessionStatus, notify.SessionStatusPayload{
		SessionID: ev.SessionID,
		Status:    string(store.SessionCompleted),
	}, ev.SessionID)

	e.autoCompleteTasksForSession(ev.SessionID, ev.Timestamp)
}
