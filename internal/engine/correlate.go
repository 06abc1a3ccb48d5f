package engine

import (
	"errors"
	"strings"

	"github.com/kolapsis/overseer/internal/hooks"
	"github.com/kolapsis/overseer/internal/notify"
	"github.com/kolapsis/overseer/internal/store"
)

// observeTaskSpawn reacts to a completed Task tool call: the call reveals
// the subagent's name before the subagent's own events arrive. The name
// either renames a recent placeholder agent retroactively or is queued for
// the next agent creation, and a synthetic agent makes the worker visible
// in the parent session right away.
func (e *Engine) observeTaskSpawn(ev *store.EventRecord, raw hooks.RawEvent) {
	input := hooks.ToolInput(raw.Data)
	if input == nil {
		return
	}
	// The name field is the subagent's identity; description is task prose
	// and never contributes to ids.
	name, _ := input["name"].(string)
	if name == "" {
		return
	}
	agentType, _ := input["subagent_type"].(string)

	if !e.retroRename(name, ev.Timestamp) {
		e.pendingNames = append(e.pendingNames, name)
	}

	synthID := syntheticAgentID(ev.SessionID, name)
	if _, err := e.store.GetAgent(synthID, ev.SessionID); errors.Is(err, store.ErrNotFound) {
		agent := &store.AgentRecord{
			ID:             synthID,
			SessionID:      ev.SessionID,
			Name:           e.dedupeName(ev.SessionID, name),
			Type:           agentType,
			Status:         store.AgentActive,
			FirstSeenAt:    ev.Timestamp,
			LastActivityAt: ev.Timestamp,
		}
		if err := e.store.CreateAgent(agent); err != nil {
			e.try("synthetic agent", err)
			return
		}
		e.try("session agent counter", e.store.IncrementSessionAgents(ev.SessionID))
		e.notifier.Broadcast(notify.TypeAgentCreated, notify.AgentCreatedPayload{
			AgentID:   agent.ID,
			SessionID: agent.SessionID,
			Name:      agent.Name,
			Type:      agent.Type,
			Status:    string(agent.Status),
			Timestamp: agent.FirstSeenAt,
		}, ev.SessionID)
	} else if err != nil {
		e.try("synthetic agent lookup", err)
		return
	}

	// FIFO: the runtime reports SubagentStop in spawn order.
	e.subagentFIFO[ev.SessionID] = append(e.subagentFIFO[ev.SessionID], synthID)
}

// handleSubagentStop shuts down the oldest pending synthetic agent of the
// session and settles its task bindings. With nothing queued this is a
// no-op: guessing would risk shutting down the main agent.
func (e *Engine) handleSubagentStop(ev *store.EventRecord) {
	queue := e.subagentFIFO[ev.SessionID]
	if len(queue) == 0 {
		return
	}
	agentID := queue[0]
	if len(queue) == 1 {
		delete(e.subagentFIFO, ev.SessionID)
	} else {
		e.subagentFIFO[ev.SessionID] = queue[1:]
	}

	e.setAgentStatus(agentID, ev.SessionID, store.AgentShutdown)
	e.autoCompleteTasksForAgent(agentID, ev.SessionID, ev.Timestamp)
}

// syntheticAgentID derives a stable agent id for a spawned subagent from
// its parent session and revealed name.
func syntheticAgentID(sessionID, name string) string {
	prefix := sessionID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return prefix + "-" + slugify(name)
}

// slugify lowercases a name and replaces runs of non-alphanumerics with a
// single dash.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
