package engine

import (
	"time"

	"github.com/kolapsis/overseer/internal/hooks"
	"github.com/kolapsis/overseer/internal/store"
)

// mainAgentID is the implicit agent id for events that carry none:
// the session's primary assistant.
const mainAgentID = "main"

// normalize converts a raw hook payload into the canonical event record.
// Missing fields get defaults; oversized input/output values are clipped.
func (e *Engine) normalize(raw hooks.RawEvent) *store.EventRecord {
	ts := raw.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	agentID := raw.AgentID
	if agentID == "" {
		agentID = mainAgentID
	}

	return &store.EventRecord{
		ID:         newID(),
		SessionID:  raw.SessionID,
		AgentID:    agentID,
		Timestamp:  ts,
		HookKind:   string(raw.Kind),
		Category:   string(hooks.Classify(raw.Kind, raw.Tool)),
		Tool:       raw.Tool,
		FilePath:   hooks.FilePath(raw.Data),
		Input:      hooks.Truncate(raw.Input, hooks.MaxInputLen),
		Output:     hooks.Truncate(raw.Output, hooks.MaxOutputLen),
		Error:      raw.Error,
		DurationMS: raw.DurationMS,
		Metadata:   raw.Data,
	}
}
