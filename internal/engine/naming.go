package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/kolapsis/overseer/internal/hooks"
	"github.com/kolapsis/overseer/internal/notify"
	"github.com/kolapsis/overseer/internal/store"
)

// Agent types that carry no identity worth displaying.
var placeholderTypes = map[string]bool{
	"general-purpose": true,
	"agent":           true,
	"assistant":       true,
	"subagent":        true,
	"default":         true,
}

// resolveName picks a display name for a freshly seen agent. Signals are
// tried in order of reliability. When none fires, the agent keeps its own
// id as name and is reported as a placeholder: a candidate for a
// retroactive rename once a Task spawn reveals the real name.
func (e *Engine) resolveName(ev *store.EventRecord, raw hooks.RawEvent) (string, bool) {
	if name := e.dequeuePendingName(); name != "" {
		return e.dedupeName(ev.SessionID, name), false
	}
	if name, _ := ev.Metadata["agent_name"].(string); name != "" {
		return e.dedupeName(ev.SessionID, name), false
	}

	model, _ := ev.Metadata["model"].(string)
	if ev.SessionID == e.leaderSession && ev.AgentID == mainAgentID {
		if name := formatModelName(model); name != "" {
			return e.dedupeName(ev.SessionID, name), false
		}
		return e.dedupeName(ev.SessionID, "main"), false
	}

	if t := raw.AgentType; t != "" && !placeholderTypes[strings.ToLower(t)] && !isHexIdentifier(t) {
		return e.dedupeName(ev.SessionID, t), false
	}
	if name := formatModelName(model); name != "" {
		return e.dedupeName(ev.SessionID, name), false
	}
	if raw.AgentType != "" {
		return e.dedupeName(ev.SessionID, "Subagent"), false
	}
	return ev.AgentID, true
}

// dequeuePendingName pops the oldest name revealed by a Task spawn, or "".
func (e *Engine) dequeuePendingName() string {
	if len(e.pendingNames) == 0 {
		return ""
	}
	name := e.pendingNames[0]
	e.pendingNames = e.pendingNames[1:]
	return name
}

// dedupeName makes a display name unique within its session by suffixing
// " #2", " #3", ... on repeats. Comparison is case-insensitive.
func (e *Engine) dedupeName(sessionID, base string) string {
	key := sessionID + "\x00" + strings.ToLower(base)
	e.nameCounters[key]++
	if n := e.nameCounters[key]; n > 1 {
		return fmt.Sprintf("%s #%d", base, n)
	}
	return base
}

// retroRename gives a revealed name to the most recently created agent
// still carrying a placeholder name, provided the creation falls inside
// the naming window. Event timestamps are compared, not wall clock, so
// replayed streams rename the same way live ones do.
func (e *Engine) retroRename(name string, at time.Time) bool {
	for i := len(e.recentAgents) - 1; i >= 0; i-- {
		ref := &e.recentAgents[i]
		if !ref.placeholder {
			continue
		}
		d := at.Sub(ref.createdAt)
		if d < 0 {
			d = -d
		}
		if d > e.namingWindow {
			continue
		}

		final := e.dedupeName(ref.sessionID, name)
		if err := e.store.RenameAgent(ref.id, ref.sessionID, final); err != nil {
			e.try("agent rename", err)
			return false
		}
		old := ref.name
		ref.name = final
		ref.placeholder = false
		e.notifier.Broadcast(notify.TypeAgentRenamed, notify.AgentRenamedPayload{
			AgentID:   ref.id,
			SessionID: ref.sessionID,
			OldName:   old,
			NewName:   final,
		}, ref.sessionID)
		return true
	}
	return false
}

// formatModelName turns a model identifier like "claude-sonnet-4-5" into a
// display name like "Sonnet 4.5". Identifiers that do not follow the
// claude-<family>-<major>[-<minor>] pattern yield "".
func formatModelName(model string) string {
	parts := strings.Split(model, "-")
	if len(parts) < 3 || len(parts) > 4 || parts[0] != "claude" {
		return ""
	}
	family := parts[1]
	if family == "" || !allDigits(parts[2]) {
		return ""
	}
	version := parts[2]
	if len(parts) == 4 {
		if !allDigits(parts[3]) {
			return ""
		}
		version += "." + parts[3]
	}
	return strings.ToUpper(family[:1]) + family[1:] + " " + version
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isHexIdentifier reports whether s looks like a machine id (uuid or hex
// blob) rather than a human-chosen name.
func isHexIdentifier(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
