package notify

import (
	"log/slog"
	"sync"
	"time"
)

// MCPSender abstracts the mcp-go server notification methods.
// Defined consumer-side per Go convention.
type MCPSender interface {
	SendNotificationToAllClients(method string, params map[string]any)
}

// MCPNotifier pushes correlation state changes to MCP chat clients.
// It implements Sink; raw agent_event notifications are debounced per
// session to keep chat transports quiet, everything else goes out
// immediately.
type MCPNotifier struct {
	sender   MCPSender
	debounce time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time // sessionID → last agent_event push
}

// NewMCPNotifier creates an MCPNotifier with the given debounce interval
// for agent_event notifications.
func NewMCPNotifier(sender MCPSender, debounce time.Duration) *MCPNotifier {
	if debounce <= 0 {
		debounce = 3 * time.Second
	}
	return &MCPNotifier{
		sender:   sender,
		debounce: debounce,
		lastSent: make(map[string]time.Time),
	}
}

// Notify forwards a notification to all connected MCP clients.
func (n *MCPNotifier) Notify(note Notification) {
	level := "info"
	switch note.Type {
	case TypeAgentEvent:
		if !n.shouldSend(note.SessionID) {
			return
		}
	case TypeSessionStatus, TypeTaskCompleted, TypeProjectProgress:
		// always sent
	case TypeTaskStatusChanged, TypeAgentStatus, TypeAgentCreated, TypeAgentRenamed, TypeTeamCreated:
		// always sent
	default:
		slog.Debug("mcp notifier: unknown notification type", "type", note.Type)
		return
	}

	n.sender.SendNotificationToAllClients("notifications/message", map[string]any{
		"level":  level,
		"logger": "overseer",
		"data": map[string]any{
			"type":       note.Type,
			"session_id": note.SessionID,
			"payload":    note.Payload,
		},
	})
}

func (n *MCPNotifier) shouldSend(sessionID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	last, ok := n.lastSent[sessionID]
	if ok && time.Since(last) < n.debounce {
		return false
	}
	n.lastSent[sessionID] = time.Now()
	return true
}
