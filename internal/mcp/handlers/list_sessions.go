package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/overseer/internal/store"
)

// ListSessions returns a handler that lists recent sessions.
func ListSessions(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		limit := 20
		if v, ok := args["limit"].(float64); ok && v > 0 {
			limit = int(v)
		}

		sessions, err := st.ListSessions(limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing sessions failed: %v", err)), nil
		}
		if len(sessions) == 0 {
			return mcp.NewToolResultText("No sessions recorded yet."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "🖥️ Sessions (%d found)\n\n", len(sessions))
		for _, s := range sessions {
			sb.WriteString(fmt.Sprintf("%s **%s** — %s\n", sessionIcon(s.Status), s.ID, s.Status))
			sb.WriteString(fmt.Sprintf("  Started: %s | Events: %d | Agents: %d\n",
				s.StartedAt.Format("2006-01-02 15:04:05"), s.EventCount, s.AgentCount))
			if s.WorkingDirectory != "" {
				sb.WriteString(fmt.Sprintf("  Directory: %s\n", s.WorkingDirectory))
			}
			if !s.EndedAt.IsZero() {
				sb.WriteString(fmt.Sprintf("  Ended: %s\n", s.EndedAt.Format("2006-01-02 15:04:05")))
			}
			sb.WriteString("\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func sessionIcon(s store.SessionStatus) string {
	switch s {
	case store.SessionActive:
		return "🟢"
	case store.SessionCompleted:
		return "✅"
	case store.SessionError:
		return "❌"
	default:
		return "❓"
	}
}
