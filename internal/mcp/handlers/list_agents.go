package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/overseer/internal/store"
)

// ListAgents returns a handler that lists the agents seen in one session.
func ListAgents(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := req.GetArguments()["session_id"].(string)
		if !ok || sessionID == "" {
			return mcp.NewToolResultError("session_id is required"), nil
		}

		agents, err := st.ListAgents(sessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing agents failed: %v", err)), nil
		}
		if len(agents) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No agents recorded for session %s.", sessionID)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "🤖 Agents in %s (%d found)\n\n", sessionID, len(agents))
		for _, a := range agents {
			sb.WriteString(fmt.Sprintf("%s **%s** — %s\n", agentIcon(a.Status), a.Name, a.Status))
			if a.Type != "" {
				sb.WriteString(fmt.Sprintf("  Type: %s\n", a.Type))
			}
			sb.WriteString(fmt.Sprintf("  Tool calls: %d | Errors: %d | Last activity: %s\n",
				a.ToolCallCount, a.ErrorCount, a.LastActivityAt.Format("15:04:05")))
			sb.WriteString("\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func agentIcon(s store.AgentStatus) string {
	switch s {
	case store.AgentActive:
		return "🔄"
	case store.AgentIdle:
		return "💤"
	case store.AgentCompleted:
		return "✅"
	case store.AgentShutdown:
		return "🛑"
	case store.AgentError:
		return "❌"
	default:
		return "❓"
	}
}
