package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/overseer/internal/store"
)

// ListTasks returns a handler that lists tracked tasks with optional filters.
func ListTasks(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		filter := store.TaskFilter{Limit: 20}
		if project, ok := args["project"].(string); ok {
			filter.ProjectID = project
		}
		if status, ok := args["status"].(string); ok {
			filter.Status = store.TaskStatus(status)
		}
		if section, ok := args["section"].(string); ok {
			filter.Section = section
		}
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			filter.Limit = int(limit)
		}

		tasks, err := st.ListTasks(filter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing tasks failed: %v", err)), nil
		}
		if len(tasks) == 0 {
			return mcp.NewToolResultText("No tasks found matching the given filters."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📋 Tasks (%d found)\n\n", len(tasks))
		for _, t := range tasks {
			sb.WriteString(fmt.Sprintf("%s **%s** — %s\n", taskIcon(t.Status), t.Title, t.Status))
			sb.WriteString(fmt.Sprintf("  Project: %s", t.ProjectID))
			if t.Section != "" {
				sb.WriteString(fmt.Sprintf(" | Section: %s", t.Section))
			}
			sb.WriteString("\n")
			if !t.CompletedAt.IsZero() {
				sb.WriteString(fmt.Sprintf("  Completed: %s\n", t.CompletedAt.Format("2006-01-02 15:04:05")))
			}
			sb.WriteString("\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func taskIcon(s store.TaskStatus) string {
	switch s {
	case store.TaskInProgress:
		return "🔄"
	case store.TaskCompleted:
		return "✅"
	case store.TaskBlocked:
		return "🚫"
	case store.TaskInReview:
		return "👀"
	case store.TaskDeferred:
		return "🗄️"
	case store.TaskBacklog, store.TaskPlanned, store.TaskPending:
		return "⏳"
	default:
		return "❓"
	}
}
