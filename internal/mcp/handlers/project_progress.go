package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/overseer/internal/store"
)

// ProjectProgress returns a handler that reports a project's completion
// rollup.
func ProjectProgress(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		project, ok := req.GetArguments()["project"].(string)
		if !ok || project == "" {
			return mcp.NewToolResultError("project is required"), nil
		}

		completed, total, err := st.ProjectRollup(project)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("computing rollup failed: %v", err)), nil
		}
		if total == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("Project %s has no tracked tasks.", project)), nil
		}

		percent := float64(completed) / float64(total) * 100

		var sb strings.Builder
		fmt.Fprintf(&sb, "📊 %s: %d/%d tasks completed (%.0f%%)\n", project, completed, total, percent)
		sb.WriteString(progressBar(percent))
		sb.WriteString("\n")

		open, err := st.ListTasks(store.TaskFilter{ProjectID: project, Status: store.TaskInProgress})
		if err == nil && len(open) > 0 {
			sb.WriteString("\nIn progress:\n")
			for _, t := range open {
				fmt.Fprintf(&sb, "  🔄 %s\n", t.Title)
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func progressBar(percent float64) string {
	const width = 20
	filled := int(percent / 100 * width)
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
