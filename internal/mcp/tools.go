package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/overseer/internal/mcp/handlers"
)

func registerTools(s *server.MCPServer, deps *Deps) {
	// list_sessions — Recent coding-agent sessions
	s.AddTool(
		mcp.NewTool("list_sessions",
			mcp.WithDescription("List recent coding-agent sessions with their status, event and agent counts."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of sessions to return (default: 20)"),
			),
		),
		handlers.ListSessions(deps.Store),
	)

	// list_agents — Agents observed within one session
	s.AddTool(
		mcp.NewTool("list_agents",
			mcp.WithDescription("List the agents observed in a session: names, status, tool call and error counts."),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("The session to inspect"),
			),
		),
		handlers.ListAgents(deps.Store),
	)

	// list_tasks — Tracked project tasks
	s.AddTool(
		mcp.NewTool("list_tasks",
			mcp.WithDescription("List tracked project tasks with optional filters."),
			mcp.WithString("project",
				mcp.Description("Filter by project id"),
			),
			mcp.WithString("status",
				mcp.Description("Filter by task status"),
				mcp.Enum("backlog", "planned", "pending", "in_progress", "in_review", "completed", "blocked", "deferred"),
			),
			mcp.WithString("section",
				mcp.Description("Filter by plan section"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of tasks to return (default: 20)"),
			),
		),
		handlers.ListTasks(deps.Store),
	)

	// project_progress — Completion rollup for one project
	s.AddTool(
		mcp.NewTool("project_progress",
			mcp.WithDescription("Show how many of a project's tracked tasks are completed."),
			mcp.WithString("project",
				mcp.Required(),
				mcp.Description("The project id"),
			),
		),
		handlers.ProjectProgress(deps.Store),
	)
}
