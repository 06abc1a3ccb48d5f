// Package hooks normalizes raw hook payloads emitted by the coding-agent
// runtime into canonical events.
package hooks

import "time"

// Kind identifies the lifecycle point that emitted a hook.
type Kind string

const (
	KindSessionStart       Kind = "SessionStart"
	KindSessionEnd         Kind = "SessionEnd"
	KindUserPromptSubmit   Kind = "UserPromptSubmit"
	KindPreToolUse         Kind = "PreToolUse"
	KindPostToolUse        Kind = "PostToolUse"
	KindPostToolUseFailure Kind = "PostToolUseFailure"
	KindToolError          Kind = "ToolError"
	KindPreToolUseRejected Kind = "PreToolUseRejected"
	KindNotification       Kind = "Notification"
	KindPreCompact         Kind = "PreCompact"
	KindPostCompact        Kind = "PostCompact"
	KindStop               Kind = "Stop"
	KindSubagentStart      Kind = "SubagentStart"
	KindSubagentStop       Kind = "SubagentStop"
)

// Category classifies an event for storage and fanout.
type Category string

const (
	CategoryLifecycle    Category = "lifecycle"
	CategoryError        Category = "error"
	CategoryNotification Category = "notification"
	CategoryCompact      Category = "compact"
	CategoryFileChange   Category = "file_change"
	CategoryCommand      Category = "command"
	CategoryMessage      Category = "message"
	CategoryToolCall     Category = "tool_call"
)

// RawEvent is the wire payload posted by a hook sender.
// Everything except Kind is optional.
type RawEvent struct {
	Kind             Kind           `json:"hook_kind"`
	Timestamp        time.Time      `json:"timestamp,omitzero"`
	SessionID        string         `json:"session_id,omitempty"`
	AgentID          string         `json:"agent_id,omitempty"`
	AgentType        string         `json:"agent_type,omitempty"`
	Tool             string         `json:"tool,omitempty"`
	Input            any            `json:"input,omitempty"`
	Output           any            `json:"output,omitempty"`
	Error            string         `json:"error,omitempty"`
	DurationMS       int64          `json:"duration_ms,omitempty"`
	WorkingDirectory string         `json:"cwd,omitempty"`
	Data             map[string]any `json:"data,omitempty"`
}

// categoryRule maps a hook kind to its category. Rules are evaluated in
// order; the first match wins, so lifecycle beats tool classification.
type categoryRule struct {
	kinds    []Kind
	category Category
}

var categoryRules = []categoryRule{
	{kinds: []Kind{KindSessionStart, KindSessionEnd, KindStop, KindSubagentStart, KindSubagentStop, KindUserPromptSubmit}, category: CategoryLifecycle},
	{kinds: []Kind{KindToolError, KindPreToolUseRejected, KindPostToolUseFailure}, category: CategoryError},
	{kinds: []Kind{KindNotification}, category: CategoryNotification},
	{kinds: []Kind{KindPreCompact, KindPostCompact}, category: CategoryCompact},
}

// Tool membership sets for the fallback classification of tool hooks.
var (
	fileChangeTools = map[string]bool{
		"Write":        true,
		"Edit":         true,
		"MultiEdit":    true,
		"NotebookEdit": true,
	}
	commandTools = map[string]bool{
		"Bash":       true,
		"BashOutput": true,
		"KillShell":  true,
	}
	messageTools = map[string]bool{
		"SendMessage": true,
		"TeamCreate":  true,
	}
)

// Classify assigns the category for a hook kind and tool name using the
// ordered rule table.
func Classify(kind Kind, tool string) Category {
	for _, rule := range categoryRules {
		for _, k := range rule.kinds {
			if k == kind {
				return rule.category
			}
		}
	}
	switch {
	case fileChangeTools[tool]:
		return CategoryFileChange
	case commandTools[tool]:
		return CategoryCommand
	case messageTools[tool]:
		return CategoryMessage
	}
	return CategoryToolCall
}