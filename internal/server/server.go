// Package server exposes the ingestion and read API over HTTP: hook intake,
// REST reads, a server-sent-events stream, and the task batch endpoint.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kolapsis/overseer/internal/config"
	"github.com/kolapsis/overseer/internal/engine"
	"github.com/kolapsis/overseer/internal/hooks"
	"github.com/kolapsis/overseer/internal/notify"
	"github.com/kolapsis/overseer/internal/store"
)

const defaultListLimit = 100

// Server wires the HTTP surface to the engine, the store, and the hub.
type Server struct {
	engine *engine.Engine
	store  store.Store
	hub    *notify.Hub
}

// New creates a Server.
func New(eng *engine.Engine, st store.Store, hub *notify.Hub) *Server {
	return &Server{engine: eng, store: st, hub: hub}
}

// Router builds the chi router. mcpHandler, when non-nil, is mounted on
// /mcp inside the rate-limited group.
func (s *Server) Router(rl config.RateLimitConfig, mcpHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(rl))

		r.Post("/hooks", s.handleHook)

		r.Route("/api", func(r chi.Router) {
			r.Get("/stream", s.handleStream)
			r.Get("/sessions", s.handleListSessions)
			r.Get("/sessions/{sessionID}/agents", s.handleListAgents)
			r.Get("/sessions/{sessionID}/events", s.handleListEvents)
			r.Get("/sessions/{sessionID}/files", s.handleListFileChanges)
			r.Get("/tasks", s.handleListTasks)
			r.Post("/tasks/complete", s.handleCompleteTasks)
		})

		if mcpHandler != nil {
			r.Handle("/mcp", mcpHandler)
		}
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

// handleHook ingests one raw hook event.
func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	var raw hooks.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if raw.Kind == "" {
		writeError(w, http.StatusBadRequest, "hook_kind is required")
		return
	}

	ev, err := s.engine.ProcessEvent(raw)
	if err != nil {
		if raw.SessionID == "" {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("event ingestion failed", "kind", raw.Kind, "session", raw.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "event not persisted")
		return
	}

	writeJSON(w, http.StatusAccepted, eventView(ev))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing sessions failed")
		return
	}
	out := make([]sessionJSON, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessionView(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.store.ListAgents(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing agents failed")
		return
	}
	out := make([]agentJSON, 0, len(agents))
	for i := range agents {
		out = append(out, agentView(&agents[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(chi.URLParam(r, "sessionID"), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing events failed")
		return
	}
	out := make([]eventJSON, 0, len(events))
	for i := range events {
		out = append(out, eventView(&events[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListFileChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := s.store.ListFileChanges(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing file changes failed")
		return
	}
	out := make([]fileChangeJSON, 0, len(changes))
	for i := range changes {
		out = append(out, fileChangeView(&changes[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TaskFilter{
		ProjectID: q.Get("project"),
		Section:   q.Get("section"),
		Status:    store.TaskStatus(q.Get("status")),
		Limit:     queryLimit(r),
	}
	tasks, err := s.store.ListTasks(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing tasks failed")
		return
	}
	out := make([]taskJSON, 0, len(tasks))
	for i := range tasks {
		out = append(out, taskView(&tasks[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// completeRequest is the body of POST /api/tasks/complete. Either a list of
// task ids or a project+section pair selects the targets.
type completeRequest struct {
	TaskIDs   []string `json:"task_ids"`
	ProjectID string   `json:"project_id"`
	Section   string   `json:"section"`
	Reason    string   `json:"reason"`
}

func (s *Server) handleCompleteTasks(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	var (
		n   int
		err error
	)
	switch {
	case len(req.TaskIDs) > 0:
		n, err = s.engine.CompleteTasksByIDs(req.TaskIDs, req.Reason)
	case req.ProjectID != "" && req.Section != "":
		n, err = s.engine.CompleteTasksBySection(req.ProjectID, req.Section, req.Reason)
	default:
		writeError(w, http.StatusBadRequest, "task_ids or project_id+section required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "batch completion failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"completed": n})
}

func queryLimit(r *http.Request) int {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Debug("response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// JSON views keep wire shapes stable and independent of store records.

type sessionJSON struct {
	ID               string     `json:"id"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
	Status           string     `json:"status"`
	WorkingDirectory string     `json:"workingDirectory,omitempty"`
	EventCount       int        `json:"eventCount"`
	AgentCount       int        `json:"agentCount"`
}

func sessionView(s *store.SessionRecord) sessionJSON {
	v := sessionJSON{
		ID:               s.ID,
		StartedAt:        s.StartedAt,
		Status:           string(s.Status),
		WorkingDirectory: s.WorkingDirectory,
		EventCount:       s.EventCount,
		AgentCount:       s.AgentCount,
	}
	if !s.EndedAt.IsZero() {
		ended := s.EndedAt
		v.EndedAt = &ended
	}
	return v
}

type agentJSON struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	Name           string    `json:"name"`
	Type           string    `json:"type,omitempty"`
	Status         string    `json:"status"`
	FirstSeenAt    time.Time `json:"firstSeenAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	ToolCallCount  int       `json:"toolCallCount"`
	ErrorCount     int       `json:"errorCount"`
}

func agentView(a *store.AgentRecord) agentJSON {
	return agentJSON{
		ID:             a.ID,
		SessionID:      a.SessionID,
		Name:           a.Name,
		Type:           a.Type,
		Status:         string(a.Status),
		FirstSeenAt:    a.FirstSeenAt,
		LastActivityAt: a.LastActivityAt,
		ToolCallCount:  a.ToolCallCount,
		ErrorCount:     a.ErrorCount,
	}
}

type eventJSON struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"sessionId"`
	AgentID    string         `json:"agentId"`
	Timestamp  time.Time      `json:"timestamp"`
	HookKind   string         `json:"hookKind"`
	Category   string         `json:"category"`
	Tool       string         `json:"tool,omitempty"`
	FilePath   string         `json:"filePath,omitempty"`
	Input      string         `json:"input,omitempty"`
	Output     string         `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"durationMs,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func eventView(e *store.EventRecord) eventJSON {
	return eventJSON{
		ID:         e.ID,
		SessionID:  e.SessionID,
		AgentID:    e.AgentID,
		Timestamp:  e.Timestamp,
		HookKind:   e.HookKind,
		Category:   e.Category,
		Tool:       e.Tool,
		FilePath:   e.FilePath,
		Input:      e.Input,
		Output:     e.Output,
		Error:      e.Error,
		DurationMS: e.DurationMS,
		Metadata:   e.Metadata,
	}
}

type taskJSON struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	SprintID    string     `json:"sprintId,omitempty"`
	Section     string     `json:"section,omitempty"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func taskView(t *store.TaskRecord) taskJSON {
	v := taskJSON{
		ID:        t.ID,
		ProjectID: t.ProjectID,
		SprintID:  t.SprintID,
		Section:   t.Section,
		Title:     t.Title,
		Status:    string(t.Status),
	}
	if !t.CompletedAt.IsZero() {
		done := t.CompletedAt
		v.CompletedAt = &done
	}
	return v
}

type fileChangeJSON struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	AgentID   string    `json:"agentId"`
	EventID   string    `json:"eventId"`
	Path      string    `json:"path"`
	Tool      string    `json:"tool"`
	ChangedAt time.Time `json:"changedAt"`
}

func fileChangeView(c *store.FileChangeRecord) fileChangeJSON {
	return fileChangeJSON{
		ID:        c.ID,
		SessionID: c.SessionID,
		AgentID:   c.AgentID,
		EventID:   c.EventID,
		Path:      c.Path,
		Tool:      c.Tool,
		ChangedAt: c.ChangedAt,
	}
}
