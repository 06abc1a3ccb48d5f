package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var testTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.GetSession("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.CreateSession(&SessionRecord{
		ID:               "s1",
		StartedAt:        testTime,
		Status:           SessionActive,
		WorkingDirectory: "/work/demo",
	}))

	got, err := s.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, SessionActive, got.Status)
	assert.True(t, got.StartedAt.Equal(testTime))
	assert.True(t, got.EndedAt.IsZero())

	require.NoError(t, s.UpdateSessionStatus("s1", SessionCompleted, testTime.Add(time.Hour)))
	got, err = s.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, got.Status)
	assert.True(t, got.EndedAt.Equal(testTime.Add(time.Hour)))

	// Reactivation clears the end timestamp.
	require.NoError(t, s.UpdateSessionStatus("s1", SessionActive, time.Time{}))
	got, err = s.GetSession("s1")
	require.NoError(t, err)
	assert.True(t, got.EndedAt.IsZero())
}

func TestSessionCounters(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(&SessionRecord{ID: "s1", StartedAt: testTime, Status: SessionActive}))
	require.NoError(t, s.IncrementSessionEvents("s1"))
	require.NoError(t, s.IncrementSessionEvents("s1"))
	require.NoError(t, s.IncrementSessionAgents("s1"))

	got, err := s.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.EventCount)
	assert.Equal(t, 1, got.AgentCount)
}

func TestListSessions_NewestFirst(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(&SessionRecord{ID: "old", StartedAt: testTime, Status: SessionActive}))
	require.NoError(t, s.CreateSession(&SessionRecord{ID: "new", StartedAt: testTime.Add(time.Hour), Status: SessionActive}))

	sessions, err := s.ListSessions(1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "new", sessions[0].ID)
}

func TestAgentLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(&SessionRecord{ID: "s1", StartedAt: testTime, Status: SessionActive}))

	_, err := s.GetAgent("a1", "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.CreateAgent(&AgentRecord{
		ID: "a1", SessionID: "s1", Name: "Researcher", Type: "researcher",
		Status: AgentActive, FirstSeenAt: testTime, LastActivityAt: testTime,
	}))

	require.NoError(t, s.TouchAgent("a1", "s1", testTime.Add(time.Minute), 3, 1))
	require.NoError(t, s.RenameAgent("a1", "s1", "Researcher #2"))
	require.NoError(t, s.UpdateAgentStatus("a1", "s1", AgentIdle))

	got, err := s.GetAgent("a1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Researcher #2", got.Name)
	assert.Equal(t, AgentIdle, got.Status)
	assert.Equal(t, 3, got.ToolCallCount)
	assert.Equal(t, 1, got.ErrorCount)
	assert.True(t, got.LastActivityAt.Equal(testTime.Add(time.Minute)))
}

func TestAgentsSameIDDifferentSessions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.CreateAgent(&AgentRecord{
		ID: "main", SessionID: "s1", Name: "main", Status: AgentActive, FirstSeenAt: testTime, LastActivityAt: testTime,
	}))
	require.NoError(t, s.CreateAgent(&AgentRecord{
		ID: "main", SessionID: "s2", Name: "main", Status: AgentActive, FirstSeenAt: testTime, LastActivityAt: testTime,
	}))

	require.NoError(t, s.UpdateAgentStatus("main", "s1", AgentCompleted))

	other, err := s.GetAgent("main", "s2")
	require.NoError(t, err)
	assert.Equal(t, AgentActive, other.Status)
}

func TestAgentsInStatus(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	seed := []struct {
		id     string
		status AgentStatus
	}{
		{"a1", AgentActive},
		{"a2", AgentIdle},
		{"a3", AgentError},
		{"a4", AgentShutdown},
	}
	for i, a := range seed {
		require.NoError(t, s.CreateAgent(&AgentRecord{
			ID: a.id, SessionID: "s1", Name: a.id, Status: a.status,
			FirstSeenAt: testTime.Add(time.Duration(i) * time.Second), LastActivityAt: testTime,
		}))
	}

	agents, err := s.AgentsInStatus("s1", AgentActive, AgentIdle)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "a1", agents[0].ID)
	assert.Equal(t, "a2", agents[1].ID)
}

func TestEvents_InsertAndList(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.InsertEvent(&EventRecord{
			ID:        string(rune('a' + i)),
			SessionID: "s1",
			AgentID:   "main",
			Timestamp: testTime.Add(time.Duration(i) * time.Minute),
			HookKind:  "PostToolUse",
			Category:  "tool_call",
			Tool:      "Bash",
			Metadata:  map[string]any{"task_id": "t1"},
		}))
	}

	events, err := s.ListEvents("s1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].ID, "newest first")
	assert.Equal(t, "t1", events[0].Metadata["task_id"])
}

func TestTasks_FiltersAndTitleMatch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	seed := []TaskRecord{
		{ID: "t1", ProjectID: "proj", Section: "core", Title: "Implement JSON parser", Status: TaskPending, CreatedAt: testTime},
		{ID: "t2", ProjectID: "proj", Section: "core", Title: "Implement YAML parser", Status: TaskInProgress, CreatedAt: testTime.Add(time.Minute)},
		{ID: "t3", ProjectID: "other", Section: "infra", Title: "Parser benchmarks", Status: TaskPending, CreatedAt: testTime},
	}
	for i := range seed {
		require.NoError(t, s.CreateTask(&seed[i]))
	}

	tasks, err := s.ListTasks(TaskFilter{ProjectID: "proj", Status: TaskPending})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)

	tasks, err = s.ListTasks(TaskFilter{IDs: []string{"t1", "t3"}})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = s.TasksMatchingTitle("proj", "implement json")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)

	// Matching is case-insensitive and substring based.
	tasks, err = s.TasksMatchingTitle("proj", "PARSER")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestTaskStatusUpdate(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.CreateTask(&TaskRecord{
		ID: "t1", ProjectID: "proj", Title: "Work item", Status: TaskInProgress, CreatedAt: testTime,
		DependsOn: []string{"t0"},
	}))

	require.NoError(t, s.UpdateTaskStatus("t1", TaskCompleted, testTime.Add(time.Hour)))

	got, err := s.GetTask("t1")
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, got.Status)
	assert.True(t, got.CompletedAt.Equal(testTime.Add(time.Hour)))
	assert.Equal(t, []string{"t0"}, got.DependsOn)
}

func TestSprintRollup(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.CreateSprint(&SprintRecord{ID: "sp1", ProjectID: "proj", Name: "Sprint 1", OrderNum: 1}))
	require.NoError(t, s.CreateTask(&TaskRecord{ID: "t1", ProjectID: "proj", SprintID: "sp1", Title: "One", Status: TaskCompleted, CreatedAt: testTime}))
	require.NoError(t, s.CreateTask(&TaskRecord{ID: "t2", ProjectID: "proj", SprintID: "sp1", Title: "Two", Status: TaskPending, CreatedAt: testTime}))

	require.NoError(t, s.RecomputeSprintRollup("sp1"))

	sprint, err := s.GetSprint("sp1")
	require.NoError(t, err)
	assert.Equal(t, 1, sprint.CompletedTasks)
	assert.Equal(t, 2, sprint.TotalTasks)

	completed, total, err := s.ProjectRollup("proj")
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 2, total)
}

func TestBindings_ThresholdAndExpiry(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.CreateBinding(&BindingRecord{
		ID: "b1", AgentID: "a1", SessionID: "s1", TaskID: "t1", Confidence: 0.95, BoundAt: testTime,
	}))
	require.NoError(t, s.CreateBinding(&BindingRecord{
		ID: "b2", AgentID: "a1", SessionID: "s1", TaskID: "t2", Confidence: 0.6, BoundAt: testTime,
	}))

	bindings, err := s.ActiveBindingsForSession("s1", 0.75)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "b1", bindings[0].ID)

	bindings, err = s.ActiveBindingsForAgent("a1", "s1", 0)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, "b1", bindings[0].ID, "highest confidence first")

	require.NoError(t, s.ExpireBinding("b1", testTime.Add(time.Hour)))
	bindings, err = s.ActiveBindingsForSession("s1", 0)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "b2", bindings[0].ID)
}

func TestTaskItemUpsert(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	item := &TaskItemRecord{AgentID: "a1", SessionID: "s1", Subject: "Write docs", Status: "in_progress", UpdatedAt: testTime}
	require.NoError(t, s.UpsertTaskItem(item))

	item.Status = "completed"
	item.UpdatedAt = testTime.Add(time.Minute)
	require.NoError(t, s.UpsertTaskItem(item))

	var status string
	err := s.db.QueryRow(`SELECT status FROM task_items WHERE agent_id = ? AND session_id = ? AND subject = ?`,
		"a1", "s1", "Write docs").Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, "completed", status)
}

func TestFileChanges(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordFileChange(&FileChangeRecord{
		SessionID: "s1", AgentID: "main", EventID: "e1", Path: "/src/a.go", Tool: "Write", ChangedAt: testTime,
	}))
	require.NoError(t, s.RecordFileChange(&FileChangeRecord{
		SessionID: "s1", AgentID: "main", EventID: "e2", Path: "/src/b.go", Tool: "Edit", ChangedAt: testTime.Add(time.Minute),
	}))

	changes, err := s.ListFileChanges("s1")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "/src/a.go", changes[0].Path)
	assert.NotZero(t, changes[0].ID)
}

func TestAppendAudit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.AppendAudit(&AuditRecord{
		ID: "audit-1", TaskID: "t1", AgentID: "a1", SessionID: "s1",
		Confidence: 0.95, Source: "session_end", Reason: "binding settled", CreatedAt: testTime,
	}))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM correlation_audit").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	// A second migrate run must be a no-op.
	require.NoError(t, s.migrate())

	var version int
	require.NoError(t, s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version))
	assert.Equal(t, len(migrations), version)
}
