package engine

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kolapsis/overseer/internal/store"
)

// fakeStore is an in-memory store.Store for engine tests.
type fakeStore struct {
	mu          sync.Mutex
	sessions    map[string]*store.SessionRecord
	agents      map[string]*store.AgentRecord // id + "\x00" + sessionID
	events      []store.EventRecord
	tasks       map[string]*store.TaskRecord
	sprints     map[string]*store.SprintRecord
	bindings    map[string]*store.BindingRecord
	items       map[string]*store.TaskItemRecord
	fileChanges []store.FileChangeRecord
	audits      []store.AuditRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*store.SessionRecord),
		agents:   make(map[string]*store.AgentRecord),
		tasks:    make(map[string]*store.TaskRecord),
		sprints:  make(map[string]*store.SprintRecord),
		bindings: make(map[string]*store.BindingRecord),
		items:    make(map[string]*store.TaskItemRecord),
	}
}

func agentKey(id, sessionID string) string { return id + "\x00" + sessionID }

func (f *fakeStore) CreateSession(s *store.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) GetSession(id string) (*store.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) UpdateSessionStatus(id string, status store.SessionStatus, endedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Status = status
	s.EndedAt = endedAt
	return nil
}

func (f *fakeStore) IncrementSessionEvents(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		s.EventCount++
	}
	return nil
}

func (f *fakeStore) IncrementSessionAgents(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		s.AgentCount++
	}
	return nil
}

func (f *fakeStore) ListSessions(limit int) ([]store.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.SessionRecord, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) CreateAgent(a *store.AgentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.agents[agentKey(a.ID, a.SessionID)] = &cp
	return nil
}

func (f *fakeStore) GetAgent(id, sessionID string) (*store.AgentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[agentKey(id, sessionID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) UpdateAgentStatus(id, sessionID string, status store.AgentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[agentKey(id, sessionID)]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeStore) RenameAgent(id, sessionID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[agentKey(id, sessionID)]
	if !ok {
		return store.ErrNotFound
	}
	a.Name = name
	return nil
}

func (f *fakeStore) TouchAgent(id, sessionID string, at time.Time, toolCalls, errCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[agentKey(id, sessionID)]
	if !ok {
		return store.ErrNotFound
	}
	a.LastActivityAt = at
	a.ToolCallCount += toolCalls
	a.ErrorCount += errCount
	return nil
}

func (f *fakeStore) ListAgents(sessionID string) ([]store.AgentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.AgentRecord
	for _, a := range f.agents {
		if a.SessionID == sessionID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeenAt.Before(out[j].FirstSeenAt) })
	return out, nil
}

func (f *fakeStore) AgentsInStatus(sessionID string, statuses ...store.AgentStatus) ([]store.AgentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.AgentRecord
	for _, a := range f.agents {
		if a.SessionID != sessionID {
			continue
		}
		for _, st := range statuses {
			if a.Status == st {
				out = append(out, *a)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) InsertEvent(e *store.EventRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeStore) ListEvents(sessionID string, limit int) ([]store.EventRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.EventRecord
	for _, e := range f.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTask(t *store.TaskRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeStore) GetTask(id string) (*store.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) UpdateTaskStatus(id string, status store.TaskStatus, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Status = status
	t.CompletedAt = completedAt
	return nil
}

func (f *fakeStore) ListTasks(filter store.TaskFilter) ([]store.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		wanted[id] = true
	}
	var out []store.TaskRecord
	for _, t := range f.tasks {
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Section != "" && t.Section != filter.Section {
			continue
		}
		if len(wanted) > 0 && !wanted[t.ID] {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) TasksMatchingTitle(projectID, needle string) ([]store.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	needle = strings.ToLower(needle)
	var out []store.TaskRecord
	for _, t := range f.tasks {
		if t.ProjectID == projectID && strings.Contains(strings.ToLower(t.Title), needle) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateSprint(s *store.SprintRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sprints[s.ID] = &cp
	return nil
}

func (f *fakeStore) GetSprint(id string) (*store.SprintRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sprints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) RecomputeSprintRollup(sprintID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sprints[sprintID]
	if !ok {
		return store.ErrNotFound
	}
	s.CompletedTasks, s.TotalTasks = 0, 0
	for _, t := range f.tasks {
		if t.SprintID != sprintID {
			continue
		}
		s.TotalTasks++
		if t.Status == store.TaskCompleted {
			s.CompletedTasks++
		}
	}
	return nil
}

func (f *fakeStore) ProjectRollup(projectID string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	completed, total := 0, 0
	for _, t := range f.tasks {
		if t.ProjectID != projectID {
			continue
		}
		total++
		if t.Status == store.TaskCompleted {
			completed++
		}
	}
	return completed, total, nil
}

func (f *fakeStore) CreateBinding(b *store.BindingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.bindings[b.ID] = &cp
	return nil
}

func (f *fakeStore) activeBindings(minConfidence float64, keep func(*store.BindingRecord) bool) []store.BindingRecord {
	var out []store.BindingRecord
	for _, b := range f.bindings {
		if !b.ExpiredAt.IsZero() || b.Confidence < minConfidence || !keep(b) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

func (f *fakeStore) ActiveBindingsForSession(sessionID string, minConfidence float64) ([]store.BindingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeBindings(minConfidence, func(b *store.BindingRecord) bool {
		return b.SessionID == sessionID
	}), nil
}

func (f *fakeStore) ActiveBindingsForAgent(agentID, sessionID string, minConfidence float64) ([]store.BindingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeBindings(minConfidence, func(b *store.BindingRecord) bool {
		return b.AgentID == agentID && b.SessionID == sessionID
	}), nil
}

func (f *fakeStore) ExpireBinding(id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bindings[id]
	if !ok {
		return store.ErrNotFound
	}
	b.ExpiredAt = at
	return nil
}

func (f *fakeStore) UpsertTaskItem(i *store.TaskItemRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *i
	f.items[i.AgentID+"\x00"+i.SessionID+"\x00"+i.Subject] = &cp
	return nil
}

func (f *fakeStore) RecordFileChange(c *store.FileChangeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.ID = int64(len(f.fileChanges) + 1)
	f.fileChanges = append(f.fileChanges, cp)
	return nil
}

func (f *fakeStore) ListFileChanges(sessionID string) ([]store.FileChangeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.FileChangeRecord
	for _, c := range f.fileChanges {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendAudit(a *store.AuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, *a)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) agent(id, sessionID string) *store.AgentRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.agents[agentKey(id, sessionID)]; ok {
		cp := *a
		return &cp
	}
	return nil
}

func (f *fakeStore) task(id string) *store.TaskRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tasks[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

// recorded is one broadcast captured by the fake notifier.
type recorded struct {
	Type      string
	SessionID string
	Payload   any
}

// fakeNotifier records broadcasts and serves project bindings from a
// configurable directory → project table.
type fakeNotifier struct {
	mu          sync.Mutex
	notes       []recorded
	dirProjects map[string]string // working directory prefix → project
	sessions    map[string]string // sessionID → project
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		dirProjects: make(map[string]string),
		sessions:    make(map[string]string),
	}
}

func (n *fakeNotifier) Broadcast(eventType string, payload any, sessionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, recorded{Type: eventType, SessionID: sessionID, Payload: payload})
}

func (n *fakeNotifier) BindSessionToProject(sessionID, workingDirectory string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for prefix, project := range n.dirProjects {
		if strings.HasPrefix(workingDirectory, prefix) {
			n.sessions[sessionID] = project
			return nil
		}
	}
	return nil
}

func (n *fakeNotifier) ProjectForSession(sessionID string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sessions[sessionID]
}

func (n *fakeNotifier) SessionsForProject(projectID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for s, p := range n.sessions {
		if p == projectID {
			out = append(out, s)
		}
	}
	return out
}

func (n *fakeNotifier) byType(eventType string) []recorded {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []recorded
	for _, r := range n.notes {
		if r.Type == eventType {
			out = append(out, r)
		}
	}
	return out
}
