package notify

import (
	"log/slog"
	"sync"
	"time"
)

const subscriptionBuffer = 64

// ProjectResolver maps a working directory to a project id.
// Defined consumer-side; the concrete resolver lives in internal/project.
type ProjectResolver interface {
	Resolve(workingDirectory string) (string, bool)
}

// Sink receives every notification regardless of session, for
// process-level observers such as the MCP push channel.
type Sink interface {
	Notify(n Notification)
}

// Subscription is one observer's feed for a single session.
type Subscription struct {
	id        int
	sessionID string
	ch        chan Notification
}

// Ch returns the channel to receive notifications on.
func (s *Subscription) Ch() <-chan Notification {
	return s.ch
}

// Hub implements Notifier with in-process fanout.
// Per-subscriber channels are buffered and sends are non-blocking: a slow
// or dead observer misses notifications instead of stalling ingestion.
type Hub struct {
	resolver ProjectResolver

	mu              sync.RWMutex
	nextID          int
	subs            map[string]map[int]*Subscription // sessionID → subscriptions
	sessionProject  map[string]string
	projectSessions map[string]map[string]bool
	sinks           []Sink
}

// NewHub creates a Hub using the given resolver for project bindings.
func NewHub(resolver ProjectResolver) *Hub {
	return &Hub{
		resolver:        resolver,
		subs:            make(map[string]map[int]*Subscription),
		sessionProject:  make(map[string]string),
		projectSessions: make(map[string]map[string]bool),
	}
}

// AddSink registers a process-level observer.
func (h *Hub) AddSink(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, s)
}

// Subscribe creates a subscription for one session's notifications,
// including notifications from sibling sessions of the same project.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:        h.nextID,
		sessionID: sessionID,
		ch:        make(chan Notification, subscriptionBuffer),
	}
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]*Subscription)
	}
	h.subs[sessionID][sub.id] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.subs[sub.sessionID]; ok {
		if _, ok := m[sub.id]; ok {
			delete(m, sub.id)
			close(sub.ch)
		}
		if len(m) == 0 {
			delete(h.subs, sub.sessionID)
		}
	}
}

// Broadcast delivers a notification to the originating session's observers
// and to observers of every other session bound to the same project.
// Fire-and-forget: nothing here returns an error to the caller.
func (h *Hub) Broadcast(eventType string, payload any, sessionID string) {
	n := Notification{
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	// Sends happen under the read lock: Unsubscribe closes channels under
	// the write lock, so a send can never race a close. Sends stay
	// non-blocking, so the lock is held only briefly.
	h.mu.RLock()
	for _, sub := range h.subs[sessionID] {
		sub.send(n)
	}
	if project, ok := h.sessionProject[sessionID]; ok {
		for sibling := range h.projectSessions[project] {
			if sibling == sessionID {
				continue // origin already served; avoid duplicate delivery
			}
			for _, sub := range h.subs[sibling] {
				sub.send(n)
			}
		}
	}
	sinks := h.sinks
	h.mu.RUnlock()

	for _, sink := range sinks {
		dispatch(sink, n)
	}
}

// send delivers without blocking. A full buffer drops the notification
// for this subscriber.
func (s *Subscription) send(n Notification) {
	select {
	case s.ch <- n:
	default:
	}
}

// dispatch shields the hub from a misbehaving sink.
func dispatch(s Sink, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("notification sink panicked", "type", n.Type, "panic", r)
		}
	}()
	s.Notify(n)
}

// BindSessionToProject records which project a session belongs to, based on
// its working directory. Unresolvable directories leave the session unbound;
// that is not an error.
func (h *Hub) BindSessionToProject(sessionID, workingDirectory string) error {
	if h.resolver == nil || sessionID == "" {
		return nil
	}
	projectID, ok := h.resolver.Resolve(workingDirectory)
	if !ok {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, bound := h.sessionProject[sessionID]; bound {
		if prev == projectID {
			return nil
		}
		delete(h.projectSessions[prev], sessionID)
	}
	h.sessionProject[sessionID] = projectID
	if h.projectSessions[projectID] == nil {
		h.projectSessions[projectID] = make(map[string]bool)
	}
	h.projectSessions[projectID][sessionID] = true
	return nil
}

// ProjectForSession returns the project a session is bound to, or "".
func (h *Hub) ProjectForSession(sessionID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessionProject[sessionID]
}

// SessionsForProject returns all sessions bound to a project.
func (h *Hub) SessionsForProject(projectID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessions := make([]string, 0, len(h.projectSessions[projectID]))
	for id := range h.projectSessions[projectID] {
		sessions = append(sessions, id)
	}
	return sessions
}
