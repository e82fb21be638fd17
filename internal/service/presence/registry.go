// Package presence tracks which users are reachable and over which
// sessions. The registry is an owned, mutex-protected instance injected
// into the event router and the gateway; nothing mutates its maps from
// outside.
package presence

import (
	"context"
	"sync"
	"time"

	"ripple_chat_server/pkg/constants"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SocialGraph supplies the neighbor set (followers ∪ following) used to
// pick presence-notification targets. Backed by the contact repository.
type SocialGraph interface {
	NeighborIDs(ctx context.Context, userID string) ([]string, error)
}

// StatusStore persists the online flag and last-seen timestamp so peers
// can show them after a reconnect. Backed by the user repository.
type StatusStore interface {
	SetOnline(ctx context.Context, userID string, online bool, lastSeen time.Time) error
}

// Notifier receives presence transitions for fan-out. Implemented by the
// event router; injected after construction because the router itself
// needs the registry to resolve sessions.
type Notifier interface {
	NotifyOnline(userID string, since time.Time, targets []string)
	NotifyOffline(userID string, lastSeen time.Time, targets []string)
}

// Registry owns the user -> sessions map.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]map[string]*Session
	bySession map[string]*Session

	graph    SocialGraph
	status   StatusStore
	notifier Notifier
}

// NewRegistry creates an empty registry. status may be nil when presence
// persistence is not wanted (tests).
func NewRegistry(graph SocialGraph, status StatusStore) *Registry {
	return &Registry{
		byUser:    make(map[string]map[string]*Session),
		bySession: make(map[string]*Session),
		graph:     graph,
		status:    status,
	}
}

// SetNotifier injects the event router once it exists.
func (r *Registry) SetNotifier(n Notifier) {
	r.notifier = n
}

// Connect registers a new session for userID. When it is the user's first
// active session the user goes online and online neighbors are notified.
// Registry operations never fail the caller; notification and persistence
// errors are logged only.
func (r *Registry) Connect(userID string) *Session {
	session := newSession(uuid.NewString(), userID, constants.CHANNEL_SIZE)

	r.mu.Lock()
	sessions, ok := r.byUser[userID]
	if !ok {
		sessions = make(map[string]*Session)
		r.byUser[userID] = sessions
	}
	first := len(sessions) == 0
	sessions[session.ID] = session
	r.bySession[session.ID] = session
	r.mu.Unlock()

	if first {
		r.wentOnline(userID, session.ConnectedAt)
	}
	return session
}

// Disconnect removes the session and closes its outbound channel. When it
// was the user's last session the user goes offline and online neighbors
// are notified with the last-seen timestamp.
func (r *Registry) Disconnect(sessionID string) {
	r.mu.Lock()
	session, ok := r.bySession[sessionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.bySession, sessionID)
	userID := session.UserID
	if sessions, ok := r.byUser[userID]; ok {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(r.byUser, userID)
		}
	}
	last := len(r.byUser[userID]) == 0
	r.mu.Unlock()

	session.close()

	if last {
		r.wentOffline(userID, time.Now())
	}
}

// SessionsFor returns the user's active sessions; an empty slice means
// offline (events for them are dropped, not queued).
func (r *Registry) SessionsFor(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*Session, 0, len(r.byUser[userID]))
	for _, s := range r.byUser[userID] {
		sessions = append(sessions, s)
	}
	return sessions
}

// IsOnline reports whether the user has at least one active session.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

func (r *Registry) wentOnline(userID string, since time.Time) {
	if r.status != nil {
		if err := r.status.SetOnline(context.Background(), userID, true, since); err != nil {
			zap.L().Error("persist online state failed", zap.String("user", userID), zap.Error(err))
		}
	}
	if targets := r.onlineNeighbors(userID); len(targets) > 0 && r.notifier != nil {
		r.notifier.NotifyOnline(userID, since, targets)
	}
}

func (r *Registry) wentOffline(userID string, lastSeen time.Time) {
	if r.status != nil {
		if err := r.status.SetOnline(context.Background(), userID, false, lastSeen); err != nil {
			zap.L().Error("persist offline state failed", zap.String("user", userID), zap.Error(err))
		}
	}
	if targets := r.onlineNeighbors(userID); len(targets) > 0 && r.notifier != nil {
		r.notifier.NotifyOffline(userID, lastSeen, targets)
	}
}

// onlineNeighbors filters the social-graph neighbor set down to users with
// at least one session here. Graph errors degrade to "notify nobody".
func (r *Registry) onlineNeighbors(userID string) []string {
	if r.graph == nil {
		return nil
	}
	neighbors, err := r.graph.NeighborIDs(context.Background(), userID)
	if err != nil {
		zap.L().Error("load neighbors failed", zap.String("user", userID), zap.Error(err))
		return nil
	}
	online := neighbors[:0]
	for _, id := range neighbors {
		if r.IsOnline(id) {
			online = append(online, id)
		}
	}
	return online
}
