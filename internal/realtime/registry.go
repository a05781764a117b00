// Package realtime tracks live socket sessions. The registry is process-local
// state rebuilt from live connections on restart; it is never persisted.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"
)

// Session is a live client connection the socket channel can write to.
type Session interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

type entry struct {
	userID     string
	session    Session
	lastActive time.Time
}

// Registry maintains the bidirectional user<->session mapping. Safe for
// concurrent use by many connection handlers.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]string // user id -> session id
	bySession map[string]*entry
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[string]string),
		bySession: make(map[string]*entry),
	}
}

// Register associates a session with a user. A newer session replaces the
// user's previous one, which is closed.
func (r *Registry) Register(userID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if oldID, ok := r.byUser[userID]; ok && oldID != s.ID() {
		if old, ok := r.bySession[oldID]; ok {
			_ = old.session.Close()
			delete(r.bySession, oldID)
		}
	}

	r.byUser[userID] = s.ID()
	r.bySession[s.ID()] = &entry{userID: userID, session: s, lastActive: time.Now()}
}

// Unregister removes a session. Removing an unknown session is a no-op.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.bySession[sessionID]
	if !ok {
		return
	}

	delete(r.bySession, sessionID)
	if r.byUser[e.userID] == sessionID {
		delete(r.byUser, e.userID)
	}
}

// Touch marks a session as recently active, deferring the idle sweep.
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.bySession[sessionID]; ok {
		e.lastActive = time.Now()
	}
}

// IsOnline reports whether the user currently holds a live session.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUser[userID]
	return ok
}

// Lookup returns the user's live session, if any.
func (r *Registry) Lookup(userID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessionID, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}

	e, ok := r.bySession[sessionID]
	if !ok {
		return nil, false
	}

	return e.session, true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.bySession)
}

// Run sweeps idle sessions until the context is cancelled. Sessions inactive
// longer than idleTimeout are closed and removed.
func (r *Registry) Run(ctx context.Context, sweepInterval, idleTimeout time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept := r.sweep(idleTimeout)
			if swept > 0 {
				zlog.Logger.Info().Int("sessions", swept).Msg("swept idle realtime sessions")
			}
		}
	}
}

func (r *Registry) sweep(idleTimeout time.Duration) int {
	cutoff := time.Now().Add(-idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()

	var swept int
	for id, e := range r.bySession {
		if e.lastActive.Before(cutoff) {
			_ = e.session.Close()
			delete(r.bySession, id)
			if r.byUser[e.userID] == id {
				delete(r.byUser, e.userID)
			}
			swept++
		}
	}

	return swept
}
