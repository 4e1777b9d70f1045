package registry

import (
	"sync"
	"time"
)

// Session is the identity bound to one live connection: the
// self-asserted display name, the room it joined, and when.
type Session struct {
	Username string
	RoomID   string
	JoinedAt time.Time
}

// Registry maps connection IDs to sessions. A connection has no session
// until its join is admitted.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func New() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

func (r *Registry) Put(connID string, s Session) {
	r.mu.Lock()
	r.sessions[connID] = s
	r.mu.Unlock()
}

func (r *Registry) Get(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	return s, ok
}

// Remove deletes and returns the session for connID. Removing an
// unknown ID is a no-op and reports false.
func (r *Registry) Remove(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if ok {
		delete(r.sessions, connID)
	}
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
