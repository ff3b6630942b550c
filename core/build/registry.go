package build

import (
	"sync"
	"time"

	"pcbuild/internal/errors"
)

// Registry holds live sessions by ID. Sessions idle longer than the TTL are
// dropped on the next sweep.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates a registry; ttl <= 0 keeps sessions forever
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Add stores a session
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns a session by ID
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || r.expired(s) {
		return nil, errors.NotFound("session", id)
	}
	return s, nil
}

// Remove discards a session
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of held sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes expired sessions and returns how many were dropped
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

func (r *Registry) expired(s *Session) bool {
	if r.ttl <= 0 {
		return false
	}
	return r.now().Sub(s.UpdatedAt()) > r.ttl
}
