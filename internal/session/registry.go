package session

import (
	"sync"
)

// Registry is the set of live sessions. It is shared by the connection
// handlers, the receive loops and the broadcaster; iteration always works on
// a copy so removals during a broadcast never disturb it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[*Session]struct{}),
	}
}

// Add registers s. It reports false if s is nil or already present.
func (r *Registry) Add(s *Session) bool {
	if s == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s]; ok {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

// Remove unregisters s. Removing an absent session is a no-op that reports
// false.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s]; !ok {
		return false
	}
	delete(r.sessions, s)
	return true
}

func (r *Registry) Contains(s *Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[s]
	return ok
}

// Sessions returns a point-in-time copy of the registered sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		result = append(result, s)
	}
	return result
}

// ForEach calls fn for every session registered at the time of the call.
// fn may add or remove sessions.
func (r *Registry) ForEach(fn func(*Session)) {
	for _, s := range r.Sessions() {
		fn(s)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) IsEmpty() bool {
	return r.Len() == 0
}

// CloseAll empties the registry and closes every session that was in it.
// It returns how many sessions were closed.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	old := r.sessions
	r.sessions = make(map[*Session]struct{})
	r.mu.Unlock()

	for s := range old {
		s.Close()
	}
	return len(old)
}
