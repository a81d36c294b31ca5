package app

import (
	"sync"
	"time"
)

// Session holds the once-per-session notification guards for one form
// instance. Repeated downloads or sends from the same session must not
// spam the chat/CRM integrations; a fresh session (page reload) starts
// clean. The flags are independent per action.
type Session struct {
	mu               sync.Mutex
	downloadNotified bool
	emailNotified    bool
	lastSeen         time.Time
}

// beginNotify flips the flag for the action and reports whether this is
// the first notification attempt of that kind in the session.
func (s *Session) beginNotify(action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	switch action {
	case "email":
		if s.emailNotified {
			return false
		}
		s.emailNotified = true
	default:
		if s.downloadNotified {
			return false
		}
		s.downloadNotified = true
	}
	return true
}

const (
	sessionTTL        = 24 * time.Hour
	sessionPruneAbove = 1024
)

// SessionRegistry tracks sessions by client-supplied ID. Entries are
// pruned by age once the table grows past a threshold so hostile
// traffic cannot grow it without bound.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry constructs an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use.
func (r *SessionRegistry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) > sessionPruneAbove {
		r.pruneLocked()
	}
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{lastSeen: time.Now()}
		r.sessions[id] = s
	}
	return s
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) pruneLocked() {
	cutoff := time.Now().Add(-sessionTTL)
	for id, s := range r.sessions {
		s.mu.Lock()
		stale := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(r.sessions, id)
		}
	}
}
