package session

import (
	"context"
	"sync"
)

// MemoryStore is a process-local session store, used in tests and when no
// redis address is configured. The session then lasts only as long as the
// process.
type MemoryStore struct {
	mu   sync.Mutex
	sess *Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the current session, or nil when signed out.
func (s *MemoryStore) Load(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return nil, nil
	}
	cp := *s.sess
	return &cp, nil
}

// Save replaces the current session wholesale.
func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sess = &cp
	return nil
}

// Clear removes the current session.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}
