package session

import (
	"context"
	"sync"

	"github.com/kama-line/service-reservation/internal/conversation"
)

// MemoryStore keeps sessions in process memory. Suitable for a single-process
// deployment and for tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*conversation.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*conversation.Session)}
}

// Get returns the user's session, or (nil, nil) when none exists.
func (s *MemoryStore) Get(_ context.Context, userID int64) (*conversation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	// Copy so the caller's mutations stay invisible until Put.
	clone := *sess
	return &clone, nil
}

// Put stores the user's session.
func (s *MemoryStore) Put(_ context.Context, userID int64, sess *conversation.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *sess
	s.sessions[userID] = &clone
	return nil
}

// Delete removes the user's session. Deleting an absent session is a no-op.
func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
