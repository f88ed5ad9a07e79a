package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/session"
)

// MemoryStore implements Store using in-memory storage.
type MemoryStore struct {
	logger *zap.Logger
	mu     sync.RWMutex
	rooms  map[string]map[string]session.Participant
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory roster store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger: logger.Named("hub.store.memory"),
		rooms:  make(map[string]map[string]session.Participant),
	}
}

// Upsert implements Store.Upsert
func (s *MemoryStore) Upsert(_ context.Context, sessionID string, p session.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, ok := s.rooms[sessionID]
	if !ok {
		roster = make(map[string]session.Participant)
		s.rooms[sessionID] = roster
	}
	roster[p.ID] = p
	return nil
}

// Remove implements Store.Remove
func (s *MemoryStore) Remove(_ context.Context, sessionID, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if roster, ok := s.rooms[sessionID]; ok {
		delete(roster, participantID)
		if len(roster) == 0 {
			delete(s.rooms, sessionID)
		}
	}
	return nil
}

// List implements Store.List
func (s *MemoryStore) List(_ context.Context, sessionID string) ([]session.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roster := s.rooms[sessionID]
	out := make([]session.Participant, 0, len(roster))
	for _, p := range roster {
		out = append(out, p)
	}
	return out, nil
}

// Clear implements Store.Clear
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, sessionID)
	return nil
}
