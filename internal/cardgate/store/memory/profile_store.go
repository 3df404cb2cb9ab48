package memory

import (
	"context"
	"sync"
	"time"

	"cardgate/internal/cardgate/store"
)

type ProfileStore struct {
	mu   sync.RWMutex
	byID map[string]store.ProfileRecord
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{byID: make(map[string]store.ProfileRecord)}
}

func (s *ProfileStore) CreateProfile(_ context.Context, rec store.ProfileRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[rec.ID] = rec
	return nil
}

func (s *ProfileStore) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

func (s *ProfileStore) CountProfiles(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func (s *ProfileStore) displayName(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	return rec.DisplayName, ok
}
