package memory

import (
	"context"
	"sync"
	"time"

	"cardgate/internal/cardgate/store"
)

type IdentityStore struct {
	mu      sync.RWMutex
	byID    map[string]store.IdentityRecord
	byEmail map[string]string // email -> id
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		byID:    make(map[string]store.IdentityRecord),
		byEmail: make(map[string]string),
	}
}

func (s *IdentityStore) CreateIdentity(_ context.Context, rec store.IdentityRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[rec.Email]; taken {
		return store.ErrDuplicateEmail
	}
	s.byID[rec.ID] = rec
	s.byEmail[rec.Email] = rec.ID
	return nil
}

func (s *IdentityStore) DeleteIdentity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byID[id]; ok {
		delete(s.byEmail, rec.Email)
	}
	delete(s.byID, id)
	return nil
}

// Identities returns a copy of all principals.  Test-only helper for
// asserting rollback left nothing behind.
func (s *IdentityStore) Identities() []store.IdentityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.IdentityRecord, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	return out
}
