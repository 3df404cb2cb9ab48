package memory

import (
	"context"
	"sync"
	"time"

	"cardgate/internal/cardgate/store"
)

// CardStore is an in-memory card table keyed by normalized identifier.
// Intended for tests and dev environments.
type CardStore struct {
	mu       sync.RWMutex
	byUID    map[string]store.CardRecord
	nextID   int64
	profiles *ProfileStore // optional; joined for owner names
}

// NewCardStore returns an empty card store.  When profiles is non-nil,
// reads join it to resolve owner display names, matching the sqlite
// store's LEFT JOIN behavior.
func NewCardStore(profiles *ProfileStore) *CardStore {
	return &CardStore{byUID: make(map[string]store.CardRecord), nextID: 1, profiles: profiles}
}

func (s *CardStore) CreateCard(_ context.Context, rec store.CardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUID[rec.CardUID]; exists {
		return store.ErrDuplicateCard
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.ID = s.nextID
	s.nextID++
	s.byUID[rec.CardUID] = rec
	return nil
}

func (s *CardStore) FindByUID(_ context.Context, cardUID string) (store.CardRecord, error) {
	s.mu.RLock()
	rec, ok := s.byUID[cardUID]
	s.mu.RUnlock()

	if !ok {
		return store.CardRecord{}, store.ErrNotFound
	}
	return s.withOwnerName(rec), nil
}

func (s *CardStore) ListWithOwners(_ context.Context) ([]store.CardRecord, error) {
	s.mu.RLock()
	recs := make([]store.CardRecord, 0, len(s.byUID))
	for _, rec := range s.byUID {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	for i := range recs {
		recs[i] = s.withOwnerName(recs[i])
	}
	return recs, nil
}

func (s *CardStore) withOwnerName(rec store.CardRecord) store.CardRecord {
	if s.profiles == nil || rec.OwnerProfileID == "" {
		return rec
	}
	if name, ok := s.profiles.displayName(rec.OwnerProfileID); ok {
		rec.OwnerName = name
	}
	return rec
}
