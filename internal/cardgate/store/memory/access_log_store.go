package memory

import (
	"context"
	"sync"
	"time"

	"cardgate/internal/cardgate/store"
)

// AccessLogStore is an in-memory append-only audit log.
type AccessLogStore struct {
	mu      sync.Mutex
	entries []store.AccessLogRecord
	nextID  int64

	// FailAppends and FailReads force errors, for exercising the
	// swallow-and-degrade paths in tests.
	FailAppends error
	FailReads   error
}

func NewAccessLogStore() *AccessLogStore {
	return &AccessLogStore{nextID: 1}
}

func (s *AccessLogStore) AppendEntry(_ context.Context, rec store.AccessLogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAppends != nil {
		return s.FailAppends
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	rec.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, rec)
	return nil
}

func (s *AccessLogStore) RecentEntries(_ context.Context, limit int) ([]store.AccessLogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailReads != nil {
		return nil, s.FailReads
	}

	// Entries are appended in timestamp order, so newest-first is just
	// the reverse of the slice.
	out := []store.AccessLogRecord{}
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Entries returns a copy of all records in append order.  Test-only
// helper.
func (s *AccessLogStore) Entries() []store.AccessLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AccessLogRecord, len(s.entries))
	copy(out, s.entries)
	return out
}
