package scanfeed

import "sync"

// Slot holds the most recently observed card identifier.  It is a
// single last-write-wins cell with explicit consumed marking: a newer
// scan overwrites an unconsumed older one, so two scans arriving before
// the first is decided collapse into the newest.  Physical scans are
// spaced by human interaction time, making that an accepted race
// rather than a bug; the slot just makes it explicit and testable.
type Slot struct {
	mu       sync.Mutex
	id       string
	consumed bool
}

func NewSlot() *Slot {
	return &Slot{consumed: true}
}

// Publish stores id as the latest scan and marks it unconsumed.
func (s *Slot) Publish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.consumed = false
}

// Consume returns the latest identifier and marks it consumed.  The
// second return is false when the slot is empty or already consumed.
func (s *Slot) Consume() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return "", false
	}
	s.consumed = true
	return s.id, true
}

// Last returns the most recent identifier regardless of consumption.
func (s *Slot) Last() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.id != ""
}
