package memory

import (
	"context"
	"sync"

	"github.com/turnstile-labs/turnstile/internal/turnstile/store"
)

// CheckinStore is an in-memory append-only audit log of presentations.
// It is intended for use in tests and dev environments.
type CheckinStore struct {
	mu      sync.Mutex
	records []store.CheckinRecord
}

func NewCheckinStore() *CheckinStore {
	return &CheckinStore{}
}

func (s *CheckinStore) Record(_ context.Context, rec store.CheckinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of all recorded presentations.  Test-only helper.
func (s *CheckinStore) Records() []store.CheckinRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.CheckinRecord, len(s.records))
	copy(out, s.records)
	return out
}
