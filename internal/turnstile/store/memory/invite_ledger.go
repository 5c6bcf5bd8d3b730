package memory

import (
	"context"
	"sync"
	"time"

	"github.com/turnstile-labs/turnstile/internal/turnstile/store"
)

// InviteLedger is an in-memory ledger for tests and dev.  A single mutex
// makes Claim's check-and-transition atomic.
type InviteLedger struct {
	mu      sync.Mutex
	byToken map[string]*store.InviteRecord
}

func NewInviteLedger() *InviteLedger {
	return &InviteLedger{byToken: make(map[string]*store.InviteRecord)}
}

// Add seeds an invite.  Status defaults to PENDING when empty.
func (l *InviteLedger) Add(rec store.InviteRecord) {
	if rec.Status == "" {
		rec.Status = store.StatusPending
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byToken[rec.Token] = &rec
}

func (l *InviteLedger) Claim(_ context.Context, token, gate string, at time.Time) (store.InviteRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.byToken[token]
	if !ok {
		return store.InviteRecord{}, false, store.ErrInviteNotFound
	}
	if rec.Status == store.StatusCheckedIn {
		return *rec, true, nil
	}

	rec.Status = store.StatusCheckedIn
	t := at.UTC()
	rec.ConsumedAt = &t
	rec.ConsumedByGate = gate
	return *rec, false, nil
}

func (l *InviteLedger) Lookup(_ context.Context, token string) (store.InviteRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.byToken[token]
	if !ok {
		return store.InviteRecord{}, store.ErrInviteNotFound
	}
	return *rec, nil
}
