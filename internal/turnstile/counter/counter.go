// Package counter maintains the live per-event "inside" counter.
//
// The counter has a primary network backend (Redis in production) and an
// in-memory fallback map that mirrors the last value seen from the
// primary.  When a primary call errors or times out the store degrades
// to the fallback and stays there for the rest of the process lifetime —
// there is no recovery probing.  Callers never see an error: the inside
// count must always be answerable, even at reduced durability.
package counter

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/turnstile-labs/turnstile/internal/metrics"
)

// Backend is a remote per-event counter keyed by string.  The production
// implementation is Redis; tests substitute a scripted fake.
type Backend interface {
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key string, value int64) error
}

const defaultTimeout = 500 * time.Millisecond

type Store struct {
	backend Backend // nil means fallback-only operation
	timeout time.Duration
	logger  *log.Logger

	// mu guards the degraded flag and the fallback map, and makes each
	// Increment/Get/Reset a single critical section so counter updates
	// are atomic across the primary/fallback boundary.
	mu       sync.Mutex
	degraded bool
	fallback map[string]int64
}

// New creates a Store.  A nil backend puts the store in fallback-only
// mode from the start (dev environments without Redis).
func New(backend Backend, timeout time.Duration, logger *log.Logger) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{
		backend:  backend,
		timeout:  timeout,
		logger:   logger,
		fallback: make(map[string]int64),
	}
}

func keyForEvent(eventID string) string {
	return "event:" + eventID + ":inside_count"
}

// Increment adds delta to the event's inside count and returns the new
// value.  It never fails: a primary error degrades to the fallback,
// seeded from the last value the primary reported.
func (s *Store) Increment(ctx context.Context, eventID string, delta int64) int64 {
	key := keyForEvent(eventID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.primaryActive() {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		v, err := s.backend.IncrBy(cctx, key, delta)
		cancel()
		if err == nil {
			s.fallback[key] = v
			return v
		}
		s.degrade(err)
	}

	v := s.fallback[key] + delta
	s.fallback[key] = v
	return v
}

// Get returns the event's current inside count, zero if it was never
// incremented.  Same fallback behavior as Increment.
func (s *Store) Get(ctx context.Context, eventID string) int64 {
	key := keyForEvent(eventID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.primaryActive() {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		v, err := s.backend.Get(cctx, key)
		cancel()
		if err == nil {
			s.fallback[key] = v
			return v
		}
		s.degrade(err)
	}

	return s.fallback[key]
}

// Reset zeroes the event's counter in whichever backend is active.  The
// fallback is zeroed unconditionally so a later degrade starts from 0.
func (s *Store) Reset(ctx context.Context, eventID string) {
	key := keyForEvent(eventID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fallback[key] = 0

	if s.primaryActive() {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.backend.Set(cctx, key, 0)
		cancel()
		if err != nil {
			s.degrade(err)
		}
	}
}

// Degraded reports whether the store has abandoned the primary backend.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) primaryActive() bool {
	return s.backend != nil && !s.degraded
}

// degrade flips the one-way fallback switch.  Must hold mu.
func (s *Store) degrade(err error) {
	s.degraded = true
	metrics.CounterFallbackActivations.Inc()
	if s.logger != nil {
		s.logger.Printf("counter backend unavailable, using in-memory fallback from now on: %v", err)
	}
}
