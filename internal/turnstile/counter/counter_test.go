package counter_test

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/turnstile-labs/turnstile/internal/turnstile/counter"
)

// fakeBackend is a scripted in-memory Backend.  Setting fail makes every
// subsequent call error, simulating a Redis outage mid-sequence.
type fakeBackend struct {
	mu     sync.Mutex
	values map[string]int64
	fail   bool
	calls  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{values: make(map[string]int64)}
}

func (b *fakeBackend) setFail(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = fail
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *fakeBackend) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.fail {
		return 0, errors.New("connection refused")
	}
	b.values[key] += delta
	return b.values[key], nil
}

func (b *fakeBackend) Get(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.fail {
		return 0, errors.New("connection refused")
	}
	return b.values[key], nil
}

func (b *fakeBackend) Set(_ context.Context, key string, value int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.fail {
		return errors.New("connection refused")
	}
	b.values[key] = value
	return nil
}

func newTestStore(backend counter.Backend) *counter.Store {
	return counter.New(backend, 0, log.New(io.Discard, "", 0))
}

func TestIncrementAndGet_PrimaryHealthy(t *testing.T) {
	store := newTestStore(newFakeBackend())
	ctx := context.Background()

	if got := store.Increment(ctx, "evt-1", 1); got != 1 {
		t.Fatalf("first increment: expected 1, got %d", got)
	}
	if got := store.Increment(ctx, "evt-1", 1); got != 2 {
		t.Fatalf("second increment: expected 2, got %d", got)
	}
	if got := store.Get(ctx, "evt-1"); got != 2 {
		t.Fatalf("get: expected 2, got %d", got)
	}
	if store.Degraded() {
		t.Error("store should not be degraded with a healthy primary")
	}
}

func TestIncrement_IndependentPerEvent(t *testing.T) {
	store := newTestStore(newFakeBackend())
	ctx := context.Background()

	store.Increment(ctx, "evt-1", 1)
	store.Increment(ctx, "evt-1", 1)
	store.Increment(ctx, "evt-2", 1)

	if got := store.Get(ctx, "evt-1"); got != 2 {
		t.Errorf("evt-1: expected 2, got %d", got)
	}
	if got := store.Get(ctx, "evt-2"); got != 1 {
		t.Errorf("evt-2: expected 1, got %d", got)
	}
}

func TestFallback_SeededFromLastPrimaryValue(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(backend)
	ctx := context.Background()

	// Two healthy increments, then the backend goes down.
	store.Increment(ctx, "evt-1", 1)
	store.Increment(ctx, "evt-1", 1)
	backend.setFail(true)

	// The failing call must still return a value, continuing from the
	// last value the primary reported.
	if got := store.Increment(ctx, "evt-1", 1); got != 3 {
		t.Fatalf("increment during outage: expected 3, got %d", got)
	}
	if !store.Degraded() {
		t.Fatal("store should be degraded after a primary failure")
	}

	if got := store.Get(ctx, "evt-1"); got != 3 {
		t.Fatalf("get after degrade: expected 3, got %d", got)
	}
	if got := store.Increment(ctx, "evt-1", 1); got != 4 {
		t.Fatalf("increment after degrade: expected 4, got %d", got)
	}
}

func TestDegrade_IsOneWay(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(backend)
	ctx := context.Background()

	backend.setFail(true)
	store.Increment(ctx, "evt-1", 1)
	calls := backend.callCount()

	// Even after the backend recovers, the store must not go back.
	backend.setFail(false)
	store.Increment(ctx, "evt-1", 1)
	store.Get(ctx, "evt-1")

	if backend.callCount() != calls {
		t.Errorf("backend called %d times after degrade, expected none", backend.callCount()-calls)
	}
	if got := store.Get(ctx, "evt-1"); got != 2 {
		t.Errorf("fallback count: expected 2, got %d", got)
	}
}

func TestNilBackend_FallbackOnly(t *testing.T) {
	store := newTestStore(nil)
	ctx := context.Background()

	if got := store.Increment(ctx, "evt-1", 1); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := store.Get(ctx, "evt-1"); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := store.Get(ctx, "evt-never"); got != 0 {
		t.Fatalf("absent counter should read 0, got %d", got)
	}
}

func TestReset_ZeroesActiveBackendAndFallback(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(backend)
	ctx := context.Background()

	store.Increment(ctx, "evt-1", 1)
	store.Increment(ctx, "evt-1", 1)
	store.Reset(ctx, "evt-1")

	if got := store.Get(ctx, "evt-1"); got != 0 {
		t.Errorf("after reset: expected 0, got %d", got)
	}
	if got := store.Increment(ctx, "evt-1", 1); got != 1 {
		t.Errorf("increment after reset: expected 1, got %d", got)
	}
}

func TestIncrement_Concurrent(t *testing.T) {
	store := newTestStore(newFakeBackend())
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			store.Increment(ctx, "evt-1", 1)
		}()
	}
	wg.Wait()

	if got := store.Get(ctx, "evt-1"); got != n {
		t.Errorf("expected %d, got %d", n, got)
	}
}
