package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/turnstile-labs/turnstile/internal/turnstile/store"
	"github.com/turnstile-labs/turnstile/internal/turnstile/store/sqlite"
)

func TestClaim_FreshThenDuplicate(t *testing.T) {
	conn := openTestDB(t)
	writer := newTestWriter(t, conn)
	ledger := sqlite.NewInviteLedger(conn, writer)
	ctx := context.Background()

	inviteID := seedInvite(t, conn, "tok-1", "evt-1")
	at := time.Now().UTC()

	rec, alreadyClaimed, err := ledger.Claim(ctx, "tok-1", "G1", at)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if alreadyClaimed {
		t.Error("first claim should not be alreadyClaimed")
	}
	if rec.ID != inviteID || rec.EventID != "evt-1" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Status != store.StatusCheckedIn {
		t.Errorf("expected status CHECKED_IN, got %q", rec.Status)
	}
	if rec.ConsumedAt == nil || rec.ConsumedByGate != "G1" {
		t.Errorf("expected consumption fields to be set: %+v", rec)
	}

	rec2, alreadyClaimed, err := ledger.Claim(ctx, "tok-1", "G2", time.Now().UTC())
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if !alreadyClaimed {
		t.Error("second claim should be alreadyClaimed")
	}
	// The transition is irreversible: the original gate sticks.
	if rec2.ConsumedByGate != "G1" {
		t.Errorf("expected consumed_by_gate=G1, got %q", rec2.ConsumedByGate)
	}
	if rec2.ConsumedAt == nil || !rec2.ConsumedAt.Equal(rec.ConsumedAt.Truncate(time.Millisecond)) {
		t.Errorf("expected consumed_at to be unchanged: %v vs %v", rec2.ConsumedAt, rec.ConsumedAt)
	}
}

func TestClaim_UnknownToken(t *testing.T) {
	conn := openTestDB(t)
	writer := newTestWriter(t, conn)
	ledger := sqlite.NewInviteLedger(conn, writer)

	_, _, err := ledger.Claim(context.Background(), "missing", "G1", time.Now().UTC())
	if !errors.Is(err, store.ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound, got %v", err)
	}
}

func TestClaim_Concurrent_ExactlyOneFresh(t *testing.T) {
	conn := openTestDB(t)
	writer := newTestWriter(t, conn)
	ledger := sqlite.NewInviteLedger(conn, writer)
	ctx := context.Background()

	seedInvite(t, conn, "tok-1", "evt-1")

	const n = 16
	freshCount := make(chan bool, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, alreadyClaimed, err := ledger.Claim(ctx, "tok-1", "G1", time.Now().UTC())
			if err != nil {
				t.Errorf("claim: %v", err)
				return
			}
			freshCount <- !alreadyClaimed
		}()
	}
	wg.Wait()
	close(freshCount)

	fresh := 0
	for f := range freshCount {
		if f {
			fresh++
		}
	}
	if fresh != 1 {
		t.Errorf("expected exactly 1 fresh claim out of %d, got %d", n, fresh)
	}
}

func TestLookup(t *testing.T) {
	conn := openTestDB(t)
	writer := newTestWriter(t, conn)
	ledger := sqlite.NewInviteLedger(conn, writer)
	ctx := context.Background()

	seedInvite(t, conn, "tok-1", "evt-1")

	rec, err := ledger.Lookup(ctx, "tok-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rec.Status != store.StatusPending {
		t.Errorf("expected PENDING before claim, got %q", rec.Status)
	}
	if rec.ConsumedAt != nil {
		t.Error("expected no consumption before claim")
	}

	// Lookup must not mutate: a later claim is still fresh.
	_, alreadyClaimed, err := ledger.Claim(ctx, "tok-1", "G1", time.Now().UTC())
	if err != nil {
		t.Fatalf("claim after lookup: %v", err)
	}
	if alreadyClaimed {
		t.Error("claim after lookup should be fresh")
	}

	if _, err := ledger.Lookup(ctx, "missing"); !errors.Is(err, store.ErrInviteNotFound) {
		t.Errorf("expected ErrInviteNotFound, got %v", err)
	}
}
