package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/turnstile-labs/turnstile/internal/metrics"
	"github.com/turnstile-labs/turnstile/internal/turnstile/broadcast"
	"github.com/turnstile-labs/turnstile/internal/turnstile/counter"
	"github.com/turnstile-labs/turnstile/internal/turnstile/store"
	"github.com/turnstile-labs/turnstile/internal/turnstile/types"
)

var (
	ErrInvalidCode = errors.New("code is required")
	ErrInvalidGate = errors.New("gate is required")
)

// CheckinService coordinates one presentation through the pipeline:
// claim the token on the ledger, update the inside counter exactly once
// per fresh claim, broadcast the delta, and always write one audit row.
type CheckinService struct {
	ledger      store.InviteLedger
	checkins    store.CheckinStore
	counter     *counter.Store
	broadcaster broadcast.Broadcaster
	logger      *log.Logger
}

func NewCheckinService(
	ledger store.InviteLedger,
	checkins store.CheckinStore,
	cnt *counter.Store,
	b broadcast.Broadcaster,
	logger *log.Logger,
) *CheckinService {
	return &CheckinService{
		ledger:      ledger,
		checkins:    checkins,
		counter:     cnt,
		broadcaster: b,
		logger:      logger,
	}
}

// Process handles a single online presentation.  The only caller-visible
// failures are the validation sentinels and store.ErrInviteNotFound;
// counter and broadcast trouble is absorbed downstream.
func (s *CheckinService) Process(ctx context.Context, req types.CheckinRequest) (types.CheckinResult, error) {
	return s.process(ctx, req, false)
}

func (s *CheckinService) process(ctx context.Context, req types.CheckinRequest, offline bool) (types.CheckinResult, error) {
	now := time.Now().UTC()

	code := strings.TrimSpace(req.Code)
	gate := strings.TrimSpace(req.Gate)
	if code == "" {
		return types.CheckinResult{}, ErrInvalidCode
	}
	if gate == "" {
		return types.CheckinResult{}, ErrInvalidGate
	}

	// The claim is the single decision point: alreadyClaimed as returned
	// here is what the counter, the broadcast, and the audit row all act
	// on.  Re-reading invite state later would race a concurrent claim.
	invite, alreadyClaimed, err := s.ledger.Claim(ctx, code, gate, now)
	if err != nil {
		return types.CheckinResult{}, err
	}

	var insideCount int64
	if alreadyClaimed {
		insideCount = s.counter.Get(ctx, invite.EventID)
		metrics.CheckinsTotal.WithLabelValues("duplicate").Inc()
	} else {
		insideCount = s.counter.Increment(ctx, invite.EventID, 1)
		s.broadcaster.Publish(invite.EventID, 1, insideCount)
		metrics.CheckinsTotal.WithLabelValues("fresh").Inc()
	}

	s.recordCheckin(ctx, invite, req, gate, alreadyClaimed, offline, now)

	return types.CheckinResult{
		Token:       invite.Token,
		Duplicate:   alreadyClaimed,
		InsideCount: insideCount,
		InviteID:    invite.ID,
		EventID:     invite.EventID,
	}, nil
}

// recordCheckin writes the audit row for a processed presentation.
// Errors are logged, not returned — a failed audit write must not turn
// away gate traffic.
func (s *CheckinService) recordCheckin(
	ctx context.Context,
	invite store.InviteRecord,
	req types.CheckinRequest,
	gate string,
	isDuplicate, offline bool,
	at time.Time,
) {
	rec := store.CheckinRecord{
		InviteID:    invite.ID,
		EventID:     invite.EventID,
		Gate:        gate,
		PassType:    strings.TrimSpace(req.PassType),
		IsDuplicate: isDuplicate,
		Offline:     offline,
		CreatedAt:   at,
	}

	if err := s.checkins.Record(ctx, rec); err != nil {
		s.logger.Printf("checkin audit write failed (invite=%s gate=%s): %v", invite.ID, gate, err)
	}
}

// ProcessSync replays an offline batch through the same path as online
// presentations, one entry at a time and strictly in input order, so a
// token repeated within a batch resolves fresh-then-duplicate no matter
// how the batch was framed.  A failed entry becomes an error outcome at
// its position; later entries still run.
func (s *CheckinService) ProcessSync(ctx context.Context, entries []types.CheckinRequest) []types.SyncOutcome {
	out := make([]types.SyncOutcome, 0, len(entries))

	for _, entry := range entries {
		res, err := s.process(ctx, entry, true)
		if err != nil {
			metrics.SyncEntriesTotal.WithLabelValues("error").Inc()
			out = append(out, types.SyncOutcome{
				Error:     PublicErrorMessage(err),
				CodeTried: entry.Code,
			})
			continue
		}
		metrics.SyncEntriesTotal.WithLabelValues("ok").Inc()
		r := res
		out = append(out, types.SyncOutcome{CheckinResult: &r})
	}

	return out
}

// PublicErrorMessage maps pipeline errors to the message shown to gate
// clients.  Unexpected storage errors are reported verbatim; the batch
// path has no other channel for them.
func PublicErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrInviteNotFound):
		return "Invite not found"
	default:
		return err.Error()
	}
}
