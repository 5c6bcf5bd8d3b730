package service

import (
	"context"
	"strings"
	"time"

	"github.com/turnstile-labs/turnstile/internal/turnstile/store"
	"github.com/turnstile-labs/turnstile/internal/turnstile/types"
)

// InviteService serves the guest-facing invite view.  Issuing invites is
// owned by the event-management side; this only reads the ledger.
type InviteService struct {
	ledger store.InviteLedger
}

func NewInviteService(ledger store.InviteLedger) *InviteService {
	return &InviteService{ledger: ledger}
}

func (s *InviteService) GuestView(ctx context.Context, token string) (types.GuestInvite, error) {
	token = strings.TrimSpace(token)

	rec, err := s.ledger.Lookup(ctx, token)
	if err != nil {
		return types.GuestInvite{}, err
	}

	view := types.GuestInvite{
		Token:          rec.Token,
		Status:         rec.Status,
		EventID:        rec.EventID,
		ConsumedByGate: rec.ConsumedByGate,
	}
	if rec.ConsumedAt != nil {
		view.ConsumedAt = rec.ConsumedAt.UTC().Format(time.RFC3339)
	}
	return view, nil
}
