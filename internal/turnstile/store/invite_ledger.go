package store

import (
	"context"
	"errors"
	"time"
)

// Invite status values.  An invite moves PENDING → CHECKED_IN at most
// once, ever, and only through InviteLedger.Claim.
const (
	StatusPending   = "PENDING"
	StatusCheckedIn = "CHECKED_IN"
)

var ErrInviteNotFound = errors.New("invite not found")

type InviteRecord struct {
	ID             string
	Token          string
	EventID        string
	Status         string
	ConsumedAt     *time.Time // nil until the first successful claim
	ConsumedByGate string     // empty until the first successful claim
}

// InviteLedger is the authoritative record of invite consumption.  It is
// the single synchronization point of the check-in pipeline: whatever
// Claim decides is what the rest of the pipeline acts on.
type InviteLedger interface {
	// Claim transitions the invite with the given token from PENDING to
	// CHECKED_IN and reports whether some earlier call already did so.
	// The transition is a compare-and-set: for any token, exactly one
	// call — concurrent or not — observes alreadyClaimed=false.
	// Returns ErrInviteNotFound if no invite has the token.
	Claim(ctx context.Context, token, gate string, at time.Time) (rec InviteRecord, alreadyClaimed bool, err error)

	// Lookup returns the invite without mutating it.  Used for the
	// guest-facing invite view.
	Lookup(ctx context.Context, token string) (InviteRecord, error)
}
