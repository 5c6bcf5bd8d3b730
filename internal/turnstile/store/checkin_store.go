package store

import (
	"context"
	"time"
)

// CheckinRecord captures one processed presentation for the audit log.
// IsDuplicate carries the claim-time decision and is never recomputed
// or revised afterwards.
type CheckinRecord struct {
	InviteID    string
	EventID     string
	Gate        string
	PassType    string // optional
	IsDuplicate bool
	Offline     bool // true when replayed from a gate device's offline queue
	CreatedAt   time.Time
}

// CheckinStore persists presentations as an append-only audit log.
// Every presentation — fresh or duplicate — produces exactly one record.
type CheckinStore interface {
	Record(ctx context.Context, rec CheckinRecord) error
}
