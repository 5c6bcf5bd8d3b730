package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/turnstile-labs/turnstile/internal/db"
	"github.com/turnstile-labs/turnstile/internal/turnstile/store"
)

type InviteLedger struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewInviteLedger(db *sql.DB, writer *dbpkg.Worker) *InviteLedger {
	return &InviteLedger{db: db, writer: writer}
}

// Claim performs the PENDING → CHECKED_IN transition as a guarded
// UPDATE: the WHERE clause only matches while the invite is still
// PENDING, so rows-affected tells us whether this call won the claim.
// The whole read-and-transition runs as one transaction on the db
// writer, which executes transactions one at a time — two concurrent
// claims for the same token can never both see PENDING.
func (l *InviteLedger) Claim(ctx context.Context, token, gate string, at time.Time) (store.InviteRecord, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return store.InviteRecord{}, false, store.ErrInviteNotFound
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	atMs := at.UTC().UnixMilli()

	var rec store.InviteRecord
	var alreadyClaimed bool

	err := l.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE invites
SET status           = ?,
    consumed_at_ms   = ?,
    consumed_by_gate = ?,
    updated_at_ms    = ?
WHERE token = ? AND status = ?;
`, store.StatusCheckedIn, atMs, gate, atMs, token, store.StatusPending)
		if err != nil {
			return fmt.Errorf("Claim update: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("Claim rows affected: %w", err)
		}
		alreadyClaimed = n == 0

		rec, err = scanInvite(tx.QueryRowContext(ctx, selectInviteSQL+" WHERE token = ?;", token))
		if err != nil {
			// No row at all: the update matched nothing because the
			// token does not exist, not because it was consumed.
			return err
		}
		return nil
	})
	if err != nil {
		return store.InviteRecord{}, false, err
	}

	return rec, alreadyClaimed, nil
}

func (l *InviteLedger) Lookup(ctx context.Context, token string) (store.InviteRecord, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return store.InviteRecord{}, store.ErrInviteNotFound
	}
	return scanInvite(l.db.QueryRowContext(ctx, selectInviteSQL+" WHERE token = ?;", token))
}

const selectInviteSQL = `
SELECT invite_id, token, event_id, status, consumed_at_ms, consumed_by_gate
FROM invites`

func scanInvite(row *sql.Row) (store.InviteRecord, error) {
	var rec store.InviteRecord
	var consumedMs sql.NullInt64
	var gate sql.NullString

	err := row.Scan(&rec.ID, &rec.Token, &rec.EventID, &rec.Status, &consumedMs, &gate)
	if err == sql.ErrNoRows {
		return store.InviteRecord{}, store.ErrInviteNotFound
	}
	if err != nil {
		return store.InviteRecord{}, fmt.Errorf("scan invite: %w", err)
	}

	if consumedMs.Valid {
		t := time.UnixMilli(consumedMs.Int64).UTC()
		rec.ConsumedAt = &t
	}
	if gate.Valid {
		rec.ConsumedByGate = gate.String
	}
	return rec, nil
}
