package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SeedDevOptions struct {
	// InviteCount is how many dev invites to create for the starter
	// event.  Defaults to 5.
	InviteCount int
}

// SeedDev creates a starter event with a handful of PENDING invites so a
// fresh dev database has something to check in against.  Tokens are
// stable across runs (dev-token-N) so gate tooling can hardcode them.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	if opt.InviteCount <= 0 {
		opt.InviteCount = 5
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO events(event_id, title, created_at_ms, updated_at_ms)
VALUES ('evt_dev', 'Dev Launch Party', ?, ?);`, now, now); err != nil {
		return fmt.Errorf("seed event: %w", err)
	}

	for i := 1; i <= opt.InviteCount; i++ {
		token := fmt.Sprintf("dev-token-%d", i)
		// Token is unique, so reruns leave existing invites untouched.
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO invites(
  invite_id, token, event_id, status, created_at_ms, updated_at_ms
) VALUES (?, ?, 'evt_dev', 'PENDING', ?, ?);
`, uuid.NewString(), token, now, now); err != nil {
			return fmt.Errorf("seed invite %s: %w", token, err)
		}
	}

	return nil
}
