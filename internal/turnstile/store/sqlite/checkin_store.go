package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/turnstile-labs/turnstile/internal/db"
	"github.com/turnstile-labs/turnstile/internal/turnstile/store"
)

type CheckinStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewCheckinStore(db *sql.DB, writer *dbpkg.Worker) *CheckinStore {
	return &CheckinStore{db: db, writer: writer}
}

func (s *CheckinStore) Record(ctx context.Context, rec store.CheckinRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	createdMs := rec.CreatedAt.UTC().UnixMilli()

	var passType any
	if rec.PassType != "" {
		passType = rec.PassType
	}

	var isDuplicate, offline int
	if rec.IsDuplicate {
		isDuplicate = 1
	}
	if rec.Offline {
		offline = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO checkins(
  checkin_id, invite_id, event_id, gate, pass_type,
  is_duplicate, offline, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			uuid.NewString(), rec.InviteID, rec.EventID, rec.Gate, passType,
			isDuplicate, offline, createdMs,
		); err != nil {
			return fmt.Errorf("Record insert: %w", err)
		}
		return nil
	})
}
