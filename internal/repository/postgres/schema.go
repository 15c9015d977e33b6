package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"waitlistlottery/internal/domain"
)

// Schema creates the two tables the waiting list needs. Event rows themselves are
// owned by the event management side; only organizer_id, entrant_limit and
// lottery_ran are read here.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id            TEXT PRIMARY KEY,
	organizer_id  TEXT NOT NULL,
	entrant_limit INTEGER CHECK (entrant_limit >= 0),
	lottery_ran   BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS waiting_list (
	event_id   TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
	entrant_id TEXT NOT NULL,
	status     TEXT NOT NULL CHECK (status IN ('WAITING', 'INVITED', 'UNINVITED', 'ACCEPTED', 'DECLINED', 'CANCELLED')),
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	position   BIGSERIAL,
	PRIMARY KEY (event_id, entrant_id)
);

CREATE INDEX IF NOT EXISTS waiting_list_bucket_idx ON waiting_list (event_id, status, position);
`

// EnsureSchema applies Schema. Every statement is idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}

// SeedEvents inserts events that do not exist yet. Existing rows are left untouched
// so a restart never resets a limit an organizer changed.
func SeedEvents(ctx context.Context, db *sql.DB, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range events {
		var limit sql.NullInt64
		if ev.EntrantLimit != nil {
			limit = sql.NullInt64{Int64: int64(*ev.EntrantLimit), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, organizer_id, entrant_limit) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			ev.ID, ev.OrganizerID, limit,
		); err != nil {
			return fmt.Errorf("seed event %s: %w", ev.ID, err)
		}
	}
	return tx.Commit()
}
