package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"waitlistlottery/internal/domain"
)

// StatusStore keeps one waiting_list row per (event_id, entrant_id); the bucket is
// the status column, so an entrant cannot sit in two buckets at once.
type StatusStore struct {
	DB *sql.DB
}

func NewStatusStore(db *sql.DB) *StatusStore {
	return &StatusStore{
		DB: db,
	}
}

func (s *StatusStore) ReadEntrantLimit(ctx context.Context, eventID string) (*int, error) {
	var limitNull sql.NullInt64
	err := s.DB.QueryRowContext(ctx, `SELECT entrant_limit FROM events WHERE id = $1`, eventID).Scan(&limitNull)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !limitNull.Valid {
		return nil, nil
	}
	v := int(limitNull.Int64)
	return &v, nil
}

func (s *StatusStore) ReadLotteryRan(ctx context.Context, eventID string) (bool, error) {
	var ran bool
	err := s.DB.QueryRowContext(ctx, `SELECT lottery_ran FROM events WHERE id = $1`, eventID).Scan(&ran)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	return ran, nil
}

func (s *StatusStore) ReadEntry(ctx context.Context, p domain.Path) (*domain.Marker, error) {
	query := `
		SELECT latitude, longitude
		FROM waiting_list
		WHERE event_id = $1 AND status = $2 AND entrant_id = $3
	`
	var latNull, lngNull sql.NullFloat64
	err := s.DB.QueryRowContext(ctx, query, p.EventID, string(p.Bucket), p.EntrantID).Scan(&latNull, &lngNull)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return markerFrom(latNull, lngNull), nil
}

func (s *StatusStore) ReadBucket(ctx context.Context, eventID string, status domain.Status) ([]domain.Entry, error) {
	query := `
		SELECT entrant_id, latitude, longitude
		FROM waiting_list
		WHERE event_id = $1 AND status = $2
		ORDER BY position
	`
	rows, err := s.DB.QueryContext(ctx, query, eventID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]domain.Entry, 0)
	for rows.Next() {
		var id string
		var latNull, lngNull sql.NullFloat64
		if err := rows.Scan(&id, &latNull, &lngNull); err != nil {
			return nil, err
		}
		entries = append(entries, domain.Entry{EntrantID: id, Marker: markerFrom(latNull, lngNull)})
	}
	return entries, rows.Err()
}

func (s *StatusStore) BucketHasAny(ctx context.Context, eventID string, status domain.Status) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM waiting_list WHERE event_id = $1 AND status = $2 LIMIT 1)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, eventID, string(status)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Commit runs every delete, then every put, then the lottery flag, in one transaction.
func (s *StatusStore) Commit(ctx context.Context, u *domain.Update) error {
	if err := u.Validate(); err != nil {
		return err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	deletes := make(map[domain.Status][]string)
	for _, p := range u.Deletes() {
		deletes[p.Bucket] = append(deletes[p.Bucket], p.EntrantID)
	}
	for _, status := range domain.AllStatuses {
		ids := deletes[status]
		if len(ids) == 0 {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM waiting_list WHERE event_id = $1 AND status = $2 AND entrant_id = ANY($3)`,
			u.EventID, string(status), pq.Array(ids))
		if err != nil {
			return fmt.Errorf("delete %s: %w", status, err)
		}
	}

	upsert := `
		INSERT INTO waiting_list (event_id, entrant_id, status, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, entrant_id) DO UPDATE
		SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
		WHERE waiting_list.status = EXCLUDED.status
	`
	for _, w := range u.Puts() {
		var latNull, lngNull sql.NullFloat64
		if loc := w.Marker.Location; loc != nil {
			latNull = sql.NullFloat64{Float64: loc.Latitude, Valid: true}
			lngNull = sql.NullFloat64{Float64: loc.Longitude, Valid: true}
		}
		result, err := tx.ExecContext(ctx, upsert, u.EventID, w.Path.EntrantID, string(w.Path.Bucket), latNull, lngNull)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return fmt.Errorf("put %s: %w", w.Path, domain.ErrNotFound)
			}
			return fmt.Errorf("put %s: %w", w.Path, err)
		}
		// Zero rows means the conflict row holds a different status.
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", domain.ErrDoubleMembership, w.Path)
		}
	}

	if u.MarkLotteryRan {
		result, err := tx.ExecContext(ctx, `UPDATE events SET lottery_ran = TRUE, updated_at = NOW() WHERE id = $1`, u.EventID)
		if err != nil {
			return fmt.Errorf("mark lottery ran: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("mark lottery ran: %w", domain.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func markerFrom(latNull, lngNull sql.NullFloat64) *domain.Marker {
	m := &domain.Marker{}
	if latNull.Valid && lngNull.Valid {
		m.Location = &domain.Location{Latitude: latNull.Float64, Longitude: lngNull.Float64}
	}
	return m
}
