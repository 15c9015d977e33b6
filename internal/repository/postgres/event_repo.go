package postgres

import (
	"context"
	"database/sql"
	"errors"

	"waitlistlottery/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, organizer_id, entrant_limit, lottery_ran, updated_at
		FROM events
		WHERE id = $1
	`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) SetEntrantLimit(ctx context.Context, eventID string, limit *int) (*domain.Event, error) {
	query := `
		UPDATE events SET entrant_limit = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, organizer_id, entrant_limit, lottery_ran, updated_at
	`
	var arg sql.NullInt64
	if limit != nil {
		arg = sql.NullInt64{Int64: int64(*limit), Valid: true}
	}
	return scanEvent(r.DB.QueryRowContext(ctx, query, arg, eventID))
}

func scanEvent(row *sql.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var limitNull sql.NullInt64
	err := row.Scan(&e.ID, &e.OrganizerID, &limitNull, &e.LotteryRan, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if limitNull.Valid {
		v := int(limitNull.Int64)
		e.EntrantLimit = &v
	}
	return e, nil
}
