package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

const payoutEventColumns = `id, payout_id, event_type, from_status, to_status, actor_id, note, created_at`

type PayoutEventRepository struct {
	db Querier
}

func NewPayoutEventRepository(db Querier) *PayoutEventRepository {
	return &PayoutEventRepository{db: db}
}

func (r *PayoutEventRepository) Create(ctx context.Context, event *domain.PayoutEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payout_events (`+payoutEventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.PayoutID, event.EventType, event.FromStatus, event.ToStatus,
		event.ActorID, event.Note, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PayoutEventRepository) ListByPayoutID(ctx context.Context, payoutID uuid.UUID) ([]domain.PayoutEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+payoutEventColumns+` FROM payout_events
		WHERE payout_id = $1 ORDER BY created_at, id`, payoutID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByPayoutID: %w", err)
	}
	defer rows.Close()

	var events []domain.PayoutEvent
	for rows.Next() {
		var e domain.PayoutEvent
		err := rows.Scan(&e.ID, &e.PayoutID, &e.EventType, &e.FromStatus, &e.ToStatus,
			&e.ActorID, &e.Note, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ListByPayoutID: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByPayoutID: rows: %w", err)
	}
	return events, nil
}
