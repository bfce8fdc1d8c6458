package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

const payoutColumns = `id, instructor_id, course_id, amount, method, status, description,
	rejection_reason, requested_at, processed_at, updated_at`

type PayoutRepository struct {
	db Querier
}

func NewPayoutRepository(db Querier) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(ctx context.Context, p *domain.Payout) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payouts (
			id, instructor_id, course_id, amount, method, status, description,
			rejection_reason, requested_at, processed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.InstructorID, p.CourseID, p.Amount, p.Method, p.Status, p.Description,
		p.RejectionReason, p.RequestedAt, p.ProcessedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+payoutColumns+` FROM payouts WHERE id = $1`, id,
	)
	p, err := scanPayout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *PayoutRepository) UpdateStatus(ctx context.Context, p *domain.Payout, expected domain.PayoutStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payouts SET status = $1, rejection_reason = $2, processed_at = $3, updated_at = $4
		WHERE id = $5 AND status = $6`,
		p.Status, p.RejectionReason, p.ProcessedAt, p.UpdatedAt, p.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *PayoutRepository) TotalsByCourse(ctx context.Context, courseID uuid.UUID) (domain.PayoutTotals, error) {
	var t domain.PayoutTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = $2), 0),
			COALESCE(SUM(amount) FILTER (WHERE status IN ($3, $4)), 0)
		FROM payouts WHERE course_id = $1`,
		courseID, domain.PayoutStatusCompleted, domain.PayoutStatusPending, domain.PayoutStatusProcessing,
	).Scan(&t.Completed, &t.Outstanding)
	if err != nil {
		return domain.PayoutTotals{}, fmt.Errorf("TotalsByCourse: %w", err)
	}
	return t, nil
}

func (r *PayoutRepository) List(ctx context.Context, filter domain.PayoutFilter) ([]domain.Payout, int, error) {
	where, args := payoutWhere(filter, true)

	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payouts`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+payoutColumns+` FROM payouts`+where+
			fmt.Sprintf(` ORDER BY requested_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	payouts := []domain.Payout{}
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		payouts = append(payouts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return payouts, total, nil
}

func (r *PayoutRepository) SummarizeByStatus(ctx context.Context, filter domain.PayoutFilter) ([]domain.PayoutStatusTotal, error) {
	where, args := payoutWhere(filter, false)

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(amount), 0) FROM payouts`+where+
			` GROUP BY status ORDER BY status`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("SummarizeByStatus: %w", err)
	}
	defer rows.Close()

	var totals []domain.PayoutStatusTotal
	for rows.Next() {
		var t domain.PayoutStatusTotal
		if err := rows.Scan(&t.Status, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("SummarizeByStatus: scan: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SummarizeByStatus: rows: %w", err)
	}
	return totals, nil
}

// payoutWhere builds the filter clause. Summaries ignore the status filter so
// callers always see every bucket.
func payoutWhere(filter domain.PayoutFilter, withStatus bool) (string, []any) {
	var conds []string
	var args []any

	if filter.InstructorID != nil {
		args = append(args, *filter.InstructorID)
		conds = append(conds, fmt.Sprintf("instructor_id = $%d", len(args)))
	}
	if filter.CourseID != nil {
		args = append(args, *filter.CourseID)
		conds = append(conds, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if withStatus && filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanPayout(s scanner) (*domain.Payout, error) {
	var p domain.Payout
	err := s.Scan(
		&p.ID, &p.InstructorID, &p.CourseID, &p.Amount, &p.Method, &p.Status, &p.Description,
		&p.RejectionReason, &p.RequestedAt, &p.ProcessedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
