package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

const transactionLogColumns = `id, type, amount, payment_id, payout_id, instructor_id, course_id, created_at`

// TransactionLogRepository only ever inserts; the table has no UPDATE path.
type TransactionLogRepository struct {
	db Querier
}

func NewTransactionLogRepository(db Querier) *TransactionLogRepository {
	return &TransactionLogRepository{db: db}
}

func (r *TransactionLogRepository) Create(ctx context.Context, entry *domain.TransactionLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transaction_logs (`+transactionLogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Type, entry.Amount, entry.PaymentID, entry.PayoutID,
		entry.InstructorID, entry.CourseID, entry.CreatedAt,
	)
	if err != nil {
		if pqCode(err) == pqCheckViolation {
			return fmt.Errorf("Create: %w: %v", domain.ErrInvariantViolation, err)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionLogRepository) SumByType(ctx context.Context, courseID uuid.UUID) (map[domain.TransactionType]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, COALESCE(SUM(amount), 0) FROM transaction_logs
		WHERE course_id = $1 GROUP BY type`, courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("SumByType: %w", err)
	}
	defer rows.Close()

	sums := make(map[domain.TransactionType]int64)
	for rows.Next() {
		var t domain.TransactionType
		var amount int64
		if err := rows.Scan(&t, &amount); err != nil {
			return nil, fmt.Errorf("SumByType: scan: %w", err)
		}
		sums[t] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SumByType: rows: %w", err)
	}
	return sums, nil
}

func (r *TransactionLogRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]domain.TransactionLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionLogColumns+` FROM transaction_logs
		WHERE course_id = $1 ORDER BY created_at, id`, courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByCourse: %w", err)
	}
	defer rows.Close()

	var entries []domain.TransactionLog
	for rows.Next() {
		var e domain.TransactionLog
		err := rows.Scan(&e.ID, &e.Type, &e.Amount, &e.PaymentID, &e.PayoutID,
			&e.InstructorID, &e.CourseID, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ListByCourse: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByCourse: rows: %w", err)
	}
	return entries, nil
}
