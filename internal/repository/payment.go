package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

const paymentColumns = `id, enrollment_id, course_id, instructor_id, total_amount,
	platform_share, instructor_share, status, failure_reason,
	created_at, updated_at, completed_at`

type PaymentRepository struct {
	db Querier
}

func NewPaymentRepository(db Querier) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (
			id, enrollment_id, course_id, instructor_id, total_amount,
			platform_share, instructor_share, status, failure_reason,
			created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.EnrollmentID, p.CourseID, p.InstructorID, p.TotalAmount,
		p.PlatformShare, p.InstructorShare, p.Status, p.FailureReason,
		p.CreatedAt, p.UpdatedAt, p.CompletedAt,
	)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return fmt.Errorf("Create: %w", domain.ErrDuplicatePayment)
		case pqCheckViolation:
			return fmt.Errorf("Create: %w: %v", domain.ErrInvariantViolation, err)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) GetByEnrollmentID(ctx context.Context, enrollmentID uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE enrollment_id = $1`, enrollmentID,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByEnrollmentID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByEnrollmentID: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment, expected domain.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, platform_share = $2, instructor_share = $3,
			failure_reason = $4, completed_at = $5, updated_at = $6
		WHERE id = $7 AND status = $8`,
		p.Status, p.PlatformShare, p.InstructorShare,
		p.FailureReason, p.CompletedAt, p.UpdatedAt,
		p.ID, expected,
	)
	if err != nil {
		if pqCode(err) == pqCheckViolation {
			return fmt.Errorf("Update: %w: %v", domain.ErrInvariantViolation, err)
		}
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *PaymentRepository) SumInstructorShare(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(instructor_share), 0) FROM payments
		WHERE course_id = $1 AND status = $2`,
		courseID, domain.PaymentStatusCompleted,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("SumInstructorShare: %w", err)
	}
	return total, nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(
		&p.ID, &p.EnrollmentID, &p.CourseID, &p.InstructorID, &p.TotalAmount,
		&p.PlatformShare, &p.InstructorShare, &p.Status, &p.FailureReason,
		&p.CreatedAt, &p.UpdatedAt, &p.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
