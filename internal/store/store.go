// Package store declares the persistence ports the ledger services depend on.
// Postgres and in-memory implementations live under internal/repository.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type CourseRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	// GetForUpdate locks the course row until the surrounding transaction
	// ends. Every balance-affecting write takes this lock first.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]domain.Course, error)
	List(ctx context.Context) ([]domain.Course, error)
}

type EnrollmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error)
}

type PaymentRepository interface {
	// Create returns domain.ErrDuplicatePayment when the enrollment already
	// has a payment.
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByEnrollmentID(ctx context.Context, enrollmentID uuid.UUID) (*domain.Payment, error)
	// Update persists status, split and timestamps only if the stored status
	// still equals expected, otherwise domain.ErrVersionConflict.
	Update(ctx context.Context, p *domain.Payment, expected domain.PaymentStatus) error
	SumInstructorShare(ctx context.Context, courseID uuid.UUID) (int64, error)
}

type PayoutRepository interface {
	Create(ctx context.Context, p *domain.Payout) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	// UpdateStatus is conditional on the stored status still being expected.
	UpdateStatus(ctx context.Context, p *domain.Payout, expected domain.PayoutStatus) error
	TotalsByCourse(ctx context.Context, courseID uuid.UUID) (domain.PayoutTotals, error)
	List(ctx context.Context, filter domain.PayoutFilter) ([]domain.Payout, int, error)
	SummarizeByStatus(ctx context.Context, filter domain.PayoutFilter) ([]domain.PayoutStatusTotal, error)
}

type PayoutEventRepository interface {
	Create(ctx context.Context, event *domain.PayoutEvent) error
	ListByPayoutID(ctx context.Context, payoutID uuid.UUID) ([]domain.PayoutEvent, error)
}

type TransactionLogRepository interface {
	Create(ctx context.Context, entry *domain.TransactionLog) error
	SumByType(ctx context.Context, courseID uuid.UUID) (map[domain.TransactionType]int64, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]domain.TransactionLog, error)
}

// Repos groups the repositories bound to one connection or transaction.
type Repos interface {
	Users() UserRepository
	Courses() CourseRepository
	Enrollments() EnrollmentRepository
	Payments() PaymentRepository
	Payouts() PayoutRepository
	PayoutEvents() PayoutEventRepository
	TransactionLogs() TransactionLogRepository
}

// Store is the unit of work. WithinTx commits when fn returns nil and rolls
// back otherwise, including on context cancellation.
type Store interface {
	Repos
	WithinTx(ctx context.Context, fn func(tx Repos) error) error
}
