package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// IsTerminal reports whether no further transition is possible. A COMPLETED
// payment can still be refunded.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusFailed || s == PaymentStatusRefunded
}

type Payment struct {
	ID              uuid.UUID
	EnrollmentID    uuid.UUID
	CourseID        uuid.UUID
	InstructorID    uuid.UUID
	TotalAmount     int64
	PlatformShare   int64
	InstructorShare int64
	Status          PaymentStatus
	FailureReason   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

func (p *Payment) SplitIsExact() bool {
	return p.PlatformShare >= 0 && p.InstructorShare >= 0 &&
		p.PlatformShare+p.InstructorShare == p.TotalAmount
}
