package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeIncome TransactionType = "INCOME"
	TransactionTypePayout TransactionType = "PAYOUT"
	TransactionTypeRefund TransactionType = "REFUND"
)

// TransactionLog is a write-once record of settled money movement. Exactly
// one of PaymentID or PayoutID is set.
type TransactionLog struct {
	ID           uuid.UUID
	Type         TransactionType
	Amount       int64
	PaymentID    *uuid.UUID
	PayoutID     *uuid.UUID
	InstructorID uuid.UUID
	CourseID     uuid.UUID
	CreatedAt    time.Time
}

func NewIncomeLog(p *Payment, at time.Time) *TransactionLog {
	id := p.ID
	return &TransactionLog{
		ID:           uuid.New(),
		Type:         TransactionTypeIncome,
		Amount:       p.InstructorShare,
		PaymentID:    &id,
		InstructorID: p.InstructorID,
		CourseID:     p.CourseID,
		CreatedAt:    at,
	}
}

func NewRefundLog(p *Payment, at time.Time) *TransactionLog {
	id := p.ID
	return &TransactionLog{
		ID:           uuid.New(),
		Type:         TransactionTypeRefund,
		Amount:       p.InstructorShare,
		PaymentID:    &id,
		InstructorID: p.InstructorID,
		CourseID:     p.CourseID,
		CreatedAt:    at,
	}
}

func NewPayoutLog(p *Payout, at time.Time) *TransactionLog {
	id := p.ID
	return &TransactionLog{
		ID:           uuid.New(),
		Type:         TransactionTypePayout,
		Amount:       p.Amount,
		PayoutID:     &id,
		InstructorID: p.InstructorID,
		CourseID:     p.CourseID,
		CreatedAt:    at,
	}
}
