package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PayoutMethod string

const (
	PayoutMethodBankTransfer PayoutMethod = "BANK_TRANSFER"
	PayoutMethodPayPal       PayoutMethod = "PAYPAL"
)

func (m PayoutMethod) IsValid() bool {
	return m == PayoutMethodBankTransfer || m == PayoutMethodPayPal
}

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "PENDING"
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusCompleted  PayoutStatus = "COMPLETED"
	PayoutStatusFailed     PayoutStatus = "FAILED"
)

func (s PayoutStatus) IsValid() bool {
	switch s {
	case PayoutStatusPending, PayoutStatusProcessing, PayoutStatusCompleted, PayoutStatusFailed:
		return true
	}
	return false
}

func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusCompleted || s == PayoutStatusFailed
}

// IsOutstanding reports whether the amount still reserves available balance
// without having left escrow.
func (s PayoutStatus) IsOutstanding() bool {
	return s == PayoutStatusPending || s == PayoutStatusProcessing
}

// CheckPayoutTransition validates a status change. When requireProcessing is
// false a PENDING payout may be completed directly.
func CheckPayoutTransition(from, to PayoutStatus, requireProcessing bool) error {
	if from.IsTerminal() {
		if from == to {
			return fmt.Errorf("payout is %s: %w", from, ErrAlreadyFinalized)
		}
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}

	switch {
	case from == PayoutStatusPending && to == PayoutStatusProcessing:
		return nil
	case from == PayoutStatusPending && to == PayoutStatusCompleted && !requireProcessing:
		return nil
	case from == PayoutStatusProcessing && to == PayoutStatusCompleted:
		return nil
	case to == PayoutStatusFailed:
		return nil
	}
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
}

type Payout struct {
	ID              uuid.UUID
	InstructorID    uuid.UUID
	CourseID        uuid.UUID
	Amount          int64
	Method          PayoutMethod
	Status          PayoutStatus
	Description     string
	RejectionReason *string
	RequestedAt     time.Time
	ProcessedAt     *time.Time
	UpdatedAt       time.Time
}

type PayoutFilter struct {
	InstructorID *uuid.UUID
	CourseID     *uuid.UUID
	Status       *PayoutStatus
	Limit        int
	Offset       int
}

type PayoutStatusTotal struct {
	Status PayoutStatus
	Count  int
	Amount int64
}

// PayoutTotals splits a course's payouts into the two buckets that reduce
// available balance.
type PayoutTotals struct {
	Completed   int64
	Outstanding int64
}
