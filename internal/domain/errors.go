package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrInvalidPayoutMethod     = errors.New("unsupported payout method")
	ErrInvalidPayoutStatus     = errors.New("unknown payout status")
	ErrRejectionReasonRequired = errors.New("rejection reason is required when failing a payout")
	ErrInvalidRequest          = errors.New("invalid request")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrAlreadyFinalized        = errors.New("payout already finalized")
	ErrAlreadySettled          = errors.New("payment already settled")
	ErrPaymentTerminal         = errors.New("payment already in terminal state")
	ErrFreeCourse              = errors.New("free courses do not take payments")
	ErrDuplicatePayment        = errors.New("enrollment already has a payment")
	ErrVersionConflict         = errors.New("optimistic lock conflict")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	ErrInvariantViolation      = errors.New("ledger invariant violated")
)

// InsufficientBalanceError carries the figures an instructor needs to see
// when a withdrawal or refund does not fit the available balance.
type InsufficientBalanceError struct {
	Available int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

func (e *InsufficientBalanceError) Shortfall() int64 {
	return e.Requested - e.Available
}
