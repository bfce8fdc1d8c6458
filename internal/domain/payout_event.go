package domain

import (
	"time"

	"github.com/google/uuid"
)

type PayoutEventType string

const (
	PayoutEventTypeRequested  PayoutEventType = "REQUESTED"
	PayoutEventTypeProcessing PayoutEventType = "PROCESSING"
	PayoutEventTypeCompleted  PayoutEventType = "COMPLETED"
	PayoutEventTypeFailed     PayoutEventType = "FAILED"
)

// PayoutEventTypeFor maps a payout status to the event recorded on entering it.
func PayoutEventTypeFor(s PayoutStatus) PayoutEventType {
	switch s {
	case PayoutStatusProcessing:
		return PayoutEventTypeProcessing
	case PayoutStatusCompleted:
		return PayoutEventTypeCompleted
	case PayoutStatusFailed:
		return PayoutEventTypeFailed
	default:
		return PayoutEventTypeRequested
	}
}

// PayoutEvent is an append-only audit record of who moved a payout and when.
type PayoutEvent struct {
	ID         uuid.UUID
	PayoutID   uuid.UUID
	EventType  PayoutEventType
	FromStatus *PayoutStatus
	ToStatus   PayoutStatus
	ActorID    uuid.UUID
	Note       *string
	CreatedAt  time.Time
}
