package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/logging"
	"github.com/josh-kwaku/instructor-payouts/internal/store"
)

type UpdatePayoutStatusInput struct {
	PayoutID        uuid.UUID
	NewStatus       domain.PayoutStatus
	RejectionReason string
}

type UpdatePayoutStatusResult struct {
	Payout              *domain.Payout
	NewAvailableBalance int64
}

// UpdatePayoutStatus moves a payout forward. Completing writes the PAYOUT
// ledger entry in the same transaction; failing writes nothing, which frees
// the reserved amount on the next balance read.
func (s *Service) UpdatePayoutStatus(ctx context.Context, actor domain.Actor, in UpdatePayoutStatusInput) (*UpdatePayoutStatusResult, error) {
	log := logging.FromContext(ctx)

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("UpdatePayoutStatus: %w", domain.ErrForbidden)
	}
	if !in.NewStatus.IsValid() {
		return nil, fmt.Errorf("UpdatePayoutStatus: %q: %w", in.NewStatus, domain.ErrInvalidPayoutStatus)
	}
	reason := strings.TrimSpace(in.RejectionReason)
	if in.NewStatus == domain.PayoutStatusFailed && reason == "" {
		return nil, fmt.Errorf("UpdatePayoutStatus: %w", domain.ErrRejectionReasonRequired)
	}

	var (
		updated   domain.Payout
		from      domain.PayoutStatus
		available int64
	)
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		current, err := tx.Payouts().GetByID(ctx, in.PayoutID)
		if err != nil {
			return fmt.Errorf("load payout: %w", err)
		}
		from = current.Status

		if err := domain.CheckPayoutTransition(current.Status, in.NewStatus, s.config.RequireProcessing); err != nil {
			return err
		}

		now := s.now()
		updated = *current
		updated.Status = in.NewStatus
		updated.UpdatedAt = now
		if in.NewStatus.IsTerminal() {
			updated.ProcessedAt = &now
		}
		if in.NewStatus == domain.PayoutStatusFailed {
			updated.RejectionReason = &reason
		}

		if err := tx.Payouts().UpdateStatus(ctx, &updated, current.Status); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				return s.resolveConflict(ctx, tx, in)
			}
			return fmt.Errorf("update payout: %w", err)
		}

		if in.NewStatus == domain.PayoutStatusCompleted {
			if err := tx.TransactionLogs().Create(ctx, domain.NewPayoutLog(&updated, now)); err != nil {
				return fmt.Errorf("write ledger entry: %w", err)
			}
		}

		event := &domain.PayoutEvent{
			ID:         uuid.New(),
			PayoutID:   updated.ID,
			EventType:  domain.PayoutEventTypeFor(in.NewStatus),
			FromStatus: &from,
			ToStatus:   in.NewStatus,
			ActorID:    actor.UserID,
			CreatedAt:  now,
		}
		if reason != "" {
			event.Note = &reason
		}
		if err := tx.PayoutEvents().Create(ctx, event); err != nil {
			return fmt.Errorf("record event: %w", err)
		}

		b, err := s.balances.Compute(ctx, tx, updated.CourseID)
		if err != nil {
			return err
		}
		available = b.Available
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("UpdatePayoutStatus: %w", err)
	}

	log.Info("payout status updated",
		"payout_id", updated.ID,
		"from", from,
		"to", updated.Status,
		"amount", updated.Amount,
		"admin_id", actor.UserID,
		"available_after", available,
	)

	return &UpdatePayoutStatusResult{Payout: &updated, NewAvailableBalance: available}, nil
}

// resolveConflict explains a lost race: if another admin already finalized
// the payout the caller sees the same errors a sequential retry would.
func (s *Service) resolveConflict(ctx context.Context, tx store.Repos, in UpdatePayoutStatusInput) error {
	latest, err := tx.Payouts().GetByID(ctx, in.PayoutID)
	if err != nil {
		return fmt.Errorf("reload payout: %w", err)
	}
	if err := domain.CheckPayoutTransition(latest.Status, in.NewStatus, s.config.RequireProcessing); err != nil {
		return err
	}
	return fmt.Errorf("payout %s changed concurrently: %w", in.PayoutID, domain.ErrVersionConflict)
}
