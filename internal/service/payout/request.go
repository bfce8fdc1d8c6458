package payout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/logging"
	"github.com/josh-kwaku/instructor-payouts/internal/store"
)

type RequestPayoutInput struct {
	InstructorID uuid.UUID
	CourseID     uuid.UUID
	Amount       int64
	Method       domain.PayoutMethod
	Description  string
}

type RequestPayoutResult struct {
	Payout        *domain.Payout
	CourseBalance domain.Balance
	Balance       *domain.InstructorBalance
}

func (s *Service) RequestPayout(ctx context.Context, in RequestPayoutInput) (*RequestPayoutResult, error) {
	log := logging.FromContext(ctx)

	if err := validateRequest(in); err != nil {
		return nil, fmt.Errorf("RequestPayout: %w", err)
	}

	var (
		created *domain.Payout
		after   domain.Balance
	)
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		course, err := tx.Courses().GetForUpdate(ctx, in.CourseID)
		if err != nil {
			return fmt.Errorf("lock course: %w", err)
		}
		if course.InstructorID != in.InstructorID {
			return fmt.Errorf("course %s: %w", course.ID, domain.ErrForbidden)
		}

		before, err := s.balances.Compute(ctx, tx, course.ID)
		if err != nil {
			return err
		}
		if in.Amount > before.Available {
			return &domain.InsufficientBalanceError{Available: before.Available, Requested: in.Amount}
		}

		now := s.now()
		created = &domain.Payout{
			ID:           uuid.New(),
			InstructorID: in.InstructorID,
			CourseID:     course.ID,
			Amount:       in.Amount,
			Method:       in.Method,
			Status:       domain.PayoutStatusPending,
			Description:  strings.TrimSpace(in.Description),
			RequestedAt:  now,
			UpdatedAt:    now,
		}
		if err := tx.Payouts().Create(ctx, created); err != nil {
			return fmt.Errorf("create payout: %w", err)
		}

		if err := tx.PayoutEvents().Create(ctx, &domain.PayoutEvent{
			ID:        uuid.New(),
			PayoutID:  created.ID,
			EventType: domain.PayoutEventTypeRequested,
			ToStatus:  domain.PayoutStatusPending,
			ActorID:   in.InstructorID,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("record event: %w", err)
		}

		after, err = s.balances.Compute(ctx, tx, course.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("RequestPayout: %w", err)
	}

	log.Info("payout requested",
		"payout_id", created.ID,
		"instructor_id", created.InstructorID,
		"course_id", created.CourseID,
		"amount", created.Amount,
		"method", created.Method,
		"available_after", after.Available,
	)

	total, err := s.balances.GetInstructorTotalBalance(ctx, domain.Actor{UserID: in.InstructorID, Role: domain.RoleInstructor}, in.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("RequestPayout: total balance: %w", err)
	}

	return &RequestPayoutResult{
		Payout:        created,
		CourseBalance: after,
		Balance:       total,
	}, nil
}

func validateRequest(in RequestPayoutInput) error {
	if in.Amount <= 0 {
		return fmt.Errorf("validateRequest: %w", domain.ErrInvalidAmount)
	}
	if !in.Method.IsValid() {
		return fmt.Errorf("validateRequest: %q: %w", in.Method, domain.ErrInvalidPayoutMethod)
	}
	if len(in.Description) > maxDescriptionLength {
		return fmt.Errorf("validateRequest: description longer than %d: %w", maxDescriptionLength, domain.ErrInvalidRequest)
	}
	return nil
}
