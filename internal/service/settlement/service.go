// Package settlement records payment outcomes. Settling is the only producer
// of earnings the balance calculator reads.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/logging"
	"github.com/josh-kwaku/instructor-payouts/internal/store"
)

type balanceCalculator interface {
	Compute(ctx context.Context, repos store.Repos, courseID uuid.UUID) (domain.Balance, error)
}

type Service struct {
	store    store.Store
	balances balanceCalculator
	splitter Splitter
	now      func() time.Time
}

func NewService(st store.Store, balances balanceCalculator, splitter Splitter) *Service {
	return &Service{
		store:    st,
		balances: balances,
		splitter: splitter,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StartCheckout opens the PENDING payment for an enrollment. Calling it
// again returns the existing payment with created=false.
func (s *Service) StartCheckout(ctx context.Context, enrollmentID uuid.UUID) (p *domain.Payment, created bool, err error) {
	err = s.store.WithinTx(ctx, func(tx store.Repos) error {
		enrollment, course, err := loadEnrollment(ctx, tx, enrollmentID, false)
		if err != nil {
			return err
		}

		existing, err := tx.Payments().GetByEnrollmentID(ctx, enrollment.ID)
		switch {
		case err == nil:
			p = existing
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("load payment: %w", err)
		}

		now := s.now()
		p = &domain.Payment{
			ID:            uuid.New(),
			EnrollmentID:  enrollment.ID,
			CourseID:      course.ID,
			InstructorID:  course.InstructorID,
			TotalAmount:   course.Price,
			PlatformShare: course.Price,
			Status:        domain.PaymentStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Payments().Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePayment) {
			// A concurrent checkout won the insert.
			existing, getErr := s.store.Payments().GetByEnrollmentID(ctx, enrollmentID)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("StartCheckout: %w", err)
	}

	if created {
		logging.FromContext(ctx).Info("checkout started",
			"payment_id", p.ID,
			"enrollment_id", enrollmentID,
			"amount", p.TotalAmount,
		)
	}
	return p, created, nil
}

// SettlePayment completes the enrollment's payment, fixing the split and
// writing the INCOME entry. An enrollment without a payment gets one
// created directly in COMPLETED.
func (s *Service) SettlePayment(ctx context.Context, enrollmentID uuid.UUID) (*domain.Payment, error) {
	var settled domain.Payment
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		enrollment, course, err := loadEnrollment(ctx, tx, enrollmentID, true)
		if err != nil {
			return err
		}

		now := s.now()
		existing, err := tx.Payments().GetByEnrollmentID(ctx, enrollment.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			settled = domain.Payment{
				ID:           uuid.New(),
				EnrollmentID: enrollment.ID,
				CourseID:     course.ID,
				InstructorID: course.InstructorID,
				TotalAmount:  course.Price,
				CreatedAt:    now,
			}
			s.complete(&settled, now)
			if err := tx.Payments().Create(ctx, &settled); err != nil {
				return fmt.Errorf("create payment: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load payment: %w", err)
		default:
			switch existing.Status {
			case domain.PaymentStatusCompleted:
				return fmt.Errorf("payment %s: %w", existing.ID, domain.ErrAlreadySettled)
			case domain.PaymentStatusFailed, domain.PaymentStatusRefunded:
				return fmt.Errorf("payment %s is %s: %w", existing.ID, existing.Status, domain.ErrPaymentTerminal)
			}
			settled = *existing
			s.complete(&settled, now)
			if err := tx.Payments().Update(ctx, &settled, domain.PaymentStatusPending); err != nil {
				return fmt.Errorf("complete payment: %w", err)
			}
		}

		if !settled.SplitIsExact() {
			return fmt.Errorf("payment %s split %d+%d != %d: %w",
				settled.ID, settled.PlatformShare, settled.InstructorShare, settled.TotalAmount, domain.ErrInvariantViolation)
		}

		if err := tx.TransactionLogs().Create(ctx, domain.NewIncomeLog(&settled, now)); err != nil {
			return fmt.Errorf("write ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("SettlePayment: %w", err)
	}

	logging.FromContext(ctx).Info("payment settled",
		"payment_id", settled.ID,
		"enrollment_id", enrollmentID,
		"course_id", settled.CourseID,
		"total_amount", settled.TotalAmount,
		"platform_share", settled.PlatformShare,
		"instructor_share", settled.InstructorShare,
	)
	return &settled, nil
}

func (s *Service) complete(p *domain.Payment, now time.Time) {
	p.PlatformShare, p.InstructorShare = s.splitter.Split(p.TotalAmount)
	p.Status = domain.PaymentStatusCompleted
	p.FailureReason = nil
	p.CompletedAt = &now
	p.UpdatedAt = now
}

// FailPayment records a checkout that never captured money.
func (s *Service) FailPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*domain.Payment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("FailPayment: reason: %w", domain.ErrInvalidRequest)
	}

	var failed domain.Payment
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		p, err := tx.Payments().GetByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("load payment: %w", err)
		}
		switch {
		case p.Status.IsTerminal():
			return fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, domain.ErrPaymentTerminal)
		case p.Status != domain.PaymentStatusPending:
			return fmt.Errorf("payment %s %s -> %s: %w", p.ID, p.Status, domain.PaymentStatusFailed, domain.ErrInvalidTransition)
		}

		failed = *p
		failed.Status = domain.PaymentStatusFailed
		failed.FailureReason = &reason
		failed.UpdatedAt = s.now()
		if err := tx.Payments().Update(ctx, &failed, domain.PaymentStatusPending); err != nil {
			return fmt.Errorf("fail payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("FailPayment: %w", err)
	}

	logging.FromContext(ctx).Info("payment failed", "payment_id", failed.ID, "reason", reason)
	return &failed, nil
}

// RefundPayment removes a payment from earnings for good. Refunding a
// settled payment claws back the instructor share, so it is refused when
// that share has already been reserved or paid out, and it writes a REFUND
// entry to offset the original INCOME entry.
func (s *Service) RefundPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*domain.Payment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("RefundPayment: reason: %w", domain.ErrInvalidRequest)
	}

	var refunded domain.Payment
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		p, err := tx.Payments().GetByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("load payment: %w", err)
		}
		if p.Status.IsTerminal() {
			return fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, domain.ErrPaymentTerminal)
		}

		if _, err := tx.Courses().GetForUpdate(ctx, p.CourseID); err != nil {
			return fmt.Errorf("lock course: %w", err)
		}

		// Re-read under the course lock; a settlement may have raced us.
		p, err = tx.Payments().GetByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("reload payment: %w", err)
		}

		wasCompleted := p.Status == domain.PaymentStatusCompleted
		if wasCompleted {
			b, err := s.balances.Compute(ctx, tx, p.CourseID)
			if err != nil {
				return err
			}
			if p.InstructorShare > b.Available {
				return &domain.InsufficientBalanceError{Available: b.Available, Requested: p.InstructorShare}
			}
		}

		now := s.now()
		refunded = *p
		refunded.Status = domain.PaymentStatusRefunded
		refunded.FailureReason = &reason
		refunded.UpdatedAt = now
		if err := tx.Payments().Update(ctx, &refunded, p.Status); err != nil {
			return fmt.Errorf("refund payment: %w", err)
		}

		if wasCompleted {
			if err := tx.TransactionLogs().Create(ctx, domain.NewRefundLog(&refunded, now)); err != nil {
				return fmt.Errorf("write ledger entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("RefundPayment: %w", err)
	}

	logging.FromContext(ctx).Info("payment refunded",
		"payment_id", refunded.ID,
		"course_id", refunded.CourseID,
		"instructor_share", refunded.InstructorShare,
		"reason", reason,
	)
	return &refunded, nil
}

// loadEnrollment resolves the enrollment and its course, optionally taking
// the course lock. Soft-deleted enrollments are treated as absent.
func loadEnrollment(ctx context.Context, tx store.Repos, enrollmentID uuid.UUID, lock bool) (*domain.Enrollment, *domain.Course, error) {
	enrollment, err := tx.Enrollments().GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load enrollment: %w", err)
	}
	if enrollment.IsDeleted() {
		return nil, nil, fmt.Errorf("enrollment %s deleted: %w", enrollmentID, domain.ErrNotFound)
	}

	var course *domain.Course
	if lock {
		course, err = tx.Courses().GetForUpdate(ctx, enrollment.CourseID)
	} else {
		course, err = tx.Courses().GetByID(ctx, enrollment.CourseID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load course: %w", err)
	}

	if course.IsFree() {
		return nil, nil, fmt.Errorf("course %s: %w", course.ID, domain.ErrFreeCourse)
	}
	return enrollment, course, nil
}
