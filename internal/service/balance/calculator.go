// Package balance derives available balances from payments and payouts.
// Nothing here is cached; every call reads the current rows.
package balance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/logging"
	"github.com/josh-kwaku/instructor-payouts/internal/store"
)

type Calculator struct {
	repos store.Repos
}

func NewCalculator(repos store.Repos) *Calculator {
	return &Calculator{repos: repos}
}

// Totals sums the raw figures for a course without checking them.
func (c *Calculator) Totals(ctx context.Context, repos store.Repos, courseID uuid.UUID) (domain.Balance, error) {
	earnings, err := repos.Payments().SumInstructorShare(ctx, courseID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("Totals: earnings: %w", err)
	}

	payouts, err := repos.Payouts().TotalsByCourse(ctx, courseID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("Totals: payouts: %w", err)
	}

	return domain.NewBalance(earnings, payouts), nil
}

// Compute returns the course balance read through repos, which may be bound
// to the caller's transaction. A negative available amount means the ledger
// is already corrupt and is reported as domain.ErrInvariantViolation.
func (c *Calculator) Compute(ctx context.Context, repos store.Repos, courseID uuid.UUID) (domain.Balance, error) {
	b, err := c.Totals(ctx, repos, courseID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("Compute: %w", err)
	}

	if b.Available < 0 {
		logging.FromContext(ctx).Error("negative available balance",
			"alert", logging.AlertLedgerInvariant,
			"course_id", courseID,
			"total_earnings", b.TotalEarnings,
			"total_completed_payouts", b.TotalCompletedPayouts,
			"total_pending_payouts", b.TotalPendingPayouts,
			"available", b.Available,
		)
		return domain.Balance{}, fmt.Errorf("Compute: course %s available %d: %w", courseID, b.Available, domain.ErrInvariantViolation)
	}

	return b, nil
}

func (c *Calculator) GetCourseBalance(ctx context.Context, actor domain.Actor, courseID uuid.UUID) (*domain.CourseBalance, error) {
	course, err := c.repos.Courses().GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("GetCourseBalance: %w", err)
	}

	if !actor.CanAccess(course.InstructorID) {
		return nil, fmt.Errorf("GetCourseBalance: %w", domain.ErrForbidden)
	}

	b, err := c.Compute(ctx, c.repos, course.ID)
	if err != nil {
		return nil, fmt.Errorf("GetCourseBalance: %w", err)
	}

	return &domain.CourseBalance{
		CourseID:     course.ID,
		CourseTitle:  course.Title,
		InstructorID: course.InstructorID,
		Balance:      b,
	}, nil
}

// GetInstructorTotalBalance sums every course the instructor owns and keeps
// the per-course figures for display.
func (c *Calculator) GetInstructorTotalBalance(ctx context.Context, actor domain.Actor, instructorID uuid.UUID) (*domain.InstructorBalance, error) {
	if !actor.CanAccess(instructorID) {
		return nil, fmt.Errorf("GetInstructorTotalBalance: %w", domain.ErrForbidden)
	}

	if instructorID != actor.UserID {
		if _, err := c.repos.Users().GetByID(ctx, instructorID); err != nil {
			return nil, fmt.Errorf("GetInstructorTotalBalance: instructor: %w", err)
		}
	}

	total, err := c.instructorTotal(ctx, c.repos, instructorID)
	if err != nil {
		return nil, fmt.Errorf("GetInstructorTotalBalance: %w", err)
	}
	return total, nil
}

func (c *Calculator) instructorTotal(ctx context.Context, repos store.Repos, instructorID uuid.UUID) (*domain.InstructorBalance, error) {
	courses, err := repos.Courses().ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("instructorTotal: courses: %w", err)
	}

	total := &domain.InstructorBalance{
		InstructorID: instructorID,
		Courses:      make([]domain.CourseBalance, 0, len(courses)),
	}
	for _, course := range courses {
		b, err := c.Compute(ctx, repos, course.ID)
		if err != nil {
			return nil, fmt.Errorf("instructorTotal: %w", err)
		}
		total.Balance = total.Balance.Add(b)
		total.Courses = append(total.Courses, domain.CourseBalance{
			CourseID:     course.ID,
			CourseTitle:  course.Title,
			InstructorID: course.InstructorID,
			Balance:      b,
		})
	}
	return total, nil
}
