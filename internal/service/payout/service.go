package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/store"
)

const (
	DefaultPageLimit     = 20
	MaxPageLimit         = 100
	maxDescriptionLength = 500
)

type balanceCalculator interface {
	Compute(ctx context.Context, repos store.Repos, courseID uuid.UUID) (domain.Balance, error)
	GetInstructorTotalBalance(ctx context.Context, actor domain.Actor, instructorID uuid.UUID) (*domain.InstructorBalance, error)
}

type Config struct {
	// RequireProcessing forbids PENDING -> COMPLETED without passing
	// through PROCESSING.
	RequireProcessing bool
}

// Service owns every payout invariant: no overdraw on request and a
// forward-only status machine on update.
type Service struct {
	store    store.Store
	balances balanceCalculator
	config   Config
	now      func() time.Time
}

func NewService(st store.Store, balances balanceCalculator, cfg Config) *Service {
	return &Service{
		store:    st,
		balances: balances,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type UserSummary struct {
	ID    uuid.UUID
	Name  string
	Email string
}

type CourseSummary struct {
	ID     uuid.UUID
	Title  string
	Price  int64
	Status domain.CourseStatus
}

type PayoutDetails struct {
	Payout     *domain.Payout
	Instructor UserSummary
	Course     CourseSummary
	History    []domain.PayoutEvent
}

func (s *Service) GetPayout(ctx context.Context, actor domain.Actor, id uuid.UUID) (*PayoutDetails, error) {
	p, err := s.store.Payouts().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetPayout: %w", err)
	}

	if !actor.CanAccess(p.InstructorID) {
		return nil, fmt.Errorf("GetPayout: %w", domain.ErrForbidden)
	}

	instructor, err := s.store.Users().GetByID(ctx, p.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("GetPayout: instructor: %w", err)
	}

	course, err := s.store.Courses().GetByID(ctx, p.CourseID)
	if err != nil {
		return nil, fmt.Errorf("GetPayout: course: %w", err)
	}

	history, err := s.store.PayoutEvents().ListByPayoutID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("GetPayout: history: %w", err)
	}

	return &PayoutDetails{
		Payout:     p,
		Instructor: UserSummary{ID: instructor.ID, Name: instructor.Name, Email: instructor.Email},
		Course:     CourseSummary{ID: course.ID, Title: course.Title, Price: course.Price, Status: course.Status},
		History:    history,
	}, nil
}

type ListFilter struct {
	InstructorID *uuid.UUID
	CourseID     *uuid.UUID
	Status       string
	Page         int
	Limit        int
}

type PayoutPage struct {
	Payouts []domain.Payout
	Total   int
	Page    int
	Limit   int
	Summary []domain.PayoutStatusTotal
}

// ListInstructorPayouts pages through the actor's own payouts. The summary
// covers all statuses regardless of the status filter.
func (s *Service) ListInstructorPayouts(ctx context.Context, actor domain.Actor, filter ListFilter) (*PayoutPage, error) {
	filter.InstructorID = &actor.UserID
	page, err := s.list(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ListInstructorPayouts: %w", err)
	}
	return page, nil
}

// ListPayouts is the admin queue across all instructors.
func (s *Service) ListPayouts(ctx context.Context, actor domain.Actor, filter ListFilter) (*PayoutPage, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("ListPayouts: %w", domain.ErrForbidden)
	}
	page, err := s.list(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ListPayouts: %w", err)
	}
	return page, nil
}

func (s *Service) list(ctx context.Context, filter ListFilter) (*PayoutPage, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)

	q := domain.PayoutFilter{
		InstructorID: filter.InstructorID,
		CourseID:     filter.CourseID,
		Limit:        limit,
		Offset:       (page - 1) * limit,
	}
	if filter.Status != "" {
		status := domain.PayoutStatus(filter.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("list: %q: %w", filter.Status, domain.ErrInvalidPayoutStatus)
		}
		q.Status = &status
	}

	payouts, total, err := s.store.Payouts().List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	summary, err := s.store.Payouts().SummarizeByStatus(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list: summary: %w", err)
	}

	return &PayoutPage{
		Payouts: payouts,
		Total:   total,
		Page:    page,
		Limit:   limit,
		Summary: summary,
	}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return page, limit
}
