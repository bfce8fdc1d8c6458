// Package analytics builds read-only time series over enrollments and
// payments. Available balance always comes from the balance calculator.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

const (
	DefaultMonths = 6
	MaxMonths     = 24
)

type Repository interface {
	EnrollmentCounts(ctx context.Context, scope domain.AnalyticsScope) (domain.EnrollmentCounts, error)
	MonthlyEnrollments(ctx context.Context, scope domain.AnalyticsScope, since time.Time) ([]domain.MonthlyCount, error)
	MonthlyRevenue(ctx context.Context, scope domain.AnalyticsScope, since time.Time) ([]domain.MonthlyRevenue, error)
}

type courseReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)
}

type balanceReader interface {
	GetCourseBalance(ctx context.Context, actor domain.Actor, courseID uuid.UUID) (*domain.CourseBalance, error)
	GetInstructorTotalBalance(ctx context.Context, actor domain.Actor, instructorID uuid.UUID) (*domain.InstructorBalance, error)
}

type Reporter struct {
	repo     Repository
	courses  courseReader
	balances balanceReader
	now      func() time.Time
}

func NewReporter(repo Repository, courses courseReader, balances balanceReader) *Reporter {
	return &Reporter{
		repo:     repo,
		courses:  courses,
		balances: balances,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RevenuePoint struct {
	Month           time.Time
	Payments        int
	TotalAmount     int64
	PlatformShare   int64
	InstructorShare int64
	// Cumulative is the running total of InstructorShare for instructor and
	// course reports, and of TotalAmount for the platform report.
	Cumulative int64
}

type Report struct {
	Enrollments      domain.EnrollmentCounts
	CompletionRate   decimal.Decimal
	EnrollmentTrend  []domain.MonthlyCount
	RevenueTrend     []RevenuePoint
	AvailableBalance *int64
}

func (r *Reporter) InstructorReport(ctx context.Context, actor domain.Actor, instructorID uuid.UUID, months int) (*Report, error) {
	if !actor.CanAccess(instructorID) {
		return nil, fmt.Errorf("InstructorReport: %w", domain.ErrForbidden)
	}

	report, err := r.build(ctx, domain.AnalyticsScope{InstructorID: &instructorID}, months, false)
	if err != nil {
		return nil, fmt.Errorf("InstructorReport: %w", err)
	}

	total, err := r.balances.GetInstructorTotalBalance(ctx, actor, instructorID)
	if err != nil {
		return nil, fmt.Errorf("InstructorReport: balance: %w", err)
	}
	report.AvailableBalance = &total.Balance.Available
	return report, nil
}

func (r *Reporter) CourseReport(ctx context.Context, actor domain.Actor, courseID uuid.UUID, months int) (*Report, error) {
	course, err := r.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("CourseReport: %w", err)
	}
	if !actor.CanAccess(course.InstructorID) {
		return nil, fmt.Errorf("CourseReport: %w", domain.ErrForbidden)
	}

	report, err := r.build(ctx, domain.AnalyticsScope{CourseID: &courseID}, months, false)
	if err != nil {
		return nil, fmt.Errorf("CourseReport: %w", err)
	}

	cb, err := r.balances.GetCourseBalance(ctx, actor, courseID)
	if err != nil {
		return nil, fmt.Errorf("CourseReport: balance: %w", err)
	}
	report.AvailableBalance = &cb.Balance.Available
	return report, nil
}

// PlatformReport covers every course and carries no balance figure.
func (r *Reporter) PlatformReport(ctx context.Context, actor domain.Actor, months int) (*Report, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("PlatformReport: %w", domain.ErrForbidden)
	}

	report, err := r.build(ctx, domain.AnalyticsScope{}, months, true)
	if err != nil {
		return nil, fmt.Errorf("PlatformReport: %w", err)
	}
	return report, nil
}

func (r *Reporter) build(ctx context.Context, scope domain.AnalyticsScope, months int, platform bool) (*Report, error) {
	months, err := normalizeMonths(months)
	if err != nil {
		return nil, err
	}
	window := monthWindow(r.now(), months)

	counts, err := r.repo.EnrollmentCounts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("build: counts: %w", err)
	}

	enrollments, err := r.repo.MonthlyEnrollments(ctx, scope, window[0])
	if err != nil {
		return nil, fmt.Errorf("build: enrollment trend: %w", err)
	}

	revenue, err := r.repo.MonthlyRevenue(ctx, scope, window[0])
	if err != nil {
		return nil, fmt.Errorf("build: revenue trend: %w", err)
	}

	return &Report{
		Enrollments:     counts,
		CompletionRate:  CompletionRate(counts),
		EnrollmentTrend: fillCounts(window, enrollments),
		RevenueTrend:    fillRevenue(window, revenue, platform),
	}, nil
}

// CompletionRate is the percentage of enrollments that completed, rounded
// to two places.
func CompletionRate(c domain.EnrollmentCounts) decimal.Decimal {
	total := c.Total()
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(c.Completed)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}

func normalizeMonths(months int) (int, error) {
	if months == 0 {
		return DefaultMonths, nil
	}
	if months < 1 || months > MaxMonths {
		return 0, fmt.Errorf("months must be between 1 and %d: %w", MaxMonths, domain.ErrInvalidRequest)
	}
	return months, nil
}

// monthWindow lists the first day of each month ending with the current one.
func monthWindow(now time.Time, months int) []time.Time {
	now = now.UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	window := make([]time.Time, months)
	for i := range months {
		window[i] = current.AddDate(0, i-months+1, 0)
	}
	return window
}

func fillCounts(window []time.Time, rows []domain.MonthlyCount) []domain.MonthlyCount {
	byMonth := make(map[time.Time]int, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row.Count
	}
	out := make([]domain.MonthlyCount, len(window))
	for i, m := range window {
		out[i] = domain.MonthlyCount{Month: m, Count: byMonth[m]}
	}
	return out
}

func fillRevenue(window []time.Time, rows []domain.MonthlyRevenue, platform bool) []RevenuePoint {
	byMonth := make(map[time.Time]domain.MonthlyRevenue, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row
	}

	out := make([]RevenuePoint, len(window))
	var running int64
	for i, m := range window {
		row := byMonth[m]
		if platform {
			running += row.TotalAmount
		} else {
			running += row.InstructorShare
		}
		out[i] = RevenuePoint{
			Month:           m,
			Payments:        row.Payments,
			TotalAmount:     row.TotalAmount,
			PlatformShare:   row.PlatformShare,
			InstructorShare: row.InstructorShare,
			Cumulative:      running,
		}
	}
	return out
}
