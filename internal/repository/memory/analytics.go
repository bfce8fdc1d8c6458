package memory

import (
	"context"
	"sort"
	"time"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

// Analytics mirrors repository.AnalyticsRepository over the in-memory state.
type Analytics struct {
	store *Store
}

func (s *Store) Analytics() *Analytics {
	return &Analytics{store: s}
}

func (a *Analytics) EnrollmentCounts(_ context.Context, scope domain.AnalyticsScope) (domain.EnrollmentCounts, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	var counts domain.EnrollmentCounts
	for _, e := range a.store.state.enrollments {
		if !a.inScope(e, scope) {
			continue
		}
		switch e.Status {
		case domain.EnrollmentStatusEnrolled:
			counts.Enrolled++
		case domain.EnrollmentStatusCompleted:
			counts.Completed++
		case domain.EnrollmentStatusDropped:
			counts.Dropped++
		}
	}
	return counts, nil
}

func (a *Analytics) MonthlyEnrollments(_ context.Context, scope domain.AnalyticsScope, since time.Time) ([]domain.MonthlyCount, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	byMonth := make(map[time.Time]int)
	for _, e := range a.store.state.enrollments {
		if !a.inScope(e, scope) || e.EnrolledAt.Before(since) {
			continue
		}
		byMonth[monthOf(e.EnrolledAt)]++
	}

	out := make([]domain.MonthlyCount, 0, len(byMonth))
	for m, n := range byMonth {
		out = append(out, domain.MonthlyCount{Month: m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

func (a *Analytics) MonthlyRevenue(_ context.Context, scope domain.AnalyticsScope, since time.Time) ([]domain.MonthlyRevenue, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	byMonth := make(map[time.Time]*domain.MonthlyRevenue)
	for _, p := range a.store.state.payments {
		if p.Status != domain.PaymentStatusCompleted || p.CompletedAt == nil || p.CompletedAt.Before(since) {
			continue
		}
		if scope.InstructorID != nil && p.InstructorID != *scope.InstructorID {
			continue
		}
		if scope.CourseID != nil && p.CourseID != *scope.CourseID {
			continue
		}
		m := monthOf(*p.CompletedAt)
		rev, ok := byMonth[m]
		if !ok {
			rev = &domain.MonthlyRevenue{Month: m}
			byMonth[m] = rev
		}
		rev.Payments++
		rev.TotalAmount += p.TotalAmount
		rev.PlatformShare += p.PlatformShare
		rev.InstructorShare += p.InstructorShare
	}

	out := make([]domain.MonthlyRevenue, 0, len(byMonth))
	for _, rev := range byMonth {
		out = append(out, *rev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

func (a *Analytics) inScope(e domain.Enrollment, scope domain.AnalyticsScope) bool {
	if e.IsDeleted() {
		return false
	}
	if scope.CourseID != nil && e.CourseID != *scope.CourseID {
		return false
	}
	if scope.InstructorID != nil {
		c, ok := a.store.state.courses[e.CourseID]
		if !ok || c.InstructorID != *scope.InstructorID {
			return false
		}
	}
	return true
}

func monthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

