package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/repository/memory"
	"github.com/josh-kwaku/instructor-payouts/internal/service/balance"
)

var march = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memory.Store
	reporter   *Reporter
	instructor domain.Actor
	course     domain.Course
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := memory.New()
	calc := balance.NewCalculator(st)
	f := &fixture{
		store:      st,
		reporter:   NewReporter(st.Analytics(), st.Courses(), calc),
		instructor: domain.Actor{UserID: uuid.New(), Role: domain.RoleInstructor},
	}
	f.reporter.now = func() time.Time { return march }

	f.course = domain.Course{
		ID:           uuid.New(),
		InstructorID: f.instructor.UserID,
		Title:        "Trends",
		Price:        10_000,
		Status:       domain.CourseStatusPublished,
		CreatedAt:    march.AddDate(-1, 0, 0),
	}
	st.AddCourse(f.course)
	return f
}

func (f *fixture) enroll(status domain.EnrollmentStatus, at time.Time, paid bool) domain.Enrollment {
	e := domain.Enrollment{
		ID:         uuid.New(),
		StudentID:  uuid.New(),
		CourseID:   f.course.ID,
		Status:     status,
		EnrolledAt: at,
	}
	f.store.AddEnrollment(e)
	if paid {
		completed := at
		f.store.AddPayment(domain.Payment{
			ID:              uuid.New(),
			EnrollmentID:    e.ID,
			CourseID:        f.course.ID,
			InstructorID:    f.course.InstructorID,
			TotalAmount:     10_000,
			PlatformShare:   2_000,
			InstructorShare: 8_000,
			Status:          domain.PaymentStatusCompleted,
			CreatedAt:       at,
			UpdatedAt:       at,
			CompletedAt:     &completed,
		})
	}
	return e
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		name   string
		counts domain.EnrollmentCounts
		want   string
	}{
		{name: "no enrollments", counts: domain.EnrollmentCounts{}, want: "0"},
		{name: "all completed", counts: domain.EnrollmentCounts{Completed: 4}, want: "100"},
		{name: "two of three", counts: domain.EnrollmentCounts{Enrolled: 1, Completed: 2}, want: "66.67"},
		{name: "dropped count in total", counts: domain.EnrollmentCounts{Completed: 1, Dropped: 3}, want: "25"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CompletionRate(tc.counts)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestMonthWindow(t *testing.T) {
	window := monthWindow(march, 3)
	require.Len(t, window, 3)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), window[0])
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), window[2])

	crossYear := monthWindow(time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC), 4)
	assert.Equal(t, time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC), crossYear[0])
}

func TestCourseReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.enroll(domain.EnrollmentStatusCompleted, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), true)
	f.enroll(domain.EnrollmentStatusEnrolled, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), true)
	f.enroll(domain.EnrollmentStatusDropped, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), false)
	// outside the window but still counted in totals
	f.enroll(domain.EnrollmentStatusCompleted, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), false)

	deleted := f.enroll(domain.EnrollmentStatusCompleted, time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC), false)
	at := march
	deleted.DeletedAt = &at
	f.store.AddEnrollment(deleted)

	rep, err := f.reporter.CourseReport(ctx, f.instructor, f.course.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, domain.EnrollmentCounts{Enrolled: 1, Completed: 2, Dropped: 1}, rep.Enrollments)
	assert.True(t, decimal.NewFromInt(50).Equal(rep.CompletionRate))

	require.Len(t, rep.EnrollmentTrend, 3)
	assert.Equal(t, []int{1, 0, 2}, []int{rep.EnrollmentTrend[0].Count, rep.EnrollmentTrend[1].Count, rep.EnrollmentTrend[2].Count})

	require.Len(t, rep.RevenueTrend, 3)
	assert.Equal(t, int64(8_000), rep.RevenueTrend[0].InstructorShare)
	assert.Equal(t, 0, rep.RevenueTrend[1].Payments)
	assert.Equal(t, int64(8_000), rep.RevenueTrend[1].Cumulative)
	assert.Equal(t, int64(16_000), rep.RevenueTrend[2].Cumulative)

	require.NotNil(t, rep.AvailableBalance)
	assert.Equal(t, int64(16_000), *rep.AvailableBalance)
}

func TestReports_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := domain.Actor{UserID: uuid.New(), Role: domain.RoleInstructor}
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}

	_, err := f.reporter.CourseReport(ctx, stranger, f.course.ID, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.reporter.CourseReport(ctx, f.instructor, uuid.New(), 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.reporter.InstructorReport(ctx, stranger, f.instructor.UserID, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.reporter.PlatformReport(ctx, f.instructor, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	rep, err := f.reporter.PlatformReport(ctx, admin, 0)
	require.NoError(t, err)
	assert.Len(t, rep.EnrollmentTrend, DefaultMonths)
	assert.Nil(t, rep.AvailableBalance)
}

func TestReports_MonthsBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, months := range []int{-1, MaxMonths + 1} {
		_, err := f.reporter.InstructorReport(ctx, f.instructor, f.instructor.UserID, months)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest, "months=%d", months)
	}

	rep, err := f.reporter.InstructorReport(ctx, f.instructor, f.instructor.UserID, MaxMonths)
	require.NoError(t, err)
	assert.Len(t, rep.RevenueTrend, MaxMonths)
}

func TestPlatformReport_CumulativeUsesGross(t *testing.T) {
	f := newFixture(t)
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}

	f.enroll(domain.EnrollmentStatusEnrolled, time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC), true)
	f.enroll(domain.EnrollmentStatusEnrolled, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), true)

	rep, err := f.reporter.PlatformReport(context.Background(), admin, 2)
	require.NoError(t, err)
	require.Len(t, rep.RevenueTrend, 2)
	assert.Equal(t, int64(2_000), rep.RevenueTrend[0].PlatformShare)
	assert.Equal(t, int64(10_000), rep.RevenueTrend[0].Cumulative)
	assert.Equal(t, int64(20_000), rep.RevenueTrend[1].Cumulative)
}
