package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

// AnalyticsRepository runs the read-only group-by queries behind reports.
// Soft-deleted enrollments are excluded everywhere.
type AnalyticsRepository struct {
	db Querier
}

func NewAnalyticsRepository(db Querier) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) EnrollmentCounts(ctx context.Context, scope domain.AnalyticsScope) (domain.EnrollmentCounts, error) {
	where, args := scopeWhere(scope)

	rows, err := r.db.QueryContext(ctx,
		`SELECT e.status, COUNT(*)
		FROM enrollments e JOIN courses c ON c.id = e.course_id`+where+
			` GROUP BY e.status`,
		args...,
	)
	if err != nil {
		return domain.EnrollmentCounts{}, fmt.Errorf("EnrollmentCounts: %w", err)
	}
	defer rows.Close()

	var counts domain.EnrollmentCounts
	for rows.Next() {
		var status domain.EnrollmentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return domain.EnrollmentCounts{}, fmt.Errorf("EnrollmentCounts: scan: %w", err)
		}
		switch status {
		case domain.EnrollmentStatusEnrolled:
			counts.Enrolled = n
		case domain.EnrollmentStatusCompleted:
			counts.Completed = n
		case domain.EnrollmentStatusDropped:
			counts.Dropped = n
		}
	}
	if err := rows.Err(); err != nil {
		return domain.EnrollmentCounts{}, fmt.Errorf("EnrollmentCounts: rows: %w", err)
	}
	return counts, nil
}

func (r *AnalyticsRepository) MonthlyEnrollments(ctx context.Context, scope domain.AnalyticsScope, since time.Time) ([]domain.MonthlyCount, error) {
	where, args := scopeWhere(scope)
	args = append(args, since)

	rows, err := r.db.QueryContext(ctx,
		`SELECT date_trunc('month', e.enrolled_at AT TIME ZONE 'UTC') AS month, COUNT(*)
		FROM enrollments e JOIN courses c ON c.id = e.course_id`+where+
			fmt.Sprintf(` AND e.enrolled_at >= $%d`, len(args))+
			` GROUP BY month ORDER BY month`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("MonthlyEnrollments: %w", err)
	}
	defer rows.Close()

	var out []domain.MonthlyCount
	for rows.Next() {
		var m domain.MonthlyCount
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, fmt.Errorf("MonthlyEnrollments: scan: %w", err)
		}
		m.Month = asUTCMonth(m.Month)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MonthlyEnrollments: rows: %w", err)
	}
	return out, nil
}

// MonthlyRevenue buckets COMPLETED payments by settlement month.
func (r *AnalyticsRepository) MonthlyRevenue(ctx context.Context, scope domain.AnalyticsScope, since time.Time) ([]domain.MonthlyRevenue, error) {
	var conds []string
	var args []any
	if scope.InstructorID != nil {
		args = append(args, *scope.InstructorID)
		conds = append(conds, fmt.Sprintf("p.instructor_id = $%d", len(args)))
	}
	if scope.CourseID != nil {
		args = append(args, *scope.CourseID)
		conds = append(conds, fmt.Sprintf("p.course_id = $%d", len(args)))
	}
	args = append(args, domain.PaymentStatusCompleted, since)
	conds = append(conds,
		fmt.Sprintf("p.status = $%d", len(args)-1),
		fmt.Sprintf("p.completed_at >= $%d", len(args)),
	)

	rows, err := r.db.QueryContext(ctx,
		`SELECT date_trunc('month', p.completed_at AT TIME ZONE 'UTC') AS month,
			COUNT(*), SUM(p.total_amount), SUM(p.platform_share), SUM(p.instructor_share)
		FROM payments p
		WHERE `+strings.Join(conds, " AND ")+`
		GROUP BY month ORDER BY month`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("MonthlyRevenue: %w", err)
	}
	defer rows.Close()

	var out []domain.MonthlyRevenue
	for rows.Next() {
		var m domain.MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Payments, &m.TotalAmount, &m.PlatformShare, &m.InstructorShare); err != nil {
			return nil, fmt.Errorf("MonthlyRevenue: scan: %w", err)
		}
		m.Month = asUTCMonth(m.Month)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MonthlyRevenue: rows: %w", err)
	}
	return out, nil
}

func scopeWhere(scope domain.AnalyticsScope) (string, []any) {
	conds := []string{"e.deleted_at IS NULL"}
	var args []any
	if scope.InstructorID != nil {
		args = append(args, *scope.InstructorID)
		conds = append(conds, fmt.Sprintf("c.instructor_id = $%d", len(args)))
	}
	if scope.CourseID != nil {
		args = append(args, *scope.CourseID)
		conds = append(conds, fmt.Sprintf("c.id = $%d", len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// date_trunc on a timestamp without zone comes back with no location.
func asUTCMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
