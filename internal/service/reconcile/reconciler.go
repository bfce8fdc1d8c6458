// Package reconcile audits the ledger against the rows it was derived from.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/logging"
	"github.com/josh-kwaku/instructor-payouts/internal/store"
)

const (
	CheckNonNegative    = "available_non_negative"
	CheckPayoutLedger   = "payout_ledger_matches_completed_payouts"
	CheckEarningsLedger = "income_ledger_matches_earnings"
)

type balanceTotals interface {
	Totals(ctx context.Context, repos store.Repos, courseID uuid.UUID) (domain.Balance, error)
}

type Violation struct {
	CourseID uuid.UUID
	Check    string
	Expected int64
	Actual   int64
}

type Report struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	CoursesChecked int
	Violations     []Violation
}

func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

type Reconciler struct {
	store    store.Store
	balances balanceTotals
	now      func() time.Time
}

func NewReconciler(st store.Store, balances balanceTotals) *Reconciler {
	return &Reconciler{
		store:    st,
		balances: balances,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run checks every course. Violations are logged as invariant alerts and
// returned; an error means the audit itself could not complete.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	log := logging.FromContext(ctx)
	report := &Report{StartedAt: r.now()}

	courses, err := r.store.Courses().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run: courses: %w", err)
	}

	for _, course := range courses {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("Run: %w", err)
		}
		violations, err := r.checkCourse(ctx, course.ID)
		if err != nil {
			return nil, fmt.Errorf("Run: course %s: %w", course.ID, err)
		}
		report.CoursesChecked++
		report.Violations = append(report.Violations, violations...)
	}
	report.FinishedAt = r.now()

	for _, v := range report.Violations {
		log.Error("ledger reconciliation mismatch",
			"alert", logging.AlertLedgerInvariant,
			"course_id", v.CourseID,
			"check", v.Check,
			"expected", v.Expected,
			"actual", v.Actual,
		)
	}
	log.Info("ledger reconciliation finished",
		"courses_checked", report.CoursesChecked,
		"violations", len(report.Violations),
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}

// checkCourse reads the balance and the ledger sums under the same course
// lock every writer takes, so a settlement or payout committing mid-check
// cannot show up on one side only.
func (r *Reconciler) checkCourse(ctx context.Context, courseID uuid.UUID) ([]Violation, error) {
	var (
		b      domain.Balance
		logged map[domain.TransactionType]int64
	)
	err := r.store.WithinTx(ctx, func(tx store.Repos) error {
		if _, err := tx.Courses().GetForUpdate(ctx, courseID); err != nil {
			return fmt.Errorf("lock course: %w", err)
		}

		var err error
		b, err = r.balances.Totals(ctx, tx, courseID)
		if err != nil {
			return err
		}
		logged, err = tx.TransactionLogs().SumByType(ctx, courseID)
		if err != nil {
			return fmt.Errorf("ledger sums: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []Violation
	if b.Available < 0 {
		out = append(out, Violation{CourseID: courseID, Check: CheckNonNegative, Expected: 0, Actual: b.Available})
	}
	if paid := logged[domain.TransactionTypePayout]; paid != b.TotalCompletedPayouts {
		out = append(out, Violation{CourseID: courseID, Check: CheckPayoutLedger, Expected: b.TotalCompletedPayouts, Actual: paid})
	}
	net := logged[domain.TransactionTypeIncome] - logged[domain.TransactionTypeRefund]
	if net != b.TotalEarnings {
		out = append(out, Violation{CourseID: courseID, Check: CheckEarningsLedger, Expected: b.TotalEarnings, Actual: net})
	}
	return out, nil
}
