package settlement

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

func TestSplit(t *testing.T) {
	tests := []struct {
		name           string
		pct            string
		total          int64
		wantPlatform   int64
		wantInstructor int64
	}{
		{name: "80 of 100 dollars", pct: "80", total: 10_000, wantPlatform: 2_000, wantInstructor: 8_000},
		{name: "remainder goes to platform", pct: "80", total: 999, wantPlatform: 200, wantInstructor: 799},
		{name: "one cent", pct: "80", total: 1, wantPlatform: 1, wantInstructor: 0},
		{name: "fractional percent", pct: "70.5", total: 1_000, wantPlatform: 295, wantInstructor: 705},
		{name: "fractional percent with remainder", pct: "33.3", total: 1_001, wantPlatform: 668, wantInstructor: 333},
		{name: "all to platform", pct: "0", total: 5_000, wantPlatform: 5_000, wantInstructor: 0},
		{name: "all to instructor", pct: "100", total: 5_000, wantPlatform: 0, wantInstructor: 5_000},
		{name: "zero total", pct: "80", total: 0, wantPlatform: 0, wantInstructor: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSplitter(decimal.RequireFromString(tc.pct))
			require.NoError(t, err)

			platform, instructor := s.Split(tc.total)
			assert.Equal(t, tc.wantPlatform, platform)
			assert.Equal(t, tc.wantInstructor, instructor)
		})
	}
}

func TestSplit_AlwaysExact(t *testing.T) {
	for _, pct := range []string{"0", "12.5", "33.33", "66.67", "80", "99.99", "100"} {
		s, err := NewSplitter(decimal.RequireFromString(pct))
		require.NoError(t, err)

		for total := int64(0); total <= 5_000; total += 7 {
			platform, instructor := s.Split(total)
			require.Equal(t, total, platform+instructor, "pct=%s total=%d", pct, total)
			require.GreaterOrEqual(t, platform, int64(0))
			require.GreaterOrEqual(t, instructor, int64(0))
		}
	}
}

func TestNewSplitter_RejectsOutOfRange(t *testing.T) {
	_, err := NewSplitter(decimal.NewFromInt(-1))
	assert.Error(t, err)

	_, err = NewSplitter(decimal.RequireFromString("100.01"))
	assert.Error(t, err)
}

type fixture struct {
	store    *memory.Store
	balances *balance.Calculator
	svc      *Service
	course   domain.Course
}

func newFixture(t *testing.T, price int64) *fixture {
	t.Helper()

	st := memory.New()
	calc := balance.NewCalculator(st)
	splitter, err := NewSplitter(decimal.NewFromInt(80))
	require.NoError(t, err)

	f := &fixture{
		store:    st,
		balances: calc,
		svc:      NewService(st, calc, splitter),
		course: domain.Course{
			ID:           uuid.New(),
			InstructorID: uuid.New(),
			Title:        "Accounting 101",
			Price:        price,
			Status:       domain.CourseStatusPublished,
			CreatedAt:    time.Now().UTC(),
		},
	}
	st.AddCourse(f.course)
	return f
}

func (f *fixture) enroll() domain.Enrollment {
	e := domain.Enrollment{
		ID:         uuid.New(),
		StudentID:  uuid.New(),
		CourseID:   f.course.ID,
		Status:     domain.EnrollmentStatusEnrolled,
		EnrolledAt: time.Now().UTC(),
	}
	f.store.AddEnrollment(e)
	return e
}

func (f *fixture) logs(typ domain.TransactionType) []domain.TransactionLog {
	var out []domain.TransactionLog
	for _, l := range f.store.TransactionLogsSnapshot() {
		if l.Type == typ {
			out = append(out, l)
		}
	}
	return out
}

func (f *fixture) available(t *testing.T) int64 {
	t.Helper()
	b, err := f.balances.Compute(context.Background(), f.store, f.course.ID)
	require.NoError(t, err)
	return b.Available
}

func TestSettlePayment_WithoutCheckout(t *testing.T) {
	f := newFixture(t, 10_000)
	e := f.enroll()

	p, err := f.svc.SettlePayment(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
	assert.Equal(t, int64(8_000), p.InstructorShare)
	assert.Equal(t, int64(2_000), p.PlatformShare)
	assert.True(t, p.SplitIsExact())
	assert.NotNil(t, p.CompletedAt)

	income := f.logs(domain.TransactionTypeIncome)
	require.Len(t, income, 1)
	assert.Equal(t, int64(8_000), income[0].Amount)
	require.NotNil(t, income[0].PaymentID)
	assert.Equal(t, p.ID, *income[0].PaymentID)

	assert.Equal(t, int64(8_000), f.available(t))
}

func TestSettlePayment_AfterCheckout(t *testing.T) {
	f := newFixture(t, 4_999)
	e := f.enroll()
	ctx := context.Background()

	pending, created, err := f.svc.StartCheckout(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.PaymentStatusPending, pending.Status)
	assert.True(t, pending.SplitIsExact())

	again, created, err := f.svc.StartCheckout(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, pending.ID, again.ID)

	// pending money is not earnings yet
	assert.Equal(t, int64(0), f.available(t))

	settled, err := f.svc.SettlePayment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, settled.ID)
	assert.Equal(t, int64(3_999), settled.InstructorShare)
	assert.Equal(t, int64(1_000), settled.PlatformShare)

	_, err = f.svc.SettlePayment(ctx, e.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
	assert.Len(t, f.logs(domain.TransactionTypeIncome), 1)
}

func TestSettlePayment_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("free course", func(t *testing.T) {
		f := newFixture(t, 0)
		e := f.enroll()
		_, err := f.svc.SettlePayment(ctx, e.ID)
		assert.ErrorIs(t, err, domain.ErrFreeCourse)
		assert.Empty(t, f.store.TransactionLogsSnapshot())
	})

	t.Run("unknown enrollment", func(t *testing.T) {
		f := newFixture(t, 1_000)
		_, err := f.svc.SettlePayment(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("deleted enrollment", func(t *testing.T) {
		f := newFixture(t, 1_000)
		e := f.enroll()
		deleted := time.Now().UTC()
		e.DeletedAt = &deleted
		f.store.AddEnrollment(e)

		_, err := f.svc.SettlePayment(ctx, e.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("failed payment", func(t *testing.T) {
		f := newFixture(t, 1_000)
		e := f.enroll()
		p, _, err := f.svc.StartCheckout(ctx, e.ID)
		require.NoError(t, err)
		_, err = f.svc.FailPayment(ctx, p.ID, "card declined")
		require.NoError(t, err)

		_, err = f.svc.SettlePayment(ctx, e.ID)
		assert.ErrorIs(t, err, domain.ErrPaymentTerminal)
	})
}

func TestFailPayment(t *testing.T) {
	f := newFixture(t, 1_000)
	ctx := context.Background()
	e := f.enroll()

	p, _, err := f.svc.StartCheckout(ctx, e.ID)
	require.NoError(t, err)

	_, err = f.svc.FailPayment(ctx, p.ID, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	failed, err := f.svc.FailPayment(ctx, p.ID, "card declined")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "card declined", *failed.FailureReason)

	_, err = f.svc.FailPayment(ctx, p.ID, "again")
	assert.ErrorIs(t, err, domain.ErrPaymentTerminal)

	settledEnrollment := f.enroll()
	settled, err := f.svc.SettlePayment(ctx, settledEnrollment.ID)
	require.NoError(t, err)
	_, err = f.svc.FailPayment(ctx, settled.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRefundPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("completed payment claws back earnings", func(t *testing.T) {
		f := newFixture(t, 10_000)
		e := f.enroll()
		p, err := f.svc.SettlePayment(ctx, e.ID)
		require.NoError(t, err)

		refunded, err := f.svc.RefundPayment(ctx, p.ID, "chargeback")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRefunded, refunded.Status)
		assert.Equal(t, int64(0), f.available(t))

		refunds := f.logs(domain.TransactionTypeRefund)
		require.Len(t, refunds, 1)
		assert.Equal(t, int64(8_000), refunds[0].Amount)

		_, err = f.svc.RefundPayment(ctx, p.ID, "again")
		assert.ErrorIs(t, err, domain.ErrPaymentTerminal)
	})

	t.Run("pending payment writes no ledger entry", func(t *testing.T) {
		f := newFixture(t, 10_000)
		e := f.enroll()
		p, _, err := f.svc.StartCheckout(ctx, e.ID)
		require.NoError(t, err)

		_, err = f.svc.RefundPayment(ctx, p.ID, "cancelled")
		require.NoError(t, err)
		assert.Empty(t, f.store.TransactionLogsSnapshot())
	})

	t.Run("refused when earnings are already reserved", func(t *testing.T) {
		f := newFixture(t, 10_000)
		e := f.enroll()
		p, err := f.svc.SettlePayment(ctx, e.ID)
		require.NoError(t, err)

		now := time.Now().UTC()
		f.store.AddPayout(domain.Payout{
			ID:           uuid.New(),
			InstructorID: f.course.InstructorID,
			CourseID:     f.course.ID,
			Amount:       5_000,
			Method:       domain.PayoutMethodPayPal,
			Status:       domain.PayoutStatusPending,
			RequestedAt:  now,
			UpdatedAt:    now,
		})

		_, err = f.svc.RefundPayment(ctx, p.ID, "chargeback")
		var shortfall *domain.InsufficientBalanceError
		require.ErrorAs(t, err, &shortfall)
		assert.Equal(t, int64(3_000), shortfall.Available)
		assert.Equal(t, int64(8_000), shortfall.Requested)
		assert.Equal(t, int64(3_000), f.available(t))
	})
}
