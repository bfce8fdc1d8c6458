package domain

import "github.com/google/uuid"

// Balance is always derived from payments and payouts at read time.
type Balance struct {
	TotalEarnings         int64
	TotalCompletedPayouts int64
	TotalPendingPayouts   int64
	Available             int64
}

func NewBalance(earnings int64, payouts PayoutTotals) Balance {
	return Balance{
		TotalEarnings:         earnings,
		TotalCompletedPayouts: payouts.Completed,
		TotalPendingPayouts:   payouts.Outstanding,
		Available:             earnings - payouts.Completed - payouts.Outstanding,
	}
}

func (b Balance) Add(o Balance) Balance {
	return Balance{
		TotalEarnings:         b.TotalEarnings + o.TotalEarnings,
		TotalCompletedPayouts: b.TotalCompletedPayouts + o.TotalCompletedPayouts,
		TotalPendingPayouts:   b.TotalPendingPayouts + o.TotalPendingPayouts,
		Available:             b.Available + o.Available,
	}
}

type CourseBalance struct {
	CourseID     uuid.UUID
	CourseTitle  string
	InstructorID uuid.UUID
	Balance      Balance
}

type InstructorBalance struct {
	InstructorID uuid.UUID
	Balance      Balance
	Courses      []CourseBalance
}
