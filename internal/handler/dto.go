package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/service/analytics"
	"github.com/josh-kwaku/instructor-payouts/internal/service/payout"
)

type payoutDTO struct {
	ID              uuid.UUID  `json:"id"`
	InstructorID    uuid.UUID  `json:"instructorId"`
	CourseID        uuid.UUID  `json:"courseId"`
	Amount          int64      `json:"amount"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	Description     string     `json:"description,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	RequestedAt     time.Time  `json:"requestedAt"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toPayoutDTO(p *domain.Payout) payoutDTO {
	return payoutDTO{
		ID:              p.ID,
		InstructorID:    p.InstructorID,
		CourseID:        p.CourseID,
		Amount:          p.Amount,
		Method:          string(p.Method),
		Status:          string(p.Status),
		Description:     p.Description,
		RejectionReason: p.RejectionReason,
		RequestedAt:     p.RequestedAt,
		ProcessedAt:     p.ProcessedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toPayoutDTOs(ps []domain.Payout) []payoutDTO {
	out := make([]payoutDTO, 0, len(ps))
	for i := range ps {
		out = append(out, toPayoutDTO(&ps[i]))
	}
	return out
}

type payoutEventDTO struct {
	EventType  string    `json:"eventType"`
	FromStatus *string   `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus"`
	ActorID    uuid.UUID `json:"actorId"`
	Note       *string   `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toPayoutEventDTOs(events []domain.PayoutEvent) []payoutEventDTO {
	out := make([]payoutEventDTO, 0, len(events))
	for _, e := range events {
		dto := payoutEventDTO{
			EventType: string(e.EventType),
			ToStatus:  string(e.ToStatus),
			ActorID:   e.ActorID,
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		}
		if e.FromStatus != nil {
			from := string(*e.FromStatus)
			dto.FromStatus = &from
		}
		out = append(out, dto)
	}
	return out
}

type balanceDTO struct {
	TotalEarnings         int64 `json:"totalEarnings"`
	TotalCompletedPayouts int64 `json:"totalCompletedPayouts"`
	TotalPendingPayouts   int64 `json:"totalPendingPayouts"`
	AvailableBalance      int64 `json:"availableBalance"`
}

func toBalanceDTO(b domain.Balance) balanceDTO {
	return balanceDTO{
		TotalEarnings:         b.TotalEarnings,
		TotalCompletedPayouts: b.TotalCompletedPayouts,
		TotalPendingPayouts:   b.TotalPendingPayouts,
		AvailableBalance:      b.Available,
	}
}

type courseBalanceDTO struct {
	CourseID    uuid.UUID  `json:"courseId"`
	CourseTitle string     `json:"courseTitle"`
	Balance     balanceDTO `json:"balance"`
}

func toCourseBalanceDTO(cb domain.CourseBalance) courseBalanceDTO {
	return courseBalanceDTO{
		CourseID:    cb.CourseID,
		CourseTitle: cb.CourseTitle,
		Balance:     toBalanceDTO(cb.Balance),
	}
}

type balanceSummaryDTO struct {
	CourseCount         int   `json:"courseCount"`
	CoursesWithBalance  int   `json:"coursesWithBalance"`
	WithdrawableBalance int64 `json:"withdrawableBalance"`
}

type instructorBalanceDTO struct {
	InstructorID uuid.UUID          `json:"instructorId"`
	Balance      balanceDTO         `json:"balance"`
	Courses      []courseBalanceDTO `json:"courses"`
	Summary      balanceSummaryDTO  `json:"summary"`
}

func toInstructorBalanceDTO(ib *domain.InstructorBalance) instructorBalanceDTO {
	dto := instructorBalanceDTO{
		InstructorID: ib.InstructorID,
		Balance:      toBalanceDTO(ib.Balance),
		Courses:      make([]courseBalanceDTO, 0, len(ib.Courses)),
		Summary: balanceSummaryDTO{
			CourseCount:         len(ib.Courses),
			WithdrawableBalance: ib.Balance.Available,
		},
	}
	for _, cb := range ib.Courses {
		dto.Courses = append(dto.Courses, toCourseBalanceDTO(cb))
		if cb.Balance.Available > 0 {
			dto.Summary.CoursesWithBalance++
		}
	}
	return dto
}

type statusTotalDTO struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Amount int64  `json:"amount"`
}

type payoutPageDTO struct {
	Payouts    []payoutDTO      `json:"payouts"`
	Pagination paginationDTO    `json:"pagination"`
	Summary    []statusTotalDTO `json:"summary"`
}

type paginationDTO struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func toPayoutPageDTO(p *payout.PayoutPage) payoutPageDTO {
	dto := payoutPageDTO{
		Payouts: toPayoutDTOs(p.Payouts),
		Pagination: paginationDTO{
			Page:  p.Page,
			Limit: p.Limit,
			Total: p.Total,
		},
		Summary: make([]statusTotalDTO, 0, len(p.Summary)),
	}
	if p.Limit > 0 {
		dto.Pagination.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	}
	for _, s := range p.Summary {
		dto.Summary = append(dto.Summary, statusTotalDTO{Status: string(s.Status), Count: s.Count, Amount: s.Amount})
	}
	return dto
}

type paymentDTO struct {
	ID              uuid.UUID  `json:"id"`
	EnrollmentID    uuid.UUID  `json:"enrollmentId"`
	CourseID        uuid.UUID  `json:"courseId"`
	InstructorID    uuid.UUID  `json:"instructorId"`
	TotalAmount     int64      `json:"totalAmount"`
	PlatformShare   int64      `json:"platformShare"`
	InstructorShare int64      `json:"instructorShare"`
	Status          string     `json:"status"`
	FailureReason   *string    `json:"failureReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

func toPaymentDTO(p *domain.Payment) paymentDTO {
	return paymentDTO{
		ID:              p.ID,
		EnrollmentID:    p.EnrollmentID,
		CourseID:        p.CourseID,
		InstructorID:    p.InstructorID,
		TotalAmount:     p.TotalAmount,
		PlatformShare:   p.PlatformShare,
		InstructorShare: p.InstructorShare,
		Status:          string(p.Status),
		FailureReason:   p.FailureReason,
		CreatedAt:       p.CreatedAt,
		CompletedAt:     p.CompletedAt,
	}
}

type enrollmentCountsDTO struct {
	Total     int `json:"total"`
	Enrolled  int `json:"enrolled"`
	Completed int `json:"completed"`
	Dropped   int `json:"dropped"`
}

type monthlyCountDTO struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type revenuePointDTO struct {
	Month           string `json:"month"`
	Payments        int    `json:"payments"`
	TotalAmount     int64  `json:"totalAmount"`
	PlatformShare   int64  `json:"platformShare"`
	InstructorShare int64  `json:"instructorShare"`
	Cumulative      int64  `json:"cumulative"`
}

type analyticsDTO struct {
	Enrollments      enrollmentCountsDTO `json:"enrollments"`
	CompletionRate   decimal.Decimal     `json:"completionRate"`
	EnrollmentTrend  []monthlyCountDTO   `json:"enrollmentTrend"`
	RevenueTrend     []revenuePointDTO   `json:"revenueTrend"`
	AvailableBalance *int64              `json:"availableBalance,omitempty"`
}

const monthLayout = "2006-01"

func toAnalyticsDTO(rep *analytics.Report) analyticsDTO {
	dto := analyticsDTO{
		Enrollments: enrollmentCountsDTO{
			Total:     rep.Enrollments.Total(),
			Enrolled:  rep.Enrollments.Enrolled,
			Completed: rep.Enrollments.Completed,
			Dropped:   rep.Enrollments.Dropped,
		},
		CompletionRate:   rep.CompletionRate,
		EnrollmentTrend:  make([]monthlyCountDTO, 0, len(rep.EnrollmentTrend)),
		RevenueTrend:     make([]revenuePointDTO, 0, len(rep.RevenueTrend)),
		AvailableBalance: rep.AvailableBalance,
	}
	for _, m := range rep.EnrollmentTrend {
		dto.EnrollmentTrend = append(dto.EnrollmentTrend, monthlyCountDTO{Month: m.Month.Format(monthLayout), Count: m.Count})
	}
	for _, p := range rep.RevenueTrend {
		dto.RevenueTrend = append(dto.RevenueTrend, revenuePointDTO{
			Month:           p.Month.Format(monthLayout),
			Payments:        p.Payments,
			TotalAmount:     p.TotalAmount,
			PlatformShare:   p.PlatformShare,
			InstructorShare: p.InstructorShare,
			Cumulative:      p.Cumulative,
		})
	}
	return dto
}
