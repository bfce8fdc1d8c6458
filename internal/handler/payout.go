package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/service/payout"
)

type payoutService interface {
	RequestPayout(ctx context.Context, in payout.RequestPayoutInput) (*payout.RequestPayoutResult, error)
	UpdatePayoutStatus(ctx context.Context, actor domain.Actor, in payout.UpdatePayoutStatusInput) (*payout.UpdatePayoutStatusResult, error)
	GetPayout(ctx context.Context, actor domain.Actor, id uuid.UUID) (*payout.PayoutDetails, error)
	ListInstructorPayouts(ctx context.Context, actor domain.Actor, filter payout.ListFilter) (*payout.PayoutPage, error)
	ListPayouts(ctx context.Context, actor domain.Actor, filter payout.ListFilter) (*payout.PayoutPage, error)
}

type PayoutHandler struct {
	payouts payoutService
}

func NewPayoutHandler(payouts payoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

type requestPayoutRequest struct {
	CourseID    string `json:"courseId" validate:"required,uuid"`
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	Description string `json:"description" validate:"max=500"`
}

type requestPayoutResponse struct {
	Payout        payoutDTO            `json:"payout"`
	CourseBalance balanceDTO           `json:"courseBalance"`
	Balance       instructorBalanceDTO `json:"balance"`
}

func (h *PayoutHandler) Request(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req requestPayoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.payouts.RequestPayout(r.Context(), payout.RequestPayoutInput{
		InstructorID: actor.UserID,
		CourseID:     uuid.MustParse(req.CourseID),
		Amount:       req.Amount,
		Method:       domain.PayoutMethod(req.Method),
		Description:  req.Description,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, requestPayoutResponse{
		Payout:        toPayoutDTO(result.Payout),
		CourseBalance: toBalanceDTO(result.CourseBalance),
		Balance:       toInstructorBalanceDTO(result.Balance),
	})
}

type payoutDetailsResponse struct {
	Payout     payoutDTO        `json:"payout"`
	Instructor userSummaryDTO   `json:"instructor"`
	Course     courseSummaryDTO `json:"course"`
	History    []payoutEventDTO `json:"history"`
}

type userSummaryDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type courseSummaryDTO struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Price  int64     `json:"price"`
	Status string    `json:"status"`
}

func (h *PayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	details, err := h.payouts.GetPayout(r.Context(), actor, id)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, payoutDetailsResponse{
		Payout: toPayoutDTO(details.Payout),
		Instructor: userSummaryDTO{
			ID:    details.Instructor.ID,
			Name:  details.Instructor.Name,
			Email: details.Instructor.Email,
		},
		Course: courseSummaryDTO{
			ID:     details.Course.ID,
			Title:  details.Course.Title,
			Price:  details.Course.Price,
			Status: string(details.Course.Status),
		},
		History: toPayoutEventDTOs(details.History),
	})
}

type updateStatusRequest struct {
	Status          string `json:"status" validate:"required"`
	RejectionReason string `json:"rejectionReason" validate:"max=500"`
}

type updateStatusResponse struct {
	Message             string    `json:"message"`
	Payout              payoutDTO `json:"payout"`
	NewAvailableBalance int64     `json:"newAvailableBalance"`
}

func (h *PayoutHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.payouts.UpdatePayoutStatus(r.Context(), actor, payout.UpdatePayoutStatusInput{
		PayoutID:        id,
		NewStatus:       domain.PayoutStatus(req.Status),
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, updateStatusResponse{
		Message:             "Payout status updated to " + string(result.Payout.Status),
		Payout:              toPayoutDTO(result.Payout),
		NewAvailableBalance: result.NewAvailableBalance,
	})
}

// MyPayouts lists the caller's payouts with optional status and course
// filters.
func (h *PayoutHandler) MyPayouts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	filter, ok := listFilterFrom(w, r)
	if !ok {
		return
	}

	page, err := h.payouts.ListInstructorPayouts(r.Context(), actor, filter)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toPayoutPageDTO(page))
}

// Queue is the admin view across all instructors.
func (h *PayoutHandler) Queue(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	filter, ok := listFilterFrom(w, r)
	if !ok {
		return
	}
	instructorID, ok := optionalUUIDQuery(w, r, "instructorId")
	if !ok {
		return
	}
	filter.InstructorID = instructorID

	page, err := h.payouts.ListPayouts(r.Context(), actor, filter)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toPayoutPageDTO(page))
}

func listFilterFrom(w http.ResponseWriter, r *http.Request) (payout.ListFilter, bool) {
	courseID, ok := optionalUUIDQuery(w, r, "courseId")
	if !ok {
		return payout.ListFilter{}, false
	}
	page, ok := intQuery(w, r, "page")
	if !ok {
		return payout.ListFilter{}, false
	}
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return payout.ListFilter{}, false
	}
	return payout.ListFilter{
		CourseID: courseID,
		Status:   r.URL.Query().Get("status"),
		Page:     page,
		Limit:    limit,
	}, true
}
