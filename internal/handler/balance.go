package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

type balanceService interface {
	GetCourseBalance(ctx context.Context, actor domain.Actor, courseID uuid.UUID) (*domain.CourseBalance, error)
	GetInstructorTotalBalance(ctx context.Context, actor domain.Actor, instructorID uuid.UUID) (*domain.InstructorBalance, error)
}

type BalanceHandler struct {
	balances balanceService
}

func NewBalanceHandler(balances balanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// InstructorTotal returns the caller's balance across all their courses.
// Admins may pass instructorId to look at someone else's.
func (h *BalanceHandler) InstructorTotal(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	instructorID := actor.UserID
	if actor.IsAdmin() {
		requested, ok := optionalUUIDQuery(w, r, "instructorId")
		if !ok {
			return
		}
		if requested == nil {
			RespondValidationError(w, []FieldError{{Field: "instructorId", Message: "required"}})
			return
		}
		instructorID = *requested
	}

	total, err := h.balances.GetInstructorTotalBalance(r.Context(), actor, instructorID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toInstructorBalanceDTO(total))
}

func (h *BalanceHandler) Course(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	courseID, ok := uuidParam(w, r, "courseId")
	if !ok {
		return
	}

	cb, err := h.balances.GetCourseBalance(r.Context(), actor, courseID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCourseBalanceDTO(*cb))
}
