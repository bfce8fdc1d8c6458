package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/service/analytics"
)

type analyticsService interface {
	InstructorReport(ctx context.Context, actor domain.Actor, instructorID uuid.UUID, months int) (*analytics.Report, error)
	CourseReport(ctx context.Context, actor domain.Actor, courseID uuid.UUID, months int) (*analytics.Report, error)
	PlatformReport(ctx context.Context, actor domain.Actor, months int) (*analytics.Report, error)
}

type AnalyticsHandler struct {
	reports analyticsService
}

func NewAnalyticsHandler(reports analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{reports: reports}
}

func (h *AnalyticsHandler) Instructor(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	months, ok := intQuery(w, r, "months")
	if !ok {
		return
	}

	rep, err := h.reports.InstructorReport(r.Context(), actor, actor.UserID, months)
	h.respond(w, r, rep, err)
}

func (h *AnalyticsHandler) Course(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	courseID, ok := uuidParam(w, r, "courseId")
	if !ok {
		return
	}
	months, ok := intQuery(w, r, "months")
	if !ok {
		return
	}

	rep, err := h.reports.CourseReport(r.Context(), actor, courseID, months)
	h.respond(w, r, rep, err)
}

func (h *AnalyticsHandler) Platform(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	months, ok := intQuery(w, r, "months")
	if !ok {
		return
	}

	rep, err := h.reports.PlatformReport(r.Context(), actor, months)
	h.respond(w, r, rep, err)
}

func (h *AnalyticsHandler) respond(w http.ResponseWriter, r *http.Request, rep *analytics.Report, err error) {
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAnalyticsDTO(rep))
}
