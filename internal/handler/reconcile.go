package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/service/reconcile"
)

type reconciler interface {
	Run(ctx context.Context) (*reconcile.Report, error)
}

type ReconcileHandler struct {
	reconciler reconciler
}

func NewReconcileHandler(r reconciler) *ReconcileHandler {
	return &ReconcileHandler{reconciler: r}
}

type violationDTO struct {
	CourseID uuid.UUID `json:"courseId"`
	Check    string    `json:"check"`
	Expected int64     `json:"expected"`
	Actual   int64     `json:"actual"`
}

type reconcileReportDTO struct {
	OK             bool           `json:"ok"`
	StartedAt      time.Time      `json:"startedAt"`
	FinishedAt     time.Time      `json:"finishedAt"`
	CoursesChecked int            `json:"coursesChecked"`
	Violations     []violationDTO `json:"violations"`
}

func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reconciler.Run(r.Context())
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	dto := reconcileReportDTO{
		OK:             rep.OK(),
		StartedAt:      rep.StartedAt,
		FinishedAt:     rep.FinishedAt,
		CoursesChecked: rep.CoursesChecked,
		Violations:     make([]violationDTO, 0, len(rep.Violations)),
	}
	for _, v := range rep.Violations {
		dto.Violations = append(dto.Violations, violationDTO{
			CourseID: v.CourseID,
			Check:    v.Check,
			Expected: v.Expected,
			Actual:   v.Actual,
		})
	}
	RespondSuccess(w, http.StatusOK, dto)
}
