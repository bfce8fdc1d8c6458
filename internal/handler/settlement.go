package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

type settlementService interface {
	StartCheckout(ctx context.Context, enrollmentID uuid.UUID) (*domain.Payment, bool, error)
	SettlePayment(ctx context.Context, enrollmentID uuid.UUID) (*domain.Payment, error)
	FailPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*domain.Payment, error)
	RefundPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*domain.Payment, error)
}

type SettlementHandler struct {
	payments settlementService
}

func NewSettlementHandler(payments settlementService) *SettlementHandler {
	return &SettlementHandler{payments: payments}
}

type enrollmentRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required,uuid"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Checkout opens a PENDING payment. A repeat for the same enrollment returns
// the existing payment with 200 instead of 201.
func (h *SettlementHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req enrollmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, created, err := h.payments.StartCheckout(r.Context(), uuid.MustParse(req.EnrollmentID))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	RespondSuccess(w, status, toPaymentDTO(p))
}

func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req enrollmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.payments.SettlePayment(r.Context(), uuid.MustParse(req.EnrollmentID))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toPaymentDTO(p))
}

func (h *SettlementHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.payments.FailPayment)
}

func (h *SettlementHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.payments.RefundPayment)
}

func (h *SettlementHandler) withReason(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, string) (*domain.Payment, error)) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req reasonRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, err := op(r.Context(), id, req.Reason)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toPaymentDTO(p))
}
