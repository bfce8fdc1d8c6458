package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

type fakeSettlementService struct {
	created bool
	err     error
	reason  string
}

func (f *fakeSettlementService) payment(status domain.PaymentStatus) *domain.Payment {
	return &domain.Payment{
		ID:              uuid.New(),
		TotalAmount:     999,
		InstructorShare: 699,
		PlatformShare:   300,
		Status:          status,
	}
}

func (f *fakeSettlementService) StartCheckout(context.Context, uuid.UUID) (*domain.Payment, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return f.payment(domain.PaymentStatusPending), f.created, nil
}

func (f *fakeSettlementService) SettlePayment(context.Context, uuid.UUID) (*domain.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payment(domain.PaymentStatusCompleted), nil
}

func (f *fakeSettlementService) FailPayment(_ context.Context, _ uuid.UUID, reason string) (*domain.Payment, error) {
	f.reason = reason
	if f.err != nil {
		return nil, f.err
	}
	return f.payment(domain.PaymentStatusFailed), nil
}

func (f *fakeSettlementService) RefundPayment(_ context.Context, _ uuid.UUID, reason string) (*domain.Payment, error) {
	f.reason = reason
	if f.err != nil {
		return nil, f.err
	}
	return f.payment(domain.PaymentStatusRefunded), nil
}

func TestSettlementHandler_Checkout(t *testing.T) {
	body := fmt.Sprintf(`{"enrollmentId":%q}`, uuid.New())

	t.Run("new payment", func(t *testing.T) {
		h := NewSettlementHandler(&fakeSettlementService{created: true})
		rec := httptest.NewRecorder()

		h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("existing payment", func(t *testing.T) {
		h := NewSettlementHandler(&fakeSettlementService{created: false})
		rec := httptest.NewRecorder()

		h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("free course", func(t *testing.T) {
		h := NewSettlementHandler(&fakeSettlementService{err: domain.ErrFreeCourse})
		rec := httptest.NewRecorder()

		h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "FREE_COURSE", errorCode(t, rec))
	})
}

func TestSettlementHandler_Settle(t *testing.T) {
	h := NewSettlementHandler(&fakeSettlementService{})
	rec := httptest.NewRecorder()

	h.Settle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/settle", strings.NewReader(fmt.Sprintf(`{"enrollmentId":%q}`, uuid.New()))))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec)["data"].(map[string]any)
	assert.Equal(t, "COMPLETED", data["status"])
	assert.Equal(t, float64(699), data["instructorShare"])
	assert.Equal(t, float64(300), data["platformShare"])

	t.Run("already settled", func(t *testing.T) {
		h := NewSettlementHandler(&fakeSettlementService{err: domain.ErrAlreadySettled})
		rec := httptest.NewRecorder()

		h.Settle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/settle", strings.NewReader(fmt.Sprintf(`{"enrollmentId":%q}`, uuid.New()))))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "ALREADY_SETTLED", errorCode(t, rec))
	})
}

func TestSettlementHandler_Refund(t *testing.T) {
	id := uuid.New()

	t.Run("reason required", func(t *testing.T) {
		svc := &fakeSettlementService{}
		h := NewSettlementHandler(svc)
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+id.String()+"/refund", strings.NewReader(`{}`)), "id", id.String())
		rec := httptest.NewRecorder()

		h.Refund(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
		assert.Empty(t, svc.reason)
	})

	t.Run("refunded", func(t *testing.T) {
		svc := &fakeSettlementService{}
		h := NewSettlementHandler(svc)
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+id.String()+"/refund", strings.NewReader(`{"reason":"chargeback"}`)), "id", id.String())
		rec := httptest.NewRecorder()

		h.Refund(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "chargeback", svc.reason)
		assert.Equal(t, "REFUNDED", decodeResponse(t, rec)["data"].(map[string]any)["status"])
	})

	t.Run("balance already paid out", func(t *testing.T) {
		svc := &fakeSettlementService{err: &domain.InsufficientBalanceError{Available: 3000, Requested: 8000}}
		h := NewSettlementHandler(svc)
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+id.String()+"/refund", strings.NewReader(`{"reason":"chargeback"}`)), "id", id.String())
		rec := httptest.NewRecorder()

		h.Refund(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "INSUFFICIENT_BALANCE", errorCode(t, rec))
	})
}
