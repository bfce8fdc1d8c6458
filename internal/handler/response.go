package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/logging"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type balanceShortfall struct {
	Available int64 `json:"available"`
	Requested int64 `json:"requested"`
	Shortfall int64 `json:"shortfall"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps a service error onto the HTTP error table. Client
// errors are logged at warn, anything unmapped at error.
func RespondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	var shortfall *domain.InsufficientBalanceError
	if errors.As(err, &shortfall) {
		log.Warn("request rejected", "error", err)
		RespondAppError(w, ErrInsufficientBalance, balanceShortfall{
			Available: shortfall.Available,
			Requested: shortfall.Requested,
			Shortfall: shortfall.Shortfall(),
		})
		return
	}

	appErr := appErrorFor(err)
	switch {
	case appErr == ErrLedgerInvariant:
		log.Error("ledger invariant violated", "error", err, "alert", logging.AlertLedgerInvariant)
	case appErr == ErrInternalError:
		log.Error("unhandled domain error", "error", err)
	default:
		log.Warn("request rejected", "error", err, "code", appErr.Code)
	}

	RespondAppError(w, appErr, nil)
}

func appErrorFor(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound
	case errors.Is(err, domain.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, domain.ErrInvalidPayoutMethod):
		return ErrInvalidPayoutMethod
	case errors.Is(err, domain.ErrInvalidPayoutStatus):
		return ErrInvalidPayoutStatus
	case errors.Is(err, domain.ErrRejectionReasonRequired):
		return ErrRejectionReasonRequired
	case errors.Is(err, domain.ErrFreeCourse):
		return ErrFreeCourse
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrInvalidRequest
	case errors.Is(err, domain.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, domain.ErrInvalidTransition):
		return ErrInvalidTransition
	case errors.Is(err, domain.ErrAlreadyFinalized):
		return ErrAlreadyFinalized
	case errors.Is(err, domain.ErrAlreadySettled):
		return ErrAlreadySettled
	case errors.Is(err, domain.ErrPaymentTerminal):
		return ErrPaymentTerminal
	case errors.Is(err, domain.ErrDuplicatePayment):
		return ErrDuplicatePayment
	case errors.Is(err, domain.ErrVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, domain.ErrDuplicateIdempotencyKey):
		return ErrIdempotencyInFlight
	case errors.Is(err, domain.ErrInvariantViolation):
		return ErrLedgerInvariant
	default:
		return ErrInternalError
	}
}
