package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "You do not have access to this resource"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount           = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidPayoutMethod     = &AppError{http.StatusBadRequest, "INVALID_PAYOUT_METHOD", "Payout method must be BANK_TRANSFER or PAYPAL"}
	ErrInvalidPayoutStatus     = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Unknown payout status"}
	ErrRejectionReasonRequired = &AppError{http.StatusBadRequest, "REJECTION_REASON_REQUIRED", "A rejection reason is required to fail a payout"}
	ErrFreeCourse              = &AppError{http.StatusBadRequest, "FREE_COURSE", "Free courses do not take payments"}

	ErrInsufficientBalance = &AppError{http.StatusConflict, "INSUFFICIENT_BALANCE", "Requested amount exceeds the available balance"}
	ErrInvalidTransition   = &AppError{http.StatusConflict, "INVALID_TRANSITION", "Status transition is not allowed"}
	ErrAlreadyFinalized    = &AppError{http.StatusConflict, "ALREADY_FINALIZED", "Payout is already finalized"}
	ErrAlreadySettled      = &AppError{http.StatusConflict, "ALREADY_SETTLED", "Payment is already settled"}
	ErrPaymentTerminal     = &AppError{http.StatusConflict, "PAYMENT_TERMINAL", "Payment is already failed or refunded"}
	ErrDuplicatePayment    = &AppError{http.StatusConflict, "DUPLICATE_PAYMENT", "Enrollment already has a payment"}
	ErrVersionConflict     = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrIdempotencyConflict = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInFlight = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_FLIGHT", "A request with this idempotency key is still being processed"}
	ErrLedgerInvariant     = &AppError{http.StatusInternalServerError, "INVARIANT_VIOLATION", "Ledger is inconsistent, the request was not applied"}
)
