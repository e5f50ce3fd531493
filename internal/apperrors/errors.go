package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConservationViolation indicates that a mutation would over-allocate a payment or over-settle an invoice.
var ErrConservationViolation = errors.New("conservation violation")

// ErrInvalidStateTransition indicates an operation that the current lifecycle state does not permit.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// ErrConcurrencyConflict indicates that the record changed underneath the caller. Retry with fresh state.
var ErrConcurrencyConflict = errors.New("concurrency conflict")

// ErrForbidden indicates that the caller's identity is not scoped to the requested entity.
var ErrForbidden = errors.New("forbidden")

// ErrInternal is returned when a lower layer fails in a way the caller cannot correct.
var ErrInternal = errors.New("internal error")

// AppError wraps adapter failures with an HTTP-ish status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ConservationError reports by how much a requested allocation set overshoots its limit.
type ConservationError struct {
	Reason    string
	InvoiceID string
	Overshoot decimal.Decimal
	Currency  string
}

func (e *ConservationError) Error() string {
	if e.InvoiceID != "" {
		return fmt.Sprintf("%s: %s (invoice %s, overshoot %s %s)", ErrConservationViolation, e.Reason, e.InvoiceID, e.Overshoot.StringFixed(2), e.Currency)
	}
	return fmt.Sprintf("%s: %s (overshoot %s %s)", ErrConservationViolation, e.Reason, e.Overshoot.StringFixed(2), e.Currency)
}

func (e *ConservationError) Unwrap() error {
	return ErrConservationViolation
}

// IsRetryable reports whether the caller may retry the operation with fresh state.
// Only concurrency conflicts qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
