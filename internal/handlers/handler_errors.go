package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// errorStatus maps a service error onto its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConcurrencyConflict), errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrConservationViolation), errors.Is(err, apperrors.ErrInvalidStateTransition):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes the error body for err. Unexpected failures are logged at error
// level and hidden behind fallback; everything else is returned to the caller verbatim.
func respondError(c *gin.Context, err error, fallback string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := errorStatus(err)

	if status == http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": fallback})
		return
	}

	logger.Warn(fallback, slog.String("error", err.Error()), slog.Int("status", status))
	body := gin.H{"error": err.Error()}

	var conservation *apperrors.ConservationError
	if errors.As(err, &conservation) {
		body["reason"] = conservation.Reason
		body["overshoot"] = conservation.Overshoot.StringFixed(2)
		body["currency"] = conservation.Currency
		if conservation.InvoiceID != "" {
			body["invoiceID"] = conservation.InvoiceID
		}
	}
	if apperrors.IsRetryable(err) {
		body["retryable"] = true
	}
	c.JSON(status, body)
}

// bindError answers a request whose payload or query failed binding.
func bindError(c *gin.Context, err error, what string) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind "+what, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
}

// requireUserID fetches the caller's user ID, answering 401 when the context has none.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
