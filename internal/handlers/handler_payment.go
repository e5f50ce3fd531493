package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles HTTP requests related to payments and their allocations.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

// newPaymentHandler creates a new paymentHandler.
func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{paymentService: ps}
}

// registerPaymentRoutes registers payment routes under /entities/:entity_id.
func registerPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("", h.listPayments)
		payments.GET("/:payment_id", h.getPayment)
		payments.POST("/:payment_id/cancel", h.cancelPayment)
		payments.POST("/:payment_id/allocations", h.allocate)
		payments.POST("/:payment_id/deallocations", h.deallocate)
		payments.POST("/:payment_id/allocation-suggestions", h.suggestAllocations)
	}
}

// createPayment godoc
// @Summary Record a payment
// @Description Records a received or made payment. Allocations in the request are applied in the same unit of work; any failure rejects the whole request.
// @Tags payments
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param payment body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Entity, party, bank account or invoice not found"
// @Failure 422 {object} map[string]string "Allocations exceed the payment or an invoice"
// @Security BearerAuth
// @Router /entities/{entity_id}/payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "CreatePayment")
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, applied, err := h.paymentService.CreatePayment(c.Request.Context(), c.Param("entity_id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create payment")
		return
	}

	logger.Info("Payment created", slog.String("payment_id", p.PaymentID), slog.Int("allocations", len(applied)))
	c.JSON(http.StatusCreated, dto.ToCreatePaymentResponse(p, applied))
}

// listPayments godoc
// @Summary List payments
// @Tags payments
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param paymentType query string false "received or made"
// @Param status query string false "Payment status"
// @Param partyID query string false "Customer or vendor ID"
// @Param search query string false "Matches payment number and reference"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Security BearerAuth
// @Router /entities/{entity_id}/payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err, "ListPayments query")
		return
	}

	resp, err := h.paymentService.ListPayments(c.Request.Context(), c.Param("entity_id"), params)
	if err != nil {
		respondError(c, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getPayment godoc
// @Summary Get a payment
// @Tags payments
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param payment_id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]string "Payment not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/payments/{payment_id} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	p, err := h.paymentService.GetPaymentByID(c.Request.Context(), c.Param("entity_id"), c.Param("payment_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(p))
}

// cancelPayment godoc
// @Summary Cancel a payment
// @Description Only a payment with no remaining allocations can be cancelled
// @Tags payments
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param payment_id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 422 {object} map[string]string "Payment still has allocations"
// @Security BearerAuth
// @Router /entities/{entity_id}/payments/{payment_id}/cancel [post]
func (h *paymentHandler) cancelPayment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.paymentService.CancelPayment(c.Request.Context(), c.Param("entity_id"), c.Param("payment_id"), userID)
	if err != nil {
		respondError(c, err, "Failed to cancel payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(p))
}

// allocate godoc
// @Summary Allocate a payment to invoices
// @Description Applies every line or none. Rejected with 422 when the batch would exceed the payment's unallocated amount or any invoice's amount due.
// @Tags allocations
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param payment_id path string true "Payment ID"
// @Param request body dto.AllocationBatchRequest true "Allocation lines"
// @Success 200 {object} dto.AllocationResultResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Payment or invoice not found"
// @Failure 409 {object} map[string]string "Version conflict, retry with fresh state"
// @Failure 422 {object} map[string]string "Conservation violated or invalid state"
// @Security BearerAuth
// @Router /entities/{entity_id}/payments/{payment_id}/allocations [post]
func (h *paymentHandler) allocate(c *gin.Context) {
	h.applyBatch(c, false)
}

// deallocate godoc
// @Summary Reverse allocations
// @Description Removes the given amounts from existing allocations. Every line is applied or none.
// @Tags allocations
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param payment_id path string true "Payment ID"
// @Param request body dto.AllocationBatchRequest true "Deallocation lines"
// @Success 200 {object} dto.AllocationResultResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Payment or allocation not found"
// @Failure 409 {object} map[string]string "Version conflict, retry with fresh state"
// @Failure 422 {object} map[string]string "Amount exceeds the existing allocation"
// @Security BearerAuth
// @Router /entities/{entity_id}/payments/{payment_id}/deallocations [post]
func (h *paymentHandler) deallocate(c *gin.Context) {
	h.applyBatch(c, true)
}

func (h *paymentHandler) applyBatch(c *gin.Context, reverse bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AllocationBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "AllocationBatch")
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	entityID, paymentID := c.Param("entity_id"), c.Param("payment_id")
	logger = logger.With(slog.String("payment_id", paymentID), slog.Int("lines", len(req.Allocations)), slog.Bool("reverse", reverse))

	op, fallback := h.paymentService.Allocate, "Failed to allocate payment"
	if reverse {
		op, fallback = h.paymentService.Deallocate, "Failed to deallocate payment"
	}
	result, err := op(c.Request.Context(), entityID, paymentID, req, userID)
	if err != nil {
		respondError(c, err, fallback)
		return
	}

	logger.Info("Allocation batch applied", slog.String("unallocated", result.Unallocated.Amount.StringFixed(2)))
	c.JSON(http.StatusOK, dto.ToAllocationResultResponse(result))
}

// suggestAllocations godoc
// @Summary Suggest allocations
// @Description Clamps proposals against the payment's remainder and each invoice's amount due. Nothing is committed.
// @Tags allocations
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param payment_id path string true "Payment ID"
// @Param request body dto.SuggestAllocationsRequest false "Proposals; empty proposes every open invoice of the party"
// @Success 200 {object} dto.SuggestAllocationsResponse
// @Failure 404 {object} map[string]string "Payment or invoice not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/payments/{payment_id}/allocation-suggestions [post]
func (h *paymentHandler) suggestAllocations(c *gin.Context) {
	var req dto.SuggestAllocationsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err, "SuggestAllocations")
			return
		}
	}

	resp, err := h.paymentService.SuggestAllocations(c.Request.Context(), c.Param("entity_id"), c.Param("payment_id"), req)
	if err != nil {
		respondError(c, err, "Failed to suggest allocations")
		return
	}
	c.JSON(http.StatusOK, resp)
}
