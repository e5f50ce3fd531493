package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// invoiceHandler handles HTTP requests related to sales and purchase invoices.
type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
}

// newInvoiceHandler creates a new invoiceHandler.
func newInvoiceHandler(is portssvc.InvoiceSvcFacade) *invoiceHandler {
	return &invoiceHandler{invoiceService: is}
}

// registerInvoiceRoutes registers invoice routes under /entities/:entity_id.
func registerInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade) {
	h := newInvoiceHandler(invoiceService)

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("", h.listInvoices)
		invoices.POST("/refresh-statuses", h.refreshStatuses)
		invoices.GET("/:invoice_id", h.getInvoice)
		invoices.PUT("/:invoice_id", h.updateInvoice)
		invoices.POST("/:invoice_id/finalize", h.finalizeInvoice)
		invoices.POST("/:invoice_id/cancel", h.cancelInvoice)
	}
	rg.GET("/aging", h.agingReport)
}

// createInvoice godoc
// @Summary Create an invoice
// @Description Creates a sales or purchase invoice. Totals are computed server-side; the invoice is stored as draft unless finalize is set.
// @Tags invoices
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Entity or party not found"
// @Failure 409 {object} map[string]string "Invoice number already used"
// @Security BearerAuth
// @Router /entities/{entity_id}/invoices [post]
func (h *invoiceHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "CreateInvoice")
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.CreateInvoice(c.Request.Context(), c.Param("entity_id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create invoice")
		return
	}

	logger.Info("Invoice created", slog.String("invoice_id", inv.InvoiceID), slog.String("invoice_number", inv.InvoiceNumber))
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(inv))
}

// listInvoices godoc
// @Summary List invoices
// @Description Lists an entity's invoices, newest invoice date first
// @Tags invoices
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param invoiceType query string false "sales or purchase"
// @Param status query string false "Invoice status"
// @Param agingBucket query string false "current, 1-30, 31-60, 61-90, 90+"
// @Param partyID query string false "Customer or vendor ID"
// @Param search query string false "Matches invoice number and notes"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Security BearerAuth
// @Router /entities/{entity_id}/invoices [get]
func (h *invoiceHandler) listInvoices(c *gin.Context) {
	var params dto.ListInvoicesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err, "ListInvoices query")
		return
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), c.Param("entity_id"), params)
	if err != nil {
		respondError(c, err, "Failed to list invoices")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getInvoice godoc
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/invoices/{invoice_id} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	inv, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), c.Param("entity_id"), c.Param("invoice_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(inv))
}

// updateInvoice godoc
// @Summary Update an invoice
// @Description Edits an invoice that has no allocations and recomputes its totals
// @Tags invoices
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param invoice_id path string true "Invoice ID"
// @Param invoice body dto.UpdateInvoiceRequest true "Fields to change"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Version conflict"
// @Failure 422 {object} map[string]string "Invoice can no longer be edited"
// @Security BearerAuth
// @Router /entities/{entity_id}/invoices/{invoice_id} [put]
func (h *invoiceHandler) updateInvoice(c *gin.Context) {
	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "UpdateInvoice")
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.UpdateInvoice(c.Request.Context(), c.Param("entity_id"), c.Param("invoice_id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(inv))
}

// finalizeInvoice godoc
// @Summary Finalize a draft invoice
// @Tags invoices
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 422 {object} map[string]string "Invoice is not a draft"
// @Security BearerAuth
// @Router /entities/{entity_id}/invoices/{invoice_id}/finalize [post]
func (h *invoiceHandler) finalizeInvoice(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.FinalizeInvoice(c.Request.Context(), c.Param("entity_id"), c.Param("invoice_id"), userID)
	if err != nil {
		respondError(c, err, "Failed to finalize invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(inv))
}

// cancelInvoice godoc
// @Summary Cancel an invoice
// @Tags invoices
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 422 {object} map[string]string "Invoice is paid or already cancelled"
// @Security BearerAuth
// @Router /entities/{entity_id}/invoices/{invoice_id}/cancel [post]
func (h *invoiceHandler) cancelInvoice(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.CancelInvoice(c.Request.Context(), c.Param("entity_id"), c.Param("invoice_id"), userID)
	if err != nil {
		respondError(c, err, "Failed to cancel invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(inv))
}

// refreshStatuses godoc
// @Summary Refresh invoice statuses
// @Description Recomputes status and aging for every open invoice of the entity as of a date
// @Tags invoices
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param request body dto.RefreshStatusesRequest false "Sweep date, today when omitted"
// @Success 200 {object} dto.RefreshStatusesResponse
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/invoices/refresh-statuses [post]
func (h *invoiceHandler) refreshStatuses(c *gin.Context) {
	var req dto.RefreshStatusesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err, "RefreshStatuses")
			return
		}
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var asOf time.Time
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	resp, err := h.invoiceService.RefreshStatuses(c.Request.Context(), c.Param("entity_id"), asOf, userID)
	if err != nil {
		respondError(c, err, "Failed to refresh invoice statuses")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Invoice statuses refreshed",
		slog.Int("scanned", resp.Scanned), slog.Int("changed", len(resp.Changed)))
	c.JSON(http.StatusOK, resp)
}

// agingReport godoc
// @Summary Aging report
// @Description Totals outstanding invoices per aging bucket and currency
// @Tags reports
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param invoiceType query string false "sales or purchase" default(sales)
// @Param asOf query string false "Report date (YYYY-MM-DD)" default(current date)
// @Success 200 {object} dto.AgingReportResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/aging [get]
func (h *invoiceHandler) agingReport(c *gin.Context) {
	var q dto.AgingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err, "Aging query")
		return
	}
	asOf, err := dto.ParseDate("asOf", q.AsOf)
	if err != nil {
		respondError(c, err, "Invalid aging query")
		return
	}

	var at time.Time
	if asOf != nil {
		at = *asOf
	}
	reports, err := h.invoiceService.AgingReport(c.Request.Context(), c.Param("entity_id"), q.InvoiceType, at)
	if err != nil {
		respondError(c, err, "Failed to build aging report")
		return
	}
	c.JSON(http.StatusOK, dto.AgingReportResponse{Reports: reports})
}
