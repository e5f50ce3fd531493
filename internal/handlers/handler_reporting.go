package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles cross-entity read-only rollups
type reportingHandler struct {
	reportingService portssvc.ReportingSvc
}

// newReportingHandler creates a new reportingHandler
func newReportingHandler(rs portssvc.ReportingSvc) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
	}
}

// registerReportingRoutes registers routes that span the caller's entity scope
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvc) {
	h := newReportingHandler(reportingService)
	rg.GET("/dashboard", h.getDashboard)
}

// getDashboard godoc
// @Summary Dashboard
// @Description Bank balances, cash flow, receivables, payables and top parties across the entities the caller may see
// @Tags reports
// @Produce json
// @Param entityID query []string false "Restrict to these entities" collectionFormat(multi)
// @Param from query string false "Cash flow window start (YYYY-MM-DD)"
// @Param to query string false "Cash flow window end (YYYY-MM-DD)"
// @Param asOf query string false "Overdue cut-off (YYYY-MM-DD)" default(current date)
// @Param topN query int false "Number of top customers and vendors" default(5)
// @Success 200 {object} domain.Dashboard
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Requested entity outside the caller's scope"
// @Security BearerAuth
// @Router /dashboard [get]
func (h *reportingHandler) getDashboard(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	identity, ok := middleware.IdentityFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Identity not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var q dto.DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err, "Dashboard query")
		return
	}

	dashboard, err := h.reportingService.GetDashboard(c.Request.Context(), identity, q)
	if err != nil {
		respondError(c, err, "Failed to build dashboard")
		return
	}

	logger.Info("Dashboard generated",
		slog.Int("receivable_currencies", len(dashboard.Receivables)),
		slog.Int("payable_currencies", len(dashboard.Payables)))
	c.JSON(http.StatusOK, dashboard)
}
