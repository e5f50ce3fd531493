package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// maxImportBytes caps the size of an uploaded CSV.
const maxImportBytes = 5 << 20

type transactionHandler struct {
	transactionService portssvc.TransactionSvc
	importService      portssvc.ImportSvc
}

func newTransactionHandler(ts portssvc.TransactionSvc, is portssvc.ImportSvc) *transactionHandler {
	return &transactionHandler{transactionService: ts, importService: is}
}

// registerTransactionRoutes registers bank transaction and CSV import routes under /entities/:entity_id.
func registerTransactionRoutes(rg *gin.RouterGroup, ts portssvc.TransactionSvc, is portssvc.ImportSvc) {
	h := newTransactionHandler(ts, is)

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.createTransaction)
		transactions.PATCH("/status", h.updateStatuses)
		transactions.GET("/:transaction_id", h.getTransaction)
	}

	imports := rg.Group("/imports/transactions")
	{
		imports.POST("/preview", h.previewImport)
		imports.POST("/commit", h.commitImport)
	}
}

// createTransaction godoc
// @Summary Record a bank transaction
// @Description A paid transaction moves its bank account balance; a pending one does not.
// @Tags transactions
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param transaction body dto.CreateTransactionRequest true "Transaction details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Entity or bank account not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "CreateTransaction")
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	t, err := h.transactionService.CreateTransaction(c.Request.Context(), c.Param("entity_id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create transaction")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(t))
}

// getTransaction godoc
// @Summary Get a bank transaction
// @Tags transactions
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/transactions/{transaction_id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	t, err := h.transactionService.GetTransactionByID(c.Request.Context(), c.Param("entity_id"), c.Param("transaction_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(t))
}

// updateStatuses godoc
// @Summary Bulk update transaction status
// @Description Moves each transaction to paid or cancelled independently and reports every outcome
// @Tags transactions
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param request body dto.BulkTransactionStatusRequest true "IDs and target status"
// @Success 200 {object} dto.BulkTransactionStatusResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/transactions/status [patch]
func (h *transactionHandler) updateStatuses(c *gin.Context) {
	var req dto.BulkTransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "BulkTransactionStatus")
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	outcomes, err := h.transactionService.UpdateTransactionStatuses(c.Request.Context(), c.Param("entity_id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update transaction statuses")
		return
	}
	c.JSON(http.StatusOK, dto.NewBulkTransactionStatusResponse(outcomes))
}

// previewImport godoc
// @Summary Preview a CSV import
// @Description Parses and validates an uploaded CSV of bank transactions and stages the valid rows for commit
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param file formData file true "CSV file with Date, Entity, Type, Amount, Party Name columns"
// @Success 200 {object} dto.ImportPreviewResponse
// @Failure 400 {object} map[string]string "Missing file or unreadable CSV"
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/imports/transactions/preview [post]
func (h *transactionHandler) previewImport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		logger.Warn("Import upload missing", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "A CSV file is required in the 'file' form field"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	defer file.Close()

	preview, err := h.importService.PreviewTransactions(c.Request.Context(), c.Param("entity_id"), file, userID)
	if err != nil {
		respondError(c, err, "Failed to preview import")
		return
	}

	logger.Info("Import previewed",
		slog.String("file_name", fileHeader.Filename),
		slog.Int("valid_rows", len(preview.Preview)),
		slog.Int("rejected_rows", len(preview.Errors)))
	c.JSON(http.StatusOK, preview)
}

// commitImport godoc
// @Summary Commit a previewed CSV import
// @Description Stores the staged rows, skipping duplicates. Committing the same reference again returns the original result.
// @Tags imports
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param request body dto.CommitImportRequest true "Reference returned by preview"
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Unknown import reference"
// @Failure 422 {object} map[string]string "Staged import has expired"
// @Security BearerAuth
// @Router /entities/{entity_id}/imports/transactions/commit [post]
func (h *transactionHandler) commitImport(c *gin.Context) {
	var req dto.CommitImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "CommitImport")
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := h.importService.CommitTransactions(c.Request.Context(), c.Param("entity_id"), req.TempFilePath, userID)
	if err != nil {
		respondError(c, err, "Failed to commit import")
		return
	}
	c.JSON(http.StatusOK, result)
}
