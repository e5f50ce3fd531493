package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// directoryHandler seeds and reads entities, parties and bank accounts.
type directoryHandler struct {
	directoryService portssvc.DirectorySvcFacade
	reportingService portssvc.ReportingSvc
}

func newDirectoryHandler(ds portssvc.DirectorySvcFacade, rs portssvc.ReportingSvc) *directoryHandler {
	return &directoryHandler{directoryService: ds, reportingService: rs}
}

// registerEntityCreateRoute registers the one directory route that is not entity-scoped.
func registerEntityCreateRoute(rg *gin.RouterGroup, ds portssvc.DirectorySvcFacade, rs portssvc.ReportingSvc) {
	h := newDirectoryHandler(ds, rs)
	rg.POST("/entities", h.createEntity)
}

// registerDirectoryRoutes registers directory routes under /entities/:entity_id.
func registerDirectoryRoutes(rg *gin.RouterGroup, ds portssvc.DirectorySvcFacade, rs portssvc.ReportingSvc) {
	h := newDirectoryHandler(ds, rs)

	rg.GET("", h.getEntity)

	parties := rg.Group("/parties")
	{
		parties.POST("", h.createParty)
		parties.GET("/:party_id", h.getParty)
		parties.GET("/:party_id/exposure", h.getExposure)
	}

	accounts := rg.Group("/bank-accounts")
	{
		accounts.POST("", h.createBankAccount)
		accounts.GET("/:bank_account_id", h.getBankAccount)
	}
}

// createEntity godoc
// @Summary Create an entity
// @Description Seeds a legal entity. Callers without the "*" grant must name an entity ID their token already grants.
// @Tags directory
// @Accept json
// @Produce json
// @Param entity body dto.CreateEntityRequest true "Entity details"
// @Success 201 {object} domain.Entity
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Entity outside the caller's scope"
// @Failure 409 {object} map[string]string "Entity already exists"
// @Security BearerAuth
// @Router /entities [post]
func (h *directoryHandler) createEntity(c *gin.Context) {
	var req dto.CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "CreateEntity")
		return
	}
	identity, ok := middleware.IdentityFromCtx(c.Request.Context())
	if !ok || identity.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	// A scoped caller may only seed an entity it names and already holds a grant for.
	if !identity.Unrestricted() && (req.EntityID == "" || !identity.CanAccess(req.EntityID)) {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Entity creation outside scope", slog.String("entity_id", req.EntityID))
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this entity is not permitted"})
		return
	}

	entity, err := h.directoryService.CreateEntity(c.Request.Context(), req, identity.UserID)
	if err != nil {
		respondError(c, err, "Failed to create entity")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Entity created", slog.String("entity_id", entity.EntityID))
	c.JSON(http.StatusCreated, entity)
}

// getEntity godoc
// @Summary Get an entity
// @Tags directory
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Success 200 {object} domain.Entity
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /entities/{entity_id} [get]
func (h *directoryHandler) getEntity(c *gin.Context) {
	entity, err := h.directoryService.GetEntity(c.Request.Context(), c.Param("entity_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve entity")
		return
	}
	c.JSON(http.StatusOK, entity)
}

// createParty godoc
// @Summary Create a customer or vendor
// @Tags directory
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param party body dto.CreatePartyRequest true "Party details"
// @Success 201 {object} dto.PartyResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/parties [post]
func (h *directoryHandler) createParty(c *gin.Context) {
	var req dto.CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "CreateParty")
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	party, err := h.directoryService.CreateParty(c.Request.Context(), c.Param("entity_id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create party")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPartyResponse(party, settlement.Band(party.CreditUtilization())))
}

// getParty godoc
// @Summary Get a customer or vendor
// @Tags directory
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param party_id path string true "Party ID"
// @Success 200 {object} dto.PartyResponse
// @Failure 404 {object} map[string]string "Party not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/parties/{party_id} [get]
func (h *directoryHandler) getParty(c *gin.Context) {
	party, err := h.directoryService.GetParty(c.Request.Context(), c.Param("entity_id"), c.Param("party_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve party")
		return
	}
	c.JSON(http.StatusOK, dto.ToPartyResponse(party, settlement.Band(party.CreditUtilization())))
}

// getExposure godoc
// @Summary Get a party's credit exposure
// @Description Outstanding balance of open invoices measured against the party's credit limit
// @Tags reports
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param party_id path string true "Party ID"
// @Success 200 {object} dto.ExposureResponse
// @Failure 404 {object} map[string]string "Party not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/parties/{party_id}/exposure [get]
func (h *directoryHandler) getExposure(c *gin.Context) {
	exposure, err := h.reportingService.GetCreditExposure(c.Request.Context(), c.Param("entity_id"), c.Param("party_id"))
	if err != nil {
		respondError(c, err, "Failed to compute credit exposure")
		return
	}
	c.JSON(http.StatusOK, dto.ToExposureResponse(*exposure))
}

// createBankAccount godoc
// @Summary Create a bank or cash account
// @Tags directory
// @Accept json
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param account body dto.CreateBankAccountRequest true "Account details"
// @Success 201 {object} dto.BankAccountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Account name already used"
// @Security BearerAuth
// @Router /entities/{entity_id}/bank-accounts [post]
func (h *directoryHandler) createBankAccount(c *gin.Context) {
	var req dto.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "CreateBankAccount")
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	account, err := h.directoryService.CreateBankAccount(c.Request.Context(), c.Param("entity_id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create bank account")
		return
	}
	c.JSON(http.StatusCreated, dto.ToBankAccountResponse(account))
}

// getBankAccount godoc
// @Summary Get a bank account
// @Tags directory
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param bank_account_id path string true "Bank account ID"
// @Success 200 {object} dto.BankAccountResponse
// @Failure 404 {object} map[string]string "Bank account not found"
// @Security BearerAuth
// @Router /entities/{entity_id}/bank-accounts/{bank_account_id} [get]
func (h *directoryHandler) getBankAccount(c *gin.Context) {
	account, err := h.directoryService.GetBankAccount(c.Request.Context(), c.Param("entity_id"), c.Param("bank_account_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve bank account")
		return
	}
	c.JSON(http.StatusOK, dto.ToBankAccountResponse(account))
}
