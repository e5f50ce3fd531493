package dto

import (
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest records a single bank movement by hand.
type CreateTransactionRequest struct {
	BankAccountID   string                   `json:"bankAccountID"`
	TransactionDate time.Time                `json:"transactionDate" binding:"required"`
	Type            domain.TransactionType   `json:"type" binding:"required,oneof=income expense"`
	Amount          decimal.Decimal          `json:"amount"`
	Currency        string                   `json:"currency" binding:"omitempty,len=3"`
	PartyName       string                   `json:"partyName"`
	Description     string                   `json:"description"`
	Status          domain.TransactionStatus `json:"status" binding:"omitempty,oneof=pending paid"`
}

// BulkTransactionStatusRequest moves several transactions to paid or cancelled.
type BulkTransactionStatusRequest struct {
	TransactionIDs []string                 `json:"transactionIDs" binding:"required,min=1,dive,required"`
	Status         domain.TransactionStatus `json:"status" binding:"required,oneof=paid cancelled"`
}

// BulkTransactionStatusResponse reports the outcome for every requested ID.
type BulkTransactionStatusResponse struct {
	Results   []domain.StatusUpdateOutcome `json:"results"`
	Updated   int                          `json:"updated"`
	Unchanged int                          `json:"unchanged"`
	Failed    int                          `json:"failed"`
}

// NewBulkTransactionStatusResponse tallies the outcomes.
func NewBulkTransactionStatusResponse(results []domain.StatusUpdateOutcome) BulkTransactionStatusResponse {
	resp := BulkTransactionStatusResponse{Results: results}
	for _, r := range results {
		switch r.Result {
		case domain.OutcomeUpdated:
			resp.Updated++
		case domain.OutcomeUnchanged:
			resp.Unchanged++
		default:
			resp.Failed++
		}
	}
	return resp
}

// TransactionResponse defines the data returned for a bank transaction.
type TransactionResponse struct {
	TransactionID   string                   `json:"transactionID"`
	EntityID        string                   `json:"entityID"`
	BankAccountID   string                   `json:"bankAccountID,omitempty"`
	TransactionDate time.Time                `json:"transactionDate"`
	Type            domain.TransactionType   `json:"type"`
	Amount          decimal.Decimal          `json:"amount"`
	Currency        string                   `json:"currency"`
	PartyName       string                   `json:"partyName,omitempty"`
	Description     string                   `json:"description,omitempty"`
	Status          domain.TransactionStatus `json:"status"`
	ImportBatchID   string                   `json:"importBatchID,omitempty"`
	Version         int64                    `json:"version"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.TransactionID,
		EntityID:        t.EntityID,
		BankAccountID:   t.BankAccountID,
		TransactionDate: t.TransactionDate,
		Type:            t.Type,
		Amount:          t.Amount.Amount,
		Currency:        t.Amount.Currency,
		PartyName:       t.PartyName,
		Description:     t.Description,
		Status:          t.Status,
		ImportBatchID:   t.ImportBatchID,
		Version:         t.Version,
	}
}

// ImportPreviewResponse lists the valid rows, the rejected rows and the reference to commit.
type ImportPreviewResponse struct {
	Preview      []domain.ImportRow      `json:"preview"`
	Errors       []domain.ImportRowError `json:"errors"`
	TempFilePath string                  `json:"tempFilePath"`
	ExpiresAt    time.Time               `json:"expiresAt"`
}

// CommitImportRequest commits a previewed import.
type CommitImportRequest struct {
	TempFilePath string `json:"tempFilePath" binding:"required"`
}
