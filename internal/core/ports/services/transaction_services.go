package services

import (
	"context"
	"io"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/dto"
)

// TransactionSvc defines operations on bank transactions
type TransactionSvc interface {
	// CreateTransaction records one movement; a paid transaction adjusts its bank account balance.
	CreateTransaction(ctx context.Context, entityID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error)

	GetTransactionByID(ctx context.Context, entityID string, transactionID string) (*domain.Transaction, error)

	// UpdateTransactionStatuses applies the status to each ID independently and reports every outcome.
	UpdateTransactionStatuses(ctx context.Context, entityID string, req dto.BulkTransactionStatusRequest, userID string) ([]domain.StatusUpdateOutcome, error)
}

// ImportSvc defines the two-phase CSV import of bank transactions
type ImportSvc interface {
	// PreviewTransactions parses and validates the upload and stages the valid rows.
	PreviewTransactions(ctx context.Context, entityID string, r io.Reader, userID string) (*dto.ImportPreviewResponse, error)

	// CommitTransactions applies a staged import. Re-committing returns the stored result.
	CommitTransactions(ctx context.Context, entityID string, reference string, userID string) (*domain.ImportResult, error)
}
