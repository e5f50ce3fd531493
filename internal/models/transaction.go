package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the bank transactions table.
type Transaction struct {
	TransactionID   string          `db:"transaction_id"`
	EntityID        string          `db:"entity_id"`
	BankAccountID   *string         `db:"bank_account_id"`
	TransactionDate time.Time       `db:"transaction_date"`
	Type            string          `db:"type"`
	Currency        string          `db:"currency"`
	Amount          decimal.Decimal `db:"amount"`
	PartyName       string          `db:"party_name"`
	Description     string          `db:"description"`
	Status          string          `db:"status"`
	ImportBatchID   *string         `db:"import_batch_id"`
	Version         int64           `db:"version"`
	AuditFields
}

// ImportBatch is a staged CSV import. Rows, Errors and Result are JSONB documents.
type ImportBatch struct {
	BatchID     string     `db:"batch_id"`
	EntityID    string     `db:"entity_id"`
	Reference   string     `db:"reference"`
	Rows        []byte     `db:"staged_rows"`
	Errors      []byte     `db:"row_errors"`
	Status      string     `db:"status"`
	Result      []byte     `db:"result"`
	ExpiresAt   time.Time  `db:"expires_at"`
	CommittedAt *time.Time `db:"committed_at"`
	AuditFields
}
