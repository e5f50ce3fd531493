package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:   d.TransactionID,
		EntityID:        d.EntityID,
		BankAccountID:   nullable(d.BankAccountID),
		TransactionDate: d.TransactionDate,
		Type:            string(d.Type),
		Currency:        d.Amount.Currency,
		Amount:          d.Amount.Amount,
		PartyName:       d.PartyName,
		Description:     d.Description,
		Status:          string(d.Status),
		ImportBatchID:   nullable(d.ImportBatchID),
		Version:         d.Version,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:   m.TransactionID,
		EntityID:        m.EntityID,
		BankAccountID:   deref(m.BankAccountID),
		TransactionDate: domain.DateOnly(m.TransactionDate),
		Type:            domain.TransactionType(m.Type),
		Amount:          domain.NewMoney(m.Amount, m.Currency),
		PartyName:       m.PartyName,
		Description:     m.Description,
		Status:          domain.TransactionStatus(m.Status),
		ImportBatchID:   deref(m.ImportBatchID),
		Version:         m.Version,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactionSlice converts a slice of model Transactions to a slice of domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}

// ToModelImportBatch converts a domain ImportBatch to a model ImportBatch
func ToModelImportBatch(d domain.ImportBatch) (models.ImportBatch, error) {
	rows := d.Rows
	if rows == nil {
		rows = []domain.ImportRow{}
	}
	rowsDoc, err := json.Marshal(rows)
	if err != nil {
		return models.ImportBatch{}, fmt.Errorf("encode rows of import %s: %w", d.BatchID, err)
	}
	rowErrors := d.Errors
	if rowErrors == nil {
		rowErrors = []domain.ImportRowError{}
	}
	errorsDoc, err := json.Marshal(rowErrors)
	if err != nil {
		return models.ImportBatch{}, fmt.Errorf("encode errors of import %s: %w", d.BatchID, err)
	}
	result, err := toDocument(d.Result)
	if err != nil {
		return models.ImportBatch{}, err
	}
	return models.ImportBatch{
		BatchID:     d.BatchID,
		EntityID:    d.EntityID,
		Reference:   d.Reference,
		Rows:        rowsDoc,
		Errors:      errorsDoc,
		Status:      string(d.Status),
		Result:      result,
		ExpiresAt:   d.ExpiresAt,
		CommittedAt: d.CommittedAt,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainImportBatch converts a model ImportBatch to a domain ImportBatch
func ToDomainImportBatch(m models.ImportBatch) (domain.ImportBatch, error) {
	var rows []domain.ImportRow
	if err := json.Unmarshal(m.Rows, &rows); err != nil {
		return domain.ImportBatch{}, fmt.Errorf("decode rows of import %s: %w", m.BatchID, err)
	}
	var rowErrors []domain.ImportRowError
	if err := json.Unmarshal(m.Errors, &rowErrors); err != nil {
		return domain.ImportBatch{}, fmt.Errorf("decode errors of import %s: %w", m.BatchID, err)
	}
	result, err := fromDocument[domain.ImportResult](m.Result)
	if err != nil {
		return domain.ImportBatch{}, err
	}
	return domain.ImportBatch{
		BatchID:     m.BatchID,
		EntityID:    m.EntityID,
		Reference:   m.Reference,
		Rows:        rows,
		Errors:      rowErrors,
		Status:      domain.ImportStatus(m.Status),
		Result:      result,
		ExpiresAt:   m.ExpiresAt,
		CommittedAt: m.CommittedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}, nil
}
