package repositories

import (
	"context"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
)

// InvoiceReader defines read operations for invoices outside a ledger transaction.
type InvoiceReader interface {
	// FindInvoiceByID returns the invoice with its allocation view populated.
	FindInvoiceByID(ctx context.Context, entityID, invoiceID string) (*domain.Invoice, error)

	// ListInvoices returns one page of matching invoices and the total match count.
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int, error)

	// ListInvoicesForEntities returns every invoice of the given entities (all when empty).
	ListInvoicesForEntities(ctx context.Context, entityIDs []string) ([]domain.Invoice, error)
}

// PaymentReader defines read operations for payments outside a ledger transaction.
type PaymentReader interface {
	FindPaymentByID(ctx context.Context, entityID, paymentID string) (*domain.Payment, error)
	ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, int, error)
}

// TransactionReader defines read operations for bank transactions.
type TransactionReader interface {
	FindTransactionByID(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error)

	// ListTransactions returns transactions of the given entities (all when empty).
	ListTransactions(ctx context.Context, entityIDs []string) ([]domain.Transaction, error)
}

// ImportBatchReader reads staged CSV imports.
type ImportBatchReader interface {
	FindImportBatch(ctx context.Context, entityID, reference string) (*domain.ImportBatch, error)
}

// ImportBatchWriter stages CSV imports for a later commit.
type ImportBatchWriter interface {
	SaveImportBatch(ctx context.Context, batch domain.ImportBatch) error
}

// ImportBatchRepositoryFacade combines import batch reads and writes.
type ImportBatchRepositoryFacade interface {
	ImportBatchReader
	ImportBatchWriter
}

// LedgerTx is the set of locked reads and versioned writes available inside
// LedgerRepository.WithinLedgerTx. Every Find*ForUpdate locks the returned rows until the
// unit of work ends. Updates of versioned records require the Version that was read and
// fail with apperrors.ErrConcurrencyConflict when the stored row has moved on; on
// success they increment the Version of the value passed in.
type LedgerTx interface {
	// FindInvoicesForUpdate loads invoices by ID regardless of entity so that cross-entity
	// requests can be rejected as validation errors. Missing IDs are absent from the map.
	FindInvoicesForUpdate(ctx context.Context, invoiceIDs []string) (map[string]*domain.Invoice, error)

	// ListInvoicesForUpdate locks every non-cancelled invoice of the ledger's entity.
	ListInvoicesForUpdate(ctx context.Context) ([]*domain.Invoice, error)

	// ListPartyInvoices returns all invoices referencing the party in the ledger's entity.
	ListPartyInvoices(ctx context.Context, partyID string) ([]domain.Invoice, error)

	NextInvoiceNumber(ctx context.Context, invoiceType domain.InvoiceType) (string, error)
	InsertInvoice(ctx context.Context, invoice *domain.Invoice) error
	UpdateInvoice(ctx context.Context, invoice *domain.Invoice) error

	FindPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error)
	NextPaymentNumber(ctx context.Context, paymentType domain.PaymentType) (string, error)
	InsertPayment(ctx context.Context, payment *domain.Payment) error

	// UpdatePayment persists the payment and replaces its allocation records.
	UpdatePayment(ctx context.Context, payment *domain.Payment) error

	FindPartyForUpdate(ctx context.Context, partyID string) (*domain.Party, error)
	UpdateParty(ctx context.Context, party *domain.Party) error

	FindBankAccountForUpdate(ctx context.Context, bankAccountID string) (*domain.BankAccount, error)
	UpdateBankAccount(ctx context.Context, account *domain.BankAccount) error

	FindTransactionsForUpdate(ctx context.Context, transactionIDs []string) (map[string]*domain.Transaction, error)
	InsertTransactions(ctx context.Context, transactions []domain.Transaction) error
	UpdateTransaction(ctx context.Context, transaction *domain.Transaction) error

	// TransactionFingerprints returns the duplicate-detection keys of the entity's
	// non-cancelled transactions.
	TransactionFingerprints(ctx context.Context) (map[string]struct{}, error)

	FindImportBatchForUpdate(ctx context.Context, reference string) (*domain.ImportBatch, error)
	UpdateImportBatch(ctx context.Context, batch *domain.ImportBatch) error
}
