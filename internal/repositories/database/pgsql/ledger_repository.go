package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/SscSPs/settlement_engine/internal/models"
	"github.com/SscSPs/settlement_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

// WithinLedgerTx runs fn inside one database transaction holding the entity's
// transaction-scoped advisory lock, so units of work for the same entity run one at a
// time across every process sharing the database.
func (r *PgxLedgerRepository) WithinLedgerTx(ctx context.Context, entityID string, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := r.Rollback(ctx, tx); rerr != nil {
			slog.WarnContext(ctx, "ledger rollback failed", slog.String("entity_id", entityID), slog.String("error", rerr.Error()))
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", entityID); err != nil {
		return apperrors.NewAppError(500, "failed to lock ledger", err)
	}
	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM entities WHERE entity_id = $1)", entityID).Scan(&exists); err != nil {
		return apperrors.NewAppError(500, "failed to load entity", err)
	}
	if !exists {
		return notFound("entity", entityID)
	}

	if err := fn(ctx, &pgxLedgerTx{tx: tx, entityID: entityID}); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

type pgxLedgerTx struct {
	tx       pgx.Tx
	entityID string
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

// --- invoices ---

func (t *pgxLedgerTx) FindInvoicesForUpdate(ctx context.Context, invoiceIDs []string) (map[string]*domain.Invoice, error) {
	out := make(map[string]*domain.Invoice, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}
	invoices, err := getInvoices(ctx, t.tx,
		FULL_INVOICE_SELECT_QUERY+"WHERE invoice_id = ANY($1) ORDER BY invoice_id FOR UPDATE", invoiceIDs)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		out[invoices[i].InvoiceID] = &invoices[i]
	}
	return out, nil
}

func (t *pgxLedgerTx) ListInvoicesForUpdate(ctx context.Context) ([]*domain.Invoice, error) {
	invoices, err := getInvoices(ctx, t.tx,
		FULL_INVOICE_SELECT_QUERY+"WHERE entity_id = $1 AND cancelled_at IS NULL ORDER BY invoice_id FOR UPDATE", t.entityID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Invoice, len(invoices))
	for i := range invoices {
		out[i] = &invoices[i]
	}
	return out, nil
}

func (t *pgxLedgerTx) ListPartyInvoices(ctx context.Context, partyID string) ([]domain.Invoice, error) {
	return getInvoices(ctx, t.tx,
		FULL_INVOICE_SELECT_QUERY+"WHERE entity_id = $1 AND (customer_id = $2 OR vendor_id = $2) ORDER BY invoice_id", t.entityID, partyID)
}

// next bumps the entity's counter for prefix and formats the document number.
func (t *pgxLedgerTx) next(ctx context.Context, prefix string) (string, error) {
	query := `
		INSERT INTO document_sequences (entity_id, prefix, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (entity_id, prefix) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value;
	`
	var n int64
	if err := t.tx.QueryRow(ctx, query, t.entityID, prefix).Scan(&n); err != nil {
		return "", apperrors.NewAppError(500, "failed to allocate document number", err)
	}
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}

func (t *pgxLedgerTx) NextInvoiceNumber(ctx context.Context, invoiceType domain.InvoiceType) (string, error) {
	if invoiceType == domain.InvoicePurchase {
		return t.next(ctx, "BILL")
	}
	return t.next(ctx, "INV")
}

func (t *pgxLedgerTx) InsertInvoice(ctx context.Context, inv *domain.Invoice) error {
	m, err := mapping.ToModelInvoice(*inv)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode invoice", err)
	}
	query := `
		INSERT INTO invoices (
			invoice_id, entity_id, invoice_number, invoice_type, customer_id, vendor_id, invoice_date, due_date,
			currency, line_items, gst_type, cgst, sgst, igst, tds_amount, round_off, subtotal, tax_total,
			total_amount, amount_paid, amount_due, status, aging_bucket, days_overdue, notes,
			finalized_at, cancelled_at, version, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27, 1, $28, $29, $30, $31);
	`
	_, err = t.tx.Exec(ctx, query,
		m.InvoiceID, m.EntityID, m.InvoiceNumber, m.InvoiceType, m.CustomerID, m.VendorID, m.InvoiceDate, m.DueDate,
		m.Currency, m.LineItems, m.GSTType, m.CGST, m.SGST, m.IGST, m.TDSAmount, m.RoundOff, m.Subtotal, m.TaxTotal,
		m.TotalAmount, m.AmountPaid, m.AmountDue, m.Status, m.AgingBucket, m.DaysOverdue, m.Notes,
		m.FinalizedAt, m.CancelledAt, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: invoice number %s", apperrors.ErrDuplicate, m.InvoiceNumber)
		}
		return apperrors.NewAppError(500, "failed to insert invoice", err)
	}
	inv.Version = 1
	return nil
}

func (t *pgxLedgerTx) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	m, err := mapping.ToModelInvoice(*inv)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode invoice", err)
	}
	query := `
		UPDATE invoices SET
			customer_id = $3, vendor_id = $4, invoice_date = $5, due_date = $6, line_items = $7, gst_type = $8,
			cgst = $9, sgst = $10, igst = $11, tds_amount = $12, round_off = $13, subtotal = $14, tax_total = $15,
			total_amount = $16, amount_paid = $17, amount_due = $18, status = $19, aging_bucket = $20,
			days_overdue = $21, notes = $22, finalized_at = $23, cancelled_at = $24,
			last_updated_at = $25, last_updated_by = $26, version = version + 1
		WHERE invoice_id = $1 AND version = $2;
	`
	err = versionedUpdate(ctx, t.tx, "invoice", "invoices", "invoice_id", m.InvoiceID, m.Version, query,
		m.InvoiceID, m.Version, m.CustomerID, m.VendorID, m.InvoiceDate, m.DueDate, m.LineItems, m.GSTType,
		m.CGST, m.SGST, m.IGST, m.TDSAmount, m.RoundOff, m.Subtotal, m.TaxTotal,
		m.TotalAmount, m.AmountPaid, m.AmountDue, m.Status, m.AgingBucket,
		m.DaysOverdue, m.Notes, m.FinalizedAt, m.CancelledAt, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return err
	}
	inv.Version++
	return nil
}

// --- payments ---

func (t *pgxLedgerTx) FindPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payments, err := getPayments(ctx, t.tx,
		FULL_PAYMENT_SELECT_QUERY+"WHERE payment_id = $1 AND entity_id = $2 FOR UPDATE", paymentID, t.entityID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, notFound("payment", paymentID)
	}
	return &payments[0], nil
}

func (t *pgxLedgerTx) NextPaymentNumber(ctx context.Context, paymentType domain.PaymentType) (string, error) {
	if paymentType == domain.PaymentMade {
		return t.next(ctx, "PAY")
	}
	return t.next(ctx, "RCPT")
}

func (t *pgxLedgerTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	m := mapping.ToModelPayment(*p)
	query := `
		INSERT INTO payments (
			payment_id, entity_id, payment_number, payment_type, customer_id, vendor_id, bank_account_id,
			payment_date, currency, amount, method, reference, status, version,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, $14, $15, $16, $17);
	`
	_, err := t.tx.Exec(ctx, query,
		m.PaymentID, m.EntityID, m.PaymentNumber, m.PaymentType, m.CustomerID, m.VendorID, m.BankAccountID,
		m.PaymentDate, m.Currency, m.Amount, m.Method, m.Reference, m.Status,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, m.PaymentID)
		}
		return apperrors.NewAppError(500, "failed to insert payment", err)
	}
	if err := t.insertAllocations(ctx, p.Allocations); err != nil {
		return err
	}
	p.Version = 1
	return nil
}

func (t *pgxLedgerTx) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	m := mapping.ToModelPayment(*p)
	query := `
		UPDATE payments SET
			bank_account_id = $3, method = $4, reference = $5, status = $6,
			last_updated_at = $7, last_updated_by = $8, version = version + 1
		WHERE payment_id = $1 AND version = $2;
	`
	err := versionedUpdate(ctx, t.tx, "payment", "payments", "payment_id", m.PaymentID, m.Version, query,
		m.PaymentID, m.Version, m.BankAccountID, m.Method, m.Reference, m.Status, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, "DELETE FROM allocations WHERE payment_id = $1", m.PaymentID); err != nil {
		return apperrors.NewAppError(500, "failed to clear allocations", err)
	}
	if err := t.insertAllocations(ctx, p.Allocations); err != nil {
		return err
	}
	p.Version++
	return nil
}

func (t *pgxLedgerTx) insertAllocations(ctx context.Context, allocations []domain.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	query := `
		INSERT INTO allocations (allocation_id, payment_id, invoice_id, currency, amount, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	batch := &pgx.Batch{}
	for _, a := range allocations {
		m := mapping.ToModelAllocation(a)
		batch.Queue(query, m.AllocationID, m.PaymentID, m.InvoiceID, m.Currency, m.Amount, m.CreatedAt, m.CreatedBy)
	}
	return execBatch(ctx, t.tx, batch, "allocation")
}

// --- parties and bank accounts ---

func (t *pgxLedgerTx) FindPartyForUpdate(ctx context.Context, partyID string) (*domain.Party, error) {
	return findParty(ctx, t.tx, partyID, FULL_PARTY_SELECT_QUERY+"WHERE party_id = $1 AND entity_id = $2 FOR UPDATE", partyID, t.entityID)
}

func (t *pgxLedgerTx) UpdateParty(ctx context.Context, p *domain.Party) error {
	m, err := mapping.ToModelParty(*p)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode party", err)
	}
	query := `
		UPDATE parties SET
			name = $3, email = $4, phone = $5, tax_id = $6, address = $7, bank = $8, credit_limit = $9,
			current_outstanding = $10, terms = $11, custom_days = $12, is_active = $13,
			last_updated_at = $14, last_updated_by = $15, version = version + 1
		WHERE party_id = $1 AND version = $2;
	`
	err = versionedUpdate(ctx, t.tx, "party", "parties", "party_id", m.PartyID, m.Version, query,
		m.PartyID, m.Version, m.Name, m.Email, m.Phone, m.TaxID, m.Address, m.Bank, m.CreditLimit,
		m.CurrentOutstanding, m.Terms, m.CustomDays, m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return err
	}
	p.Version++
	return nil
}

func (t *pgxLedgerTx) FindBankAccountForUpdate(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	return findBankAccount(ctx, t.tx, bankAccountID,
		FULL_BANK_ACCOUNT_SELECT_QUERY+"WHERE bank_account_id = $1 AND entity_id = $2 FOR UPDATE", bankAccountID, t.entityID)
}

func (t *pgxLedgerTx) UpdateBankAccount(ctx context.Context, a *domain.BankAccount) error {
	m, err := mapping.ToModelBankAccount(*a)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode bank account", err)
	}
	query := `
		UPDATE bank_accounts SET
			name = $3, bank = $4, current_balance = $5, is_active = $6,
			last_updated_at = $7, last_updated_by = $8, version = version + 1
		WHERE bank_account_id = $1 AND version = $2;
	`
	err = versionedUpdate(ctx, t.tx, "bank account", "bank_accounts", "bank_account_id", m.BankAccountID, m.Version, query,
		m.BankAccountID, m.Version, m.Name, m.Bank, m.CurrentBalance, m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return err
	}
	a.Version++
	return nil
}

// --- transactions ---

func (t *pgxLedgerTx) FindTransactionsForUpdate(ctx context.Context, transactionIDs []string) (map[string]*domain.Transaction, error) {
	out := make(map[string]*domain.Transaction, len(transactionIDs))
	if len(transactionIDs) == 0 {
		return out, nil
	}
	ms, err := collect[models.Transaction](ctx, t.tx, "transactions",
		FULL_TRANSACTION_SELECT_QUERY+"WHERE transaction_id = ANY($1) AND entity_id = $2 ORDER BY transaction_id FOR UPDATE",
		transactionIDs, t.entityID)
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		tr := mapping.ToDomainTransaction(m)
		out[tr.TransactionID] = &tr
	}
	return out, nil
}

func (t *pgxLedgerTx) InsertTransactions(ctx context.Context, transactions []domain.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	query := `
		INSERT INTO transactions (
			transaction_id, entity_id, bank_account_id, transaction_date, type, currency, amount,
			party_name, description, status, import_batch_id, version,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13, $14, $15);
	`
	batch := &pgx.Batch{}
	for _, tr := range transactions {
		m := mapping.ToModelTransaction(tr)
		batch.Queue(query,
			m.TransactionID, m.EntityID, m.BankAccountID, m.TransactionDate, m.Type, m.Currency, m.Amount,
			m.PartyName, m.Description, m.Status, m.ImportBatchID,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}
	return execBatch(ctx, t.tx, batch, "transaction")
}

func (t *pgxLedgerTx) UpdateTransaction(ctx context.Context, tr *domain.Transaction) error {
	m := mapping.ToModelTransaction(*tr)
	query := `
		UPDATE transactions SET
			status = $3, description = $4, last_updated_at = $5, last_updated_by = $6, version = version + 1
		WHERE transaction_id = $1 AND version = $2;
	`
	err := versionedUpdate(ctx, t.tx, "transaction", "transactions", "transaction_id", m.TransactionID, m.Version, query,
		m.TransactionID, m.Version, m.Status, m.Description, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return err
	}
	tr.Version++
	return nil
}

func (t *pgxLedgerTx) TransactionFingerprints(ctx context.Context) (map[string]struct{}, error) {
	ms, err := collect[models.Transaction](ctx, t.tx, "transactions",
		FULL_TRANSACTION_SELECT_QUERY+"WHERE entity_id = $1 AND status <> $2", t.entityID, string(domain.TransactionCancelled))
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ms))
	for _, m := range ms {
		out[domain.TransactionFingerprint(m.TransactionDate, domain.TransactionType(m.Type), m.Amount, m.PartyName)] = struct{}{}
	}
	return out, nil
}

// --- imports ---

func (t *pgxLedgerTx) FindImportBatchForUpdate(ctx context.Context, reference string) (*domain.ImportBatch, error) {
	return findImportBatch(ctx, t.tx, reference,
		FULL_IMPORT_BATCH_SELECT_QUERY+"WHERE reference = $1 AND entity_id = $2 FOR UPDATE", reference, t.entityID)
}

func (t *pgxLedgerTx) UpdateImportBatch(ctx context.Context, b *domain.ImportBatch) error {
	m, err := mapping.ToModelImportBatch(*b)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode import batch", err)
	}
	query := `
		UPDATE import_batches SET
			status = $2, result = $3, committed_at = $4, last_updated_at = $5, last_updated_by = $6
		WHERE reference = $1;
	`
	tag, err := t.tx.Exec(ctx, query, m.Reference, m.Status, m.Result, m.CommittedAt, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update import batch", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("import", m.Reference)
	}
	return nil
}

// execBatch sends the queued inserts and reports the first failure.
func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, kind string) error {
	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			if isUniqueViolation(err) {
				batchErr = fmt.Errorf("%w: %s", apperrors.ErrDuplicate, kind)
			} else {
				batchErr = apperrors.NewAppError(500, "failed to insert "+kind, err)
			}
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = apperrors.NewAppError(500, "failed to close "+kind+" batch", err)
	}
	if batchErr != nil && !errors.Is(batchErr, apperrors.ErrDuplicate) {
		slog.ErrorContext(ctx, "batch insert failed", slog.String("kind", kind), slog.String("error", batchErr.Error()))
	}
	return batchErr
}
