package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
)

// WithinLedgerTx runs fn with exclusive access to the store. Writes are staged on the
// transaction and copied into the store only when fn returns nil.
func (s *Store) WithinLedgerTx(ctx context.Context, entityID string, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[entityID]; !ok {
		return notFound("entity", entityID)
	}
	tx := &ledgerTx{
		store:        s,
		entityID:     entityID,
		invoices:     map[string]domain.Invoice{},
		payments:     map[string]domain.Payment{},
		parties:      map[string]domain.Party{},
		bankAccounts: map[string]domain.BankAccount{},
		transactions: map[string]domain.Transaction{},
		imports:      map[string]domain.ImportBatch{},
		sequences:    map[string]int{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type ledgerTx struct {
	store    *Store
	entityID string

	invoices     map[string]domain.Invoice
	payments     map[string]domain.Payment
	parties      map[string]domain.Party
	bankAccounts map[string]domain.BankAccount
	transactions map[string]domain.Transaction
	imports      map[string]domain.ImportBatch
	sequences    map[string]int
}

var _ portsrepo.LedgerTx = (*ledgerTx)(nil)

func (t *ledgerTx) commit() {
	s := t.store
	for k, v := range t.invoices {
		s.invoices[k] = v
	}
	for k, v := range t.payments {
		s.payments[k] = v
	}
	for k, v := range t.parties {
		s.parties[k] = v
	}
	for k, v := range t.bankAccounts {
		s.bankAccounts[k] = v
	}
	for k, v := range t.transactions {
		s.transactions[k] = v
	}
	for k, v := range t.imports {
		s.imports[k] = v
	}
	for k, v := range t.sequences {
		s.sequences[k] = v
	}
}

func conflict(kind, id string, expected, actual int64) error {
	return fmt.Errorf("%w: %s %s is at version %d, caller had %d", apperrors.ErrConcurrencyConflict, kind, id, actual, expected)
}

func (t *ledgerTx) invoice(id string) (domain.Invoice, bool) {
	if inv, ok := t.invoices[id]; ok {
		return inv, true
	}
	inv, ok := t.store.invoices[id]
	return inv, ok
}

func (t *ledgerTx) entityInvoices() []domain.Invoice {
	var out []domain.Invoice
	for id, inv := range t.store.invoices {
		if staged, ok := t.invoices[id]; ok {
			inv = staged
		}
		if inv.EntityID == t.entityID {
			out = append(out, cloneInvoice(inv))
		}
	}
	for id, inv := range t.invoices {
		if _, seen := t.store.invoices[id]; !seen && inv.EntityID == t.entityID {
			out = append(out, cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceID < out[j].InvoiceID })
	return out
}

func (t *ledgerTx) FindInvoicesForUpdate(ctx context.Context, invoiceIDs []string) (map[string]*domain.Invoice, error) {
	out := make(map[string]*domain.Invoice, len(invoiceIDs))
	for _, id := range invoiceIDs {
		if inv, ok := t.invoice(id); ok {
			c := cloneInvoice(inv)
			out[id] = &c
		}
	}
	return out, nil
}

func (t *ledgerTx) ListInvoicesForUpdate(ctx context.Context) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	for _, inv := range t.entityInvoices() {
		if inv.IsCancelled() {
			continue
		}
		c := inv
		out = append(out, &c)
	}
	return out, nil
}

func (t *ledgerTx) ListPartyInvoices(ctx context.Context, partyID string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range t.entityInvoices() {
		if inv.PartyID() == partyID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (t *ledgerTx) next(prefix string) string {
	key := t.entityID + "|" + prefix
	n, ok := t.sequences[key]
	if !ok {
		n = t.store.sequences[key]
	}
	n++
	t.sequences[key] = n
	return fmt.Sprintf("%s-%06d", prefix, n)
}

func (t *ledgerTx) NextInvoiceNumber(ctx context.Context, invoiceType domain.InvoiceType) (string, error) {
	if invoiceType == domain.InvoicePurchase {
		return t.next("BILL"), nil
	}
	return t.next("INV"), nil
}

func (t *ledgerTx) InsertInvoice(ctx context.Context, inv *domain.Invoice) error {
	if _, exists := t.invoice(inv.InvoiceID); exists {
		return fmt.Errorf("%w: invoice %s", apperrors.ErrDuplicate, inv.InvoiceID)
	}
	for _, other := range t.entityInvoices() {
		if other.InvoiceType == inv.InvoiceType && strings.EqualFold(other.InvoiceNumber, inv.InvoiceNumber) {
			return fmt.Errorf("%w: invoice number %s", apperrors.ErrDuplicate, inv.InvoiceNumber)
		}
	}
	inv.Version = 1
	c := cloneInvoice(*inv)
	c.Allocations = nil
	t.invoices[inv.InvoiceID] = c
	return nil
}

func (t *ledgerTx) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	current, ok := t.invoice(inv.InvoiceID)
	if !ok {
		return notFound("invoice", inv.InvoiceID)
	}
	if current.Version != inv.Version {
		return conflict("invoice", inv.InvoiceID, inv.Version, current.Version)
	}
	inv.Version++
	c := cloneInvoice(*inv)
	c.Allocations = nil
	t.invoices[inv.InvoiceID] = c
	return nil
}

func (t *ledgerTx) payment(id string) (domain.Payment, bool) {
	if p, ok := t.payments[id]; ok {
		return p, true
	}
	p, ok := t.store.payments[id]
	return p, ok
}

func (t *ledgerTx) FindPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, ok := t.payment(paymentID)
	if !ok || p.EntityID != t.entityID {
		return nil, notFound("payment", paymentID)
	}
	p = clonePayment(p)
	return &p, nil
}

func (t *ledgerTx) NextPaymentNumber(ctx context.Context, paymentType domain.PaymentType) (string, error) {
	if paymentType == domain.PaymentMade {
		return t.next("PAY"), nil
	}
	return t.next("RCPT"), nil
}

func (t *ledgerTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	if _, exists := t.payment(p.PaymentID); exists {
		return fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, p.PaymentID)
	}
	p.Version = 1
	t.payments[p.PaymentID] = clonePayment(*p)
	return nil
}

func (t *ledgerTx) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	current, ok := t.payment(p.PaymentID)
	if !ok {
		return notFound("payment", p.PaymentID)
	}
	if current.Version != p.Version {
		return conflict("payment", p.PaymentID, p.Version, current.Version)
	}
	p.Version++
	t.payments[p.PaymentID] = clonePayment(*p)
	return nil
}

func (t *ledgerTx) party(id string) (domain.Party, bool) {
	if p, ok := t.parties[id]; ok {
		return p, true
	}
	p, ok := t.store.parties[id]
	return p, ok
}

func (t *ledgerTx) FindPartyForUpdate(ctx context.Context, partyID string) (*domain.Party, error) {
	p, ok := t.party(partyID)
	if !ok || p.EntityID != t.entityID {
		return nil, notFound("party", partyID)
	}
	p = cloneParty(p)
	return &p, nil
}

func (t *ledgerTx) UpdateParty(ctx context.Context, p *domain.Party) error {
	current, ok := t.party(p.PartyID)
	if !ok {
		return notFound("party", p.PartyID)
	}
	if current.Version != p.Version {
		return conflict("party", p.PartyID, p.Version, current.Version)
	}
	p.Version++
	t.parties[p.PartyID] = cloneParty(*p)
	return nil
}

func (t *ledgerTx) bankAccount(id string) (domain.BankAccount, bool) {
	if a, ok := t.bankAccounts[id]; ok {
		return a, true
	}
	a, ok := t.store.bankAccounts[id]
	return a, ok
}

func (t *ledgerTx) FindBankAccountForUpdate(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	a, ok := t.bankAccount(bankAccountID)
	if !ok || a.EntityID != t.entityID {
		return nil, notFound("bank account", bankAccountID)
	}
	a = cloneBankAccount(a)
	return &a, nil
}

func (t *ledgerTx) UpdateBankAccount(ctx context.Context, a *domain.BankAccount) error {
	current, ok := t.bankAccount(a.BankAccountID)
	if !ok {
		return notFound("bank account", a.BankAccountID)
	}
	if current.Version != a.Version {
		return conflict("bank account", a.BankAccountID, a.Version, current.Version)
	}
	a.Version++
	t.bankAccounts[a.BankAccountID] = cloneBankAccount(*a)
	return nil
}

func (t *ledgerTx) transaction(id string) (domain.Transaction, bool) {
	if tr, ok := t.transactions[id]; ok {
		return tr, true
	}
	tr, ok := t.store.transactions[id]
	return tr, ok
}

func (t *ledgerTx) FindTransactionsForUpdate(ctx context.Context, transactionIDs []string) (map[string]*domain.Transaction, error) {
	out := make(map[string]*domain.Transaction, len(transactionIDs))
	for _, id := range transactionIDs {
		if tr, ok := t.transaction(id); ok && tr.EntityID == t.entityID {
			c := tr
			out[id] = &c
		}
	}
	return out, nil
}

func (t *ledgerTx) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	for _, tr := range txs {
		if _, exists := t.transaction(tr.TransactionID); exists {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, tr.TransactionID)
		}
	}
	for _, tr := range txs {
		tr.Version = 1
		t.transactions[tr.TransactionID] = tr
	}
	return nil
}

func (t *ledgerTx) UpdateTransaction(ctx context.Context, tr *domain.Transaction) error {
	current, ok := t.transaction(tr.TransactionID)
	if !ok {
		return notFound("transaction", tr.TransactionID)
	}
	if current.Version != tr.Version {
		return conflict("transaction", tr.TransactionID, tr.Version, current.Version)
	}
	tr.Version++
	t.transactions[tr.TransactionID] = *tr
	return nil
}

func (t *ledgerTx) TransactionFingerprints(ctx context.Context) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	add := func(tr domain.Transaction) {
		if tr.EntityID == t.entityID && tr.Status != domain.TransactionCancelled {
			out[domain.TransactionFingerprint(tr.TransactionDate, tr.Type, tr.Amount.Amount, tr.PartyName)] = struct{}{}
		}
	}
	for id, tr := range t.store.transactions {
		if staged, ok := t.transactions[id]; ok {
			tr = staged
		}
		add(tr)
	}
	for id, tr := range t.transactions {
		if _, seen := t.store.transactions[id]; !seen {
			add(tr)
		}
	}
	return out, nil
}

func (t *ledgerTx) FindImportBatchForUpdate(ctx context.Context, reference string) (*domain.ImportBatch, error) {
	b, ok := t.imports[reference]
	if !ok {
		b, ok = t.store.imports[reference]
	}
	if !ok || b.EntityID != t.entityID {
		return nil, notFound("import", reference)
	}
	b = cloneImportBatch(b)
	return &b, nil
}

func (t *ledgerTx) UpdateImportBatch(ctx context.Context, b *domain.ImportBatch) error {
	if _, ok := t.store.imports[b.Reference]; !ok {
		return notFound("import", b.Reference)
	}
	t.imports[b.Reference] = cloneImportBatch(*b)
	return nil
}
