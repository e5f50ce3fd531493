// Package memory is an in-process implementation of the repository ports. It backs
// the test suites and the STORAGE_DRIVER=memory development mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
)

// Store keeps every record in maps guarded by one RWMutex. A ledger unit of work holds
// the write lock for its whole duration and publishes its staged writes only on success.
type Store struct {
	mu sync.RWMutex

	entities     map[string]domain.Entity
	parties      map[string]domain.Party
	bankAccounts map[string]domain.BankAccount
	invoices     map[string]domain.Invoice
	payments     map[string]domain.Payment
	transactions map[string]domain.Transaction
	imports      map[string]domain.ImportBatch // by reference
	sequences    map[string]int                // entityID|prefix -> last number
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entities:     make(map[string]domain.Entity),
		parties:      make(map[string]domain.Party),
		bankAccounts: make(map[string]domain.BankAccount),
		invoices:     make(map[string]domain.Invoice),
		payments:     make(map[string]domain.Payment),
		transactions: make(map[string]domain.Transaction),
		imports:      make(map[string]domain.ImportBatch),
		sequences:    make(map[string]int),
	}
}

// Provider exposes the store through every repository port.
func (s *Store) Provider() *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		EntityRepo:      s,
		PartyRepo:       s,
		BankAccountRepo: s,
		InvoiceRepo:     s,
		PaymentRepo:     s,
		TransactionRepo: s,
		ImportRepo:      s,
		LedgerRepo:      s,
		Health:          s,
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, id)
}

func inEntities(entityIDs []string) func(string) bool {
	if len(entityIDs) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(entityIDs))
	for _, id := range entityIDs {
		set[id] = struct{}{}
	}
	return func(id string) bool {
		_, ok := set[id]
		return ok
	}
}

// --- entities ---

func (s *Store) SaveEntity(ctx context.Context, e domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entities[e.EntityID]; exists {
		return fmt.Errorf("%w: entity %s", apperrors.ErrDuplicate, e.EntityID)
	}
	s.entities[e.EntityID] = e
	return nil
}

func (s *Store) FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[entityID]
	if !ok {
		return nil, notFound("entity", entityID)
	}
	return &e, nil
}

func (s *Store) ListEntities(ctx context.Context, entityIDs []string) ([]domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keep := inEntities(entityIDs)
	out := make([]domain.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if keep(e.EntityID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- parties ---

func (s *Store) SaveParty(ctx context.Context, p domain.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.parties[p.PartyID]; exists {
		return fmt.Errorf("%w: party %s", apperrors.ErrDuplicate, p.PartyID)
	}
	p.Version = 1
	s.parties[p.PartyID] = cloneParty(p)
	return nil
}

func (s *Store) FindPartyByID(ctx context.Context, entityID, partyID string) (*domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[partyID]
	if !ok || p.EntityID != entityID {
		return nil, notFound("party", partyID)
	}
	p = cloneParty(p)
	return &p, nil
}

func (s *Store) FindPartyByName(ctx context.Context, entityID string, kind domain.PartyKind, name string) (*domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.parties {
		if p.EntityID == entityID && p.Kind == kind && strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			p = cloneParty(p)
			return &p, nil
		}
	}
	return nil, notFound("party", name)
}

func (s *Store) ListParties(ctx context.Context, entityIDs []string) ([]domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keep := inEntities(entityIDs)
	out := make([]domain.Party, 0, len(s.parties))
	for _, p := range s.parties {
		if keep(p.EntityID) {
			out = append(out, cloneParty(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- bank accounts ---

func (s *Store) SaveBankAccount(ctx context.Context, a domain.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bankAccounts[a.BankAccountID]; exists {
		return fmt.Errorf("%w: bank account %s", apperrors.ErrDuplicate, a.BankAccountID)
	}
	a.Version = 1
	s.bankAccounts[a.BankAccountID] = cloneBankAccount(a)
	return nil
}

func (s *Store) FindBankAccountByID(ctx context.Context, entityID, bankAccountID string) (*domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.bankAccounts[bankAccountID]
	if !ok || a.EntityID != entityID {
		return nil, notFound("bank account", bankAccountID)
	}
	a = cloneBankAccount(a)
	return &a, nil
}

func (s *Store) FindBankAccountByName(ctx context.Context, entityID, name string) (*domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.bankAccounts {
		if a.EntityID == entityID && strings.EqualFold(a.Name, strings.TrimSpace(name)) {
			a = cloneBankAccount(a)
			return &a, nil
		}
	}
	return nil, notFound("bank account", name)
}

func (s *Store) ListBankAccounts(ctx context.Context, entityIDs []string) ([]domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keep := inEntities(entityIDs)
	out := make([]domain.BankAccount, 0, len(s.bankAccounts))
	for _, a := range s.bankAccounts {
		if keep(a.EntityID) {
			out = append(out, cloneBankAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- invoices ---

func (s *Store) FindInvoiceByID(ctx context.Context, entityID, invoiceID string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[invoiceID]
	if !ok || inv.EntityID != entityID {
		return nil, notFound("invoice", invoiceID)
	}
	inv = cloneInvoice(inv)
	inv.Allocations = s.allocationsFor(invoiceID)
	return &inv, nil
}

// allocationsFor builds the invoice-side view of allocations. Caller holds the lock.
func (s *Store) allocationsFor(invoiceID string) []domain.Allocation {
	var out []domain.Allocation
	for _, p := range s.payments {
		for _, a := range p.Allocations {
			if a.InvoiceID == invoiceID {
				out = append(out, a)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) ListInvoices(ctx context.Context, f domain.InvoiceFilter) ([]domain.Invoice, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []domain.Invoice
	for _, inv := range s.invoices {
		switch {
		case inv.EntityID != f.EntityID:
			continue
		case f.InvoiceType != "" && inv.InvoiceType != f.InvoiceType:
			continue
		case f.Status != "" && inv.Status != f.Status:
			continue
		case f.AgingBucket != "" && inv.AgingBucket != f.AgingBucket:
			continue
		case f.PartyID != "" && inv.PartyID() != f.PartyID:
			continue
		case search != "" && !strings.Contains(strings.ToLower(inv.InvoiceNumber+" "+inv.Notes), search):
			continue
		}
		matched = append(matched, cloneInvoice(inv))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].InvoiceDate.Equal(matched[j].InvoiceDate) {
			return matched[i].InvoiceDate.After(matched[j].InvoiceDate)
		}
		return matched[i].InvoiceNumber > matched[j].InvoiceNumber
	})
	return page(matched, f.Offset, f.Limit), len(matched), nil
}

func (s *Store) ListInvoicesForEntities(ctx context.Context, entityIDs []string) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keep := inEntities(entityIDs)
	out := make([]domain.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		if keep(inv.EntityID) {
			out = append(out, cloneInvoice(inv))
		}
	}
	return out, nil
}

// --- payments ---

func (s *Store) FindPaymentByID(ctx context.Context, entityID, paymentID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok || p.EntityID != entityID {
		return nil, notFound("payment", paymentID)
	}
	p = clonePayment(p)
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []domain.Payment
	for _, p := range s.payments {
		switch {
		case p.EntityID != f.EntityID:
			continue
		case f.PaymentType != "" && p.PaymentType != f.PaymentType:
			continue
		case f.Status != "" && p.Status != f.Status:
			continue
		case f.PartyID != "" && p.PartyID() != f.PartyID:
			continue
		case search != "" && !strings.Contains(strings.ToLower(p.PaymentNumber+" "+p.Reference), search):
			continue
		}
		matched = append(matched, clonePayment(p))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PaymentDate.Equal(matched[j].PaymentDate) {
			return matched[i].PaymentDate.After(matched[j].PaymentDate)
		}
		return matched[i].PaymentNumber > matched[j].PaymentNumber
	})
	return page(matched, f.Offset, f.Limit), len(matched), nil
}

// --- transactions ---

func (s *Store) FindTransactionByID(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[transactionID]
	if !ok || t.EntityID != entityID {
		return nil, notFound("transaction", transactionID)
	}
	return &t, nil
}

func (s *Store) ListTransactions(ctx context.Context, entityIDs []string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keep := inEntities(entityIDs)
	out := make([]domain.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if keep(t.EntityID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionDate.Before(out[j].TransactionDate) })
	return out, nil
}

// --- imports ---

func (s *Store) SaveImportBatch(ctx context.Context, b domain.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.imports[b.Reference]; exists {
		return fmt.Errorf("%w: import %s", apperrors.ErrDuplicate, b.Reference)
	}
	s.imports[b.Reference] = cloneImportBatch(b)
	return nil
}

func (s *Store) FindImportBatch(ctx context.Context, entityID, reference string) (*domain.ImportBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.imports[reference]
	if !ok || b.EntityID != entityID {
		return nil, notFound("import", reference)
	}
	b = cloneImportBatch(b)
	return &b, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
