package services

import (
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// The same options (clock, ID generator, metrics, ledger locker, page sizes) apply to every service.
func NewServiceContainer(repos portsrepo.RepositoryProvider, opts ...ServiceOption) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Directory:   NewDirectoryService(repos.EntityRepo, repos.PartyRepo, repos.BankAccountRepo, opts...),
		Invoice:     NewInvoiceService(repos.LedgerRepo, repos.InvoiceRepo, repos.EntityRepo, opts...),
		Payment:     NewPaymentService(repos.LedgerRepo, repos.PaymentRepo, repos.InvoiceRepo, opts...),
		Transaction: NewTransactionService(repos.LedgerRepo, repos.TransactionRepo, repos.EntityRepo, opts...),
		Import:      NewImportService(repos, opts...),
		Reporting:   NewReportingService(repos, opts...),
	}
}
