package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	EntityRepo      EntityRepositoryFacade
	PartyRepo       PartyRepositoryFacade
	BankAccountRepo BankAccountRepositoryFacade
	InvoiceRepo     InvoiceReader
	PaymentRepo     PaymentReader
	TransactionRepo TransactionReader
	ImportRepo      ImportBatchRepositoryFacade
	LedgerRepo      LedgerRepository
	Health          HealthChecker
}
