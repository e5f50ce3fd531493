package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		EntityRepo:      newPgxEntityRepository(dbPool),
		PartyRepo:       newPgxPartyRepository(dbPool),
		BankAccountRepo: newPgxBankAccountRepository(dbPool),
		InvoiceRepo:     newPgxInvoiceRepository(dbPool),
		PaymentRepo:     newPgxPaymentRepository(dbPool),
		TransactionRepo: newPgxTransactionRepository(dbPool),
		ImportRepo:      newPgxImportBatchRepository(dbPool),
		LedgerRepo:      newPgxLedgerRepository(dbPool),
		Health:          &poolHealth{pool: dbPool},
	}
}

type poolHealth struct {
	pool *pgxpool.Pool
}

func (h *poolHealth) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
