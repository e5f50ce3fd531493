package pgsql

import (
	"context"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/SscSPs/settlement_engine/internal/models"
	"github.com/SscSPs/settlement_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionReader {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionReader = (*PgxTransactionRepository)(nil)

const FULL_TRANSACTION_SELECT_QUERY = `
SELECT
	transaction_id, entity_id, bank_account_id, transaction_date, type, currency, amount,
	party_name, description, status, import_batch_id, version,
	created_at, created_by, last_updated_at, last_updated_by
FROM transactions
`

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	m, err := collectOne[models.Transaction](ctx, r.Pool, "transaction", transactionID,
		FULL_TRANSACTION_SELECT_QUERY+"WHERE transaction_id = $1 AND entity_id = $2", transactionID, entityID)
	if err != nil {
		return nil, err
	}
	t := mapping.ToDomainTransaction(m)
	return &t, nil
}

func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, entityIDs []string) ([]domain.Transaction, error) {
	ms, err := collect[models.Transaction](ctx, r.Pool, "transactions",
		FULL_TRANSACTION_SELECT_QUERY+"WHERE cardinality($1::text[]) = 0 OR entity_id = ANY($1) ORDER BY transaction_date, created_at",
		entityScope(entityIDs))
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainTransactionSlice(ms), nil
}
