package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/SscSPs/settlement_engine/internal/models"
	"github.com/SscSPs/settlement_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxBankAccountRepository struct {
	BaseRepository
}

func newPgxBankAccountRepository(pool *pgxpool.Pool) portsrepo.BankAccountRepositoryFacade {
	return &PgxBankAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BankAccountRepositoryFacade = (*PgxBankAccountRepository)(nil)

const FULL_BANK_ACCOUNT_SELECT_QUERY = `
SELECT
	bank_account_id, entity_id, name, account_type, bank, currency, current_balance, is_active, version,
	created_at, created_by, last_updated_at, last_updated_by
FROM bank_accounts
`

func (r *PgxBankAccountRepository) SaveBankAccount(ctx context.Context, account domain.BankAccount) error {
	m, err := mapping.ToModelBankAccount(account)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode bank account", err)
	}
	query := `
		INSERT INTO bank_accounts (
			bank_account_id, entity_id, name, account_type, bank, currency, current_balance, is_active, version,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $10, $11, $12);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.BankAccountID, m.EntityID, m.Name, m.AccountType, m.Bank, m.Currency, m.CurrentBalance, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: bank account %s", apperrors.ErrDuplicate, m.BankAccountID)
		}
		return apperrors.NewAppError(500, "failed to save bank account", err)
	}
	return nil
}

func (r *PgxBankAccountRepository) FindBankAccountByID(ctx context.Context, entityID, bankAccountID string) (*domain.BankAccount, error) {
	return findBankAccount(ctx, r.Pool, bankAccountID,
		FULL_BANK_ACCOUNT_SELECT_QUERY+"WHERE bank_account_id = $1 AND entity_id = $2", bankAccountID, entityID)
}

func (r *PgxBankAccountRepository) FindBankAccountByName(ctx context.Context, entityID, name string) (*domain.BankAccount, error) {
	name = strings.TrimSpace(name)
	return findBankAccount(ctx, r.Pool, name,
		FULL_BANK_ACCOUNT_SELECT_QUERY+"WHERE entity_id = $1 AND lower(name) = lower($2) ORDER BY created_at LIMIT 1", entityID, name)
}

func (r *PgxBankAccountRepository) ListBankAccounts(ctx context.Context, entityIDs []string) ([]domain.BankAccount, error) {
	ms, err := collect[models.BankAccount](ctx, r.Pool, "bank accounts",
		FULL_BANK_ACCOUNT_SELECT_QUERY+"WHERE cardinality($1::text[]) = 0 OR entity_id = ANY($1) ORDER BY name", entityScope(entityIDs))
	if err != nil {
		return nil, err
	}
	accounts, err := mapping.ToDomainBankAccountSlice(ms)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode bank accounts", err)
	}
	return accounts, nil
}

func findBankAccount(ctx context.Context, q querier, id, query string, args ...any) (*domain.BankAccount, error) {
	m, err := collectOne[models.BankAccount](ctx, q, "bank account", id, query, args...)
	if err != nil {
		return nil, err
	}
	a, err := mapping.ToDomainBankAccount(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode bank account", err)
	}
	return &a, nil
}
