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

type PgxPartyRepository struct {
	BaseRepository
}

func newPgxPartyRepository(pool *pgxpool.Pool) portsrepo.PartyRepositoryFacade {
	return &PgxPartyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PartyRepositoryFacade = (*PgxPartyRepository)(nil)

const FULL_PARTY_SELECT_QUERY = `
SELECT
	party_id, entity_id, kind, name, email, phone, tax_id, address, bank, currency,
	credit_limit, current_outstanding, terms, custom_days, is_active, version,
	created_at, created_by, last_updated_at, last_updated_by
FROM parties
`

func (r *PgxPartyRepository) SaveParty(ctx context.Context, party domain.Party) error {
	m, err := mapping.ToModelParty(party)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode party", err)
	}
	query := `
		INSERT INTO parties (
			party_id, entity_id, kind, name, email, phone, tax_id, address, bank, currency,
			credit_limit, current_outstanding, terms, custom_days, is_active, version,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1, $16, $17, $18, $19);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.PartyID, m.EntityID, m.Kind, m.Name, m.Email, m.Phone, m.TaxID, m.Address, m.Bank, m.Currency,
		m.CreditLimit, m.CurrentOutstanding, m.Terms, m.CustomDays, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: party %s", apperrors.ErrDuplicate, m.PartyID)
		}
		return apperrors.NewAppError(500, "failed to save party", err)
	}
	return nil
}

func (r *PgxPartyRepository) FindPartyByID(ctx context.Context, entityID, partyID string) (*domain.Party, error) {
	return findParty(ctx, r.Pool, partyID, FULL_PARTY_SELECT_QUERY+"WHERE party_id = $1 AND entity_id = $2", partyID, entityID)
}

func (r *PgxPartyRepository) FindPartyByName(ctx context.Context, entityID string, kind domain.PartyKind, name string) (*domain.Party, error) {
	name = strings.TrimSpace(name)
	return findParty(ctx, r.Pool, name,
		FULL_PARTY_SELECT_QUERY+"WHERE entity_id = $1 AND kind = $2 AND lower(name) = lower($3) ORDER BY created_at LIMIT 1",
		entityID, string(kind), name)
}

func (r *PgxPartyRepository) ListParties(ctx context.Context, entityIDs []string) ([]domain.Party, error) {
	ms, err := collect[models.Party](ctx, r.Pool, "parties",
		FULL_PARTY_SELECT_QUERY+"WHERE cardinality($1::text[]) = 0 OR entity_id = ANY($1) ORDER BY name", entityScope(entityIDs))
	if err != nil {
		return nil, err
	}
	parties, err := mapping.ToDomainPartySlice(ms)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode parties", err)
	}
	return parties, nil
}

func findParty(ctx context.Context, q querier, id, query string, args ...any) (*domain.Party, error) {
	m, err := collectOne[models.Party](ctx, q, "party", id, query, args...)
	if err != nil {
		return nil, err
	}
	p, err := mapping.ToDomainParty(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode party", err)
	}
	return &p, nil
}
