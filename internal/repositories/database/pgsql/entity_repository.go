package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/SscSPs/settlement_engine/internal/models"
	"github.com/SscSPs/settlement_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxEntityRepository struct {
	BaseRepository
}

func newPgxEntityRepository(pool *pgxpool.Pool) portsrepo.EntityRepositoryFacade {
	return &PgxEntityRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EntityRepositoryFacade = (*PgxEntityRepository)(nil)

const FULL_ENTITY_SELECT_QUERY = `
SELECT entity_id, name, base_currency, is_active, created_at, created_by, last_updated_at, last_updated_by
FROM entities
`

func (r *PgxEntityRepository) SaveEntity(ctx context.Context, entity domain.Entity) error {
	m := mapping.ToModelEntity(entity)
	query := `
		INSERT INTO entities (entity_id, name, base_currency, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.EntityID, m.Name, m.BaseCurrency, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entity %s", apperrors.ErrDuplicate, m.EntityID)
		}
		return apperrors.NewAppError(500, "failed to save entity", err)
	}
	return nil
}

func (r *PgxEntityRepository) FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error) {
	m, err := collectOne[models.Entity](ctx, r.Pool, "entity", entityID, FULL_ENTITY_SELECT_QUERY+"WHERE entity_id = $1", entityID)
	if err != nil {
		return nil, err
	}
	e := mapping.ToDomainEntity(m)
	return &e, nil
}

func (r *PgxEntityRepository) ListEntities(ctx context.Context, entityIDs []string) ([]domain.Entity, error) {
	ms, err := collect[models.Entity](ctx, r.Pool, "entities",
		FULL_ENTITY_SELECT_QUERY+"WHERE cardinality($1::text[]) = 0 OR entity_id = ANY($1) ORDER BY name", entityScope(entityIDs))
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainEntitySlice(ms), nil
}
