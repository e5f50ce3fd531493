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

type PgxImportBatchRepository struct {
	BaseRepository
}

func newPgxImportBatchRepository(pool *pgxpool.Pool) portsrepo.ImportBatchRepositoryFacade {
	return &PgxImportBatchRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ImportBatchRepositoryFacade = (*PgxImportBatchRepository)(nil)

const FULL_IMPORT_BATCH_SELECT_QUERY = `
SELECT
	batch_id, entity_id, reference, staged_rows, row_errors, status, result, expires_at, committed_at,
	created_at, created_by, last_updated_at, last_updated_by
FROM import_batches
`

func (r *PgxImportBatchRepository) SaveImportBatch(ctx context.Context, batch domain.ImportBatch) error {
	m, err := mapping.ToModelImportBatch(batch)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode import batch", err)
	}
	query := `
		INSERT INTO import_batches (
			batch_id, entity_id, reference, staged_rows, row_errors, status, result, expires_at, committed_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.BatchID, m.EntityID, m.Reference, m.Rows, m.Errors, m.Status, m.Result, m.ExpiresAt, m.CommittedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: import %s", apperrors.ErrDuplicate, m.Reference)
		}
		return apperrors.NewAppError(500, "failed to save import batch", err)
	}
	return nil
}

func (r *PgxImportBatchRepository) FindImportBatch(ctx context.Context, entityID, reference string) (*domain.ImportBatch, error) {
	return findImportBatch(ctx, r.Pool, reference, FULL_IMPORT_BATCH_SELECT_QUERY+"WHERE reference = $1 AND entity_id = $2", reference, entityID)
}

func findImportBatch(ctx context.Context, q querier, reference, query string, args ...any) (*domain.ImportBatch, error) {
	m, err := collectOne[models.ImportBatch](ctx, q, "import", reference, query, args...)
	if err != nil {
		return nil, err
	}
	b, err := mapping.ToDomainImportBatch(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode import batch", err)
	}
	return &b, nil
}
