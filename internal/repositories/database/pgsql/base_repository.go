package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so read helpers can serve
// plain reads and locked reads alike.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, id)
}

// entityScope turns an optional entity list into a text[] argument; the queries treat
// an empty array as "every entity".
func entityScope(entityIDs []string) []string {
	if entityIDs == nil {
		return []string{}
	}
	return entityIDs
}

// collect runs a query and maps every row onto T by column name.
func collect[T any](ctx context.Context, q querier, kind, query string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query "+kind, err)
	}
	defer rows.Close()
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect "+kind+" rows", err)
	}
	return out, nil
}

// collectOne is collect for a single row; no row yields apperrors.ErrNotFound.
func collectOne[T any](ctx context.Context, q querier, kind, id, query string, args ...any) (T, error) {
	var zero T
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return zero, apperrors.NewAppError(500, "failed to query "+kind, err)
	}
	defer rows.Close()
	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, notFound(kind, id)
		}
		return zero, apperrors.NewAppError(500, "failed to collect "+kind, err)
	}
	return out, nil
}

// versionedUpdate runs an UPDATE guarded by "AND version = <expected>" and tells a
// missing row apart from a stale version when nothing was updated.
func versionedUpdate(ctx context.Context, q querier, kind, table, idColumn, id string, expected int64, query string, args ...any) error {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update "+kind, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var actual int64
	err = q.QueryRow(ctx, fmt.Sprintf("SELECT version FROM %s WHERE %s = $1", table, idColumn), id).Scan(&actual)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(kind, id)
	}
	if err != nil {
		return apperrors.NewAppError(500, "failed to read "+kind+" version", err)
	}
	return fmt.Errorf("%w: %s %s is at version %d, caller had %d", apperrors.ErrConcurrencyConflict, kind, id, actual, expected)
}
