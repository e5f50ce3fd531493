package repositories

import (
	"context"
)

// LedgerRepository runs a unit of work against one entity's ledger.
//
// Implementations serialize concurrent units of work for the same entity and make
// every write inside fn visible to readers only when fn returns nil. Any error from fn
// rolls the whole unit back.
type LedgerRepository interface {
	WithinLedgerTx(ctx context.Context, entityID string, fn func(ctx context.Context, tx LedgerTx) error) error
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
