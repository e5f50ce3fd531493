package repositories

import "context"

// LedgerLocker serializes allocation changes per entity ledger, across processes when
// the implementation is distributed. release must be called exactly once.
type LedgerLocker interface {
	Acquire(ctx context.Context, entityID string) (release func(), err error)
}
