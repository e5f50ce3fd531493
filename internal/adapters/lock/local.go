// Package lock provides LedgerLocker implementations: an in-process one for a single
// replica and a Redis one for several replicas sharing a database.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
)

// LocalLocker holds one single-slot semaphore per entity.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

var _ portsrepo.LedgerLocker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(entityID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[entityID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[entityID] = ch
	}
	return ch
}

// Acquire blocks until the entity's ledger is free or ctx is done. A cancelled wait is
// reported as a concurrency conflict so callers can retry.
func (l *LocalLocker) Acquire(ctx context.Context, entityID string) (func(), error) {
	ch := l.slot(entityID)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for ledger %s: %v", apperrors.ErrConcurrencyConflict, entityID, ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}
