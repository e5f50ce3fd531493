package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
)

// ledgerRunner combines the per-entity locker with the store's unit of work. Every
// mutation that moves money runs through it.
type ledgerRunner struct {
	BaseService
	ledger portsrepo.LedgerRepository
	locker portsrepo.LedgerLocker
}

// run acquires the entity lock (when configured) and executes fn in one ledger transaction.
func (r *ledgerRunner) run(ctx context.Context, entityID string, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	if r.locker != nil {
		release, err := r.locker.Acquire(ctx, entityID)
		if err != nil {
			return err
		}
		defer release()
	}
	return r.ledger.WithinLedgerTx(ctx, entityID, fn)
}

// recomputeParties rewrites currentOutstanding for each party from its invoices as
// staged in tx. It is called in the same unit of work that changed those invoices.
func (r *ledgerRunner) recomputeParties(ctx context.Context, tx portsrepo.LedgerTx, partyIDs ...string) error {
	seen := make(map[string]struct{}, len(partyIDs))
	ids := make([]string, 0, len(partyIDs))
	for _, id := range partyIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		party, err := tx.FindPartyForUpdate(ctx, id)
		if err != nil {
			return err
		}
		invoices, err := tx.ListPartyInvoices(ctx, id)
		if err != nil {
			return err
		}
		if !settlement.RecomputeParty(party, invoices) {
			continue
		}
		if err := tx.UpdateParty(ctx, party); err != nil {
			return err
		}
		r.LogDebug(ctx, "Party outstanding recomputed", slog.String("party_id", id), slog.String("outstanding", party.CurrentOutstanding.String()))
	}
	return nil
}

// observeStatus records a status change metric when an invoice left its previous status.
func (r *ledgerRunner) observeStatus(before domain.InvoiceStatus, inv *domain.Invoice) {
	if before != inv.Status {
		r.Metrics.ObserveStatusChange(string(inv.Status))
	}
}

// checkVersion enforces a caller-supplied expected version.
func checkVersion(kind, id string, expected *int64, actual int64) error {
	if expected == nil || *expected == actual {
		return nil
	}
	return fmt.Errorf("%w: %s %s is at version %d, expected %d", apperrors.ErrConcurrencyConflict, kind, id, actual, *expected)
}
