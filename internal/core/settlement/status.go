package settlement

import (
	"fmt"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
)

// ResolveStatus derives an invoice's status from its amounts, due date and lifecycle
// flags as of the given date. Precedence: cancelled, paid, overdue, partially paid,
// then pending or draft depending on finalization.
func ResolveStatus(inv domain.Invoice, asOf time.Time) domain.InvoiceStatus {
	switch {
	case inv.IsCancelled():
		return domain.InvoiceCancelled
	case !inv.AmountDue.IsPositive():
		return domain.InvoicePaid
	case DaysOverdue(inv.DueDate, asOf) > 0:
		return domain.InvoiceOverdue
	case inv.AmountPaid.IsPositive():
		return domain.InvoicePartiallyPaid
	case inv.IsFinalized():
		return domain.InvoicePending
	default:
		return domain.InvoiceDraft
	}
}

// Recompute refreshes the derived fields (amount due, status, aging) in place and
// reports whether any of them changed.
func Recompute(inv *domain.Invoice, asOf time.Time) bool {
	before := struct {
		due    domain.Money
		status domain.InvoiceStatus
		bucket domain.AgingBucket
		days   int
	}{inv.AmountDue, inv.Status, inv.AgingBucket, inv.DaysOverdue}

	inv.AmountDue = inv.TotalAmount.Sub(inv.AmountPaid)
	inv.Status = ResolveStatus(*inv, asOf)
	if inv.IsCancelled() {
		inv.AgingBucket, inv.DaysOverdue = domain.AgingNone, 0
	} else {
		inv.AgingBucket, inv.DaysOverdue = ClassifyAging(inv.DueDate, asOf, inv.AmountDue)
	}

	return !before.due.Equal(inv.AmountDue) ||
		before.status != inv.Status ||
		before.bucket != inv.AgingBucket ||
		before.days != inv.DaysOverdue
}

// CanAllocate rejects invoices that may no longer receive payment.
func CanAllocate(inv domain.Invoice) error {
	switch {
	case inv.IsCancelled():
		return fmt.Errorf("%w: invoice %s is cancelled", apperrors.ErrInvalidStateTransition, inv.InvoiceNumber)
	case !inv.AmountDue.IsPositive():
		return fmt.Errorf("%w: invoice %s is already paid", apperrors.ErrInvalidStateTransition, inv.InvoiceNumber)
	}
	return nil
}

// CanEdit allows edits only before any payment has been applied.
func CanEdit(inv domain.Invoice) error {
	switch {
	case inv.IsCancelled():
		return fmt.Errorf("%w: invoice %s is cancelled", apperrors.ErrInvalidStateTransition, inv.InvoiceNumber)
	case inv.HasAllocations():
		return fmt.Errorf("%w: invoice %s has allocations and can no longer be edited", apperrors.ErrInvalidStateTransition, inv.InvoiceNumber)
	}
	return nil
}

// Finalize moves a draft invoice to pending.
func Finalize(inv *domain.Invoice, at time.Time) error {
	if inv.IsCancelled() {
		return fmt.Errorf("%w: invoice %s is cancelled", apperrors.ErrInvalidStateTransition, inv.InvoiceNumber)
	}
	if inv.IsFinalized() {
		return fmt.Errorf("%w: invoice %s is already finalized", apperrors.ErrInvalidStateTransition, inv.InvoiceNumber)
	}
	t := at
	inv.FinalizedAt = &t
	Recompute(inv, at)
	return nil
}

// Cancel soft-cancels any invoice that is not paid. Existing allocations are kept so
// they can still be reversed; the balance is excluded from every aggregate.
func Cancel(inv *domain.Invoice, at time.Time) error {
	if inv.IsCancelled() {
		return fmt.Errorf("%w: invoice %s is already cancelled", apperrors.ErrInvalidStateTransition, inv.InvoiceNumber)
	}
	if !inv.AmountDue.IsPositive() {
		return fmt.Errorf("%w: paid invoice %s cannot be cancelled", apperrors.ErrInvalidStateTransition, inv.InvoiceNumber)
	}
	t := at
	inv.CancelledAt = &t
	Recompute(inv, at)
	return nil
}
