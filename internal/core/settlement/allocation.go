package settlement

import (
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
)

// Change carries the bookkeeping for one allocate or deallocate call.
type Change struct {
	UserID string
	At     time.Time
	AsOf   time.Time
	NewID  func() string
}

func (c Change) asOf() time.Time {
	if c.AsOf.IsZero() {
		return c.At
	}
	return c.AsOf
}

// ApplyAllocations validates a full batch of requested allocations against a payment
// and its target invoices and, only if every check passes, applies all of them.
//
// invoices must contain every invoice referenced by reqs; the caller is expected to
// have loaded them under lock. Nothing is mutated when an error is returned.
func ApplyAllocations(p *domain.Payment, invoices map[string]*domain.Invoice, reqs []domain.AllocationRequest, ch Change) ([]domain.AppliedAllocation, error) {
	if err := checkPaymentAllowsAllocation(*p); err != nil {
		return nil, err
	}
	requested, err := checkRequests(*p, invoices, reqs)
	if err != nil {
		return nil, err
	}

	for _, r := range reqs {
		inv := invoices[r.InvoiceID]
		if inv.EntityID != p.EntityID {
			return nil, fmt.Errorf("%w: invoice %s belongs to a different entity than payment %s", apperrors.ErrValidation, inv.InvoiceNumber, p.PaymentNumber)
		}
		if inv.InvoiceType != p.PaymentType.MatchingInvoiceType() {
			return nil, fmt.Errorf("%w: %s payment cannot settle %s invoice %s", apperrors.ErrValidation, p.PaymentType, inv.InvoiceType, inv.InvoiceNumber)
		}
		if inv.PartyID() != p.PartyID() {
			return nil, fmt.Errorf("%w: invoice %s belongs to a different party than payment %s", apperrors.ErrValidation, inv.InvoiceNumber, p.PaymentNumber)
		}
		if inv.Currency != p.Amount.Currency {
			return nil, fmt.Errorf("%w: invoice %s is in %s, payment is in %s", apperrors.ErrValidation, inv.InvoiceNumber, inv.Currency, p.Amount.Currency)
		}
		if err := CanAllocate(*inv); err != nil {
			return nil, err
		}
	}

	// The payment cannot be over-allocated.
	already := p.AllocatedTotal()
	if over := already.Add(requested).Sub(p.Amount); over.IsPositive() {
		return nil, &apperrors.ConservationError{
			Reason:    fmt.Sprintf("allocations exceed payment %s amount %s", p.PaymentNumber, p.Amount),
			Overshoot: over.Amount,
			Currency:  over.Currency,
		}
	}
	// No invoice can be over-settled.
	for _, r := range reqs {
		inv := invoices[r.InvoiceID]
		if over := r.Amount.Sub(inv.AmountDue); over.IsPositive() {
			return nil, &apperrors.ConservationError{
				Reason:    fmt.Sprintf("allocation exceeds amount due %s", inv.AmountDue),
				InvoiceID: inv.InvoiceID,
				Overshoot: over.Amount,
				Currency:  over.Currency,
			}
		}
	}

	applied := make([]domain.AppliedAllocation, 0, len(reqs))
	for _, r := range reqs {
		inv := invoices[r.InvoiceID]
		inv.AmountPaid = inv.AmountPaid.Add(r.Amount)
		Recompute(inv, ch.asOf())
		inv.Touch(ch.UserID, ch.At)

		if i := p.AllocationFor(inv.InvoiceID); i >= 0 {
			p.Allocations[i].Amount = p.Allocations[i].Amount.Add(r.Amount)
		} else {
			p.Allocations = append(p.Allocations, domain.Allocation{
				AllocationID: ch.NewID(),
				PaymentID:    p.PaymentID,
				InvoiceID:    inv.InvoiceID,
				Amount:       r.Amount,
				CreatedAt:    ch.At,
				CreatedBy:    ch.UserID,
			})
		}
		applied = append(applied, appliedFor(*inv, r.Amount))
	}
	p.Touch(ch.UserID, ch.At)
	return applied, nil
}

// ReverseAllocations is the inverse of ApplyAllocations: each request removes amount from
// the payment's existing allocation against the invoice, dropping the record when it
// reaches zero. Reversal is allowed against paid and cancelled invoices.
func ReverseAllocations(p *domain.Payment, invoices map[string]*domain.Invoice, reqs []domain.AllocationRequest, ch Change) ([]domain.AppliedAllocation, error) {
	if _, err := checkRequests(*p, invoices, reqs); err != nil {
		return nil, err
	}
	for _, r := range reqs {
		i := p.AllocationFor(r.InvoiceID)
		if i < 0 {
			return nil, fmt.Errorf("%w: payment %s has no allocation against invoice %s", apperrors.ErrNotFound, p.PaymentNumber, r.InvoiceID)
		}
		if over := r.Amount.Sub(p.Allocations[i].Amount); over.IsPositive() {
			return nil, &apperrors.ConservationError{
				Reason:    fmt.Sprintf("deallocation exceeds allocated amount %s", p.Allocations[i].Amount),
				InvoiceID: r.InvoiceID,
				Overshoot: over.Amount,
				Currency:  over.Currency,
			}
		}
		inv := invoices[r.InvoiceID]
		if r.Amount.GreaterThan(inv.AmountPaid) {
			return nil, &apperrors.ConservationError{
				Reason:    fmt.Sprintf("deallocation exceeds amount paid %s", inv.AmountPaid),
				InvoiceID: r.InvoiceID,
				Overshoot: r.Amount.Sub(inv.AmountPaid).Amount,
				Currency:  inv.Currency,
			}
		}
	}

	applied := make([]domain.AppliedAllocation, 0, len(reqs))
	for _, r := range reqs {
		inv := invoices[r.InvoiceID]
		inv.AmountPaid = inv.AmountPaid.Sub(r.Amount)
		Recompute(inv, ch.asOf())
		inv.Touch(ch.UserID, ch.At)

		i := p.AllocationFor(r.InvoiceID)
		remaining := p.Allocations[i].Amount.Sub(r.Amount)
		if remaining.IsZero() {
			p.Allocations = append(p.Allocations[:i], p.Allocations[i+1:]...)
		} else {
			p.Allocations[i].Amount = remaining
		}
		applied = append(applied, appliedFor(*inv, r.Amount))
	}
	p.Touch(ch.UserID, ch.At)
	return applied, nil
}

// SuggestAllocations clamps each proposal to min(unallocated remainder, amount due),
// consuming the remainder in request order. A proposal with a zero amount asks for as
// much as possible. When proposals is empty every open invoice is considered, oldest
// due date first. Closed or mismatched invoices are skipped.
func SuggestAllocations(p domain.Payment, open []domain.Invoice, proposals []domain.AllocationRequest) []domain.AllocationSuggestion {
	byID := make(map[string]domain.Invoice, len(open))
	for _, inv := range open {
		byID[inv.InvoiceID] = inv
	}
	if len(proposals) == 0 {
		sorted := append([]domain.Invoice(nil), open...)
		sortByDueDate(sorted)
		for _, inv := range sorted {
			proposals = append(proposals, domain.AllocationRequest{InvoiceID: inv.InvoiceID})
		}
	}

	remainder := p.Unallocated()
	out := make([]domain.AllocationSuggestion, 0, len(proposals))
	seen := map[string]bool{}
	for _, prop := range proposals {
		inv, ok := byID[prop.InvoiceID]
		if !ok || seen[prop.InvoiceID] || CanAllocate(inv) != nil ||
			inv.InvoiceType != p.PaymentType.MatchingInvoiceType() || inv.PartyID() != p.PartyID() || inv.Currency != p.Amount.Currency {
			continue
		}
		seen[prop.InvoiceID] = true

		requested := prop.Amount
		if requested.Currency == "" {
			requested = domain.NewMoney(requested.Amount, p.Amount.Currency)
		}
		limit := domain.MinMoney(remainder, inv.AmountDue)
		suggested := limit
		if requested.IsPositive() && requested.LessThan(limit) {
			suggested = requested
		}
		if !suggested.IsPositive() {
			continue
		}
		remainder = remainder.Sub(suggested)
		out = append(out, domain.AllocationSuggestion{
			InvoiceID:     inv.InvoiceID,
			InvoiceNumber: inv.InvoiceNumber,
			Requested:     requested,
			Suggested:     suggested,
			AmountDue:     inv.AmountDue,
			Clamped:       requested.IsPositive() && !suggested.Equal(requested),
		})
	}
	return out
}

func checkPaymentAllowsAllocation(p domain.Payment) error {
	if !p.Status.AllowsAllocation() {
		return fmt.Errorf("%w: payment %s is %s", apperrors.ErrInvalidStateTransition, p.PaymentNumber, p.Status)
	}
	return nil
}

// checkRequests validates the shape of a request batch and returns its sum.
func checkRequests(p domain.Payment, invoices map[string]*domain.Invoice, reqs []domain.AllocationRequest) (domain.Money, error) {
	total := domain.ZeroMoney(p.Amount.Currency)
	if len(reqs) == 0 {
		return total, fmt.Errorf("%w: at least one allocation is required", apperrors.ErrValidation)
	}
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		if r.InvoiceID == "" {
			return total, fmt.Errorf("%w: allocation invoice is required", apperrors.ErrValidation)
		}
		if _, dup := seen[r.InvoiceID]; dup {
			return total, fmt.Errorf("%w: invoice %s appears more than once", apperrors.ErrValidation, r.InvoiceID)
		}
		seen[r.InvoiceID] = struct{}{}
		if !r.Amount.IsPositive() {
			return total, fmt.Errorf("%w: allocation amount must be positive", apperrors.ErrValidation)
		}
		if r.Amount.Currency != p.Amount.Currency {
			return total, fmt.Errorf("%w: allocation currency %s does not match payment currency %s", apperrors.ErrValidation, r.Amount.Currency, p.Amount.Currency)
		}
		if _, ok := invoices[r.InvoiceID]; !ok {
			return total, fmt.Errorf("%w: invoice %s", apperrors.ErrNotFound, r.InvoiceID)
		}
		total = total.Add(r.Amount)
	}
	return total, nil
}

func appliedFor(inv domain.Invoice, amount domain.Money) domain.AppliedAllocation {
	return domain.AppliedAllocation{
		InvoiceID:   inv.InvoiceID,
		Amount:      amount,
		AmountPaid:  inv.AmountPaid,
		AmountDue:   inv.AmountDue,
		Status:      inv.Status,
		AgingBucket: inv.AgingBucket,
	}
}

func sortByDueDate(invs []domain.Invoice) {
	sort.SliceStable(invs, func(i, j int) bool {
		if !invs[i].DueDate.Equal(invs[j].DueDate) {
			return invs[i].DueDate.Before(invs[j].DueDate)
		}
		return invs[i].InvoiceNumber < invs[j].InvoiceNumber
	})
}
