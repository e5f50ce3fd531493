package settlement_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAllocations_Scenarios(t *testing.T) {
	due := today.AddDate(0, 0, 20)
	inv := salesInvoice(t, "inv1", 10000, 18, due)
	require.True(t, inv.TotalAmount.Equal(inr(11800)))

	// A: partial payment.
	first := receivedPayment("p1", 5000)
	applied, err := settlement.ApplyAllocations(first, index(inv), []domain.AllocationRequest{alloc("inv1", 5000)}, change())
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.True(t, inv.AmountPaid.Equal(inr(5000)))
	assert.True(t, inv.AmountDue.Equal(inr(6800)))
	assert.Equal(t, domain.InvoicePartiallyPaid, inv.Status)
	assert.True(t, first.Unallocated().IsZero())

	// C: over-settling the invoice is rejected and nothing changes.
	big := receivedPayment("p3", 7000)
	before := *inv
	_, err = settlement.ApplyAllocations(big, index(inv), []domain.AllocationRequest{alloc("inv1", 7000)}, change())
	var ce *apperrors.ConservationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, apperrors.ErrConservationViolation)
	assert.Equal(t, "200.00", ce.Overshoot.StringFixed(2))
	assert.Equal(t, before, *inv)
	assert.Empty(t, big.Allocations)

	// B: settle the remainder.
	second := receivedPayment("p2", 6800)
	_, err = settlement.ApplyAllocations(second, index(inv), []domain.AllocationRequest{alloc("inv1", 6800)}, change())
	require.NoError(t, err)
	assert.True(t, inv.AmountPaid.Equal(inr(11800)))
	assert.True(t, inv.AmountDue.IsZero())
	assert.Equal(t, domain.InvoicePaid, inv.Status)

	// Paid invoices reject further allocation.
	_, err = settlement.ApplyAllocations(big, index(inv), []domain.AllocationRequest{alloc("inv1", 1)}, change())
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestApplyAllocations_ScenarioE_AllOrNothing(t *testing.T) {
	inv1 := salesInvoice(t, "inv1", 4000, 0, today.AddDate(0, 0, 5))
	inv2 := salesInvoice(t, "inv2", 5000, 0, today.AddDate(0, 0, 5))
	p := receivedPayment("p1", 10000)
	before1, before2 := *inv1, *inv2

	_, err := settlement.ApplyAllocations(p, index(inv1, inv2),
		[]domain.AllocationRequest{alloc("inv1", 4000), alloc("inv2", 6000)}, change())

	assert.ErrorIs(t, err, apperrors.ErrConservationViolation)
	assert.Equal(t, before1, *inv1)
	assert.Equal(t, before2, *inv2)
	assert.Empty(t, p.Allocations)
}

func TestApplyAllocations_PaymentOverAllocation(t *testing.T) {
	inv1 := salesInvoice(t, "inv1", 4000, 0, today)
	inv2 := salesInvoice(t, "inv2", 4000, 0, today)
	p := receivedPayment("p1", 5000)

	_, err := settlement.ApplyAllocations(p, index(inv1, inv2),
		[]domain.AllocationRequest{alloc("inv1", 3000), alloc("inv2", 2500)}, change())

	var ce *apperrors.ConservationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "500.00", ce.Overshoot.StringFixed(2))
	assert.Empty(t, ce.InvoiceID)
	assert.True(t, inv1.AmountPaid.IsZero())
}

func TestApplyAllocations_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *domain.Payment, inv *domain.Invoice)
		reqs    []domain.AllocationRequest
		wantErr error
	}{
		{name: "cancelled payment", mutate: func(p *domain.Payment, _ *domain.Invoice) { p.Status = domain.PaymentCancelled }, wantErr: apperrors.ErrInvalidStateTransition},
		{name: "failed payment", mutate: func(p *domain.Payment, _ *domain.Invoice) { p.Status = domain.PaymentFailed }, wantErr: apperrors.ErrInvalidStateTransition},
		{name: "other entity", mutate: func(_ *domain.Payment, inv *domain.Invoice) { inv.EntityID = "ent_2" }, wantErr: apperrors.ErrValidation},
		{name: "purchase invoice", mutate: func(_ *domain.Payment, inv *domain.Invoice) {
			inv.InvoiceType, inv.VendorID, inv.CustomerID = domain.InvoicePurchase, "cust_1", ""
		}, wantErr: apperrors.ErrValidation},
		{name: "other party", mutate: func(_ *domain.Payment, inv *domain.Invoice) { inv.CustomerID = "cust_2" }, wantErr: apperrors.ErrValidation},
		{name: "cancelled invoice", mutate: func(_ *domain.Payment, inv *domain.Invoice) { _ = settlement.Cancel(inv, today) }, wantErr: apperrors.ErrInvalidStateTransition},
		{name: "unknown invoice", reqs: []domain.AllocationRequest{alloc("missing", 10)}, wantErr: apperrors.ErrNotFound},
		{name: "zero amount", reqs: []domain.AllocationRequest{alloc("inv1", 0)}, wantErr: apperrors.ErrValidation},
		{name: "negative amount", reqs: []domain.AllocationRequest{alloc("inv1", -5)}, wantErr: apperrors.ErrValidation},
		{name: "duplicate invoice", reqs: []domain.AllocationRequest{alloc("inv1", 5), alloc("inv1", 5)}, wantErr: apperrors.ErrValidation},
		{name: "empty batch", reqs: []domain.AllocationRequest{}, wantErr: apperrors.ErrValidation},
		{
			name:    "currency mismatch",
			reqs:    []domain.AllocationRequest{{InvoiceID: "inv1", Amount: domain.MoneyFromInt(5, "USD")}},
			wantErr: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := salesInvoice(t, "inv1", 1000, 0, today)
			p := receivedPayment("p1", 1000)
			if tt.mutate != nil {
				tt.mutate(p, inv)
			}
			reqs := tt.reqs
			if reqs == nil {
				reqs = []domain.AllocationRequest{alloc("inv1", 100)}
			}
			paidBefore := inv.AmountPaid

			_, err := settlement.ApplyAllocations(p, index(inv), reqs, change())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, inv.AmountPaid.Equal(paidBefore))
			assert.Empty(t, p.Allocations)
		})
	}
}

func TestApplyAllocations_AccumulatesPerInvoice(t *testing.T) {
	inv := salesInvoice(t, "inv1", 1000, 0, today)
	p := receivedPayment("p1", 1000)

	_, err := settlement.ApplyAllocations(p, index(inv), []domain.AllocationRequest{alloc("inv1", 300)}, change())
	require.NoError(t, err)
	_, err = settlement.ApplyAllocations(p, index(inv), []domain.AllocationRequest{alloc("inv1", 200)}, change())
	require.NoError(t, err)

	require.Len(t, p.Allocations, 1)
	assert.True(t, p.Allocations[0].Amount.Equal(inr(500)))
	assert.True(t, inv.AmountPaid.Equal(inr(500)))
}

func TestReverseAllocations_RoundTrip(t *testing.T) {
	for _, amount := range []int64{1, 250, 1000} {
		inv := salesInvoice(t, "inv1", 1000, 0, today.AddDate(0, 0, -3))
		p := receivedPayment("p1", 1000)
		before := *inv

		_, err := settlement.ApplyAllocations(p, index(inv), []domain.AllocationRequest{alloc("inv1", amount)}, change())
		require.NoError(t, err)
		_, err = settlement.ReverseAllocations(p, index(inv), []domain.AllocationRequest{alloc("inv1", amount)}, change())
		require.NoError(t, err)

		assert.True(t, inv.AmountPaid.Equal(before.AmountPaid))
		assert.True(t, inv.AmountDue.Equal(before.AmountDue))
		assert.Equal(t, before.Status, inv.Status)
		assert.Equal(t, before.AgingBucket, inv.AgingBucket)
		assert.Empty(t, p.Allocations)
	}
}

func TestReverseAllocations_Rejects(t *testing.T) {
	inv := salesInvoice(t, "inv1", 1000, 0, today)
	other := salesInvoice(t, "inv2", 1000, 0, today)
	p := receivedPayment("p1", 1000)
	_, err := settlement.ApplyAllocations(p, index(inv), []domain.AllocationRequest{alloc("inv1", 400)}, change())
	require.NoError(t, err)

	_, err = settlement.ReverseAllocations(p, index(inv), []domain.AllocationRequest{alloc("inv1", 401)}, change())
	assert.ErrorIs(t, err, apperrors.ErrConservationViolation)

	_, err = settlement.ReverseAllocations(p, index(inv, other), []domain.AllocationRequest{alloc("inv2", 10)}, change())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.True(t, inv.AmountPaid.Equal(inr(400)))
	require.Len(t, p.Allocations, 1)
}

func TestReverseAllocations_CancelledInvoiceStaysCancelled(t *testing.T) {
	inv := salesInvoice(t, "inv1", 1000, 0, today)
	p := receivedPayment("p1", 1000)
	_, err := settlement.ApplyAllocations(p, index(inv), []domain.AllocationRequest{alloc("inv1", 400)}, change())
	require.NoError(t, err)
	require.NoError(t, settlement.Cancel(inv, today))

	_, err = settlement.ReverseAllocations(p, index(inv), []domain.AllocationRequest{alloc("inv1", 400)}, change())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceCancelled, inv.Status)
	assert.True(t, inv.AmountPaid.IsZero())
}

// Random sequences of allocate/deallocate must keep every payment and invoice within its total.
func TestAllocationConservation_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	invs := []*domain.Invoice{
		salesInvoice(t, "inv1", 700, 0, today),
		salesInvoice(t, "inv2", 1300, 18, today.AddDate(0, 0, -15)),
		salesInvoice(t, "inv3", 250, 5, today.AddDate(0, 0, 30)),
	}
	payments := []*domain.Payment{receivedPayment("p1", 900), receivedPayment("p2", 1500)}
	all := index(invs...)

	for step := 0; step < 500; step++ {
		p := payments[rng.Intn(len(payments))]
		inv := invs[rng.Intn(len(invs))]
		req := []domain.AllocationRequest{alloc(inv.InvoiceID, int64(rng.Intn(600)+1))}

		var err error
		if rng.Intn(3) == 0 {
			_, err = settlement.ReverseAllocations(p, all, req, change())
		} else {
			_, err = settlement.ApplyAllocations(p, all, req, change())
		}
		if err != nil {
			require.True(t,
				errors.Is(err, apperrors.ErrConservationViolation) ||
					errors.Is(err, apperrors.ErrInvalidStateTransition) ||
					errors.Is(err, apperrors.ErrNotFound), "unexpected error %v", err)
		}

		for _, p := range payments {
			require.True(t, p.AllocatedTotal().LessThanOrEqual(p.Amount), "payment over-allocated at step %d", step)
			require.False(t, p.Unallocated().IsNegative())
		}
		for _, inv := range invs {
			paid := domain.ZeroMoney("INR")
			for _, p := range payments {
				if i := p.AllocationFor(inv.InvoiceID); i >= 0 {
					paid = paid.Add(p.Allocations[i].Amount)
				}
			}
			require.True(t, paid.Equal(inv.AmountPaid), "allocations and amountPaid diverged at step %d", step)
			require.True(t, inv.AmountPaid.LessThanOrEqual(inv.TotalAmount), "invoice over-settled at step %d", step)
			require.True(t, inv.AmountDue.Equal(inv.TotalAmount.Sub(inv.AmountPaid)), "amountDue drifted at step %d", step)
			require.False(t, inv.AmountDue.IsNegative())
		}
	}
}

func TestSuggestAllocations(t *testing.T) {
	older := salesInvoice(t, "inv1", 600, 0, today.AddDate(0, 0, -10))
	newer := salesInvoice(t, "inv2", 800, 0, today.AddDate(0, 0, 10))
	paid := salesInvoice(t, "inv3", 100, 0, today)
	paid.AmountPaid = inr(100)
	settlement.Recompute(paid, today)
	p := receivedPayment("p1", 1000)
	open := []domain.Invoice{*newer, *older, *paid}

	t.Run("empty proposal fills oldest first", func(t *testing.T) {
		got := settlement.SuggestAllocations(*p, open, nil)
		require.Len(t, got, 2)
		assert.Equal(t, "inv1", got[0].InvoiceID)
		assert.True(t, got[0].Suggested.Equal(inr(600)))
		assert.Equal(t, "inv2", got[1].InvoiceID)
		assert.True(t, got[1].Suggested.Equal(inr(400)))
	})

	t.Run("clamps to amount due and remainder", func(t *testing.T) {
		got := settlement.SuggestAllocations(*p, open, []domain.AllocationRequest{
			alloc("inv2", 900), alloc("inv1", 500), alloc("inv3", 50),
		})
		require.Len(t, got, 2)
		assert.True(t, got[0].Suggested.Equal(inr(800)))
		assert.True(t, got[0].Clamped)
		assert.True(t, got[1].Suggested.Equal(inr(200)))
		assert.True(t, got[1].Clamped)
	})

	t.Run("keeps amounts that fit", func(t *testing.T) {
		got := settlement.SuggestAllocations(*p, open, []domain.AllocationRequest{alloc("inv1", 100)})
		require.Len(t, got, 1)
		assert.True(t, got[0].Suggested.Equal(inr(100)))
		assert.False(t, got[0].Clamped)
	})

	t.Run("never mutates", func(t *testing.T) {
		settlement.SuggestAllocations(*p, open, nil)
		assert.Empty(t, p.Allocations)
		assert.True(t, older.AmountPaid.IsZero())
	})
}
