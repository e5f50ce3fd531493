package settlement_test

import (
	"testing"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customer(t *testing.T, limit int64) domain.Party {
	t.Helper()
	p, err := domain.NewCustomer("ent_1", "Acme Traders", "INR").
		WithID("cust_1").
		WithCreditLimit(decimal.NewFromInt(limit)).
		Build()
	require.NoError(t, err)
	return p
}

func TestComputeExposure_ScenarioF(t *testing.T) {
	party := customer(t, 100000)
	inv1 := salesInvoice(t, "inv1", 20000, 0, today.AddDate(0, 0, 10))
	inv2 := salesInvoice(t, "inv2", 30000, 0, today.AddDate(0, 0, -10))

	exp := settlement.ComputeExposure(party, []domain.Invoice{*inv1, *inv2})

	assert.True(t, exp.CurrentOutstanding.Equal(inr(50000)))
	assert.Equal(t, "50.00", exp.CreditUtilization.StringFixed(2))
	assert.Equal(t, domain.BandCaution, exp.Band)
	assert.Equal(t, 2, exp.OpenInvoices)
}

func TestOutstanding_ExcludesNonContributing(t *testing.T) {
	party := customer(t, 1000)
	open := salesInvoice(t, "inv1", 300, 0, today)
	cancelled := salesInvoice(t, "inv2", 400, 0, today)
	require.NoError(t, settlement.Cancel(cancelled, today))
	otherParty := salesInvoice(t, "inv3", 500, 0, today)
	otherParty.CustomerID = "cust_9"
	purchase := salesInvoice(t, "inv4", 600, 0, today)
	purchase.InvoiceType = domain.InvoicePurchase
	paid := salesInvoice(t, "inv5", 700, 0, today)
	paid.AmountPaid = paid.TotalAmount
	settlement.Recompute(paid, today)

	total, openCount := settlement.Outstanding(party, []domain.Invoice{*open, *cancelled, *otherParty, *purchase, *paid})
	assert.True(t, total.Equal(inr(300)))
	assert.Equal(t, 1, openCount)

	assert.True(t, settlement.RecomputeParty(&party, []domain.Invoice{*open}))
	assert.True(t, party.CurrentOutstanding.Equal(inr(300)))
	assert.False(t, settlement.RecomputeParty(&party, []domain.Invoice{*open}))
}

func TestUtilizationAndBand(t *testing.T) {
	tests := []struct {
		outstanding, limit int64
		want               string
		band               domain.UtilizationBand
	}{
		{0, 0, "0.00", domain.BandOK},
		{5000, 0, "0.00", domain.BandOK},
		{499, 1000, "49.90", domain.BandOK},
		{500, 1000, "50.00", domain.BandCaution},
		{749, 1000, "74.90", domain.BandCaution},
		{750, 1000, "75.00", domain.BandWarning},
		{899, 1000, "89.90", domain.BandWarning},
		{900, 1000, "90.00", domain.BandCritical},
		{2500, 1000, "250.00", domain.BandCritical},
	}
	for _, tt := range tests {
		util := settlement.Utilization(inr(tt.outstanding), inr(tt.limit))
		assert.Equal(t, tt.want, util.StringFixed(2))
		assert.Equal(t, tt.band, settlement.Band(util))
	}
}
