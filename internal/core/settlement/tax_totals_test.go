package settlement_test

import (
	"testing"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(qty, rate, tax string) domain.LineItem {
	return domain.LineItem{
		Description: "item",
		Quantity:    decimal.RequireFromString(qty),
		Rate:        decimal.RequireFromString(rate),
		TaxRate:     decimal.RequireFromString(tax),
	}
}

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name         string
		in           settlement.TaxInput
		wantSubtotal string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "line tax only",
			in:           settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "10000", "18")}},
			wantSubtotal: "10000.00", wantTax: "1800.00", wantTotal: "11800.00",
		},
		{
			name: "intra-state gst with tds and round off",
			in: settlement.TaxInput{
				Currency:  "INR",
				LineItems: []domain.LineItem{line("2", "499.99", "0"), line("3", "100", "0")},
				GSTType:   domain.GSTIntraState,
				CGST:      inr(90),
				SGST:      inr(90),
				TDS:       inr(100),
				RoundOff:  domain.NewMoney(decimal.RequireFromString("-0.98"), "INR"),
			},
			wantSubtotal: "1299.98", wantTax: "180.00", wantTotal: "1379.00",
		},
		{
			name: "inter-state gst",
			in: settlement.TaxInput{
				Currency:  "INR",
				LineItems: []domain.LineItem{line("1", "1000", "0")},
				GSTType:   domain.GSTInterState,
				IGST:      inr(180),
			},
			wantSubtotal: "1000.00", wantTax: "180.00", wantTotal: "1180.00",
		},
		{
			name:         "line tax and document gst are additive",
			in:           settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "100", "5")}, IGST: inr(18)},
			wantSubtotal: "100.00", wantTax: "23.00", wantTotal: "123.00",
		},
		{
			name:         "fractional line tax rounds half up",
			in:           settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "0.25", "10")}},
			wantSubtotal: "0.25", wantTax: "0.03", wantTotal: "0.28",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := settlement.CalculateTotals(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubtotal, got.Subtotal.Amount.StringFixed(2))
			assert.Equal(t, tt.wantTax, got.TaxTotal.Amount.StringFixed(2))
			assert.Equal(t, tt.wantTotal, got.Total.Amount.StringFixed(2))
		})
	}
}

func TestCalculateTotals_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   settlement.TaxInput
	}{
		{name: "no currency", in: settlement.TaxInput{LineItems: []domain.LineItem{line("1", "1", "0")}}},
		{name: "no lines", in: settlement.TaxInput{Currency: "INR"}},
		{name: "negative quantity", in: settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("-1", "10", "0")}}},
		{name: "zero quantity", in: settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("0", "10", "0")}}},
		{name: "negative rate", in: settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "-10", "0")}}},
		{name: "negative tax rate", in: settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "10", "-1")}}},
		{name: "tax rate above 100", in: settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "10", "101")}}},
		{name: "zero total", in: settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "0", "0")}}},
		{name: "tds wipes out total", in: settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "100", "0")}, TDS: inr(100)}},
		{name: "negative tds", in: settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "100", "0")}, TDS: inr(-1)}},
		{
			name: "igst with cgst",
			in:   settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "100", "0")}, GSTType: domain.GSTInterState, IGST: inr(18), CGST: inr(9)},
		},
		{
			name: "cgst type with igst",
			in:   settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "100", "0")}, GSTType: domain.GSTIntraState, IGST: inr(18)},
		},
		{name: "mismatched component currency", in: settlement.TaxInput{Currency: "INR", LineItems: []domain.LineItem{line("1", "100", "0")}, CGST: domain.MoneyFromInt(1, "USD")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := settlement.CalculateTotals(tt.in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestApplyTotals_KeepsAmountPaid(t *testing.T) {
	inv := &domain.Invoice{Currency: "INR", LineItems: []domain.LineItem{line("1", "500", "0")}, AmountPaid: inr(200)}
	_, err := settlement.ApplyTotals(inv)
	require.NoError(t, err)
	assert.True(t, inv.TotalAmount.Equal(inr(500)))
	assert.True(t, inv.AmountDue.Equal(inr(300)))
	assert.Equal(t, domain.GSTIntraState, inv.GSTType)
}
