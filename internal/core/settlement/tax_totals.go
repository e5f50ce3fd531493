// Package settlement holds the pure reconciliation rules: invoice totals, status
// resolution, aging, allocation and credit exposure. Nothing here touches storage;
// callers load state, run these functions and persist the result atomically.
package settlement

import (
	"fmt"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
)

// TaxInput is everything the totals calculation reads from an invoice.
type TaxInput struct {
	Currency  string
	LineItems []domain.LineItem
	GSTType   domain.GSTType
	CGST      domain.Money
	SGST      domain.Money
	IGST      domain.Money
	TDS       domain.Money
	RoundOff  domain.Money
}

// Totals is the authoritative result of CalculateTotals.
type Totals struct {
	Subtotal domain.Money
	LineTax  domain.Money
	GST      domain.Money
	TaxTotal domain.Money
	Total    domain.Money
}

// TaxInputFor extracts the totals input from an invoice.
func TaxInputFor(inv domain.Invoice) TaxInput {
	return TaxInput{
		Currency:  inv.Currency,
		LineItems: inv.LineItems,
		GSTType:   inv.GSTType,
		CGST:      inv.CGST,
		SGST:      inv.SGST,
		IGST:      inv.IGST,
		TDS:       inv.TDSAmount,
		RoundOff:  inv.RoundOff,
	}
}

// CalculateTotals computes subtotal, tax and total.
//
//	subtotal = Σ quantity×rate
//	lineTax  = Σ quantity×rate×taxRate/100
//	gst      = igst           (gstType igst)
//	         = cgst+sgst      (gstType cgst_sgst)
//	total    = subtotal + lineTax + gst − tds + roundOff
//
// Line-item tax and document GST are additive. The total must be positive.
func CalculateTotals(in TaxInput) (Totals, error) {
	cur := in.Currency
	if cur == "" {
		return Totals{}, fmt.Errorf("%w: invoice currency is required", apperrors.ErrValidation)
	}
	if len(in.LineItems) == 0 {
		return Totals{}, fmt.Errorf("%w: at least one line item is required", apperrors.ErrValidation)
	}
	for _, m := range []domain.Money{in.CGST, in.SGST, in.IGST, in.TDS, in.RoundOff} {
		if !m.SameCurrency(domain.ZeroMoney(cur)) {
			return Totals{}, fmt.Errorf("%w: tax component currency %s does not match invoice currency %s", apperrors.ErrValidation, m.Currency, cur)
		}
	}

	subtotal := decimal.Zero
	lineTax := decimal.Zero
	for i, li := range in.LineItems {
		if err := validateLineItem(i, li); err != nil {
			return Totals{}, err
		}
		amount := li.Quantity.Mul(li.Rate)
		subtotal = subtotal.Add(amount)
		lineTax = lineTax.Add(amount.Mul(li.TaxRate).Div(hundred))
	}

	gst, err := documentGST(in)
	if err != nil {
		return Totals{}, err
	}
	if in.TDS.IsNegative() {
		return Totals{}, fmt.Errorf("%w: tds amount cannot be negative", apperrors.ErrValidation)
	}

	t := Totals{
		Subtotal: domain.NewMoney(subtotal, cur),
		LineTax:  domain.NewMoney(lineTax, cur),
		GST:      gst,
	}
	t.TaxTotal = t.LineTax.Add(t.GST)
	t.Total = t.Subtotal.Add(t.TaxTotal).Sub(in.TDS).Add(in.RoundOff)
	if !t.Total.IsPositive() {
		return Totals{}, fmt.Errorf("%w: invoice total must be greater than zero, got %s", apperrors.ErrValidation, t.Total)
	}
	return t, nil
}

func validateLineItem(i int, li domain.LineItem) error {
	switch {
	case li.Quantity.IsNegative() || li.Quantity.IsZero():
		return fmt.Errorf("%w: line %d: quantity must be greater than zero", apperrors.ErrValidation, i+1)
	case li.Rate.IsNegative():
		return fmt.Errorf("%w: line %d: rate cannot be negative", apperrors.ErrValidation, i+1)
	case li.TaxRate.IsNegative() || li.TaxRate.GreaterThan(hundred):
		return fmt.Errorf("%w: line %d: tax rate must be between 0 and 100", apperrors.ErrValidation, i+1)
	}
	return nil
}

// documentGST picks the GST components allowed by gstType. An empty gstType is
// inferred from which components are present.
func documentGST(in TaxInput) (domain.Money, error) {
	for _, m := range []domain.Money{in.CGST, in.SGST, in.IGST} {
		if m.IsNegative() {
			return domain.Money{}, fmt.Errorf("%w: gst components cannot be negative", apperrors.ErrValidation)
		}
	}
	split := !in.CGST.IsZero() || !in.SGST.IsZero()
	gstType := in.GSTType
	if gstType == "" {
		gstType = domain.GSTIntraState
		if !in.IGST.IsZero() {
			gstType = domain.GSTInterState
		}
	}
	switch gstType {
	case domain.GSTInterState:
		if split {
			return domain.Money{}, fmt.Errorf("%w: cgst/sgst cannot be combined with igst", apperrors.ErrValidation)
		}
		return domain.NewMoney(in.IGST.Amount, in.Currency), nil
	case domain.GSTIntraState:
		if !in.IGST.IsZero() {
			return domain.Money{}, fmt.Errorf("%w: igst cannot be combined with cgst/sgst", apperrors.ErrValidation)
		}
		return domain.NewMoney(in.CGST.Amount.Add(in.SGST.Amount), in.Currency), nil
	}
	return domain.Money{}, fmt.Errorf("%w: unknown gst type %q", apperrors.ErrValidation, gstType)
}

// ApplyTotals recomputes and stores the invoice's totals. It resets AmountDue against
// the current AmountPaid; status is left to Recompute.
func ApplyTotals(inv *domain.Invoice) (Totals, error) {
	t, err := CalculateTotals(TaxInputFor(*inv))
	if err != nil {
		return Totals{}, err
	}
	if inv.GSTType == "" {
		inv.GSTType = domain.GSTIntraState
		if !inv.IGST.IsZero() {
			inv.GSTType = domain.GSTInterState
		}
	}
	inv.Subtotal = t.Subtotal
	inv.TaxTotal = t.TaxTotal
	inv.TotalAmount = t.Total
	if inv.AmountPaid.Currency == "" {
		inv.AmountPaid = domain.ZeroMoney(inv.Currency)
	}
	inv.AmountDue = t.Total.Sub(inv.AmountPaid)
	return t, nil
}
