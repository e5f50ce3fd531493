package settlement

import (
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	bandCaution  = decimal.NewFromInt(50)
	bandWarning  = decimal.NewFromInt(75)
	bandCritical = decimal.NewFromInt(90)
)

// Outstanding sums amountDue over the party's non-cancelled invoices of the matching
// type in the party's currency, and counts those still open.
func Outstanding(party domain.Party, invoices []domain.Invoice) (domain.Money, int) {
	total := domain.ZeroMoney(party.Currency())
	open := 0
	for _, inv := range invoices {
		if !contributes(party, inv) {
			continue
		}
		total = total.Add(inv.AmountDue)
		if inv.AmountDue.IsPositive() {
			open++
		}
	}
	return total, open
}

func contributes(party domain.Party, inv domain.Invoice) bool {
	return inv.PartyID() == party.PartyID &&
		inv.InvoiceType == party.MatchingInvoiceType() &&
		!inv.IsCancelled() &&
		inv.Currency == party.Currency()
}

// Utilization is outstanding / limit × 100 rounded to two places; zero without a limit.
// It is not capped at 100.
func Utilization(outstanding, limit domain.Money) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return outstanding.PercentOf(limit)
}

// Band classifies a utilization percentage for display.
func Band(utilization decimal.Decimal) domain.UtilizationBand {
	switch {
	case utilization.GreaterThanOrEqual(bandCritical):
		return domain.BandCritical
	case utilization.GreaterThanOrEqual(bandWarning):
		return domain.BandWarning
	case utilization.GreaterThanOrEqual(bandCaution):
		return domain.BandCaution
	default:
		return domain.BandOK
	}
}

// RecomputeParty rewrites the party's derived outstanding from its invoices and reports
// whether it changed.
func RecomputeParty(party *domain.Party, invoices []domain.Invoice) bool {
	outstanding, _ := Outstanding(*party, invoices)
	changed := !outstanding.Equal(party.CurrentOutstanding)
	party.CurrentOutstanding = outstanding
	return changed
}

// ComputeExposure builds the exposure view for a party.
func ComputeExposure(party domain.Party, invoices []domain.Invoice) domain.CreditExposure {
	outstanding, open := Outstanding(party, invoices)
	util := Utilization(outstanding, party.CreditLimit)
	return domain.CreditExposure{
		PartyID:            party.PartyID,
		PartyName:          party.Name,
		Kind:               party.Kind,
		CreditLimit:        party.CreditLimit,
		CurrentOutstanding: outstanding,
		CreditUtilization:  util,
		Band:               Band(util),
		OpenInvoices:       open,
	}
}
