package settlement

import (
	"sort"
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
)

// DaysOverdue is max(0, asOf − dueDate) in whole calendar days.
func DaysOverdue(dueDate, asOf time.Time) int {
	if dueDate.IsZero() {
		return 0
	}
	days := int(domain.DateOnly(asOf).Sub(domain.DateOnly(dueDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// BucketForDays maps a days-overdue count onto its bucket. Lower bounds are inclusive.
func BucketForDays(days int) domain.AgingBucket {
	switch {
	case days <= 0:
		return domain.AgingCurrent
	case days <= 30:
		return domain.Aging1To30
	case days <= 60:
		return domain.Aging31To60
	case days <= 90:
		return domain.Aging61To90
	default:
		return domain.Aging90Plus
	}
}

// ClassifyAging buckets an outstanding balance. A settled balance is not aged and
// reports zero days overdue, so its classification does not drift as asOf advances.
func ClassifyAging(dueDate, asOf time.Time, amountDue domain.Money) (domain.AgingBucket, int) {
	if !amountDue.IsPositive() {
		return domain.AgingNone, 0
	}
	days := DaysOverdue(dueDate, asOf)
	return BucketForDays(days), days
}

// BuildAgingReports totals open invoices of one type per bucket, one report per currency.
// Cancelled and settled invoices are excluded. Buckets are reclassified against asOf so
// the report does not depend on when statuses were last refreshed.
func BuildAgingReports(entityID string, invType domain.InvoiceType, invoices []domain.Invoice, asOf time.Time) []domain.AgingReport {
	type acc struct {
		amounts map[domain.AgingBucket]domain.Money
		counts  map[domain.AgingBucket]int
		total   domain.Money
	}
	byCurrency := map[string]*acc{}
	for _, inv := range invoices {
		if inv.InvoiceType != invType || inv.IsCancelled() {
			continue
		}
		bucket, _ := ClassifyAging(inv.DueDate, asOf, inv.AmountDue)
		if bucket == domain.AgingNone {
			continue
		}
		a, ok := byCurrency[inv.Currency]
		if !ok {
			a = &acc{
				amounts: map[domain.AgingBucket]domain.Money{},
				counts:  map[domain.AgingBucket]int{},
				total:   domain.ZeroMoney(inv.Currency),
			}
			byCurrency[inv.Currency] = a
		}
		a.amounts[bucket] = domain.SumMoney(inv.Currency, a.amounts[bucket], inv.AmountDue)
		a.counts[bucket]++
		a.total = a.total.Add(inv.AmountDue)
	}

	currencies := make([]string, 0, len(byCurrency))
	for c := range byCurrency {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	reports := make([]domain.AgingReport, 0, len(currencies))
	for _, c := range currencies {
		a := byCurrency[c]
		r := domain.AgingReport{
			EntityID:    entityID,
			InvoiceType: invType,
			Currency:    c,
			AsOf:        domain.DateOnly(asOf),
			Total:       a.total,
		}
		for _, b := range domain.AgingBuckets {
			amt, ok := a.amounts[b]
			if !ok {
				amt = domain.ZeroMoney(c)
			}
			r.Buckets = append(r.Buckets, domain.AgingBucketTotal{Bucket: b, AmountDue: amt, InvoiceCount: a.counts[b]})
		}
		reports = append(reports, r)
	}
	return reports
}
