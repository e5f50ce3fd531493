package settlement_test

import (
	"testing"
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAging_Boundaries(t *testing.T) {
	due := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		daysAfter int
		want      domain.AgingBucket
	}{
		{-5, domain.AgingCurrent},
		{0, domain.AgingCurrent},
		{1, domain.Aging1To30},
		{30, domain.Aging1To30},
		{31, domain.Aging31To60},
		{60, domain.Aging31To60},
		{61, domain.Aging61To90},
		{90, domain.Aging61To90},
		{91, domain.Aging90Plus},
		{400, domain.Aging90Plus},
	}
	for _, tt := range tests {
		asOf := due.AddDate(0, 0, tt.daysAfter).Add(17 * time.Hour)
		got, days := settlement.ClassifyAging(due, asOf, inr(100))
		assert.Equal(t, tt.want, got, "day %d", tt.daysAfter)
		assert.Equal(t, max(0, tt.daysAfter), days, "day %d", tt.daysAfter)
	}
}

func TestClassifyAging_SettledIsNotAged(t *testing.T) {
	bucket, days := settlement.ClassifyAging(today.AddDate(0, 0, -120), today, inr(0))
	assert.Equal(t, domain.AgingNone, bucket)
	assert.Zero(t, days)
}

func TestClassifyAging_ScenarioD(t *testing.T) {
	bucket, days := settlement.ClassifyAging(today.AddDate(0, 0, -45), today, inr(6800))
	assert.Equal(t, domain.Aging31To60, bucket)
	assert.Equal(t, 45, days)
}

func TestClassifyAging_MonotonicAndIdempotent(t *testing.T) {
	due := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	rank := map[domain.AgingBucket]int{}
	for i, b := range domain.AgingBuckets {
		rank[b] = i
	}

	prev := -1
	for d := -10; d <= 200; d++ {
		asOf := due.AddDate(0, 0, d)
		first, _ := settlement.ClassifyAging(due, asOf, inr(1))
		second, _ := settlement.ClassifyAging(due, asOf, inr(1))
		require.Equal(t, first, second)
		require.GreaterOrEqual(t, rank[first], prev, "bucket moved backwards at day %d", d)
		prev = rank[first]
	}
}

func TestBuildAgingReports(t *testing.T) {
	current := salesInvoice(t, "a", 1000, 0, today.AddDate(0, 0, 5))
	old := salesInvoice(t, "b", 2000, 0, today.AddDate(0, 0, -40))
	paid := salesInvoice(t, "c", 500, 0, today.AddDate(0, 0, -40))
	paid.AmountPaid = paid.TotalAmount
	settlement.Recompute(paid, today)
	cancelled := salesInvoice(t, "d", 700, 0, today.AddDate(0, 0, -100))
	require.NoError(t, settlement.Cancel(cancelled, today))

	reports := settlement.BuildAgingReports("ent_1", domain.InvoiceSales,
		[]domain.Invoice{*current, *old, *paid, *cancelled}, today)
	require.Len(t, reports, 1)

	r := reports[0]
	assert.Equal(t, "INR", r.Currency)
	assert.True(t, r.Total.Equal(inr(3000)))
	require.Len(t, r.Buckets, len(domain.AgingBuckets))
	assert.True(t, r.Buckets[0].AmountDue.Equal(inr(1000)))
	assert.Equal(t, 1, r.Buckets[0].InvoiceCount)
	assert.True(t, r.Buckets[2].AmountDue.Equal(inr(2000)))
	assert.True(t, r.Buckets[4].AmountDue.IsZero())
}
