package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UtilizationBand is an informational banding of credit utilization.
type UtilizationBand string

const (
	BandOK       UtilizationBand = "ok"
	BandCaution  UtilizationBand = "caution"
	BandWarning  UtilizationBand = "warning"
	BandCritical UtilizationBand = "critical"
)

// CreditExposure is a party's outstanding balance measured against its credit limit.
type CreditExposure struct {
	PartyID            string          `json:"partyID"`
	PartyName          string          `json:"partyName"`
	Kind               PartyKind       `json:"kind"`
	CreditLimit        Money           `json:"creditLimit"`
	CurrentOutstanding Money           `json:"currentOutstanding"`
	CreditUtilization  decimal.Decimal `json:"creditUtilization"`
	Band               UtilizationBand `json:"band"`
	OpenInvoices       int             `json:"openInvoices"`
}

// AgingBucketTotal is one row of an aging report.
type AgingBucketTotal struct {
	Bucket       AgingBucket `json:"bucket"`
	AmountDue    Money       `json:"amountDue"`
	InvoiceCount int         `json:"invoiceCount"`
}

// AgingReport totals outstanding invoices per bucket for one currency.
type AgingReport struct {
	EntityID    string             `json:"entityID"`
	InvoiceType InvoiceType        `json:"invoiceType"`
	Currency    string             `json:"currency"`
	AsOf        time.Time          `json:"asOf"`
	Buckets     []AgingBucketTotal `json:"buckets"`
	Total       Money              `json:"total"`
}

// CurrencyTotals is a per-currency rollup of receivables or payables.
type CurrencyTotals struct {
	Currency     string `json:"currency"`
	Outstanding  Money  `json:"outstanding"`
	Overdue      Money  `json:"overdue"`
	InvoiceCount int    `json:"invoiceCount"`
	OverdueCount int    `json:"overdueCount"`
}

// CashFlowTotals is income, expense and net over bank transactions for one currency.
type CashFlowTotals struct {
	Currency string `json:"currency"`
	Income   Money  `json:"income"`
	Expense  Money  `json:"expense"`
	Net      Money  `json:"net"`
}

// PartyOutstanding is one row in a top-N outstanding list.
type PartyOutstanding struct {
	PartyID      string    `json:"partyID"`
	PartyName    string    `json:"partyName"`
	Kind         PartyKind `json:"kind"`
	Outstanding  Money     `json:"outstanding"`
	Overdue      Money     `json:"overdue"`
	InvoiceCount int       `json:"invoiceCount"`
}

// DashboardFilter scopes a dashboard read.
type DashboardFilter struct {
	EntityIDs []string
	From      *time.Time
	To        *time.Time
	AsOf      time.Time
	TopN      int
}

// Dashboard is the read-only rollup across entities and currencies.
type Dashboard struct {
	AsOf         time.Time          `json:"asOf"`
	BankBalances []Money            `json:"bankBalances"`
	CashFlow     []CashFlowTotals   `json:"cashFlow"`
	Receivables  []CurrencyTotals   `json:"receivables"`
	Payables     []CurrencyTotals   `json:"payables"`
	TopCustomers []PartyOutstanding `json:"topCustomers"`
	TopVendors   []PartyOutstanding `json:"topVendors"`
}
