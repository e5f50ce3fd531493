package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a row of the invoices table. Every amount is in Currency; LineItems is
// a JSONB array.
type Invoice struct {
	InvoiceID     string          `db:"invoice_id"`
	EntityID      string          `db:"entity_id"`
	InvoiceNumber string          `db:"invoice_number"`
	InvoiceType   string          `db:"invoice_type"`
	CustomerID    *string         `db:"customer_id"`
	VendorID      *string         `db:"vendor_id"`
	InvoiceDate   time.Time       `db:"invoice_date"`
	DueDate       time.Time       `db:"due_date"`
	Currency      string          `db:"currency"`
	LineItems     []byte          `db:"line_items"`
	GSTType       string          `db:"gst_type"`
	CGST          decimal.Decimal `db:"cgst"`
	SGST          decimal.Decimal `db:"sgst"`
	IGST          decimal.Decimal `db:"igst"`
	TDSAmount     decimal.Decimal `db:"tds_amount"`
	RoundOff      decimal.Decimal `db:"round_off"`
	Subtotal      decimal.Decimal `db:"subtotal"`
	TaxTotal      decimal.Decimal `db:"tax_total"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	AmountPaid    decimal.Decimal `db:"amount_paid"`
	AmountDue     decimal.Decimal `db:"amount_due"`
	Status        string          `db:"status"`
	AgingBucket   string          `db:"aging_bucket"`
	DaysOverdue   int             `db:"days_overdue"`
	Notes         string          `db:"notes"`
	FinalizedAt   *time.Time      `db:"finalized_at"`
	CancelledAt   *time.Time      `db:"cancelled_at"`
	Version       int64           `db:"version"`
	AuditFields
}
