package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a row of the payments table. Its allocations live in their own table.
type Payment struct {
	PaymentID     string          `db:"payment_id"`
	EntityID      string          `db:"entity_id"`
	PaymentNumber string          `db:"payment_number"`
	PaymentType   string          `db:"payment_type"`
	CustomerID    *string         `db:"customer_id"`
	VendorID      *string         `db:"vendor_id"`
	BankAccountID *string         `db:"bank_account_id"`
	PaymentDate   time.Time       `db:"payment_date"`
	Currency      string          `db:"currency"`
	Amount        decimal.Decimal `db:"amount"`
	Method        string          `db:"method"`
	Reference     string          `db:"reference"`
	Status        string          `db:"status"`
	Version       int64           `db:"version"`
	AuditFields
}

// Allocation is a row of the allocations table, unique per (payment, invoice).
type Allocation struct {
	AllocationID string          `db:"allocation_id"`
	PaymentID    string          `db:"payment_id"`
	InvoiceID    string          `db:"invoice_id"`
	Currency     string          `db:"currency"`
	Amount       decimal.Decimal `db:"amount"`
	CreatedAt    time.Time       `db:"created_at"`
	CreatedBy    string          `db:"created_by"`
}
