package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes receivables from payables.
type InvoiceType string

const (
	InvoiceSales    InvoiceType = "sales"
	InvoicePurchase InvoiceType = "purchase"
)

// InvoiceStatus is derived from amounts, dates and explicit lifecycle flags; it is
// never set independently.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoicePending       InvoiceStatus = "pending"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

// AgingBucket classifies an outstanding balance by days past due.
type AgingBucket string

const (
	AgingNone    AgingBucket = "" // fully settled, not aged
	AgingCurrent AgingBucket = "current"
	Aging1To30   AgingBucket = "1-30"
	Aging31To60  AgingBucket = "31-60"
	Aging61To90  AgingBucket = "61-90"
	Aging90Plus  AgingBucket = "90+"
)

// AgingBuckets lists the aged buckets in ascending order of age.
var AgingBuckets = []AgingBucket{AgingCurrent, Aging1To30, Aging31To60, Aging61To90, Aging90Plus}

// GSTType selects which document-level GST components apply.
type GSTType string

const (
	GSTIntraState GSTType = "cgst_sgst"
	GSTInterState GSTType = "igst"
)

// LineItem is one billed line. TaxRate is a percentage in [0, 100].
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Rate        decimal.Decimal `json:"rate"`
	TaxRate     decimal.Decimal `json:"taxRate"`
}

// Invoice is a sales (receivable) or purchase (payable) document.
//
// Exactly one of CustomerID / VendorID is set according to InvoiceType.
// TotalAmount is computed once by the tax calculator; AmountPaid only moves
// through allocations.
type Invoice struct {
	InvoiceID     string        `json:"invoiceID"`
	EntityID      string        `json:"entityID"`
	InvoiceNumber string        `json:"invoiceNumber"`
	InvoiceType   InvoiceType   `json:"invoiceType"`
	CustomerID    string        `json:"customerID,omitempty"`
	VendorID      string        `json:"vendorID,omitempty"`
	InvoiceDate   time.Time     `json:"invoiceDate"`
	DueDate       time.Time     `json:"dueDate"`
	Currency      string        `json:"currency"`
	LineItems     []LineItem    `json:"lineItems"`
	GSTType       GSTType       `json:"gstType"`
	CGST          Money         `json:"cgst"`
	SGST          Money         `json:"sgst"`
	IGST          Money         `json:"igst"`
	TDSAmount     Money         `json:"tdsAmount"`
	RoundOff      Money         `json:"roundOff"`
	Subtotal      Money         `json:"subtotal"`
	TaxTotal      Money         `json:"taxTotal"`
	TotalAmount   Money         `json:"totalAmount"`
	AmountPaid    Money         `json:"amountPaid"`
	AmountDue     Money         `json:"amountDue"`
	Status        InvoiceStatus `json:"status"`
	AgingBucket   AgingBucket   `json:"agingBucket"`
	DaysOverdue   int           `json:"daysOverdue"`
	Notes         string        `json:"notes,omitempty"`
	FinalizedAt   *time.Time    `json:"finalizedAt,omitempty"`
	CancelledAt   *time.Time    `json:"cancelledAt,omitempty"`
	Allocations   []Allocation  `json:"allocations,omitempty"` // populated on read, mirrors payment allocations
	Version       int64         `json:"version"`
	AuditFields
}

// PartyID returns whichever party reference the invoice carries.
func (i Invoice) PartyID() string {
	if i.InvoiceType == InvoicePurchase {
		return i.VendorID
	}
	return i.CustomerID
}

// IsCancelled reports explicit cancellation.
func (i Invoice) IsCancelled() bool {
	return i.CancelledAt != nil
}

// IsFinalized reports whether the invoice has left draft.
func (i Invoice) IsFinalized() bool {
	return i.FinalizedAt != nil
}

// HasAllocations reports whether any payment has been applied.
func (i Invoice) HasAllocations() bool {
	return i.AmountPaid.IsPositive()
}

// InvoiceFilter selects invoices for listing.
type InvoiceFilter struct {
	EntityID    string
	InvoiceType InvoiceType
	Status      InvoiceStatus
	AgingBucket AgingBucket
	PartyID     string
	Search      string
	Limit       int
	Offset      int
}
