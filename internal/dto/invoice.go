package dto

import (
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// LineItemRequest is one billed line on an invoice request.
type LineItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Rate        decimal.Decimal `json:"rate"`
	TaxRate     decimal.Decimal `json:"taxRate"`
}

// CreateInvoiceRequest defines the payload for creating an invoice.
// TotalAmount is advisory; the server recomputes it and only logs a mismatch.
type CreateInvoiceRequest struct {
	InvoiceType   domain.InvoiceType `json:"invoiceType" binding:"required,oneof=sales purchase"`
	PartyID       string             `json:"partyID" binding:"required"`
	InvoiceNumber string             `json:"invoiceNumber"` // generated when empty
	InvoiceDate   time.Time          `json:"invoiceDate" binding:"required"`
	DueDate       *time.Time         `json:"dueDate"` // defaulted from party terms when nil
	Currency      string             `json:"currency" binding:"omitempty,len=3"`
	LineItems     []LineItemRequest  `json:"lineItems" binding:"required,min=1,dive"`
	GSTType       domain.GSTType     `json:"gstType" binding:"omitempty,oneof=cgst_sgst igst"`
	CGST          decimal.Decimal    `json:"cgst"`
	SGST          decimal.Decimal    `json:"sgst"`
	IGST          decimal.Decimal    `json:"igst"`
	TDSAmount     decimal.Decimal    `json:"tdsAmount"`
	RoundOff      decimal.Decimal    `json:"roundOff"`
	TotalAmount   *decimal.Decimal   `json:"totalAmount"`
	Notes         string             `json:"notes"`
	Finalize      bool               `json:"finalize"` // create as pending instead of draft
}

// UpdateInvoiceRequest replaces the editable fields of an invoice that has no allocations.
// Nil fields are left unchanged.
type UpdateInvoiceRequest struct {
	InvoiceDate     *time.Time        `json:"invoiceDate"`
	DueDate         *time.Time        `json:"dueDate"`
	LineItems       []LineItemRequest `json:"lineItems" binding:"omitempty,min=1,dive"`
	GSTType         *domain.GSTType   `json:"gstType" binding:"omitempty,oneof=cgst_sgst igst"`
	CGST            *decimal.Decimal  `json:"cgst"`
	SGST            *decimal.Decimal  `json:"sgst"`
	IGST            *decimal.Decimal  `json:"igst"`
	TDSAmount       *decimal.Decimal  `json:"tdsAmount"`
	RoundOff        *decimal.Decimal  `json:"roundOff"`
	TotalAmount     *decimal.Decimal  `json:"totalAmount"`
	Notes           *string           `json:"notes"`
	ExpectedVersion *int64            `json:"expectedVersion"`
}

// ListInvoicesParams defines query parameters for listing invoices.
type ListInvoicesParams struct {
	pagination.Params
	InvoiceType domain.InvoiceType   `form:"invoiceType" binding:"omitempty,oneof=sales purchase"`
	Status      domain.InvoiceStatus `form:"status" binding:"omitempty,oneof=draft pending partially_paid paid overdue cancelled"`
	AgingBucket domain.AgingBucket   `form:"agingBucket" binding:"omitempty,oneof=current 1-30 31-60 61-90 90+"`
	PartyID     string               `form:"partyID"`
	Search      string               `form:"search"`
}

// ToLineItems converts request lines into domain line items.
func ToLineItems(reqs []LineItemRequest) []domain.LineItem {
	items := make([]domain.LineItem, len(reqs))
	for i, r := range reqs {
		items[i] = domain.LineItem{
			Description: r.Description,
			Quantity:    r.Quantity,
			Unit:        r.Unit,
			Rate:        r.Rate,
			TaxRate:     r.TaxRate,
		}
	}
	return items
}

// AllocationResponse is one allocation as seen from either side.
type AllocationResponse struct {
	AllocationID string          `json:"allocationID"`
	PaymentID    string          `json:"paymentID"`
	InvoiceID    string          `json:"invoiceID"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"createdAt"`
	CreatedBy    string          `json:"createdBy"`
}

// InvoiceResponse defines the data returned for an invoice. Amounts are in Currency.
type InvoiceResponse struct {
	InvoiceID     string               `json:"invoiceID"`
	EntityID      string               `json:"entityID"`
	InvoiceNumber string               `json:"invoiceNumber"`
	InvoiceType   domain.InvoiceType   `json:"invoiceType"`
	PartyID       string               `json:"partyID"`
	InvoiceDate   time.Time            `json:"invoiceDate"`
	DueDate       time.Time            `json:"dueDate"`
	Currency      string               `json:"currency"`
	LineItems     []domain.LineItem    `json:"lineItems"`
	GSTType       domain.GSTType       `json:"gstType"`
	CGST          decimal.Decimal      `json:"cgst"`
	SGST          decimal.Decimal      `json:"sgst"`
	IGST          decimal.Decimal      `json:"igst"`
	TDSAmount     decimal.Decimal      `json:"tdsAmount"`
	RoundOff      decimal.Decimal      `json:"roundOff"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	TaxTotal      decimal.Decimal      `json:"taxTotal"`
	TotalAmount   decimal.Decimal      `json:"totalAmount"`
	AmountPaid    decimal.Decimal      `json:"amountPaid"`
	AmountDue     decimal.Decimal      `json:"amountDue"`
	Status        domain.InvoiceStatus `json:"status"`
	AgingBucket   domain.AgingBucket   `json:"agingBucket"`
	DaysOverdue   int                  `json:"daysOverdue"`
	Notes         string               `json:"notes,omitempty"`
	FinalizedAt   *time.Time           `json:"finalizedAt,omitempty"`
	CancelledAt   *time.Time           `json:"cancelledAt,omitempty"`
	Allocations   []AllocationResponse `json:"allocations"`
	Version       int64                `json:"version"`
	CreatedAt     time.Time            `json:"createdAt"`
	CreatedBy     string               `json:"createdBy"`
	LastUpdatedAt time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy string               `json:"lastUpdatedBy"`
}

// ListInvoicesResponse is one page of invoices.
type ListInvoicesResponse struct {
	Data       []InvoiceResponse `json:"data"`
	Pagination pagination.Page   `json:"pagination"`
}

// ToAllocationResponses converts domain allocations.
func ToAllocationResponses(allocs []domain.Allocation) []AllocationResponse {
	out := make([]AllocationResponse, len(allocs))
	for i, a := range allocs {
		out[i] = AllocationResponse{
			AllocationID: a.AllocationID,
			PaymentID:    a.PaymentID,
			InvoiceID:    a.InvoiceID,
			Amount:       a.Amount.Amount,
			CreatedAt:    a.CreatedAt,
			CreatedBy:    a.CreatedBy,
		}
	}
	return out
}

// ToInvoiceResponse converts a domain.Invoice to InvoiceResponse DTO.
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		InvoiceID:     inv.InvoiceID,
		EntityID:      inv.EntityID,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceType:   inv.InvoiceType,
		PartyID:       inv.PartyID(),
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Currency:      inv.Currency,
		LineItems:     inv.LineItems,
		GSTType:       inv.GSTType,
		CGST:          inv.CGST.Amount,
		SGST:          inv.SGST.Amount,
		IGST:          inv.IGST.Amount,
		TDSAmount:     inv.TDSAmount.Amount,
		RoundOff:      inv.RoundOff.Amount,
		Subtotal:      inv.Subtotal.Amount,
		TaxTotal:      inv.TaxTotal.Amount,
		TotalAmount:   inv.TotalAmount.Amount,
		AmountPaid:    inv.AmountPaid.Amount,
		AmountDue:     inv.AmountDue.Amount,
		Status:        inv.Status,
		AgingBucket:   inv.AgingBucket,
		DaysOverdue:   inv.DaysOverdue,
		Notes:         inv.Notes,
		FinalizedAt:   inv.FinalizedAt,
		CancelledAt:   inv.CancelledAt,
		Allocations:   ToAllocationResponses(inv.Allocations),
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		CreatedBy:     inv.CreatedBy,
		LastUpdatedAt: inv.LastUpdatedAt,
		LastUpdatedBy: inv.LastUpdatedBy,
	}
}

// ToInvoiceResponses converts a slice of domain.Invoice.
func ToInvoiceResponses(invs []domain.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invs))
	for i := range invs {
		out[i] = ToInvoiceResponse(&invs[i])
	}
	return out
}

// RefreshStatusesRequest runs the status and aging sweep as of a date (today when nil).
type RefreshStatusesRequest struct {
	AsOf *time.Time `json:"asOf"`
}

// StatusChange records one invoice touched by the refresh sweep.
type StatusChange struct {
	InvoiceID   string               `json:"invoiceID"`
	From        domain.InvoiceStatus `json:"from"`
	To          domain.InvoiceStatus `json:"to"`
	AgingBucket domain.AgingBucket   `json:"agingBucket"`
}

// RefreshStatusesResponse summarises a sweep.
type RefreshStatusesResponse struct {
	EntityID string         `json:"entityID"`
	AsOf     time.Time      `json:"asOf"`
	Scanned  int            `json:"scanned"`
	Changed  []StatusChange `json:"changed"`
}
