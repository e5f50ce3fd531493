package dto

import (
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// AllocationLine asks for an amount of a payment to be applied to, or removed from, an invoice.
type AllocationLine struct {
	InvoiceID string          `json:"invoiceID" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// CreatePaymentRequest defines the payload for recording a payment. Allocations, when
// present, are applied atomically with the payment itself.
type CreatePaymentRequest struct {
	PaymentType   domain.PaymentType   `json:"paymentType" binding:"required,oneof=received made"`
	PartyID       string               `json:"partyID" binding:"required"`
	BankAccountID string               `json:"bankAccountID"`
	PaymentDate   time.Time            `json:"paymentDate" binding:"required"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency" binding:"omitempty,len=3"`
	Method        string               `json:"method"`
	Reference     string               `json:"reference"`
	Status        domain.PaymentStatus `json:"status" binding:"omitempty,oneof=pending completed"`
	Allocations   []AllocationLine     `json:"allocations" binding:"omitempty,dive"`
}

// AllocationBatchRequest is an all-or-nothing set of allocation changes for one payment.
// ExpectedVersion, when set, must match the payment's current version.
type AllocationBatchRequest struct {
	Allocations     []AllocationLine `json:"allocations" binding:"required,min=1,dive"`
	ExpectedVersion *int64           `json:"expectedVersion"`
}

// SuggestAllocationsRequest lists proposals to clamp. An empty list proposes every
// open invoice of the payment's party, oldest due date first; a zero amount asks for
// as much as possible.
type SuggestAllocationsRequest struct {
	Proposals []AllocationLine `json:"proposals" binding:"omitempty,dive"`
}

// ListPaymentsParams defines query parameters for listing payments.
type ListPaymentsParams struct {
	pagination.Params
	PaymentType domain.PaymentType   `form:"paymentType" binding:"omitempty,oneof=received made"`
	Status      domain.PaymentStatus `form:"status" binding:"omitempty,oneof=pending completed failed cancelled"`
	PartyID     string               `form:"partyID"`
	Search      string               `form:"search"`
}

// ToAllocationRequests tags request lines with the payment currency.
func ToAllocationRequests(lines []AllocationLine, currency string) []domain.AllocationRequest {
	out := make([]domain.AllocationRequest, len(lines))
	for i, l := range lines {
		out[i] = domain.AllocationRequest{InvoiceID: l.InvoiceID, Amount: domain.NewMoney(l.Amount, currency)}
	}
	return out
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID      string               `json:"paymentID"`
	EntityID       string               `json:"entityID"`
	PaymentNumber  string               `json:"paymentNumber"`
	PaymentType    domain.PaymentType   `json:"paymentType"`
	PartyID        string               `json:"partyID"`
	BankAccountID  string               `json:"bankAccountID,omitempty"`
	PaymentDate    time.Time            `json:"paymentDate"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       string               `json:"currency"`
	Allocated      decimal.Decimal      `json:"allocated"`
	Unallocated    decimal.Decimal      `json:"unallocated"`
	Method         string               `json:"method,omitempty"`
	Reference      string               `json:"reference,omitempty"`
	Status         domain.PaymentStatus `json:"status"`
	Allocations    []AllocationResponse `json:"allocations"`
	Version        int64                `json:"version"`
	CreatedAt      time.Time            `json:"createdAt"`
	CreatedBy      string               `json:"createdBy"`
	LastUpdatedAt  time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy  string               `json:"lastUpdatedBy"`
	AppliedResults []AppliedResponse    `json:"applied,omitempty"`
}

// ListPaymentsResponse is one page of payments.
type ListPaymentsResponse struct {
	Data       []PaymentResponse `json:"data"`
	Pagination pagination.Page   `json:"pagination"`
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:     p.PaymentID,
		EntityID:      p.EntityID,
		PaymentNumber: p.PaymentNumber,
		PaymentType:   p.PaymentType,
		PartyID:       p.PartyID(),
		BankAccountID: p.BankAccountID,
		PaymentDate:   p.PaymentDate,
		Amount:        p.Amount.Amount,
		Currency:      p.Amount.Currency,
		Allocated:     p.AllocatedTotal().Amount,
		Unallocated:   p.Unallocated().Amount,
		Method:        p.Method,
		Reference:     p.Reference,
		Status:        p.Status,
		Allocations:   ToAllocationResponses(p.Allocations),
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		CreatedBy:     p.CreatedBy,
		LastUpdatedAt: p.LastUpdatedAt,
		LastUpdatedBy: p.LastUpdatedBy,
	}
}

// ToPaymentResponses converts a slice of domain.Payment.
func ToPaymentResponses(ps []domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(ps))
	for i := range ps {
		out[i] = ToPaymentResponse(&ps[i])
	}
	return out
}

// AppliedResponse reports an invoice's state after an allocation change.
type AppliedResponse struct {
	InvoiceID   string               `json:"invoiceID"`
	Amount      decimal.Decimal      `json:"amount"`
	AmountPaid  decimal.Decimal      `json:"amountPaid"`
	AmountDue   decimal.Decimal      `json:"amountDue"`
	Status      domain.InvoiceStatus `json:"status"`
	AgingBucket domain.AgingBucket   `json:"agingBucket"`
}

// AllocationResultResponse is returned by allocate and deallocate.
type AllocationResultResponse struct {
	PaymentID      string            `json:"paymentID"`
	PaymentVersion int64             `json:"paymentVersion"`
	Currency       string            `json:"currency"`
	Applied        []AppliedResponse `json:"applied"`
	TotalAllocated decimal.Decimal   `json:"totalAllocated"`
	Unallocated    decimal.Decimal   `json:"unallocated"`
}

func toAppliedResponses(applied []domain.AppliedAllocation) []AppliedResponse {
	out := make([]AppliedResponse, len(applied))
	for i, a := range applied {
		out[i] = AppliedResponse{
			InvoiceID:   a.InvoiceID,
			Amount:      a.Amount.Amount,
			AmountPaid:  a.AmountPaid.Amount,
			AmountDue:   a.AmountDue.Amount,
			Status:      a.Status,
			AgingBucket: a.AgingBucket,
		}
	}
	return out
}

// ToAllocationResultResponse converts a domain.AllocationResult.
func ToAllocationResultResponse(r *domain.AllocationResult) AllocationResultResponse {
	return AllocationResultResponse{
		PaymentID:      r.PaymentID,
		PaymentVersion: r.PaymentVersion,
		Currency:       r.TotalAllocated.Currency,
		Applied:        toAppliedResponses(r.Applied),
		TotalAllocated: r.TotalAllocated.Amount,
		Unallocated:    r.Unallocated.Amount,
	}
}

// ToCreatePaymentResponse adds the effect of any allocations applied at creation.
func ToCreatePaymentResponse(p *domain.Payment, applied []domain.AppliedAllocation) PaymentResponse {
	resp := ToPaymentResponse(p)
	if len(applied) > 0 {
		resp.AppliedResults = toAppliedResponses(applied)
	}
	return resp
}

// SuggestionResponse is one clamped allocation proposal.
type SuggestionResponse struct {
	InvoiceID     string          `json:"invoiceID"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Requested     decimal.Decimal `json:"requested"`
	Suggested     decimal.Decimal `json:"suggested"`
	AmountDue     decimal.Decimal `json:"amountDue"`
	Clamped       bool            `json:"clamped"`
}

// SuggestAllocationsResponse lists proposals; nothing is committed.
type SuggestAllocationsResponse struct {
	PaymentID   string               `json:"paymentID"`
	Currency    string               `json:"currency"`
	Unallocated decimal.Decimal      `json:"unallocated"`
	Suggestions []SuggestionResponse `json:"suggestions"`
}

// ToSuggestAllocationsResponse converts suggestions for payment p.
func ToSuggestAllocationsResponse(p *domain.Payment, suggestions []domain.AllocationSuggestion) SuggestAllocationsResponse {
	out := SuggestAllocationsResponse{
		PaymentID:   p.PaymentID,
		Currency:    p.Amount.Currency,
		Unallocated: p.Unallocated().Amount,
		Suggestions: make([]SuggestionResponse, len(suggestions)),
	}
	for i, s := range suggestions {
		out.Suggestions[i] = SuggestionResponse{
			InvoiceID:     s.InvoiceID,
			InvoiceNumber: s.InvoiceNumber,
			Requested:     s.Requested.Amount,
			Suggested:     s.Suggested.Amount,
			AmountDue:     s.AmountDue.Amount,
			Clamped:       s.Clamped,
		}
	}
	return out
}
