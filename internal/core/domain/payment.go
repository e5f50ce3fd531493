package domain

import "time"

// PaymentType is the direction of money movement.
type PaymentType string

const (
	PaymentReceived PaymentType = "received"
	PaymentMade     PaymentType = "made"
)

// MatchingInvoiceType is the only invoice type a payment of this type may settle.
func (t PaymentType) MatchingInvoiceType() InvoiceType {
	if t == PaymentMade {
		return InvoicePurchase
	}
	return InvoiceSales
}

// PaymentStatus tracks whether the payment itself is usable for allocation.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// AllowsAllocation reports whether allocations may be added or removed.
func (s PaymentStatus) AllowsAllocation() bool {
	return s == PaymentPending || s == PaymentCompleted
}

// Allocation links one payment to one invoice with a positive amount.
type Allocation struct {
	AllocationID string    `json:"allocationID"`
	PaymentID    string    `json:"paymentID"`
	InvoiceID    string    `json:"invoiceID"`
	Amount       Money     `json:"amount"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedBy    string    `json:"createdBy"`
}

// Payment is money received from a customer or paid to a vendor.
// Amount is immutable after creation.
type Payment struct {
	PaymentID     string        `json:"paymentID"`
	EntityID      string        `json:"entityID"`
	PaymentNumber string        `json:"paymentNumber"`
	PaymentType   PaymentType   `json:"paymentType"`
	CustomerID    string        `json:"customerID,omitempty"`
	VendorID      string        `json:"vendorID,omitempty"`
	BankAccountID string        `json:"bankAccountID,omitempty"`
	PaymentDate   time.Time     `json:"paymentDate"`
	Amount        Money         `json:"amount"`
	Method        string        `json:"method,omitempty"`
	Reference     string        `json:"reference,omitempty"`
	Status        PaymentStatus `json:"status"`
	Allocations   []Allocation  `json:"allocations"`
	Version       int64         `json:"version"`
	AuditFields
}

// PartyID returns whichever party reference the payment carries.
func (p Payment) PartyID() string {
	if p.PaymentType == PaymentMade {
		return p.VendorID
	}
	return p.CustomerID
}

// BalanceEffect is the movement a settled payment makes on its bank account: money in
// for received payments, money out for payments made.
func (p Payment) BalanceEffect() Money {
	if p.PaymentType == PaymentMade {
		return p.Amount.Neg()
	}
	return p.Amount
}

// AllocatedTotal is the sum of current allocations.
func (p Payment) AllocatedTotal() Money {
	total := ZeroMoney(p.Amount.Currency)
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// Unallocated is the remainder still available for allocation.
func (p Payment) Unallocated() Money {
	return p.Amount.Sub(p.AllocatedTotal())
}

// AllocationFor returns the index of the allocation against invoiceID, or -1.
func (p Payment) AllocationFor(invoiceID string) int {
	for i, a := range p.Allocations {
		if a.InvoiceID == invoiceID {
			return i
		}
	}
	return -1
}

// PaymentFilter selects payments for listing.
type PaymentFilter struct {
	EntityID    string
	PaymentType PaymentType
	Status      PaymentStatus
	PartyID     string
	Search      string
	Limit       int
	Offset      int
}

// AllocationRequest asks for amount of a payment to be applied to (or removed from) an invoice.
type AllocationRequest struct {
	InvoiceID string `json:"invoiceID"`
	Amount    Money  `json:"amount"`
}

// AppliedAllocation reports an invoice's state after an allocation change.
type AppliedAllocation struct {
	InvoiceID   string        `json:"invoiceID"`
	Amount      Money         `json:"amount"`
	AmountPaid  Money         `json:"amountPaid"`
	AmountDue   Money         `json:"amountDue"`
	Status      InvoiceStatus `json:"status"`
	AgingBucket AgingBucket   `json:"agingBucket"`
}

// AllocationResult is the outcome of a committed allocate or deallocate call.
type AllocationResult struct {
	PaymentID      string              `json:"paymentID"`
	PaymentVersion int64               `json:"paymentVersion"`
	Applied        []AppliedAllocation `json:"applied"`
	TotalAllocated Money               `json:"totalAllocated"`
	Unallocated    Money               `json:"unallocated"`
	PartyIDs       []string            `json:"partyIDs"`
}

// AllocationSuggestion is a clamped proposal produced in the selection phase. It is
// never committed on its own.
type AllocationSuggestion struct {
	InvoiceID     string `json:"invoiceID"`
	InvoiceNumber string `json:"invoiceNumber"`
	Requested     Money  `json:"requested"`
	Suggested     Money  `json:"suggested"`
	AmountDue     Money  `json:"amountDue"`
	Clamped       bool   `json:"clamped"`
}
