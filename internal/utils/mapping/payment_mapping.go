package mapping

import (
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment. Allocations are mapped
// separately with ToModelAllocation.
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:     d.PaymentID,
		EntityID:      d.EntityID,
		PaymentNumber: d.PaymentNumber,
		PaymentType:   string(d.PaymentType),
		CustomerID:    nullable(d.CustomerID),
		VendorID:      nullable(d.VendorID),
		BankAccountID: nullable(d.BankAccountID),
		PaymentDate:   d.PaymentDate,
		Currency:      d.Amount.Currency,
		Amount:        d.Amount.Amount,
		Method:        d.Method,
		Reference:     d.Reference,
		Status:        string(d.Status),
		Version:       d.Version,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment and its allocation rows to a domain Payment
func ToDomainPayment(m models.Payment, allocations []models.Allocation) domain.Payment {
	return domain.Payment{
		PaymentID:     m.PaymentID,
		EntityID:      m.EntityID,
		PaymentNumber: m.PaymentNumber,
		PaymentType:   domain.PaymentType(m.PaymentType),
		CustomerID:    deref(m.CustomerID),
		VendorID:      deref(m.VendorID),
		BankAccountID: deref(m.BankAccountID),
		PaymentDate:   domain.DateOnly(m.PaymentDate),
		Amount:        domain.NewMoney(m.Amount, m.Currency),
		Method:        m.Method,
		Reference:     m.Reference,
		Status:        domain.PaymentStatus(m.Status),
		Allocations:   ToDomainAllocationSlice(allocations),
		Version:       m.Version,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelAllocation converts a domain Allocation to a model Allocation
func ToModelAllocation(d domain.Allocation) models.Allocation {
	return models.Allocation{
		AllocationID: d.AllocationID,
		PaymentID:    d.PaymentID,
		InvoiceID:    d.InvoiceID,
		Currency:     d.Amount.Currency,
		Amount:       d.Amount.Amount,
		CreatedAt:    d.CreatedAt,
		CreatedBy:    d.CreatedBy,
	}
}

// ToDomainAllocation converts a model Allocation to a domain Allocation
func ToDomainAllocation(m models.Allocation) domain.Allocation {
	return domain.Allocation{
		AllocationID: m.AllocationID,
		PaymentID:    m.PaymentID,
		InvoiceID:    m.InvoiceID,
		Amount:       domain.NewMoney(m.Amount, m.Currency),
		CreatedAt:    m.CreatedAt,
		CreatedBy:    m.CreatedBy,
	}
}

// ToDomainAllocationSlice converts allocation rows; an empty input yields an empty,
// non-nil slice.
func ToDomainAllocationSlice(ms []models.Allocation) []domain.Allocation {
	ds := make([]domain.Allocation, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAllocation(m)
	}
	return ds
}
