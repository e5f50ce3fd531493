package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/models"
)

// ToModelInvoice converts a domain Invoice to a model Invoice. The allocation view is
// not part of the row.
func ToModelInvoice(d domain.Invoice) (models.Invoice, error) {
	items := d.LineItems
	if items == nil {
		items = []domain.LineItem{}
	}
	lineItems, err := json.Marshal(items)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("encode line items of invoice %s: %w", d.InvoiceID, err)
	}
	return models.Invoice{
		InvoiceID:     d.InvoiceID,
		EntityID:      d.EntityID,
		InvoiceNumber: d.InvoiceNumber,
		InvoiceType:   string(d.InvoiceType),
		CustomerID:    nullable(d.CustomerID),
		VendorID:      nullable(d.VendorID),
		InvoiceDate:   d.InvoiceDate,
		DueDate:       d.DueDate,
		Currency:      d.Currency,
		LineItems:     lineItems,
		GSTType:       string(d.GSTType),
		CGST:          d.CGST.Amount,
		SGST:          d.SGST.Amount,
		IGST:          d.IGST.Amount,
		TDSAmount:     d.TDSAmount.Amount,
		RoundOff:      d.RoundOff.Amount,
		Subtotal:      d.Subtotal.Amount,
		TaxTotal:      d.TaxTotal.Amount,
		TotalAmount:   d.TotalAmount.Amount,
		AmountPaid:    d.AmountPaid.Amount,
		AmountDue:     d.AmountDue.Amount,
		Status:        string(d.Status),
		AgingBucket:   string(d.AgingBucket),
		DaysOverdue:   d.DaysOverdue,
		Notes:         d.Notes,
		FinalizedAt:   d.FinalizedAt,
		CancelledAt:   d.CancelledAt,
		Version:       d.Version,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainInvoice converts a model Invoice to a domain Invoice
func ToDomainInvoice(m models.Invoice) (domain.Invoice, error) {
	var items []domain.LineItem
	if err := json.Unmarshal(m.LineItems, &items); err != nil {
		return domain.Invoice{}, fmt.Errorf("decode line items of invoice %s: %w", m.InvoiceID, err)
	}
	c := m.Currency
	return domain.Invoice{
		InvoiceID:     m.InvoiceID,
		EntityID:      m.EntityID,
		InvoiceNumber: m.InvoiceNumber,
		InvoiceType:   domain.InvoiceType(m.InvoiceType),
		CustomerID:    deref(m.CustomerID),
		VendorID:      deref(m.VendorID),
		InvoiceDate:   domain.DateOnly(m.InvoiceDate),
		DueDate:       domain.DateOnly(m.DueDate),
		Currency:      c,
		LineItems:     items,
		GSTType:       domain.GSTType(m.GSTType),
		CGST:          domain.NewMoney(m.CGST, c),
		SGST:          domain.NewMoney(m.SGST, c),
		IGST:          domain.NewMoney(m.IGST, c),
		TDSAmount:     domain.NewMoney(m.TDSAmount, c),
		RoundOff:      domain.NewMoney(m.RoundOff, c),
		Subtotal:      domain.NewMoney(m.Subtotal, c),
		TaxTotal:      domain.NewMoney(m.TaxTotal, c),
		TotalAmount:   domain.NewMoney(m.TotalAmount, c),
		AmountPaid:    domain.NewMoney(m.AmountPaid, c),
		AmountDue:     domain.NewMoney(m.AmountDue, c),
		Status:        domain.InvoiceStatus(m.Status),
		AgingBucket:   domain.AgingBucket(m.AgingBucket),
		DaysOverdue:   m.DaysOverdue,
		Notes:         m.Notes,
		FinalizedAt:   m.FinalizedAt,
		CancelledAt:   m.CancelledAt,
		Version:       m.Version,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}, nil
}

// ToDomainInvoiceSlice converts a slice of model Invoices to a slice of domain Invoices
func ToDomainInvoiceSlice(ms []models.Invoice) ([]domain.Invoice, error) {
	ds := make([]domain.Invoice, len(ms))
	for i, m := range ms {
		d, err := ToDomainInvoice(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
