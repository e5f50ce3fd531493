package settlement_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

func inr(units int64) domain.Money { return domain.MoneyFromInt(units, "INR") }

func change() settlement.Change {
	n := 0
	return settlement.Change{
		UserID: "user_1",
		At:     today,
		NewID: func() string {
			n++
			return fmt.Sprintf("alloc_%d", n)
		},
	}
}

// salesInvoice builds a finalized sales invoice with one line of `base` at taxRate%.
func salesInvoice(t *testing.T, id string, base, taxRate int64, due time.Time) *domain.Invoice {
	t.Helper()
	inv := &domain.Invoice{
		InvoiceID:     id,
		EntityID:      "ent_1",
		InvoiceNumber: "INV-" + id,
		InvoiceType:   domain.InvoiceSales,
		CustomerID:    "cust_1",
		InvoiceDate:   today.AddDate(0, 0, -10),
		DueDate:       due,
		Currency:      "INR",
		LineItems: []domain.LineItem{{
			Description: "consulting",
			Quantity:    decimal.NewFromInt(1),
			Rate:        decimal.NewFromInt(base),
			TaxRate:     decimal.NewFromInt(taxRate),
		}},
	}
	_, err := settlement.ApplyTotals(inv)
	require.NoError(t, err)
	require.NoError(t, settlement.Finalize(inv, today))
	return inv
}

func receivedPayment(id string, amount int64) *domain.Payment {
	return &domain.Payment{
		PaymentID:     id,
		EntityID:      "ent_1",
		PaymentNumber: "PAY-" + id,
		PaymentType:   domain.PaymentReceived,
		CustomerID:    "cust_1",
		PaymentDate:   today,
		Amount:        inr(amount),
		Status:        domain.PaymentCompleted,
	}
}

func alloc(invoiceID string, amount int64) domain.AllocationRequest {
	return domain.AllocationRequest{InvoiceID: invoiceID, Amount: inr(amount)}
}

func index(invs ...*domain.Invoice) map[string]*domain.Invoice {
	m := make(map[string]*domain.Invoice, len(invs))
	for _, inv := range invs {
		m[inv.InvoiceID] = inv
	}
	return m
}
