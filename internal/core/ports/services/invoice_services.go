package services

import (
	"context"
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/dto"
)

// InvoiceReaderSvc defines read operations for invoices
type InvoiceReaderSvc interface {
	// GetInvoiceByID retrieves an invoice with its allocations.
	GetInvoiceByID(ctx context.Context, entityID string, invoiceID string) (*domain.Invoice, error)

	// ListInvoices retrieves one page of an entity's invoices.
	ListInvoices(ctx context.Context, entityID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error)
}

// InvoiceWriterSvc defines lifecycle operations for invoices
type InvoiceWriterSvc interface {
	// CreateInvoice computes totals server-side and stores the invoice as draft, or pending when finalized.
	CreateInvoice(ctx context.Context, entityID string, req dto.CreateInvoiceRequest, userID string) (*domain.Invoice, error)

	// UpdateInvoice edits an invoice that has no allocations and recomputes its totals.
	UpdateInvoice(ctx context.Context, entityID string, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error)

	// FinalizeInvoice moves a draft to pending.
	FinalizeInvoice(ctx context.Context, entityID string, invoiceID string, userID string) (*domain.Invoice, error)

	// CancelInvoice soft-cancels any invoice that is not paid.
	CancelInvoice(ctx context.Context, entityID string, invoiceID string, userID string) (*domain.Invoice, error)
}

// InvoiceMaintenanceSvc defines sweeps and reports over an entity's invoices
type InvoiceMaintenanceSvc interface {
	// RefreshStatuses recomputes stored status and aging for every open invoice as of asOf.
	RefreshStatuses(ctx context.Context, entityID string, asOf time.Time, userID string) (*dto.RefreshStatusesResponse, error)

	// AgingReport totals outstanding invoices per bucket and currency.
	AgingReport(ctx context.Context, entityID string, invoiceType domain.InvoiceType, asOf time.Time) ([]domain.AgingReport, error)
}

// InvoiceSvcFacade combines all invoice-related service interfaces
type InvoiceSvcFacade interface {
	InvoiceReaderSvc
	InvoiceWriterSvc
	InvoiceMaintenanceSvc
}
