package handlers_test

import (
	"context"
	"io"
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock InvoiceService ---
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) GetInvoiceByID(ctx context.Context, entityID string, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, entityID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) ListInvoices(ctx context.Context, entityID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error) {
	args := m.Called(ctx, entityID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListInvoicesResponse), args.Error(1)
}

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, entityID string, req dto.CreateInvoiceRequest, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, entityID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) UpdateInvoice(ctx context.Context, entityID string, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, entityID, invoiceID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) FinalizeInvoice(ctx context.Context, entityID string, invoiceID string, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, entityID, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) CancelInvoice(ctx context.Context, entityID string, invoiceID string, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, entityID, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) RefreshStatuses(ctx context.Context, entityID string, asOf time.Time, userID string) (*dto.RefreshStatusesResponse, error) {
	args := m.Called(ctx, entityID, asOf, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RefreshStatusesResponse), args.Error(1)
}

func (m *MockInvoiceService) AgingReport(ctx context.Context, entityID string, invoiceType domain.InvoiceType, asOf time.Time) ([]domain.AgingReport, error) {
	args := m.Called(ctx, entityID, invoiceType, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AgingReport), args.Error(1)
}

var _ portssvc.InvoiceSvcFacade = (*MockInvoiceService)(nil)

// --- Mock PaymentService ---
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) GetPaymentByID(ctx context.Context, entityID string, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, entityID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, entityID string, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error) {
	args := m.Called(ctx, entityID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListPaymentsResponse), args.Error(1)
}

func (m *MockPaymentService) SuggestAllocations(ctx context.Context, entityID string, paymentID string, req dto.SuggestAllocationsRequest) (*dto.SuggestAllocationsResponse, error) {
	args := m.Called(ctx, entityID, paymentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SuggestAllocationsResponse), args.Error(1)
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, entityID string, req dto.CreatePaymentRequest, userID string) (*domain.Payment, []domain.AppliedAllocation, error) {
	args := m.Called(ctx, entityID, req, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	applied, _ := args.Get(1).([]domain.AppliedAllocation)
	return args.Get(0).(*domain.Payment), applied, args.Error(2)
}

func (m *MockPaymentService) CancelPayment(ctx context.Context, entityID string, paymentID string, userID string) (*domain.Payment, error) {
	args := m.Called(ctx, entityID, paymentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) Allocate(ctx context.Context, entityID string, paymentID string, req dto.AllocationBatchRequest, userID string) (*domain.AllocationResult, error) {
	args := m.Called(ctx, entityID, paymentID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationResult), args.Error(1)
}

func (m *MockPaymentService) Deallocate(ctx context.Context, entityID string, paymentID string, req dto.AllocationBatchRequest, userID string) (*domain.AllocationResult, error) {
	args := m.Called(ctx, entityID, paymentID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationResult), args.Error(1)
}

var _ portssvc.PaymentSvcFacade = (*MockPaymentService)(nil)

// --- Mock TransactionService ---
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) CreateTransaction(ctx context.Context, entityID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, entityID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionService) GetTransactionByID(ctx context.Context, entityID string, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, entityID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionService) UpdateTransactionStatuses(ctx context.Context, entityID string, req dto.BulkTransactionStatusRequest, userID string) ([]domain.StatusUpdateOutcome, error) {
	args := m.Called(ctx, entityID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusUpdateOutcome), args.Error(1)
}

var _ portssvc.TransactionSvc = (*MockTransactionService)(nil)

// --- Mock ImportService ---
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) PreviewTransactions(ctx context.Context, entityID string, r io.Reader, userID string) (*dto.ImportPreviewResponse, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, entityID, string(body), userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ImportPreviewResponse), args.Error(1)
}

func (m *MockImportService) CommitTransactions(ctx context.Context, entityID string, reference string, userID string) (*domain.ImportResult, error) {
	args := m.Called(ctx, entityID, reference, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportResult), args.Error(1)
}

var _ portssvc.ImportSvc = (*MockImportService)(nil)

// --- Mock ReportingService ---
type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) GetCreditExposure(ctx context.Context, entityID string, partyID string) (*domain.CreditExposure, error) {
	args := m.Called(ctx, entityID, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditExposure), args.Error(1)
}

func (m *MockReportingService) GetDashboard(ctx context.Context, identity domain.Identity, q dto.DashboardQuery) (*domain.Dashboard, error) {
	args := m.Called(ctx, identity, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

var _ portssvc.ReportingSvc = (*MockReportingService)(nil)

// --- Mock DirectoryService ---
type MockDirectoryService struct {
	mock.Mock
}

func (m *MockDirectoryService) GetEntity(ctx context.Context, entityID string) (*domain.Entity, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

func (m *MockDirectoryService) GetParty(ctx context.Context, entityID string, partyID string) (*domain.Party, error) {
	args := m.Called(ctx, entityID, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Party), args.Error(1)
}

func (m *MockDirectoryService) GetBankAccount(ctx context.Context, entityID string, bankAccountID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, entityID, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockDirectoryService) CreateEntity(ctx context.Context, req dto.CreateEntityRequest, userID string) (*domain.Entity, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

func (m *MockDirectoryService) CreateParty(ctx context.Context, entityID string, req dto.CreatePartyRequest, userID string) (*domain.Party, error) {
	args := m.Called(ctx, entityID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Party), args.Error(1)
}

func (m *MockDirectoryService) CreateBankAccount(ctx context.Context, entityID string, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, entityID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

var _ portssvc.DirectorySvcFacade = (*MockDirectoryService)(nil)

// --- Mock HealthChecker ---
type MockHealth struct {
	mock.Mock
}

func (m *MockHealth) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
