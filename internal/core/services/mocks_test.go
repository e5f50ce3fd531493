package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/settlement_engine/internal/adapters/memory"
	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/core/services"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/platform/clock"
	"github.com/SscSPs/settlement_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockLedgerLocker struct {
	mock.Mock
}

func (m *MockLedgerLocker) Acquire(ctx context.Context, entityID string) (func(), error) {
	args := m.Called(ctx, entityID)
	release, _ := args.Get(0).(func())
	return release, args.Error(1)
}

type MockInvoiceReader struct {
	mock.Mock
}

func (m *MockInvoiceReader) FindInvoiceByID(ctx context.Context, entityID, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, entityID, invoiceID)
	inv, _ := args.Get(0).(*domain.Invoice)
	return inv, args.Error(1)
}

func (m *MockInvoiceReader) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, filter)
	invs, _ := args.Get(0).([]domain.Invoice)
	return invs, args.Int(1), args.Error(2)
}

func (m *MockInvoiceReader) ListInvoicesForEntities(ctx context.Context, entityIDs []string) ([]domain.Invoice, error) {
	args := m.Called(ctx, entityIDs)
	invs, _ := args.Get(0).([]domain.Invoice)
	return invs, args.Error(1)
}

type InvoiceServiceMockTestSuite struct {
	suite.Suite
	ctx         context.Context
	store       *memory.Store
	locker      *MockLedgerLocker
	invoiceRepo *MockInvoiceReader
}

func TestInvoiceServiceMockTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceMockTestSuite))
}

func (s *InvoiceServiceMockTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.locker = new(MockLedgerLocker)
	s.invoiceRepo = new(MockInvoiceReader)
}

func (s *InvoiceServiceMockTestSuite) TearDownTest() {
	s.locker.AssertExpectations(s.T())
	s.invoiceRepo.AssertExpectations(s.T())
}

func (s *InvoiceServiceMockTestSuite) service(opts ...services.ServiceOption) portssvc.InvoiceSvcFacade {
	opts = append(opts, services.WithClock(clock.NewFakeClock(today)), services.WithLedgerLocker(s.locker))
	return services.NewInvoiceService(s.store, s.invoiceRepo, s.store, opts...)
}

func (s *InvoiceServiceMockTestSuite) TestListInvoices_TranslatesPaging() {
	s.invoiceRepo.On("ListInvoices", mock.Anything, mock.MatchedBy(func(f domain.InvoiceFilter) bool {
		return f.EntityID == entityID && f.Limit == 10 && f.Offset == 10 && f.Search == "globex" && f.Status == domain.InvoiceOverdue
	})).Return([]domain.Invoice{{InvoiceID: "inv_9", EntityID: entityID, Currency: "INR"}}, 11, nil).Once()

	resp, err := s.service(services.WithPageSizes(10, 50)).ListInvoices(s.ctx, entityID, dto.ListInvoicesParams{
		Params: pagination.Params{Page: 2},
		Status: domain.InvoiceOverdue,
		Search: "  globex ",
	})
	s.Require().NoError(err)
	s.Len(resp.Data, 1)
	s.Equal(2, resp.Pagination.TotalPages)
	s.True(resp.Pagination.HasPrev)
	s.False(resp.Pagination.HasNext)
}

func (s *InvoiceServiceMockTestSuite) TestListInvoices_RepositoryError() {
	s.invoiceRepo.On("ListInvoices", mock.Anything, mock.Anything).Return(nil, 0, errors.New("db down")).Once()

	_, err := s.service().ListInvoices(s.ctx, entityID, dto.ListInvoicesParams{})
	s.ErrorContains(err, "db down")
}

func (s *InvoiceServiceMockTestSuite) TestCreateInvoice_LockUnavailable() {
	s.locker.On("Acquire", mock.Anything, entityID).
		Return(nil, apperrors.ErrConcurrencyConflict).Once()

	_, err := s.service().CreateInvoice(s.ctx, entityID, dto.CreateInvoiceRequest{
		InvoiceType: domain.InvoiceSales,
		PartyID:     customerID,
		InvoiceDate: today,
		LineItems:   []dto.LineItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(10)}},
	}, userID)
	s.ErrorIs(err, apperrors.ErrConcurrencyConflict)
}

func (s *InvoiceServiceMockTestSuite) TestCreateInvoice_ReleasesLock() {
	s.Require().NoError(s.store.SaveEntity(s.ctx, domain.Entity{EntityID: entityID, Name: "Acme", BaseCurrency: "INR", IsActive: true}))
	customer, err := domain.NewCustomer(entityID, "Globex", "INR").WithID(customerID).Build()
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveParty(s.ctx, customer))

	released := 0
	s.locker.On("Acquire", mock.Anything, entityID).
		Return(func() { released++ }, nil).Once()

	inv, err := s.service().CreateInvoice(s.ctx, entityID, dto.CreateInvoiceRequest{
		InvoiceType: domain.InvoiceSales,
		PartyID:     customerID,
		InvoiceDate: today,
		DueDate:     func() *time.Time { d := today.AddDate(0, 0, 7); return &d }(),
		LineItems:   []dto.LineItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(10)}},
	}, userID)
	s.Require().NoError(err)
	s.Equal(domain.DateOnly(today.AddDate(0, 0, 7)), inv.DueDate)
	s.Equal(1, released)
}
