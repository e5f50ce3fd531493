package services_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/SscSPs/settlement_engine/internal/adapters/lock"
	"github.com/SscSPs/settlement_engine/internal/adapters/memory"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/core/services"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/platform/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	entityID   = "ent_1"
	customerID = "cust_1"
	vendorID   = "vend_1"
	accountID  = "bank_1"
	userID     = "user_1"
)

var today = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

// serviceSuite wires the real services over the in-memory store with a fake clock.
type serviceSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	clock *clock.FakeClock
	svc   *portssvc.ServiceContainer
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.clock = clock.NewFakeClock(today)

	var seq atomic.Int64
	s.svc = services.NewServiceContainer(*s.store.Provider(),
		services.WithClock(s.clock),
		services.WithIDGenerator(func() string { return fmt.Sprintf("id_%03d", seq.Add(1)) }),
		services.WithLedgerLocker(lock.NewLocalLocker()),
	)

	s.Require().NoError(s.store.SaveEntity(s.ctx, domain.Entity{EntityID: entityID, Name: "Acme Traders", BaseCurrency: "INR", IsActive: true}))

	customer, err := domain.NewCustomer(entityID, "Globex", "INR").
		WithID(customerID).
		WithCreditLimit(decimal.NewFromInt(5000)).
		WithTerms(domain.TermsNet30, 0).
		Build()
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveParty(s.ctx, customer))

	vendor, err := domain.NewVendor(entityID, "Initech", "INR").WithID(vendorID).Build()
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveParty(s.ctx, vendor))

	s.Require().NoError(s.store.SaveBankAccount(s.ctx, domain.BankAccount{
		BankAccountID:  accountID,
		EntityID:       entityID,
		Name:           "HDFC Current",
		AccountType:    domain.AccountCurrent,
		CurrentBalance: domain.MoneyFromInt(10000, "INR"),
		IsActive:       true,
	}))
}

func (s *serviceSuite) salesInvoice(rate int64, taxRate int64, finalize bool) *domain.Invoice {
	inv, err := s.svc.Invoice.CreateInvoice(s.ctx, entityID, dto.CreateInvoiceRequest{
		InvoiceType: domain.InvoiceSales,
		PartyID:     customerID,
		InvoiceDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		LineItems: []dto.LineItemRequest{{
			Description: "Consulting",
			Quantity:    decimal.NewFromInt(1),
			Rate:        decimal.NewFromInt(rate),
			TaxRate:     decimal.NewFromInt(taxRate),
		}},
		Finalize: finalize,
	}, userID)
	s.Require().NoError(err)
	return inv
}

func (s *serviceSuite) receivedPayment(amount int64) *domain.Payment {
	p, _, err := s.svc.Payment.CreatePayment(s.ctx, entityID, dto.CreatePaymentRequest{
		PaymentType:   domain.PaymentReceived,
		PartyID:       customerID,
		BankAccountID: accountID,
		PaymentDate:   today,
		Amount:        decimal.NewFromInt(amount),
		Method:        "neft",
	}, userID)
	s.Require().NoError(err)
	return p
}

func (s *serviceSuite) allocate(paymentID string, lines ...dto.AllocationLine) (*domain.AllocationResult, error) {
	return s.svc.Payment.Allocate(s.ctx, entityID, paymentID, dto.AllocationBatchRequest{Allocations: lines}, userID)
}

func (s *serviceSuite) outstanding(partyID string) string {
	p, err := s.store.FindPartyByID(s.ctx, entityID, partyID)
	s.Require().NoError(err)
	return fixed(p.CurrentOutstanding)
}

func line(invoiceID string, amount int64) dto.AllocationLine {
	return dto.AllocationLine{InvoiceID: invoiceID, Amount: decimal.NewFromInt(amount)}
}

func fixed(m domain.Money) string {
	return m.Amount.StringFixed(domain.MoneyScale)
}
