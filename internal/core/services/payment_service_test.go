package services_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	serviceSuite
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

func (s *PaymentServiceTestSuite) TestCreatePayment_Defaults() {
	p := s.receivedPayment(1000)

	s.Equal("RCPT-000001", p.PaymentNumber)
	s.Equal(domain.PaymentCompleted, p.Status)
	s.Equal("INR", p.Amount.Currency)
	s.Equal("1000.00", fixed(p.Unallocated()))
	s.Equal(int64(1), p.Version)

	account, err := s.store.FindBankAccountByID(s.ctx, entityID, accountID)
	s.Require().NoError(err)
	s.Equal("11000.00", fixed(account.CurrentBalance), "a completed receipt credits its bank account")
}

func (s *PaymentServiceTestSuite) bankBalance() string {
	account, err := s.store.FindBankAccountByID(s.ctx, entityID, accountID)
	s.Require().NoError(err)
	return fixed(account.CurrentBalance)
}

func (s *PaymentServiceTestSuite) TestPayments_MoveBankBalance() {
	received := s.receivedPayment(1000)
	s.Equal("11000.00", s.bankBalance())

	made, _, err := s.svc.Payment.CreatePayment(s.ctx, entityID, dto.CreatePaymentRequest{
		PaymentType:   domain.PaymentMade,
		PartyID:       vendorID,
		BankAccountID: accountID,
		PaymentDate:   today,
		Amount:        decimal.NewFromInt(300),
	}, userID)
	s.Require().NoError(err)
	s.Equal("10700.00", s.bankBalance(), "a payment made debits its bank account")

	_, _, err = s.svc.Payment.CreatePayment(s.ctx, entityID, dto.CreatePaymentRequest{
		PaymentType:   domain.PaymentReceived,
		PartyID:       customerID,
		BankAccountID: accountID,
		PaymentDate:   today,
		Amount:        decimal.NewFromInt(250),
		Status:        domain.PaymentPending,
	}, userID)
	s.Require().NoError(err)
	s.Equal("10700.00", s.bankBalance(), "pending payments do not move the balance")

	_, err = s.svc.Payment.CancelPayment(s.ctx, entityID, received.PaymentID, userID)
	s.Require().NoError(err)
	s.Equal("9700.00", s.bankBalance())

	_, err = s.svc.Payment.CancelPayment(s.ctx, entityID, made.PaymentID, userID)
	s.Require().NoError(err)
	s.Equal("10000.00", s.bankBalance(), "cancelling reverses the original movement")
}

func (s *PaymentServiceTestSuite) TestCreatePayment_Rejects() {
	tests := []struct {
		name string
		req  dto.CreatePaymentRequest
		want error
	}{
		{"received from vendor", dto.CreatePaymentRequest{PaymentType: domain.PaymentReceived, PartyID: vendorID, PaymentDate: today, Amount: decimal.NewFromInt(10)}, apperrors.ErrValidation},
		{"non-positive amount", dto.CreatePaymentRequest{PaymentType: domain.PaymentReceived, PartyID: customerID, PaymentDate: today}, apperrors.ErrValidation},
		{"foreign currency", dto.CreatePaymentRequest{PaymentType: domain.PaymentReceived, PartyID: customerID, PaymentDate: today, Amount: decimal.NewFromInt(10), Currency: "EUR"}, apperrors.ErrValidation},
		{"unknown bank account", dto.CreatePaymentRequest{PaymentType: domain.PaymentReceived, PartyID: customerID, PaymentDate: today, Amount: decimal.NewFromInt(10), BankAccountID: "nope"}, apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, _, err := s.svc.Payment.CreatePayment(s.ctx, entityID, tt.req, userID)
			s.ErrorIs(err, tt.want)
		})
	}
}

func (s *PaymentServiceTestSuite) TestCreatePayment_WithAllocations() {
	inv := s.salesInvoice(1000, 18, true)

	p, applied, err := s.svc.Payment.CreatePayment(s.ctx, entityID, dto.CreatePaymentRequest{
		PaymentType: domain.PaymentReceived,
		PartyID:     customerID,
		PaymentDate: today,
		Amount:      decimal.NewFromInt(1500),
		Allocations: []dto.AllocationLine{line(inv.InvoiceID, 1180)},
	}, userID)
	s.Require().NoError(err)
	s.Require().Len(applied, 1)
	s.Equal(domain.InvoicePaid, applied[0].Status)
	s.Equal("320.00", fixed(p.Unallocated()))
	s.Equal("0.00", s.outstanding(customerID))
}

func (s *PaymentServiceTestSuite) TestCreatePayment_AllocationFailureStoresNothing() {
	inv := s.salesInvoice(1000, 0, true)

	_, _, err := s.svc.Payment.CreatePayment(s.ctx, entityID, dto.CreatePaymentRequest{
		PaymentType: domain.PaymentReceived,
		PartyID:     customerID,
		PaymentDate: today,
		Amount:      decimal.NewFromInt(500),
		Allocations: []dto.AllocationLine{line(inv.InvoiceID, 600)},
	}, userID)
	s.ErrorIs(err, apperrors.ErrConservationViolation)

	list, err := s.svc.Payment.ListPayments(s.ctx, entityID, dto.ListPaymentsParams{})
	s.Require().NoError(err)
	s.Empty(list.Data)
}

func (s *PaymentServiceTestSuite) TestAllocateDeallocate_RoundTrip() {
	inv1 := s.salesInvoice(1000, 0, true)
	inv2 := s.salesInvoice(500, 0, true)
	p := s.receivedPayment(1200)

	result, err := s.allocate(p.PaymentID, line(inv1.InvoiceID, 1000), line(inv2.InvoiceID, 200))
	s.Require().NoError(err)
	s.Equal("1200.00", fixed(result.TotalAllocated))
	s.Equal("0.00", fixed(result.Unallocated))
	s.Equal(int64(2), result.PaymentVersion)
	s.Equal("300.00", s.outstanding(customerID))

	stored1, err := s.svc.Invoice.GetInvoiceByID(s.ctx, entityID, inv1.InvoiceID)
	s.Require().NoError(err)
	s.Equal(domain.InvoicePaid, stored1.Status)
	stored2, err := s.svc.Invoice.GetInvoiceByID(s.ctx, entityID, inv2.InvoiceID)
	s.Require().NoError(err)
	s.Equal(domain.InvoicePartiallyPaid, stored2.Status)
	s.Equal("300.00", fixed(stored2.AmountDue))

	back, err := s.svc.Payment.Deallocate(s.ctx, entityID, p.PaymentID, dto.AllocationBatchRequest{
		Allocations: []dto.AllocationLine{line(inv1.InvoiceID, 1000), line(inv2.InvoiceID, 200)},
	}, userID)
	s.Require().NoError(err)
	s.Equal("0.00", fixed(back.TotalAllocated))
	s.Equal("1200.00", fixed(back.Unallocated))
	s.Equal("1500.00", s.outstanding(customerID))

	stored1, err = s.svc.Invoice.GetInvoiceByID(s.ctx, entityID, inv1.InvoiceID)
	s.Require().NoError(err)
	s.Equal(domain.InvoicePending, stored1.Status)
	s.True(stored1.AmountPaid.IsZero())
}

func (s *PaymentServiceTestSuite) TestAllocate_ConservationIsAllOrNothing() {
	inv1 := s.salesInvoice(1000, 0, true)
	inv2 := s.salesInvoice(500, 0, true)
	p := s.receivedPayment(800)

	_, err := s.allocate(p.PaymentID, line(inv1.InvoiceID, 600), line(inv2.InvoiceID, 300))
	s.ErrorIs(err, apperrors.ErrConservationViolation)
	var ce *apperrors.ConservationError
	s.Require().True(errors.As(err, &ce))
	s.Equal("100.00", ce.Overshoot.StringFixed(2))

	_, err = s.allocate(p.PaymentID, line(inv2.InvoiceID, 501))
	s.ErrorIs(err, apperrors.ErrConservationViolation)

	stored, err := s.svc.Payment.GetPaymentByID(s.ctx, entityID, p.PaymentID)
	s.Require().NoError(err)
	s.Empty(stored.Allocations)
	s.Equal(int64(1), stored.Version, "a rejected batch writes nothing")
	s.Equal("1500.00", s.outstanding(customerID))
}

func (s *PaymentServiceTestSuite) TestAllocate_RejectsForeignParty() {
	bill, err := s.svc.Invoice.CreateInvoice(s.ctx, entityID, dto.CreateInvoiceRequest{
		InvoiceType: domain.InvoicePurchase,
		PartyID:     vendorID,
		InvoiceDate: today,
		LineItems:   []dto.LineItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100)}},
		Finalize:    true,
	}, userID)
	s.Require().NoError(err)
	p := s.receivedPayment(100)

	_, err = s.allocate(p.PaymentID, line(bill.InvoiceID, 100))
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.allocate(p.PaymentID, line("missing", 10))
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *PaymentServiceTestSuite) TestAllocate_ExpectedVersion() {
	inv := s.salesInvoice(1000, 0, true)
	p := s.receivedPayment(500)

	stale := p.Version + 1
	_, err := s.svc.Payment.Allocate(s.ctx, entityID, p.PaymentID, dto.AllocationBatchRequest{
		Allocations:     []dto.AllocationLine{line(inv.InvoiceID, 100)},
		ExpectedVersion: &stale,
	}, userID)
	s.ErrorIs(err, apperrors.ErrConcurrencyConflict)
	s.True(apperrors.IsRetryable(err))

	_, err = s.svc.Payment.Allocate(s.ctx, entityID, p.PaymentID, dto.AllocationBatchRequest{
		Allocations:     []dto.AllocationLine{line(inv.InvoiceID, 100)},
		ExpectedVersion: &p.Version,
	}, userID)
	s.NoError(err)
}

func (s *PaymentServiceTestSuite) TestAllocate_ConcurrentBatchesNeverOverAllocate() {
	inv1 := s.salesInvoice(1000, 0, true)
	inv2 := s.salesInvoice(1000, 0, true)
	p := s.receivedPayment(1000)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for _, id := range []string{inv1.InvoiceID, inv2.InvoiceID, inv1.InvoiceID, inv2.InvoiceID} {
		wg.Add(1)
		go func(invoiceID string) {
			defer wg.Done()
			_, err := s.allocate(p.PaymentID, line(invoiceID, 700))
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			s.ErrorIs(err, apperrors.ErrConservationViolation)
		}(id)
	}
	wg.Wait()

	s.Equal(1, accepted)
	stored, err := s.svc.Payment.GetPaymentByID(s.ctx, entityID, p.PaymentID)
	s.Require().NoError(err)
	s.Equal("700.00", fixed(stored.AllocatedTotal()))
	s.Equal("1300.00", s.outstanding(customerID))
}

func (s *PaymentServiceTestSuite) TestSuggestAllocations() {
	older := s.salesInvoice(300, 0, true)
	newer := s.salesInvoice(900, 0, true)
	p := s.receivedPayment(1000)

	resp, err := s.svc.Payment.SuggestAllocations(s.ctx, entityID, p.PaymentID, dto.SuggestAllocationsRequest{})
	s.Require().NoError(err)
	s.Require().Len(resp.Suggestions, 2)

	var total decimal.Decimal
	for _, sug := range resp.Suggestions {
		total = total.Add(sug.Suggested)
		s.True(sug.Suggested.LessThanOrEqual(sug.AmountDue))
	}
	s.Equal("1000.00", total.StringFixed(2))

	clamped, err := s.svc.Payment.SuggestAllocations(s.ctx, entityID, p.PaymentID, dto.SuggestAllocationsRequest{
		Proposals: []dto.AllocationLine{line(older.InvoiceID, 500)},
	})
	s.Require().NoError(err)
	s.Require().Len(clamped.Suggestions, 1)
	s.Equal("300.00", clamped.Suggestions[0].Suggested.StringFixed(2))
	s.True(clamped.Suggestions[0].Clamped)

	stored, err := s.svc.Payment.GetPaymentByID(s.ctx, entityID, p.PaymentID)
	s.Require().NoError(err)
	s.Empty(stored.Allocations, "suggestions never commit")
	_ = newer
}

func (s *PaymentServiceTestSuite) TestCancelPayment() {
	inv := s.salesInvoice(1000, 0, true)
	p := s.receivedPayment(400)
	_, err := s.allocate(p.PaymentID, line(inv.InvoiceID, 400))
	s.Require().NoError(err)

	_, err = s.svc.Payment.CancelPayment(s.ctx, entityID, p.PaymentID, userID)
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition, "allocations must be reversed first")

	_, err = s.svc.Payment.Deallocate(s.ctx, entityID, p.PaymentID, dto.AllocationBatchRequest{Allocations: []dto.AllocationLine{line(inv.InvoiceID, 400)}}, userID)
	s.Require().NoError(err)

	cancelled, err := s.svc.Payment.CancelPayment(s.ctx, entityID, p.PaymentID, userID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentCancelled, cancelled.Status)

	_, err = s.svc.Payment.CancelPayment(s.ctx, entityID, p.PaymentID, userID)
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition)

	_, err = s.allocate(p.PaymentID, line(inv.InvoiceID, 10))
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition)

	_, err = s.svc.Payment.SuggestAllocations(s.ctx, entityID, p.PaymentID, dto.SuggestAllocationsRequest{})
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition)
}

func (s *PaymentServiceTestSuite) TestDeallocate_MoreThanAllocated() {
	inv := s.salesInvoice(1000, 0, true)
	p := s.receivedPayment(400)
	_, err := s.allocate(p.PaymentID, line(inv.InvoiceID, 300))
	s.Require().NoError(err)

	_, err = s.svc.Payment.Deallocate(s.ctx, entityID, p.PaymentID, dto.AllocationBatchRequest{Allocations: []dto.AllocationLine{line(inv.InvoiceID, 301)}}, userID)
	s.ErrorIs(err, apperrors.ErrConservationViolation)
}
