package services_test

import (
	"testing"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceTestSuite struct {
	serviceSuite
}

func TestInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}

func (s *InvoiceServiceTestSuite) TestCreateInvoice_ComputesTotalsAndDueDate() {
	inv := s.salesInvoice(1000, 18, false)

	s.Equal("INV-000001", inv.InvoiceNumber)
	s.Equal(domain.InvoiceDraft, inv.Status)
	s.Equal("1000.00", fixed(inv.Subtotal))
	s.Equal("180.00", fixed(inv.TaxTotal))
	s.Equal("1180.00", fixed(inv.TotalAmount))
	s.Equal("1180.00", fixed(inv.AmountDue))
	s.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), inv.DueDate)
	s.Equal(domain.AgingCurrent, inv.AgingBucket)
	s.Equal(int64(1), inv.Version)
	s.Equal("1180.00", s.outstanding(customerID))
}

func (s *InvoiceServiceTestSuite) TestCreateInvoice_DocumentGSTAndTDS() {
	inv, err := s.svc.Invoice.CreateInvoice(s.ctx, entityID, dto.CreateInvoiceRequest{
		InvoiceType: domain.InvoicePurchase,
		PartyID:     vendorID,
		InvoiceDate: today,
		LineItems:   []dto.LineItemRequest{{Description: "Paper", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(50)}},
		GSTType:     domain.GSTIntraState,
		CGST:        decimal.NewFromInt(45),
		SGST:        decimal.NewFromInt(45),
		TDSAmount:   decimal.NewFromInt(10),
		Finalize:    true,
	}, userID)
	s.Require().NoError(err)

	s.Equal("BILL-000001", inv.InvoiceNumber)
	s.Equal(domain.InvoicePending, inv.Status)
	s.Equal("580.00", fixed(inv.TotalAmount))
	s.Equal(inv.InvoiceDate, inv.DueDate, "vendor without terms is due immediately")
	s.Equal(vendorID, inv.PartyID())
}

func (s *InvoiceServiceTestSuite) TestCreateInvoice_Rejects() {
	base := dto.CreateInvoiceRequest{
		InvoiceType: domain.InvoiceSales,
		PartyID:     customerID,
		InvoiceDate: today,
		LineItems:   []dto.LineItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(10)}},
	}
	early := today.AddDate(0, 0, -1)

	tests := []struct {
		name  string
		tweak func(r *dto.CreateInvoiceRequest)
		want  error
	}{
		{"vendor cannot hold sales invoices", func(r *dto.CreateInvoiceRequest) { r.PartyID = vendorID }, apperrors.ErrValidation},
		{"unknown party", func(r *dto.CreateInvoiceRequest) { r.PartyID = "nobody" }, apperrors.ErrNotFound},
		{"currency mismatch", func(r *dto.CreateInvoiceRequest) { r.Currency = "USD" }, apperrors.ErrValidation},
		{"due before invoice date", func(r *dto.CreateInvoiceRequest) { r.DueDate = &early }, apperrors.ErrValidation},
		{"zero quantity", func(r *dto.CreateInvoiceRequest) {
			r.LineItems = []dto.LineItemRequest{{Description: "x", Rate: decimal.NewFromInt(10)}}
		}, apperrors.ErrValidation},
		{"igst with split gst", func(r *dto.CreateInvoiceRequest) {
			r.GSTType = domain.GSTInterState
			r.CGST = decimal.NewFromInt(5)
		}, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := base
			tt.tweak(&req)
			_, err := s.svc.Invoice.CreateInvoice(s.ctx, entityID, req, userID)
			s.ErrorIs(err, tt.want)
		})
	}
	s.Equal("0.00", s.outstanding(customerID), "rejected invoices leave no trace")
}

func (s *InvoiceServiceTestSuite) TestCreateInvoice_DuplicateNumber() {
	req := dto.CreateInvoiceRequest{
		InvoiceType:   domain.InvoiceSales,
		PartyID:       customerID,
		InvoiceNumber: "GLX-7",
		InvoiceDate:   today,
		LineItems:     []dto.LineItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(10)}},
	}
	_, err := s.svc.Invoice.CreateInvoice(s.ctx, entityID, req, userID)
	s.Require().NoError(err)

	req.InvoiceNumber = "glx-7"
	_, err = s.svc.Invoice.CreateInvoice(s.ctx, entityID, req, userID)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *InvoiceServiceTestSuite) TestFinalizeAndCancel() {
	inv := s.salesInvoice(500, 0, false)

	finalized, err := s.svc.Invoice.FinalizeInvoice(s.ctx, entityID, inv.InvoiceID, userID)
	s.Require().NoError(err)
	s.Equal(domain.InvoicePending, finalized.Status)
	s.NotNil(finalized.FinalizedAt)

	_, err = s.svc.Invoice.FinalizeInvoice(s.ctx, entityID, inv.InvoiceID, userID)
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition)

	cancelled, err := s.svc.Invoice.CancelInvoice(s.ctx, entityID, inv.InvoiceID, userID)
	s.Require().NoError(err)
	s.Equal(domain.InvoiceCancelled, cancelled.Status)
	s.Equal(domain.AgingNone, cancelled.AgingBucket)
	s.Equal("0.00", s.outstanding(customerID))

	_, err = s.svc.Invoice.CancelInvoice(s.ctx, entityID, inv.InvoiceID, userID)
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition)
}

func (s *InvoiceServiceTestSuite) TestCancelInvoice_PaidIsRejected() {
	inv := s.salesInvoice(500, 0, true)
	p := s.receivedPayment(500)
	_, err := s.allocate(p.PaymentID, line(inv.InvoiceID, 500))
	s.Require().NoError(err)

	_, err = s.svc.Invoice.CancelInvoice(s.ctx, entityID, inv.InvoiceID, userID)
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition)
}

func (s *InvoiceServiceTestSuite) TestUpdateInvoice() {
	inv := s.salesInvoice(1000, 18, true)
	notes := "revised"

	updated, err := s.svc.Invoice.UpdateInvoice(s.ctx, entityID, inv.InvoiceID, dto.UpdateInvoiceRequest{
		LineItems:       []dto.LineItemRequest{{Description: "Consulting", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(1000)}},
		Notes:           &notes,
		ExpectedVersion: &inv.Version,
	}, userID)
	s.Require().NoError(err)
	s.Equal("2000.00", fixed(updated.TotalAmount))
	s.Equal("revised", updated.Notes)
	s.Equal(inv.Version+1, updated.Version)
	s.Equal("2000.00", s.outstanding(customerID))

	stale := inv.Version
	_, err = s.svc.Invoice.UpdateInvoice(s.ctx, entityID, inv.InvoiceID, dto.UpdateInvoiceRequest{Notes: &notes, ExpectedVersion: &stale}, userID)
	s.ErrorIs(err, apperrors.ErrConcurrencyConflict)
}

func (s *InvoiceServiceTestSuite) TestUpdateInvoice_LockedOnceAllocated() {
	inv := s.salesInvoice(1000, 0, true)
	p := s.receivedPayment(300)
	_, err := s.allocate(p.PaymentID, line(inv.InvoiceID, 300))
	s.Require().NoError(err)

	notes := "too late"
	_, err = s.svc.Invoice.UpdateInvoice(s.ctx, entityID, inv.InvoiceID, dto.UpdateInvoiceRequest{Notes: &notes}, userID)
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition)
}

func (s *InvoiceServiceTestSuite) TestGetInvoice_OtherEntityIsHidden() {
	inv := s.salesInvoice(100, 0, false)

	_, err := s.svc.Invoice.GetInvoiceByID(s.ctx, "ent_other", inv.InvoiceID)
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.Invoice.FinalizeInvoice(s.ctx, "ent_other", inv.InvoiceID, userID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *InvoiceServiceTestSuite) TestListInvoices_FiltersAndPages() {
	for i := 0; i < 3; i++ {
		s.salesInvoice(100, 0, true)
	}
	s.salesInvoice(100, 0, false)

	resp, err := s.svc.Invoice.ListInvoices(s.ctx, entityID, dto.ListInvoicesParams{
		Params: pagination.Params{Page: 1, PageSize: 2},
		Status: domain.InvoicePending,
	})
	s.Require().NoError(err)
	s.Len(resp.Data, 2)
	s.Equal(2, resp.Pagination.TotalPages)
	s.True(resp.Pagination.HasNext)
	for _, inv := range resp.Data {
		s.Equal(domain.InvoicePending, inv.Status)
	}
}

func (s *InvoiceServiceTestSuite) TestRefreshStatuses_MarksOverdue() {
	open := s.salesInvoice(1000, 0, true)
	paid := s.salesInvoice(200, 0, true)
	p := s.receivedPayment(200)
	_, err := s.allocate(p.PaymentID, line(paid.InvoiceID, 200))
	s.Require().NoError(err)
	paidBefore, err := s.svc.Invoice.GetInvoiceByID(s.ctx, entityID, paid.InvoiceID)
	s.Require().NoError(err)

	s.clock.Advance(45 * 24 * time.Hour)
	resp, err := s.svc.Invoice.RefreshStatuses(s.ctx, entityID, time.Time{}, userID)
	s.Require().NoError(err)
	s.Equal(2, resp.Scanned)
	s.Require().Len(resp.Changed, 1)
	s.Equal(open.InvoiceID, resp.Changed[0].InvoiceID)
	s.Equal(domain.InvoicePending, resp.Changed[0].From)
	s.Equal(domain.InvoiceOverdue, resp.Changed[0].To)
	s.Equal(domain.Aging1To30, resp.Changed[0].AgingBucket)

	stored, err := s.svc.Invoice.GetInvoiceByID(s.ctx, entityID, open.InvoiceID)
	s.Require().NoError(err)
	s.Equal(domain.InvoiceOverdue, stored.Status)
	s.Equal(29, stored.DaysOverdue)

	paidAfter, err := s.svc.Invoice.GetInvoiceByID(s.ctx, entityID, paid.InvoiceID)
	s.Require().NoError(err)
	s.Equal(paidBefore.Version, paidAfter.Version, "settled invoices are not rewritten by the sweep")
	s.Zero(paidAfter.DaysOverdue)

	again, err := s.svc.Invoice.RefreshStatuses(s.ctx, entityID, time.Time{}, userID)
	s.Require().NoError(err)
	s.Empty(again.Changed, "a second sweep on the same day is a no-op")
}

func (s *InvoiceServiceTestSuite) TestAgingReport() {
	s.salesInvoice(1000, 0, true)
	s.salesInvoice(400, 0, true)

	asOf := time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)
	reports, err := s.svc.Invoice.AgingReport(s.ctx, entityID, "", asOf)
	s.Require().NoError(err)
	s.Require().Len(reports, 1)
	s.Equal("INR", reports[0].Currency)
	s.Equal("1400.00", fixed(reports[0].Total))

	var found bool
	for _, b := range reports[0].Buckets {
		if b.Bucket == domain.Aging31To60 {
			found = true
			s.Equal(2, b.InvoiceCount)
			s.Equal("1400.00", fixed(b.AmountDue))
		}
	}
	s.True(found, "45 days overdue lands in 31-60")

	_, err = s.svc.Invoice.AgingReport(s.ctx, "ent_missing", domain.InvoiceSales, asOf)
	s.ErrorIs(err, apperrors.ErrNotFound)
}
