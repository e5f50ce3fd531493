package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/settlement_engine/internal/adapters/memory"
	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.Require().NoError(s.store.SaveEntity(s.ctx, domain.Entity{EntityID: "ent_1", Name: "Acme", BaseCurrency: "INR", IsActive: true}))
}

func (s *StoreTestSuite) insertInvoice(id string) {
	err := s.store.WithinLedgerTx(s.ctx, "ent_1", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		return tx.InsertInvoice(ctx, &domain.Invoice{
			InvoiceID:   id,
			EntityID:    "ent_1",
			InvoiceType: domain.InvoiceSales,
			CustomerID:  "cust_1",
			Currency:    "INR",
			InvoiceDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			TotalAmount: domain.MoneyFromInt(100, "INR"),
			AmountDue:   domain.MoneyFromInt(100, "INR"),
			Status:      domain.InvoicePending,
		})
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestCommitPublishesWrites() {
	s.insertInvoice("inv_1")

	inv, err := s.store.FindInvoiceByID(s.ctx, "ent_1", "inv_1")
	s.Require().NoError(err)
	s.Equal(int64(1), inv.Version)
}

func (s *StoreTestSuite) TestErrorRollsBack() {
	boom := errors.New("boom")
	err := s.store.WithinLedgerTx(s.ctx, "ent_1", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if err := tx.InsertInvoice(ctx, &domain.Invoice{InvoiceID: "inv_x", EntityID: "ent_1"}); err != nil {
			return err
		}
		if _, err := tx.NextInvoiceNumber(ctx, domain.InvoiceSales); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindInvoiceByID(s.ctx, "ent_1", "inv_x")
	s.ErrorIs(err, apperrors.ErrNotFound)

	// The sequence was not consumed either.
	err = s.store.WithinLedgerTx(s.ctx, "ent_1", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		n, err := tx.NextInvoiceNumber(ctx, domain.InvoiceSales)
		s.Equal("INV-000001", n)
		return err
	})
	s.NoError(err)
}

func (s *StoreTestSuite) TestStaleVersionConflicts() {
	s.insertInvoice("inv_1")

	err := s.store.WithinLedgerTx(s.ctx, "ent_1", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		invs, err := tx.FindInvoicesForUpdate(ctx, []string{"inv_1"})
		if err != nil {
			return err
		}
		stale := *invs["inv_1"]
		fresh := invs["inv_1"]
		fresh.Notes = "first"
		if err := tx.UpdateInvoice(ctx, fresh); err != nil {
			return err
		}
		stale.Notes = "second"
		return tx.UpdateInvoice(ctx, &stale)
	})
	s.ErrorIs(err, apperrors.ErrConcurrencyConflict)
	s.True(apperrors.IsRetryable(err))

	inv, err := s.store.FindInvoiceByID(s.ctx, "ent_1", "inv_1")
	s.Require().NoError(err)
	s.Empty(inv.Notes, "the whole unit of work was rolled back")
	s.Equal(int64(1), inv.Version)
}

func (s *StoreTestSuite) TestStagedWritesVisibleInsideTx() {
	s.insertInvoice("inv_1")

	err := s.store.WithinLedgerTx(s.ctx, "ent_1", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		invs, err := tx.FindInvoicesForUpdate(ctx, []string{"inv_1"})
		if err != nil {
			return err
		}
		inv := invs["inv_1"]
		inv.AmountPaid = domain.MoneyFromInt(40, "INR")
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		partyInvoices, err := tx.ListPartyInvoices(ctx, "cust_1")
		if err != nil {
			return err
		}
		s.Require().Len(partyInvoices, 1)
		s.True(partyInvoices[0].AmountPaid.Equal(domain.MoneyFromInt(40, "INR")))
		return nil
	})
	s.NoError(err)
}

func (s *StoreTestSuite) TestAllocationViewOnInvoice() {
	s.insertInvoice("inv_1")
	err := s.store.WithinLedgerTx(s.ctx, "ent_1", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		return tx.InsertPayment(ctx, &domain.Payment{
			PaymentID:   "pay_1",
			EntityID:    "ent_1",
			PaymentType: domain.PaymentReceived,
			Amount:      domain.MoneyFromInt(100, "INR"),
			Allocations: []domain.Allocation{{AllocationID: "a1", PaymentID: "pay_1", InvoiceID: "inv_1", Amount: domain.MoneyFromInt(30, "INR")}},
		})
	})
	s.Require().NoError(err)

	inv, err := s.store.FindInvoiceByID(s.ctx, "ent_1", "inv_1")
	s.Require().NoError(err)
	s.Require().Len(inv.Allocations, 1)
	s.Equal("pay_1", inv.Allocations[0].PaymentID)
}

func (s *StoreTestSuite) TestUnknownEntity() {
	err := s.store.WithinLedgerTx(s.ctx, "nope", func(ctx context.Context, tx portsrepo.LedgerTx) error { return nil })
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestEntityScopedReads() {
	s.insertInvoice("inv_1")
	_, err := s.store.FindInvoiceByID(s.ctx, "ent_2", "inv_1")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func TestListInvoices_FilterAndPage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveEntity(ctx, domain.Entity{EntityID: "ent_1"}))
	err := store.WithinLedgerTx(ctx, "ent_1", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		for i, st := range []domain.InvoiceStatus{domain.InvoicePending, domain.InvoiceOverdue, domain.InvoicePending, domain.InvoicePaid} {
			err := tx.InsertInvoice(ctx, &domain.Invoice{
				InvoiceID:     string(rune('a' + i)),
				InvoiceNumber: "INV-00000" + string(rune('1'+i)),
				EntityID:      "ent_1",
				InvoiceType:   domain.InvoiceSales,
				InvoiceDate:   time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
				Status:        st,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	got, total, err := store.ListInvoices(ctx, domain.InvoiceFilter{EntityID: "ent_1", Status: domain.InvoicePending})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].InvoiceID, "newest first")

	got, total, err = store.ListInvoices(ctx, domain.InvoiceFilter{EntityID: "ent_1", Limit: 3, Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, got, 1)

	got, _, err = store.ListInvoices(ctx, domain.InvoiceFilter{EntityID: "ent_1", Search: "inv-000002"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].InvoiceID)
}
