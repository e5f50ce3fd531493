package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/utils/pagination"
)

type paymentService struct {
	ledgerRunner
	paymentRepo portsrepo.PaymentReader
	invoiceRepo portsrepo.InvoiceReader
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// NewPaymentService creates the payment and allocation service.
func NewPaymentService(ledger portsrepo.LedgerRepository, payments portsrepo.PaymentReader, invoices portsrepo.InvoiceReader, opts ...ServiceOption) portssvc.PaymentSvcFacade {
	o := buildOptions(opts)
	return &paymentService{
		ledgerRunner: ledgerRunner{BaseService: o.base, ledger: ledger, locker: o.locker},
		paymentRepo:  payments,
		invoiceRepo:  invoices,
	}
}

func (s *paymentService) GetPaymentByID(ctx context.Context, entityID string, paymentID string) (*domain.Payment, error) {
	p, err := s.paymentRepo.FindPaymentByID(ctx, entityID, paymentID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to find payment", slog.String("payment_id", paymentID))
		return nil, err
	}
	return p, nil
}

func (s *paymentService) ListPayments(ctx context.Context, entityID string, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error) {
	p := s.page(params.Params)
	payments, total, err := s.paymentRepo.ListPayments(ctx, domain.PaymentFilter{
		EntityID:    entityID,
		PaymentType: params.PaymentType,
		Status:      params.Status,
		PartyID:     params.PartyID,
		Search:      strings.TrimSpace(params.Search),
		Limit:       p.PageSize,
		Offset:      p.Offset(),
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list payments", slog.String("entity_id", entityID))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return &dto.ListPaymentsResponse{
		Data:       dto.ToPaymentResponses(payments),
		Pagination: pagination.NewPage(p, total),
	}, nil
}

func (s *paymentService) CreatePayment(ctx context.Context, entityID string, req dto.CreatePaymentRequest, userID string) (*domain.Payment, []domain.AppliedAllocation, error) {
	now := s.now()
	var (
		created domain.Payment
		applied []domain.AppliedAllocation
	)

	err := s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		party, err := tx.FindPartyForUpdate(ctx, req.PartyID)
		if err != nil {
			return err
		}
		if party.MatchingInvoiceType() != req.PaymentType.MatchingInvoiceType() {
			return fmt.Errorf("%w: a %s payment cannot be recorded against %s %s", apperrors.ErrValidation, req.PaymentType, party.Kind, party.Name)
		}
		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = party.Currency()
		}
		if currency != party.Currency() {
			return fmt.Errorf("%w: payment currency %s does not match party currency %s", apperrors.ErrValidation, currency, party.Currency())
		}
		amount := domain.NewMoney(req.Amount, currency)
		if !amount.IsPositive() {
			return fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
		}
		var account *domain.BankAccount
		if req.BankAccountID != "" {
			if account, err = tx.FindBankAccountForUpdate(ctx, req.BankAccountID); err != nil {
				return err
			}
			if account.Currency() != currency {
				return fmt.Errorf("%w: bank account %s is in %s, payment is in %s", apperrors.ErrValidation, account.Name, account.Currency(), currency)
			}
		}

		status := req.Status
		if status == "" {
			status = domain.PaymentCompleted
		}
		p := domain.Payment{
			PaymentID:     s.NewID(),
			EntityID:      entityID,
			PaymentType:   req.PaymentType,
			BankAccountID: req.BankAccountID,
			PaymentDate:   domain.DateOnly(req.PaymentDate),
			Amount:        amount,
			Method:        req.Method,
			Reference:     req.Reference,
			Status:        status,
			Allocations:   []domain.Allocation{},
			AuditFields:   domain.NewAuditFields(userID, now),
		}
		if req.PaymentType == domain.PaymentMade {
			p.VendorID = party.PartyID
		} else {
			p.CustomerID = party.PartyID
		}
		if p.PaymentNumber, err = tx.NextPaymentNumber(ctx, p.PaymentType); err != nil {
			return err
		}

		if len(req.Allocations) > 0 {
			invoices, before, err := s.lockInvoices(ctx, tx, req.Allocations)
			if err != nil {
				return err
			}
			applied, err = settlement.ApplyAllocations(&p, invoices, dto.ToAllocationRequests(req.Allocations, currency), s.change(userID))
			if err != nil {
				return err
			}
			if err := s.saveInvoices(ctx, tx, invoices, before, applied); err != nil {
				return err
			}
		}
		if err := tx.InsertPayment(ctx, &p); err != nil {
			return err
		}
		if p.Status == domain.PaymentCompleted {
			if err := applyBalance(ctx, tx, account, p.BalanceEffect(), userID, now); err != nil {
				return err
			}
		}
		if len(applied) > 0 {
			if err := s.recomputeParties(ctx, tx, p.PartyID()); err != nil {
				return err
			}
		}
		created = p
		return nil
	})
	s.Metrics.ObserveOperation("create_payment", err)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to create payment", slog.String("entity_id", entityID), slog.String("party_id", req.PartyID))
		return nil, nil, err
	}
	if len(applied) > 0 {
		s.Metrics.AddAllocated("allocate", created.Amount.Currency, created.AllocatedTotal().Amount)
	}
	s.LogInfo(ctx, "Payment created", slog.String("payment_id", created.PaymentID), slog.String("payment_number", created.PaymentNumber), slog.Int("allocations", len(applied)))
	return &created, applied, nil
}

func (s *paymentService) CancelPayment(ctx context.Context, entityID string, paymentID string, userID string) (*domain.Payment, error) {
	now := s.now()
	var cancelled domain.Payment

	err := s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		p, err := tx.FindPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		switch {
		case p.Status == domain.PaymentCancelled:
			return fmt.Errorf("%w: payment %s is already cancelled", apperrors.ErrInvalidStateTransition, p.PaymentNumber)
		case len(p.Allocations) > 0:
			return fmt.Errorf("%w: payment %s still has %d allocation(s); deallocate first", apperrors.ErrInvalidStateTransition, p.PaymentNumber, len(p.Allocations))
		}
		if p.Status == domain.PaymentCompleted && p.BankAccountID != "" {
			account, err := tx.FindBankAccountForUpdate(ctx, p.BankAccountID)
			if err != nil {
				return err
			}
			if err := applyBalance(ctx, tx, account, p.BalanceEffect().Neg(), userID, now); err != nil {
				return err
			}
		}
		p.Status = domain.PaymentCancelled
		p.Touch(userID, now)
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return err
		}
		cancelled = *p
		return nil
	})
	s.Metrics.ObserveOperation("cancel_payment", err)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to cancel payment", slog.String("payment_id", paymentID))
		return nil, err
	}
	s.LogInfo(ctx, "Payment cancelled", slog.String("payment_id", paymentID))
	return &cancelled, nil
}

func (s *paymentService) Allocate(ctx context.Context, entityID string, paymentID string, req dto.AllocationBatchRequest, userID string) (*domain.AllocationResult, error) {
	return s.changeAllocations(ctx, "allocate", entityID, paymentID, req, userID, settlement.ApplyAllocations)
}

func (s *paymentService) Deallocate(ctx context.Context, entityID string, paymentID string, req dto.AllocationBatchRequest, userID string) (*domain.AllocationResult, error) {
	return s.changeAllocations(ctx, "deallocate", entityID, paymentID, req, userID, settlement.ReverseAllocations)
}

type allocationFunc func(p *domain.Payment, invoices map[string]*domain.Invoice, reqs []domain.AllocationRequest, ch settlement.Change) ([]domain.AppliedAllocation, error)

// changeAllocations runs one all-or-nothing batch under the entity lock: the payment,
// every target invoice and the party outstanding are written in the same unit of work.
func (s *paymentService) changeAllocations(ctx context.Context, op, entityID, paymentID string, req dto.AllocationBatchRequest, userID string, apply allocationFunc) (*domain.AllocationResult, error) {
	var result domain.AllocationResult

	err := s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		p, err := tx.FindPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := checkVersion("payment", paymentID, req.ExpectedVersion, p.Version); err != nil {
			return err
		}
		invoices, before, err := s.lockInvoices(ctx, tx, req.Allocations)
		if err != nil {
			return err
		}
		applied, err := apply(p, invoices, dto.ToAllocationRequests(req.Allocations, p.Amount.Currency), s.change(userID))
		if err != nil {
			return err
		}
		if err := s.saveInvoices(ctx, tx, invoices, before, applied); err != nil {
			return err
		}
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return err
		}
		if err := s.recomputeParties(ctx, tx, p.PartyID()); err != nil {
			return err
		}

		result = domain.AllocationResult{
			PaymentID:      p.PaymentID,
			PaymentVersion: p.Version,
			Applied:        applied,
			TotalAllocated: p.AllocatedTotal(),
			Unallocated:    p.Unallocated(),
			PartyIDs:       []string{p.PartyID()},
		}
		return nil
	})
	s.Metrics.ObserveOperation(op, err)
	if err != nil {
		s.LogFailure(ctx, err, "Allocation batch rejected", slog.String("operation", op), slog.String("payment_id", paymentID), slog.Int("lines", len(req.Allocations)))
		return nil, err
	}

	moved := domain.ZeroMoney(result.TotalAllocated.Currency)
	for _, a := range result.Applied {
		moved = moved.Add(a.Amount)
	}
	s.Metrics.AddAllocated(op, moved.Currency, moved.Amount)
	s.LogInfo(ctx, "Allocation batch committed",
		slog.String("operation", op),
		slog.String("payment_id", paymentID),
		slog.String("amount", moved.String()),
		slog.String("unallocated", result.Unallocated.String()))
	return &result, nil
}

func (s *paymentService) change(userID string) settlement.Change {
	now := s.now()
	return settlement.Change{UserID: userID, At: now, AsOf: now, NewID: s.NewID}
}

// lockInvoices loads the batch's invoices under lock and remembers their status.
func (s *paymentService) lockInvoices(ctx context.Context, tx portsrepo.LedgerTx, lines []dto.AllocationLine) (map[string]*domain.Invoice, map[string]domain.InvoiceStatus, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.InvoiceID)
	}
	invoices, err := tx.FindInvoicesForUpdate(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	before := make(map[string]domain.InvoiceStatus, len(invoices))
	for id, inv := range invoices {
		before[id] = inv.Status
	}
	return invoices, before, nil
}

func (s *paymentService) saveInvoices(ctx context.Context, tx portsrepo.LedgerTx, invoices map[string]*domain.Invoice, before map[string]domain.InvoiceStatus, applied []domain.AppliedAllocation) error {
	for _, a := range applied {
		inv := invoices[a.InvoiceID]
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		s.observeStatus(before[a.InvoiceID], inv)
	}
	return nil
}

func (s *paymentService) SuggestAllocations(ctx context.Context, entityID string, paymentID string, req dto.SuggestAllocationsRequest) (*dto.SuggestAllocationsResponse, error) {
	p, err := s.paymentRepo.FindPaymentByID(ctx, entityID, paymentID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to find payment for suggestions", slog.String("payment_id", paymentID))
		return nil, err
	}
	if !p.Status.AllowsAllocation() {
		return nil, fmt.Errorf("%w: payment %s is %s", apperrors.ErrInvalidStateTransition, p.PaymentNumber, p.Status)
	}

	open, _, err := s.invoiceRepo.ListInvoices(ctx, domain.InvoiceFilter{
		EntityID:    entityID,
		InvoiceType: p.PaymentType.MatchingInvoiceType(),
		PartyID:     p.PartyID(),
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list open invoices", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	suggestions := settlement.SuggestAllocations(*p, open, dto.ToAllocationRequests(req.Proposals, p.Amount.Currency))
	resp := dto.ToSuggestAllocationsResponse(p, suggestions)
	s.LogDebug(ctx, "Allocation suggestions computed", slog.String("payment_id", paymentID), slog.Int("count", len(suggestions)))
	return &resp, nil
}
