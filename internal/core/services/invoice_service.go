package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

type invoiceService struct {
	ledgerRunner
	invoiceRepo portsrepo.InvoiceReader
	entityRepo  portsrepo.EntityReader
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

// NewInvoiceService creates the invoice lifecycle service.
func NewInvoiceService(ledger portsrepo.LedgerRepository, invoices portsrepo.InvoiceReader, entities portsrepo.EntityReader, opts ...ServiceOption) portssvc.InvoiceSvcFacade {
	o := buildOptions(opts)
	return &invoiceService{
		ledgerRunner: ledgerRunner{BaseService: o.base, ledger: ledger, locker: o.locker},
		invoiceRepo:  invoices,
		entityRepo:   entities,
	}
}

func (s *invoiceService) GetInvoiceByID(ctx context.Context, entityID string, invoiceID string) (*domain.Invoice, error) {
	inv, err := s.invoiceRepo.FindInvoiceByID(ctx, entityID, invoiceID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to find invoice", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, entityID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error) {
	p := s.page(params.Params)
	invoices, total, err := s.invoiceRepo.ListInvoices(ctx, domain.InvoiceFilter{
		EntityID:    entityID,
		InvoiceType: params.InvoiceType,
		Status:      params.Status,
		AgingBucket: params.AgingBucket,
		PartyID:     params.PartyID,
		Search:      strings.TrimSpace(params.Search),
		Limit:       p.PageSize,
		Offset:      p.Offset(),
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list invoices", slog.String("entity_id", entityID))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	s.LogDebug(ctx, "Invoices listed", slog.Int("count", len(invoices)), slog.Int("total", total))
	return &dto.ListInvoicesResponse{
		Data:       dto.ToInvoiceResponses(invoices),
		Pagination: pagination.NewPage(p, total),
	}, nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, entityID string, req dto.CreateInvoiceRequest, userID string) (*domain.Invoice, error) {
	now := s.now()
	var created domain.Invoice

	err := s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		party, err := tx.FindPartyForUpdate(ctx, req.PartyID)
		if err != nil {
			return err
		}
		if party.MatchingInvoiceType() != req.InvoiceType {
			return fmt.Errorf("%w: %s %s cannot hold %s invoices", apperrors.ErrValidation, party.Kind, party.Name, req.InvoiceType)
		}
		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = party.Currency()
		}
		if currency != party.Currency() {
			return fmt.Errorf("%w: invoice currency %s does not match party currency %s", apperrors.ErrValidation, currency, party.Currency())
		}

		inv := domain.Invoice{
			InvoiceID:     s.NewID(),
			EntityID:      entityID,
			InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
			InvoiceType:   req.InvoiceType,
			InvoiceDate:   domain.DateOnly(req.InvoiceDate),
			Currency:      currency,
			LineItems:     dto.ToLineItems(req.LineItems),
			GSTType:       req.GSTType,
			CGST:          domain.NewMoney(req.CGST, currency),
			SGST:          domain.NewMoney(req.SGST, currency),
			IGST:          domain.NewMoney(req.IGST, currency),
			TDSAmount:     domain.NewMoney(req.TDSAmount, currency),
			RoundOff:      domain.NewMoney(req.RoundOff, currency),
			AmountPaid:    domain.ZeroMoney(currency),
			Notes:         req.Notes,
			AuditFields:   domain.NewAuditFields(userID, now),
		}
		if req.InvoiceType == domain.InvoicePurchase {
			inv.VendorID = party.PartyID
		} else {
			inv.CustomerID = party.PartyID
		}

		if req.DueDate != nil {
			inv.DueDate = domain.DateOnly(*req.DueDate)
		} else if inv.DueDate, err = party.DueDateFrom(inv.InvoiceDate); err != nil {
			return err
		}
		if inv.DueDate.Before(inv.InvoiceDate) {
			return fmt.Errorf("%w: due date cannot be before invoice date", apperrors.ErrValidation)
		}

		totals, err := settlement.ApplyTotals(&inv)
		if err != nil {
			return err
		}
		s.warnTotalMismatch(ctx, req.TotalAmount, totals.Total)

		if inv.InvoiceNumber == "" {
			if inv.InvoiceNumber, err = tx.NextInvoiceNumber(ctx, inv.InvoiceType); err != nil {
				return err
			}
		}
		if req.Finalize {
			if err := settlement.Finalize(&inv, now); err != nil {
				return err
			}
		}
		settlement.Recompute(&inv, now)

		if err := tx.InsertInvoice(ctx, &inv); err != nil {
			return err
		}
		if err := s.recomputeParties(ctx, tx, party.PartyID); err != nil {
			return err
		}
		created = inv
		return nil
	})
	s.Metrics.ObserveOperation("create_invoice", err)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to create invoice", slog.String("entity_id", entityID), slog.String("party_id", req.PartyID))
		return nil, err
	}

	s.Metrics.ObserveStatusChange(string(created.Status))
	s.LogInfo(ctx, "Invoice created", slog.String("invoice_id", created.InvoiceID), slog.String("invoice_number", created.InvoiceNumber), slog.String("status", string(created.Status)))
	return &created, nil
}

func (s *invoiceService) warnTotalMismatch(ctx context.Context, advisory *decimal.Decimal, computed domain.Money) {
	if advisory == nil {
		return
	}
	if client := domain.NewMoney(*advisory, computed.Currency); !client.Equal(computed) {
		s.GetLogger(ctx).Warn("Client invoice total differs from computed total",
			slog.String("client_total", client.Amount.StringFixed(domain.MoneyScale)),
			slog.String("computed_total", computed.Amount.StringFixed(domain.MoneyScale)))
	}
}

// loadInvoice locks one invoice and hides invoices of other entities.
func loadInvoice(ctx context.Context, tx portsrepo.LedgerTx, entityID, invoiceID string) (*domain.Invoice, error) {
	found, err := tx.FindInvoicesForUpdate(ctx, []string{invoiceID})
	if err != nil {
		return nil, err
	}
	inv, ok := found[invoiceID]
	if !ok || inv.EntityID != entityID {
		return nil, fmt.Errorf("%w: invoice %s", apperrors.ErrNotFound, invoiceID)
	}
	return inv, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, entityID string, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error) {
	now := s.now()
	var updated domain.Invoice

	err := s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		inv, err := loadInvoice(ctx, tx, entityID, invoiceID)
		if err != nil {
			return err
		}
		if err := checkVersion("invoice", invoiceID, req.ExpectedVersion, inv.Version); err != nil {
			return err
		}
		if err := settlement.CanEdit(*inv); err != nil {
			return err
		}

		applyInvoiceUpdate(inv, req)
		if inv.DueDate.Before(inv.InvoiceDate) {
			return fmt.Errorf("%w: due date cannot be before invoice date", apperrors.ErrValidation)
		}
		totals, err := settlement.ApplyTotals(inv)
		if err != nil {
			return err
		}
		s.warnTotalMismatch(ctx, req.TotalAmount, totals.Total)

		before := inv.Status
		settlement.Recompute(inv, now)
		inv.Touch(userID, now)
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		if err := s.recomputeParties(ctx, tx, inv.PartyID()); err != nil {
			return err
		}
		s.observeStatus(before, inv)
		updated = *inv
		return nil
	})
	s.Metrics.ObserveOperation("update_invoice", err)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update invoice", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	s.LogInfo(ctx, "Invoice updated", slog.String("invoice_id", invoiceID), slog.Int64("version", updated.Version))
	return &updated, nil
}

func applyInvoiceUpdate(inv *domain.Invoice, req dto.UpdateInvoiceRequest) {
	money := func(d *decimal.Decimal, dst *domain.Money) {
		if d != nil {
			*dst = domain.NewMoney(*d, inv.Currency)
		}
	}
	if req.InvoiceDate != nil {
		inv.InvoiceDate = domain.DateOnly(*req.InvoiceDate)
	}
	if req.DueDate != nil {
		inv.DueDate = domain.DateOnly(*req.DueDate)
	}
	if len(req.LineItems) > 0 {
		inv.LineItems = dto.ToLineItems(req.LineItems)
	}
	if req.GSTType != nil {
		inv.GSTType = *req.GSTType
	}
	money(req.CGST, &inv.CGST)
	money(req.SGST, &inv.SGST)
	money(req.IGST, &inv.IGST)
	money(req.TDSAmount, &inv.TDSAmount)
	money(req.RoundOff, &inv.RoundOff)
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}
}

func (s *invoiceService) FinalizeInvoice(ctx context.Context, entityID string, invoiceID string, userID string) (*domain.Invoice, error) {
	return s.transition(ctx, "finalize_invoice", entityID, invoiceID, userID, settlement.Finalize)
}

func (s *invoiceService) CancelInvoice(ctx context.Context, entityID string, invoiceID string, userID string) (*domain.Invoice, error) {
	return s.transition(ctx, "cancel_invoice", entityID, invoiceID, userID, settlement.Cancel)
}

// transition applies an explicit lifecycle operation and the recompute chain.
func (s *invoiceService) transition(ctx context.Context, op, entityID, invoiceID, userID string, apply func(*domain.Invoice, time.Time) error) (*domain.Invoice, error) {
	now := s.now()
	var result domain.Invoice

	err := s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		inv, err := loadInvoice(ctx, tx, entityID, invoiceID)
		if err != nil {
			return err
		}
		before := inv.Status
		if err := apply(inv, now); err != nil {
			return err
		}
		settlement.Recompute(inv, now)
		inv.Touch(userID, now)
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		if err := s.recomputeParties(ctx, tx, inv.PartyID()); err != nil {
			return err
		}
		s.observeStatus(before, inv)
		result = *inv
		return nil
	})
	s.Metrics.ObserveOperation(op, err)
	if err != nil {
		s.LogFailure(ctx, err, "Invoice transition failed", slog.String("operation", op), slog.String("invoice_id", invoiceID))
		return nil, err
	}
	s.LogInfo(ctx, "Invoice transitioned", slog.String("operation", op), slog.String("invoice_id", invoiceID), slog.String("status", string(result.Status)))
	return &result, nil
}

func (s *invoiceService) RefreshStatuses(ctx context.Context, entityID string, asOf time.Time, userID string) (*dto.RefreshStatusesResponse, error) {
	now := s.now()
	if asOf.IsZero() {
		asOf = now
	}
	asOf = domain.DateOnly(asOf)
	resp := &dto.RefreshStatusesResponse{EntityID: entityID, AsOf: asOf, Changed: []dto.StatusChange{}}

	err := s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		invoices, err := tx.ListInvoicesForUpdate(ctx)
		if err != nil {
			return err
		}
		resp.Scanned = len(invoices)
		for _, inv := range invoices {
			before := inv.Status
			if !settlement.Recompute(inv, asOf) {
				continue
			}
			inv.Touch(userID, now)
			if err := tx.UpdateInvoice(ctx, inv); err != nil {
				return err
			}
			s.observeStatus(before, inv)
			resp.Changed = append(resp.Changed, dto.StatusChange{
				InvoiceID:   inv.InvoiceID,
				From:        before,
				To:          inv.Status,
				AgingBucket: inv.AgingBucket,
			})
		}
		return nil
	})
	s.Metrics.ObserveOperation("refresh_statuses", err)
	if err != nil {
		s.LogFailure(ctx, err, "Status refresh failed", slog.String("entity_id", entityID))
		return nil, err
	}
	s.LogInfo(ctx, "Invoice statuses refreshed", slog.String("entity_id", entityID), slog.Int("scanned", resp.Scanned), slog.Int("changed", len(resp.Changed)))
	return resp, nil
}

func (s *invoiceService) AgingReport(ctx context.Context, entityID string, invoiceType domain.InvoiceType, asOf time.Time) ([]domain.AgingReport, error) {
	if invoiceType == "" {
		invoiceType = domain.InvoiceSales
	}
	if invoiceType != domain.InvoiceSales && invoiceType != domain.InvoicePurchase {
		return nil, fmt.Errorf("%w: unknown invoice type %q", apperrors.ErrValidation, invoiceType)
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	if _, err := s.entityRepo.FindEntityByID(ctx, entityID); err != nil {
		s.LogFailure(ctx, err, "Aging report entity lookup failed", slog.String("entity_id", entityID))
		return nil, err
	}
	invoices, err := s.invoiceRepo.ListInvoicesForEntities(ctx, []string{entityID})
	if err != nil {
		s.LogError(ctx, err, "Failed to load invoices for aging", slog.String("entity_id", entityID))
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	return settlement.BuildAgingReports(entityID, invoiceType, invoices, domain.DateOnly(asOf)), nil
}
