package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/core/settlement"
	"github.com/SscSPs/settlement_engine/internal/dto"
)

// reportingService implements the ReportingSvc interface
type reportingService struct {
	BaseService
	partyRepo       portsrepo.PartyReader
	bankAccountRepo portsrepo.BankAccountReader
	invoiceRepo     portsrepo.InvoiceReader
	transactionRepo portsrepo.TransactionReader
}

// Ensure reportingService implements the ReportingSvc interface
var _ portssvc.ReportingSvc = (*reportingService)(nil)

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(repos portsrepo.RepositoryProvider, opts ...ServiceOption) portssvc.ReportingSvc {
	return &reportingService{
		BaseService:     buildOptions(opts).base,
		partyRepo:       repos.PartyRepo,
		bankAccountRepo: repos.BankAccountRepo,
		invoiceRepo:     repos.InvoiceRepo,
		transactionRepo: repos.TransactionRepo,
	}
}

// GetCreditExposure computes exposure from the party's live invoices rather than the
// stored outstanding, so it is correct even for a party never touched by a ledger write.
func (s *reportingService) GetCreditExposure(ctx context.Context, entityID string, partyID string) (*domain.CreditExposure, error) {
	party, err := s.partyRepo.FindPartyByID(ctx, entityID, partyID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to find party for exposure", slog.String("party_id", partyID))
		return nil, err
	}
	invoices, _, err := s.invoiceRepo.ListInvoices(ctx, domain.InvoiceFilter{
		EntityID:    entityID,
		InvoiceType: party.MatchingInvoiceType(),
		PartyID:     party.PartyID,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list party invoices", slog.String("party_id", partyID))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	exposure := settlement.ComputeExposure(*party, invoices)
	s.LogDebug(ctx, "Credit exposure computed",
		slog.String("party_id", partyID),
		slog.String("outstanding", exposure.CurrentOutstanding.String()),
		slog.String("band", string(exposure.Band)))
	return &exposure, nil
}

// GetDashboard aggregates over the entities both requested and granted to identity.
func (s *reportingService) GetDashboard(ctx context.Context, identity domain.Identity, q dto.DashboardQuery) (*domain.Dashboard, error) {
	filter, err := q.ToDashboardFilter(s.now())
	if err != nil {
		return nil, err
	}
	scope, err := dashboardScope(identity, filter.EntityIDs)
	if err != nil {
		s.LogFailure(ctx, err, "Dashboard scope rejected", slog.String("user_id", identity.UserID))
		return nil, err
	}
	filter.EntityIDs = scope
	filter.AsOf = domain.DateOnly(filter.AsOf)

	if scope != nil && len(scope) == 0 {
		empty := settlement.BuildDashboard(settlement.DashboardInput{}, filter)
		return &empty, nil
	}

	var in settlement.DashboardInput
	if in.BankAccounts, err = s.bankAccountRepo.ListBankAccounts(ctx, scope); err != nil {
		return nil, s.loadFailed(ctx, "bank accounts", err)
	}
	if in.Transactions, err = s.transactionRepo.ListTransactions(ctx, scope); err != nil {
		return nil, s.loadFailed(ctx, "transactions", err)
	}
	if in.Invoices, err = s.invoiceRepo.ListInvoicesForEntities(ctx, scope); err != nil {
		return nil, s.loadFailed(ctx, "invoices", err)
	}
	if in.Parties, err = s.partyRepo.ListParties(ctx, scope); err != nil {
		return nil, s.loadFailed(ctx, "parties", err)
	}

	dashboard := settlement.BuildDashboard(in, filter)
	s.LogInfo(ctx, "Dashboard generated",
		slog.Int("entities", len(scope)),
		slog.String("asOf", filter.AsOf.Format(time.DateOnly)),
		slog.Int("invoices", len(in.Invoices)))
	return &dashboard, nil
}

func (s *reportingService) loadFailed(ctx context.Context, what string, err error) error {
	s.LogError(ctx, err, "Failed to load dashboard input", slog.String("source", what))
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// dashboardScope intersects the requested entities with the identity's grant. A nil
// result means every entity; an empty non-nil result means none.
func dashboardScope(identity domain.Identity, requested []string) ([]string, error) {
	if identity.Unrestricted() {
		if len(requested) == 0 {
			return nil, nil
		}
		return requested, nil
	}
	if len(requested) == 0 {
		return append([]string{}, identity.EntityIDs...), nil
	}
	for _, id := range requested {
		if !identity.CanAccess(id) {
			return nil, fmt.Errorf("%w: entity %s is outside the caller's scope", apperrors.ErrForbidden, id)
		}
	}
	return requested, nil
}
