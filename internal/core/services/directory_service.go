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
	"github.com/SscSPs/settlement_engine/internal/dto"
)

type directoryService struct {
	BaseService
	entityRepo      portsrepo.EntityRepositoryFacade
	partyRepo       portsrepo.PartyRepositoryFacade
	bankAccountRepo portsrepo.BankAccountRepositoryFacade
}

var _ portssvc.DirectorySvcFacade = (*directoryService)(nil)

// NewDirectoryService creates the service that seeds and reads directory records.
func NewDirectoryService(entities portsrepo.EntityRepositoryFacade, parties portsrepo.PartyRepositoryFacade, accounts portsrepo.BankAccountRepositoryFacade, opts ...ServiceOption) portssvc.DirectorySvcFacade {
	return &directoryService{
		BaseService:     buildOptions(opts).base,
		entityRepo:      entities,
		partyRepo:       parties,
		bankAccountRepo: accounts,
	}
}

func (s *directoryService) GetEntity(ctx context.Context, entityID string) (*domain.Entity, error) {
	e, err := s.entityRepo.FindEntityByID(ctx, entityID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to find entity", slog.String("entity_id", entityID))
		return nil, err
	}
	return e, nil
}

func (s *directoryService) GetParty(ctx context.Context, entityID string, partyID string) (*domain.Party, error) {
	p, err := s.partyRepo.FindPartyByID(ctx, entityID, partyID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to find party", slog.String("party_id", partyID))
		return nil, err
	}
	return p, nil
}

func (s *directoryService) GetBankAccount(ctx context.Context, entityID string, bankAccountID string) (*domain.BankAccount, error) {
	a, err := s.bankAccountRepo.FindBankAccountByID(ctx, entityID, bankAccountID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to find bank account", slog.String("bank_account_id", bankAccountID))
		return nil, err
	}
	return a, nil
}

func (s *directoryService) CreateEntity(ctx context.Context, req dto.CreateEntityRequest, userID string) (*domain.Entity, error) {
	entity := domain.Entity{
		EntityID:     strings.TrimSpace(req.EntityID),
		Name:         strings.TrimSpace(req.Name),
		BaseCurrency: strings.ToUpper(strings.TrimSpace(req.BaseCurrency)),
		IsActive:     true,
		AuditFields:  domain.NewAuditFields(userID, s.now()),
	}
	if entity.EntityID == "" {
		entity.EntityID = s.NewID()
	}
	if entity.Name == "" {
		return nil, fmt.Errorf("%w: entity name is required", apperrors.ErrValidation)
	}
	if len(entity.BaseCurrency) != 3 {
		return nil, fmt.Errorf("%w: base currency must be a 3-letter code", apperrors.ErrValidation)
	}

	if err := s.entityRepo.SaveEntity(ctx, entity); err != nil {
		s.LogFailure(ctx, err, "Failed to save entity", slog.String("entity_id", entity.EntityID))
		return nil, err
	}
	s.LogInfo(ctx, "Entity created", slog.String("entity_id", entity.EntityID))
	return &entity, nil
}

func (s *directoryService) CreateParty(ctx context.Context, entityID string, req dto.CreatePartyRequest, userID string) (*domain.Party, error) {
	if _, err := s.entityRepo.FindEntityByID(ctx, entityID); err != nil {
		return nil, err
	}

	var b *domain.PartyBuilder
	switch req.Kind {
	case domain.PartyCustomer:
		b = domain.NewCustomer(entityID, req.Name, req.Currency)
	case domain.PartyVendor:
		b = domain.NewVendor(entityID, req.Name, req.Currency)
	default:
		return nil, fmt.Errorf("%w: unknown party kind %q", apperrors.ErrValidation, req.Kind)
	}
	b.WithID(s.NewID()).
		WithEmail(req.Email).
		WithTaxID(req.TaxID).
		WithCreditLimit(req.CreditLimit)
	if req.Terms != "" {
		b.WithTerms(req.Terms, req.CustomDays)
	}
	if req.Address != nil {
		b.WithAddress(*req.Address)
	}
	if req.Bank != nil {
		b.WithBankDetails(*req.Bank)
	}
	party, err := b.Build()
	if err != nil {
		return nil, err
	}
	party.Phone = strings.TrimSpace(req.Phone)
	party.AuditFields = domain.NewAuditFields(userID, s.now())

	if existing, err := s.partyRepo.FindPartyByName(ctx, entityID, party.Kind, party.Name); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s %q already exists", apperrors.ErrDuplicate, party.Kind, party.Name)
	}
	if err := s.partyRepo.SaveParty(ctx, party); err != nil {
		s.LogFailure(ctx, err, "Failed to save party", slog.String("entity_id", entityID))
		return nil, err
	}
	s.LogInfo(ctx, "Party created", slog.String("party_id", party.PartyID), slog.String("kind", string(party.Kind)))
	return &party, nil
}

func (s *directoryService) CreateBankAccount(ctx context.Context, entityID string, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	if _, err := s.entityRepo.FindEntityByID(ctx, entityID); err != nil {
		return nil, err
	}
	account := domain.BankAccount{
		BankAccountID:  s.NewID(),
		EntityID:       entityID,
		Name:           strings.TrimSpace(req.Name),
		AccountType:    req.AccountType,
		Bank:           req.Bank,
		CurrentBalance: domain.NewMoney(req.OpeningBalance, req.Currency),
		IsActive:       true,
		AuditFields:    domain.NewAuditFields(userID, s.now()),
	}
	if account.Name == "" {
		return nil, fmt.Errorf("%w: bank account name is required", apperrors.ErrValidation)
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if existing, err := s.bankAccountRepo.FindBankAccountByName(ctx, entityID, account.Name); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: bank account %q already exists", apperrors.ErrDuplicate, account.Name)
	}
	if err := s.bankAccountRepo.SaveBankAccount(ctx, account); err != nil {
		s.LogFailure(ctx, err, "Failed to save bank account", slog.String("entity_id", entityID))
		return nil, err
	}
	s.LogInfo(ctx, "Bank account created", slog.String("bank_account_id", account.BankAccountID))
	return &account, nil
}
