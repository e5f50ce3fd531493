package services

import (
	"context"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/dto"
)

// DirectoryReaderSvc looks up entities, parties and bank accounts
type DirectoryReaderSvc interface {
	GetEntity(ctx context.Context, entityID string) (*domain.Entity, error)
	GetParty(ctx context.Context, entityID string, partyID string) (*domain.Party, error)
	GetBankAccount(ctx context.Context, entityID string, bankAccountID string) (*domain.BankAccount, error)
}

// DirectoryWriterSvc seeds directory records
type DirectoryWriterSvc interface {
	CreateEntity(ctx context.Context, req dto.CreateEntityRequest, userID string) (*domain.Entity, error)
	CreateParty(ctx context.Context, entityID string, req dto.CreatePartyRequest, userID string) (*domain.Party, error)
	CreateBankAccount(ctx context.Context, entityID string, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error)
}

// DirectorySvcFacade combines directory reads and writes
type DirectorySvcFacade interface {
	DirectoryReaderSvc
	DirectoryWriterSvc
}
