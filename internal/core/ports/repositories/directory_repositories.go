package repositories

import (
	"context"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
)

// EntityReader defines read operations for the entity directory.
type EntityReader interface {
	// FindEntityByID returns apperrors.ErrNotFound when the entity does not exist.
	FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error)

	// ListEntities returns every entity, or only those in entityIDs when it is non-empty.
	ListEntities(ctx context.Context, entityIDs []string) ([]domain.Entity, error)
}

// EntityWriter defines write operations for the entity directory.
type EntityWriter interface {
	SaveEntity(ctx context.Context, entity domain.Entity) error
}

// EntityRepositoryFacade combines entity reads and writes.
type EntityRepositoryFacade interface {
	EntityReader
	EntityWriter
}

// PartyReader defines read operations for customers and vendors.
type PartyReader interface {
	FindPartyByID(ctx context.Context, entityID, partyID string) (*domain.Party, error)

	// FindPartyByName matches case-insensitively within an entity and kind.
	FindPartyByName(ctx context.Context, entityID string, kind domain.PartyKind, name string) (*domain.Party, error)

	ListParties(ctx context.Context, entityIDs []string) ([]domain.Party, error)
}

// PartyWriter creates directory records. Outstanding balances are only rewritten
// through a LedgerTx.
type PartyWriter interface {
	SaveParty(ctx context.Context, party domain.Party) error
}

// PartyRepositoryFacade combines party reads and writes.
type PartyRepositoryFacade interface {
	PartyReader
	PartyWriter
}

// BankAccountReader defines read operations for bank accounts.
type BankAccountReader interface {
	FindBankAccountByID(ctx context.Context, entityID, bankAccountID string) (*domain.BankAccount, error)

	// FindBankAccountByName matches case-insensitively within an entity.
	FindBankAccountByName(ctx context.Context, entityID, name string) (*domain.BankAccount, error)

	ListBankAccounts(ctx context.Context, entityIDs []string) ([]domain.BankAccount, error)
}

// BankAccountWriter creates bank accounts. Balances are only rewritten through a LedgerTx.
type BankAccountWriter interface {
	SaveBankAccount(ctx context.Context, account domain.BankAccount) error
}

// BankAccountRepositoryFacade combines bank account reads and writes.
type BankAccountRepositoryFacade interface {
	BankAccountReader
	BankAccountWriter
}
