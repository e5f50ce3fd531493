package mapping

import (
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/models"
)

// ToModelEntity converts a domain Entity to a model Entity
func ToModelEntity(d domain.Entity) models.Entity {
	return models.Entity{
		EntityID:     d.EntityID,
		Name:         d.Name,
		BaseCurrency: d.BaseCurrency,
		IsActive:     d.IsActive,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEntity converts a model Entity to a domain Entity
func ToDomainEntity(m models.Entity) domain.Entity {
	return domain.Entity{
		EntityID:     m.EntityID,
		Name:         m.Name,
		BaseCurrency: m.BaseCurrency,
		IsActive:     m.IsActive,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainEntitySlice converts a slice of model Entities to a slice of domain Entities
func ToDomainEntitySlice(ms []models.Entity) []domain.Entity {
	ds := make([]domain.Entity, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainEntity(m)
	}
	return ds
}

// ToModelParty converts a domain Party to a model Party
func ToModelParty(d domain.Party) (models.Party, error) {
	address, err := toDocument(d.Address)
	if err != nil {
		return models.Party{}, err
	}
	bank, err := toDocument(d.Bank)
	if err != nil {
		return models.Party{}, err
	}
	return models.Party{
		PartyID:            d.PartyID,
		EntityID:           d.EntityID,
		Kind:               string(d.Kind),
		Name:               d.Name,
		Email:              d.Email,
		Phone:              d.Phone,
		TaxID:              d.TaxID,
		Address:            address,
		Bank:               bank,
		Currency:           d.Currency(),
		CreditLimit:        d.CreditLimit.Amount,
		CurrentOutstanding: d.CurrentOutstanding.Amount,
		Terms:              string(d.Terms),
		CustomDays:         d.CustomDays,
		IsActive:           d.IsActive,
		Version:            d.Version,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainParty converts a model Party to a domain Party
func ToDomainParty(m models.Party) (domain.Party, error) {
	address, err := fromDocument[domain.Address](m.Address)
	if err != nil {
		return domain.Party{}, err
	}
	bank, err := fromDocument[domain.BankDetails](m.Bank)
	if err != nil {
		return domain.Party{}, err
	}
	return domain.Party{
		PartyID:            m.PartyID,
		EntityID:           m.EntityID,
		Kind:               domain.PartyKind(m.Kind),
		Name:               m.Name,
		Email:              m.Email,
		Phone:              m.Phone,
		TaxID:              m.TaxID,
		Address:            address,
		Bank:               bank,
		CreditLimit:        domain.NewMoney(m.CreditLimit, m.Currency),
		CurrentOutstanding: domain.NewMoney(m.CurrentOutstanding, m.Currency),
		Terms:              domain.Terms(m.Terms),
		CustomDays:         m.CustomDays,
		IsActive:           m.IsActive,
		Version:            m.Version,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}, nil
}

// ToDomainPartySlice converts a slice of model Parties to a slice of domain Parties
func ToDomainPartySlice(ms []models.Party) ([]domain.Party, error) {
	ds := make([]domain.Party, len(ms))
	for i, m := range ms {
		d, err := ToDomainParty(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

// ToModelBankAccount converts a domain BankAccount to a model BankAccount
func ToModelBankAccount(d domain.BankAccount) (models.BankAccount, error) {
	bank, err := toDocument(d.Bank)
	if err != nil {
		return models.BankAccount{}, err
	}
	return models.BankAccount{
		BankAccountID:  d.BankAccountID,
		EntityID:       d.EntityID,
		Name:           d.Name,
		AccountType:    string(d.AccountType),
		Bank:           bank,
		Currency:       d.Currency(),
		CurrentBalance: d.CurrentBalance.Amount,
		IsActive:       d.IsActive,
		Version:        d.Version,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainBankAccount converts a model BankAccount to a domain BankAccount
func ToDomainBankAccount(m models.BankAccount) (domain.BankAccount, error) {
	bank, err := fromDocument[domain.BankDetails](m.Bank)
	if err != nil {
		return domain.BankAccount{}, err
	}
	return domain.BankAccount{
		BankAccountID:  m.BankAccountID,
		EntityID:       m.EntityID,
		Name:           m.Name,
		AccountType:    domain.BankAccountType(m.AccountType),
		Bank:           bank,
		CurrentBalance: domain.NewMoney(m.CurrentBalance, m.Currency),
		IsActive:       m.IsActive,
		Version:        m.Version,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}, nil
}

// ToDomainBankAccountSlice converts a slice of model BankAccounts to a slice of domain BankAccounts
func ToDomainBankAccountSlice(ms []models.BankAccount) ([]domain.BankAccount, error) {
	ds := make([]domain.BankAccount, len(ms))
	for i, m := range ms {
		d, err := ToDomainBankAccount(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
