package dto

import (
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntityRequest seeds an entity directory record.
type CreateEntityRequest struct {
	EntityID     string `json:"entityID"` // generated when empty
	Name         string `json:"name" binding:"required"`
	BaseCurrency string `json:"baseCurrency" binding:"required,len=3"`
}

// CreatePartyRequest seeds a customer or vendor.
type CreatePartyRequest struct {
	Kind        domain.PartyKind    `json:"kind" binding:"required,oneof=customer vendor"`
	Name        string              `json:"name" binding:"required"`
	Currency    string              `json:"currency" binding:"required,len=3"`
	Email       string              `json:"email" binding:"omitempty,email"`
	Phone       string              `json:"phone"`
	TaxID       string              `json:"taxID"`
	Address     *domain.Address     `json:"address"`
	Bank        *domain.BankDetails `json:"bank"`
	CreditLimit decimal.Decimal     `json:"creditLimit"`
	Terms       domain.Terms        `json:"terms"`
	CustomDays  int                 `json:"customDays"`
}

// CreateBankAccountRequest seeds a bank or cash account.
type CreateBankAccountRequest struct {
	Name           string                 `json:"name" binding:"required"`
	AccountType    domain.BankAccountType `json:"accountType" binding:"required,oneof=savings current od cc cash"`
	Currency       string                 `json:"currency" binding:"required,len=3"`
	Bank           *domain.BankDetails    `json:"bank"`
	OpeningBalance decimal.Decimal        `json:"openingBalance"`
}

// PartyResponse defines the data returned for a customer or vendor.
type PartyResponse struct {
	PartyID            string                 `json:"partyID"`
	EntityID           string                 `json:"entityID"`
	Kind               domain.PartyKind       `json:"kind"`
	Name               string                 `json:"name"`
	Email              string                 `json:"email,omitempty"`
	Phone              string                 `json:"phone,omitempty"`
	TaxID              string                 `json:"taxID,omitempty"`
	Address            *domain.Address        `json:"address,omitempty"`
	Bank               *domain.BankDetails    `json:"bank,omitempty"`
	Currency           string                 `json:"currency"`
	CreditLimit        decimal.Decimal        `json:"creditLimit"`
	CurrentOutstanding decimal.Decimal        `json:"currentOutstanding"`
	CreditUtilization  decimal.Decimal        `json:"creditUtilization"`
	Band               domain.UtilizationBand `json:"band"`
	Terms              domain.Terms           `json:"terms"`
	CustomDays         int                    `json:"customDays,omitempty"`
	IsActive           bool                   `json:"isActive"`
	CreatedAt          time.Time              `json:"createdAt"`
	CreatedBy          string                 `json:"createdBy"`
}

// ToPartyResponse converts a domain.Party. band is supplied by the exposure calculator.
func ToPartyResponse(p *domain.Party, band domain.UtilizationBand) PartyResponse {
	return PartyResponse{
		PartyID:            p.PartyID,
		EntityID:           p.EntityID,
		Kind:               p.Kind,
		Name:               p.Name,
		Email:              p.Email,
		Phone:              p.Phone,
		TaxID:              p.TaxID,
		Address:            p.Address,
		Bank:               p.Bank,
		Currency:           p.Currency(),
		CreditLimit:        p.CreditLimit.Amount,
		CurrentOutstanding: p.CurrentOutstanding.Amount,
		CreditUtilization:  p.CreditUtilization().Round(domain.MoneyScale),
		Band:               band,
		Terms:              p.Terms,
		CustomDays:         p.CustomDays,
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt,
		CreatedBy:          p.CreatedBy,
	}
}

// BankAccountResponse defines the data returned for a bank account.
type BankAccountResponse struct {
	BankAccountID  string                 `json:"bankAccountID"`
	EntityID       string                 `json:"entityID"`
	Name           string                 `json:"name"`
	AccountType    domain.BankAccountType `json:"accountType"`
	Bank           *domain.BankDetails    `json:"bank,omitempty"`
	Currency       string                 `json:"currency"`
	CurrentBalance decimal.Decimal        `json:"currentBalance"`
	IsActive       bool                   `json:"isActive"`
	Version        int64                  `json:"version"`
}

// ToBankAccountResponse converts a domain.BankAccount.
func ToBankAccountResponse(a *domain.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		BankAccountID:  a.BankAccountID,
		EntityID:       a.EntityID,
		Name:           a.Name,
		AccountType:    a.AccountType,
		Bank:           a.Bank,
		Currency:       a.Currency(),
		CurrentBalance: a.CurrentBalance.Amount,
		IsActive:       a.IsActive,
		Version:        a.Version,
	}
}

// ExposureResponse defines the credit exposure of one party.
type ExposureResponse struct {
	PartyID            string                 `json:"partyID"`
	PartyName          string                 `json:"partyName"`
	Kind               domain.PartyKind       `json:"kind"`
	Currency           string                 `json:"currency"`
	CreditLimit        decimal.Decimal        `json:"creditLimit"`
	CurrentOutstanding decimal.Decimal        `json:"currentOutstanding"`
	CreditUtilization  decimal.Decimal        `json:"creditUtilization"`
	Band               domain.UtilizationBand `json:"band"`
	OpenInvoices       int                    `json:"openInvoices"`
}

// ToExposureResponse converts a domain.CreditExposure.
func ToExposureResponse(e domain.CreditExposure) ExposureResponse {
	return ExposureResponse{
		PartyID:            e.PartyID,
		PartyName:          e.PartyName,
		Kind:               e.Kind,
		Currency:           e.CreditLimit.Currency,
		CreditLimit:        e.CreditLimit.Amount,
		CurrentOutstanding: e.CurrentOutstanding.Amount,
		CreditUtilization:  e.CreditUtilization,
		Band:               e.Band,
		OpenInvoices:       e.OpenInvoices,
	}
}
