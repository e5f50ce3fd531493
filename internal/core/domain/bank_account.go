package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
)

// BankAccountType classifies where an entity holds its money.
type BankAccountType string

const (
	AccountSavings BankAccountType = "savings"
	AccountCurrent BankAccountType = "current"
	AccountOD      BankAccountType = "od"
	AccountCC      BankAccountType = "cc"
	AccountCash    BankAccountType = "cash"
)

// Valid reports whether t is one of the known account types.
func (t BankAccountType) Valid() bool {
	switch t {
	case AccountSavings, AccountCurrent, AccountOD, AccountCC, AccountCash:
		return true
	}
	return false
}

// BankDetails holds the bank-specific identification of a non-cash account.
type BankDetails struct {
	AccountNumber string `json:"accountNumber" validate:"required"`
	IFSC          string `json:"ifsc" validate:"required,len=11"`
	BankName      string `json:"bankName" validate:"required"`
	Branch        string `json:"branch,omitempty"`
}

// BankAccount belongs to exactly one Entity. CurrentBalance is maintained from settled transactions.
type BankAccount struct {
	BankAccountID  string          `json:"bankAccountID"`
	EntityID       string          `json:"entityID"`
	Name           string          `json:"name"`
	AccountType    BankAccountType `json:"accountType"`
	Bank           *BankDetails    `json:"bank,omitempty"` // nil for cash accounts
	CurrentBalance Money           `json:"currentBalance"`
	IsActive       bool            `json:"isActive"`
	Version        int64           `json:"version"`
	AuditFields
}

// Currency is the currency the account balance is kept in.
func (a BankAccount) Currency() string {
	return a.CurrentBalance.Currency
}

// Validate enforces the cash/non-cash shape rules.
func (a BankAccount) Validate() error {
	if strings.TrimSpace(a.EntityID) == "" {
		return fmt.Errorf("%w: bank account must belong to an entity", apperrors.ErrValidation)
	}
	if !a.AccountType.Valid() {
		return fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, a.AccountType)
	}
	if a.AccountType == AccountCash {
		if a.Bank != nil {
			return fmt.Errorf("%w: cash accounts cannot carry bank details", apperrors.ErrValidation)
		}
		return nil
	}
	if a.Bank == nil {
		return fmt.Errorf("%w: %s accounts require bank details", apperrors.ErrValidation, a.AccountType)
	}
	if err := validate.Struct(a.Bank); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	return nil
}
