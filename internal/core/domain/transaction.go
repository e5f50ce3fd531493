package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
)

// TransactionType indicates whether money came into or went out of a bank account.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// TransactionStatus is the settlement state of a bank transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionPaid      TransactionStatus = "paid"
	TransactionCancelled TransactionStatus = "cancelled"
)

// Transaction is a single bank movement, entered by hand or imported from CSV.
// Only paid transactions count towards the bank account balance.
type Transaction struct {
	TransactionID   string            `json:"transactionID"`
	EntityID        string            `json:"entityID"`
	BankAccountID   string            `json:"bankAccountID,omitempty"`
	TransactionDate time.Time         `json:"transactionDate"`
	Type            TransactionType   `json:"type"`
	Amount          Money             `json:"amount"`
	PartyName       string            `json:"partyName,omitempty"`
	Description     string            `json:"description,omitempty"`
	Status          TransactionStatus `json:"status"`
	ImportBatchID   string            `json:"importBatchID,omitempty"`
	Version         int64             `json:"version"`
	AuditFields
}

// signed returns the amount as it affects a bank balance.
func (t Transaction) signed() Money {
	if t.Type == TransactionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Transition validates moving t to status `to` and returns the change it causes to the
// linked bank account balance. changed is false when t is already in `to`.
// Cancelled is terminal.
func (t Transaction) Transition(to TransactionStatus) (delta Money, changed bool, err error) {
	zero := ZeroMoney(t.Amount.Currency)
	if t.Status == to {
		return zero, false, nil
	}
	switch {
	case t.Status == TransactionCancelled:
		return zero, false, fmt.Errorf("%w: transaction %s is cancelled", apperrors.ErrInvalidStateTransition, t.TransactionID)
	case t.Status == TransactionPending && to == TransactionPaid:
		return t.signed(), true, nil
	case t.Status == TransactionPending && to == TransactionCancelled:
		return zero, true, nil
	case t.Status == TransactionPaid && to == TransactionCancelled:
		return t.signed().Neg(), true, nil
	}
	return zero, false, fmt.Errorf("%w: transaction %s cannot move from %s to %s", apperrors.ErrInvalidStateTransition, t.TransactionID, t.Status, to)
}

// Validate checks the fields every stored transaction must carry.
func (t Transaction) Validate() error {
	if t.EntityID == "" {
		return fmt.Errorf("%w: transaction entity is required", apperrors.ErrValidation)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, t.Type)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: transaction amount must be positive", apperrors.ErrValidation)
	}
	if t.Amount.Currency == "" {
		return fmt.Errorf("%w: transaction currency is required", apperrors.ErrValidation)
	}
	if t.TransactionDate.IsZero() {
		return fmt.Errorf("%w: transaction date is required", apperrors.ErrValidation)
	}
	return nil
}

// StatusUpdateOutcome is the per-record result of a bulk status change.
type StatusUpdateOutcome struct {
	TransactionID string            `json:"transactionID"`
	Status        TransactionStatus `json:"status,omitempty"`
	Result        string            `json:"result"` // updated, unchanged or failed
	Error         string            `json:"error,omitempty"`
}

const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

// TransactionFilter selects transactions for dashboards and listings.
type TransactionFilter struct {
	EntityID string
	From     *time.Time
	To       *time.Time
	Status   TransactionStatus
}
