package models

import "github.com/shopspring/decimal"

// Entity is a row of the entities table.
type Entity struct {
	EntityID     string `db:"entity_id"`
	Name         string `db:"name"`
	BaseCurrency string `db:"base_currency"`
	IsActive     bool   `db:"is_active"`
	AuditFields
}

// Party is a row of the parties table. Address and Bank are JSONB documents.
type Party struct {
	PartyID            string          `db:"party_id"`
	EntityID           string          `db:"entity_id"`
	Kind               string          `db:"kind"`
	Name               string          `db:"name"`
	Email              string          `db:"email"`
	Phone              string          `db:"phone"`
	TaxID              string          `db:"tax_id"`
	Address            []byte          `db:"address"`
	Bank               []byte          `db:"bank"`
	Currency           string          `db:"currency"`
	CreditLimit        decimal.Decimal `db:"credit_limit"`
	CurrentOutstanding decimal.Decimal `db:"current_outstanding"`
	Terms              string          `db:"terms"`
	CustomDays         int             `db:"custom_days"`
	IsActive           bool            `db:"is_active"`
	Version            int64           `db:"version"`
	AuditFields
}

// BankAccount is a row of the bank_accounts table. Bank is NULL for cash accounts.
type BankAccount struct {
	BankAccountID  string          `db:"bank_account_id"`
	EntityID       string          `db:"entity_id"`
	Name           string          `db:"name"`
	AccountType    string          `db:"account_type"`
	Bank           []byte          `db:"bank"`
	Currency       string          `db:"currency"`
	CurrentBalance decimal.Decimal `db:"current_balance"`
	IsActive       bool            `db:"is_active"`
	Version        int64           `db:"version"`
	AuditFields
}
