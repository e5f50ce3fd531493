package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// PartyKind distinguishes customers (receivables) from vendors (payables).
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartyVendor   PartyKind = "vendor"
)

// Terms selects the day-count used to default an invoice's due date: "immediate",
// "net_N" (e.g. net_30) or "custom".
type Terms string

const (
	TermsImmediate Terms = "immediate"
	TermsCustom    Terms = "custom"
	TermsNet15     Terms = "net_15"
	TermsNet30     Terms = "net_30"
	TermsNet45     Terms = "net_45"
	TermsNet60     Terms = "net_60"
	TermsNet90     Terms = "net_90"
)

// DayCount resolves the number of days an invoice stays current. customDays is
// only consulted for TermsCustom.
func (t Terms) DayCount(customDays int) (int, error) {
	switch {
	case t == "" || t == TermsImmediate:
		return 0, nil
	case t == TermsCustom:
		if customDays < 0 {
			return 0, fmt.Errorf("%w: custom terms require a non-negative day count", apperrors.ErrValidation)
		}
		return customDays, nil
	case strings.HasPrefix(string(t), "net_"):
		n, err := strconv.Atoi(strings.TrimPrefix(string(t), "net_"))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: malformed terms %q", apperrors.ErrValidation, t)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: unknown terms %q", apperrors.ErrValidation, t)
}

// Address is a postal address value object.
type Address struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country" validate:"required,len=2"`
}

// Party is a customer or vendor of an Entity.
//
// CurrentOutstanding is derived from the party's invoices and is only rewritten
// inside the same ledger transaction that changes one of those invoices.
type Party struct {
	PartyID            string       `json:"partyID"`
	EntityID           string       `json:"entityID" validate:"required"`
	Kind               PartyKind    `json:"kind" validate:"required,oneof=customer vendor"`
	Name               string       `json:"name" validate:"required"`
	Email              string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone              string       `json:"phone,omitempty"`
	TaxID              string       `json:"taxID,omitempty"`
	Address            *Address     `json:"address,omitempty"`
	Bank               *BankDetails `json:"bank,omitempty"`
	CreditLimit        Money        `json:"creditLimit"`
	CurrentOutstanding Money        `json:"currentOutstanding"`
	Terms              Terms        `json:"terms"`
	CustomDays         int          `json:"customDays,omitempty"`
	IsActive           bool         `json:"isActive"`
	Version            int64        `json:"version"`
	AuditFields
}

// Currency is the currency the party's credit limit and outstanding are tracked in.
func (p Party) Currency() string {
	return p.CreditLimit.Currency
}

// MatchingInvoiceType is the invoice type that contributes to this party's exposure.
func (p Party) MatchingInvoiceType() InvoiceType {
	if p.Kind == PartyVendor {
		return InvoicePurchase
	}
	return InvoiceSales
}

// DueDateFrom defaults a due date from the party's terms.
func (p Party) DueDateFrom(invoiceDate time.Time) (time.Time, error) {
	days, err := p.Terms.DayCount(p.CustomDays)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(invoiceDate).AddDate(0, 0, days), nil
}

// CreditUtilization is outstanding / limit * 100, or zero when no limit is set.
func (p Party) CreditUtilization() decimal.Decimal {
	if !p.CreditLimit.IsPositive() {
		return decimal.Zero
	}
	return p.CurrentOutstanding.PercentOf(p.CreditLimit)
}

// PartyBuilder assembles a Party with typed value objects instead of string-path mutation.
type PartyBuilder struct {
	party Party
	err   error
}

// NewCustomer starts a customer builder.
func NewCustomer(entityID, name, currency string) *PartyBuilder {
	return newPartyBuilder(entityID, name, currency, PartyCustomer)
}

// NewVendor starts a vendor builder.
func NewVendor(entityID, name, currency string) *PartyBuilder {
	return newPartyBuilder(entityID, name, currency, PartyVendor)
}

func newPartyBuilder(entityID, name, currency string, kind PartyKind) *PartyBuilder {
	return &PartyBuilder{party: Party{
		EntityID:           strings.TrimSpace(entityID),
		Kind:               kind,
		Name:               strings.TrimSpace(name),
		CreditLimit:        ZeroMoney(currency),
		CurrentOutstanding: ZeroMoney(currency),
		Terms:              TermsImmediate,
		IsActive:           true,
	}}
}

func (b *PartyBuilder) WithID(id string) *PartyBuilder {
	b.party.PartyID = id
	return b
}

func (b *PartyBuilder) WithEmail(email string) *PartyBuilder {
	b.party.Email = strings.TrimSpace(email)
	return b
}

func (b *PartyBuilder) WithTaxID(taxID string) *PartyBuilder {
	b.party.TaxID = strings.TrimSpace(taxID)
	return b
}

func (b *PartyBuilder) WithAddress(addr Address) *PartyBuilder {
	b.party.Address = &addr
	return b
}

func (b *PartyBuilder) WithBankDetails(bank BankDetails) *PartyBuilder {
	b.party.Bank = &bank
	return b
}

// WithCreditLimit sets the limit; it must be non-negative.
func (b *PartyBuilder) WithCreditLimit(limit decimal.Decimal) *PartyBuilder {
	if limit.IsNegative() {
		b.err = fmt.Errorf("%w: credit limit cannot be negative", apperrors.ErrValidation)
		return b
	}
	b.party.CreditLimit = NewMoney(limit, b.party.CreditLimit.Currency)
	return b
}

// WithTerms sets the payment/credit terms; customDays applies to TermsCustom only.
func (b *PartyBuilder) WithTerms(terms Terms, customDays int) *PartyBuilder {
	if _, err := terms.DayCount(customDays); err != nil {
		b.err = err
		return b
	}
	b.party.Terms = terms
	b.party.CustomDays = customDays
	return b
}

// Build validates and returns the party.
func (b *PartyBuilder) Build() (Party, error) {
	if b.err != nil {
		return Party{}, b.err
	}
	if err := validate.Struct(b.party); err != nil {
		return Party{}, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if b.party.CreditLimit.Currency == "" {
		return Party{}, fmt.Errorf("%w: party currency is required", apperrors.ErrValidation)
	}
	return b.party, nil
}
