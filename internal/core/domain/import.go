package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ImportStatus is the lifecycle of a staged CSV import.
type ImportStatus string

const (
	ImportStaged    ImportStatus = "staged"
	ImportCommitted ImportStatus = "committed"
)

// ImportRow is one parsed, valid transaction row awaiting commit.
// Row is the 1-based data row number in the uploaded file (header excluded).
type ImportRow struct {
	Row         int             `json:"row"`
	Date        time.Time       `json:"date"`
	Entity      string          `json:"entity"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	PartyName   string          `json:"partyName"`
	BankAccount string          `json:"bankAccount,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Fingerprint identifies a row for duplicate detection against stored transactions.
func (r ImportRow) Fingerprint() string {
	return TransactionFingerprint(r.Date, r.Type, r.Amount, r.PartyName)
}

// TransactionFingerprint builds the duplicate-detection key shared by rows and stored transactions.
func TransactionFingerprint(date time.Time, typ TransactionType, amount decimal.Decimal, partyName string) string {
	return strings.Join([]string{
		DateOnly(date).Format(time.DateOnly),
		string(typ),
		amount.StringFixed(MoneyScale),
		strings.ToLower(strings.TrimSpace(partyName)),
	}, "|")
}

// ImportRowError reports why a row was rejected during preview.
type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult is the outcome of a commit; re-submitting a reference returns the stored result.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportBatch is a staged upload referenced by an opaque temp-file reference.
type ImportBatch struct {
	BatchID     string           `json:"batchID"`
	EntityID    string           `json:"entityID"`
	Reference   string           `json:"tempFilePath"`
	Rows        []ImportRow      `json:"rows"`
	Errors      []ImportRowError `json:"errors"`
	Status      ImportStatus     `json:"status"`
	Result      *ImportResult    `json:"result,omitempty"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	CommittedAt *time.Time       `json:"committedAt,omitempty"`
	AuditFields
}

// IsCommitted reports whether the batch has already been applied.
func (b ImportBatch) IsCommitted() bool {
	return b.Status == ImportCommitted
}

// Expired reports whether a staged batch can no longer be committed.
func (b ImportBatch) Expired(now time.Time) bool {
	return !b.IsCommitted() && !b.ExpiresAt.IsZero() && now.After(b.ExpiresAt)
}
