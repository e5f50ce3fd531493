package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits every Money value is rounded to.
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// Money is a fixed-precision amount tagged with an ISO currency code.
// Arithmetic between two non-empty, different currencies panics: currency
// compatibility is validated at the service boundary before any math runs.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney rounds amount to MoneyScale and tags it with currency.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount.Round(MoneyScale), Currency: normalizeCurrency(currency)}
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: normalizeCurrency(currency)}
}

// MoneyFromInt is a convenience for whole-unit amounts.
func MoneyFromInt(units int64, currency string) Money {
	return NewMoney(decimal.NewFromInt(units), currency)
}

// ParseMoney parses a decimal string such as "1250.50".
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d, currency), nil
}

func normalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

func (m Money) currencyWith(o Money) string {
	switch {
	case m.Currency == "":
		return o.Currency
	case o.Currency == "" || o.Currency == m.Currency:
		return m.Currency
	default:
		panic(fmt.Sprintf("money: currency mismatch %s vs %s", m.Currency, o.Currency))
	}
}

// SameCurrency reports whether m and o can be combined without conversion.
func (m Money) SameCurrency(o Money) bool {
	return m.Currency == "" || o.Currency == "" || m.Currency == o.Currency
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return NewMoney(m.Amount.Add(o.Amount), m.currencyWith(o))
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return NewMoney(m.Amount.Sub(o.Amount), m.currencyWith(o))
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Cmp compares m and o: -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	m.currencyWith(o)
	return m.Amount.Cmp(o.Amount)
}

func (m Money) Equal(o Money) bool              { return m.Cmp(o) == 0 }
func (m Money) GreaterThan(o Money) bool        { return m.Cmp(o) > 0 }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.Cmp(o) >= 0 }
func (m Money) LessThan(o Money) bool           { return m.Cmp(o) < 0 }
func (m Money) LessThanOrEqual(o Money) bool    { return m.Cmp(o) <= 0 }

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// MinMoney returns the smaller of a and b.
func MinMoney(a, b Money) Money {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// MaxMoney returns the larger of a and b.
func MaxMoney(a, b Money) Money {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}

// PercentOf returns m / base * 100 rounded to two places; zero when base is zero.
func (m Money) PercentOf(base Money) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	m.currencyWith(base)
	return m.Amount.Div(base.Amount).Mul(hundred).Round(2)
}

func (m Money) String() string {
	if m.Currency == "" {
		return m.Amount.StringFixed(MoneyScale)
	}
	return m.Amount.StringFixed(MoneyScale) + " " + m.Currency
}

// SumMoney adds up values, starting at zero in the given currency.
func SumMoney(currency string, values ...Money) Money {
	total := ZeroMoney(currency)
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
