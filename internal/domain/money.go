package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"table-service/internal/common/apperr"
)

// DefaultCurrency is used for totals of orders without items.
const DefaultCurrency = "VND"

// Money is an immutable non-negative amount in a single currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney rounds amount to two decimals and upper-cases the currency code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, apperr.WithMetadata(apperr.CodeInvalidMoney, "money amount must not be negative",
			map[string]string{"amount": amount.String()})
	}
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount.Round(2), currency: cur}, nil
}

// MustMoney is NewMoney for literals known to be valid.
func MustMoney(amount float64, currency string) Money {
	m, err := NewMoney(decimal.NewFromFloat(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount in currency (DefaultCurrency when empty).
func ZeroMoney(currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	cur, err := normalizeCurrency(currency)
	if err != nil {
		cur = DefaultCurrency
	}
	return Money{amount: decimal.Zero, currency: cur}
}

func normalizeCurrency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if len(c) != 3 {
		return "", apperr.WithMetadata(apperr.CodeInvalidCurrency, "currency must be a 3-letter code",
			map[string]string{"currency": c})
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", apperr.WithMetadata(apperr.CodeInvalidCurrency, "currency must be a 3-letter code",
				map[string]string{"currency": c})
		}
	}
	return c, nil
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return apperr.WithMetadata(apperr.CodeCurrencyMismatch, "currency mismatch",
			map[string]string{"left": m.currency, "right": o.currency})
	}
	return nil
}

func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(o.amount).Round(2), currency: m.currency}, nil
}

// Sub fails when the result would be negative.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(o.amount), m.currency)
}

func (m Money) Mul(q Quantity) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(q.Value()))).Round(2), currency: m.currency}
}

// Equal compares currency and amount exactly.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}
