package shared

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// ErrCurrencyMismatch occurs when two Money values use different currencies.
	ErrCurrencyMismatch = errors.New("shared: currency mismatch")
	// ErrNegativeAmount occurs when an operation would produce a negative amount.
	ErrNegativeAmount = errors.New("shared: negative amount")
)

// Money is an immutable amount in integer minor units tagged with a currency code.
// All arithmetic is exact; operations never mutate the receiver.
type Money struct {
	amount   int64
	currency string
}

// NewMoney builds a Money value. Negative amounts are rejected.
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	if currency == "" {
		return Money{}, errors.New("shared: currency code required")
	}
	return Money{amount: amount, currency: currency}, nil
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) Money {
	return Money{amount: 0, currency: currency}
}

// Amount returns the amount in minor units.
func (m Money) Amount() int64 { return m.amount }

// Currency returns the ISO currency code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// Equals reports whether both amount and currency match.
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

// GreaterThan reports whether m exceeds other. Differing currencies compare false.
func (m Money) GreaterThan(other Money) bool {
	return m.currency == other.currency && m.amount > other.amount
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Subtract returns m - other, failing when the result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	if other.amount > m.amount {
		return Money{}, fmt.Errorf("%w: %d - %d", ErrNegativeAmount, m.amount, other.amount)
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// Multiply returns m scaled by a non-negative integer factor.
func (m Money) Multiply(factor int64) (Money, error) {
	if factor < 0 {
		return Money{}, fmt.Errorf("%w: factor %d", ErrNegativeAmount, factor)
	}
	return Money{amount: m.amount * factor, currency: m.currency}, nil
}

// Percentage returns the given whole percentage of m, truncating remainders.
func (m Money) Percentage(percent int64) (Money, error) {
	if percent < 0 {
		return Money{}, fmt.Errorf("%w: percent %d", ErrNegativeAmount, percent)
	}
	return Money{amount: m.amount * percent / 100, currency: m.currency}, nil
}

// BasisPoints returns the given fraction of m expressed in basis points
// (1/100 of a percent), truncating remainders. Rate tables in the pricing
// engine are kept in basis points so the math stays integral.
func (m Money) BasisPoints(bp int64) (Money, error) {
	if bp < 0 {
		return Money{}, fmt.Errorf("%w: basis points %d", ErrNegativeAmount, bp)
	}
	return Money{amount: m.amount * bp / 10_000, currency: m.currency}, nil
}

// String renders the amount with the currency code, e.g. "IDR 5000000".
func (m Money) String() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s %d", m.currency, m.amount)
}

func (m Money) assertSameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}
