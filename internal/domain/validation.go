package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyUSD is the only currency the ledger and the carrier path handle.
const CurrencyUSD = "USD"

var (
	// Regex pattern for validating decimal amounts with up to 2 decimal places
	amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

// Amount is a monetary value as it crosses transport boundaries.
type Amount struct {
	Value        string // Decimal string with up to 2 decimal places (e.g., "100.00")
	CurrencyCode string // ISO 4217 currency code, USD only
}

// NewAmount renders a decimal as a USD Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: FormatAmount(d), CurrencyCode: CurrencyUSD}
}

// Decimal validates the currency and parses the value.
// An empty currency code is treated as USD.
func (a Amount) Decimal() (decimal.Decimal, error) {
	if a.CurrencyCode != "" {
		if err := ValidateCurrencyCode(a.CurrencyCode); err != nil {
			return decimal.Zero, err
		}
	}
	return ParseAmount(a.Value)
}

// ParseAmount parses a non-negative decimal string with at most 2 fraction digits.
// Zero is accepted here; operations that need a positive amount check that themselves.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, fmt.Errorf("%w: amount value cannot be empty", ErrInvalidAmount)
	}

	if !amountPattern.MatchString(value) {
		return decimal.Zero, fmt.Errorf("%w: %q must be a non-negative decimal with up to 2 decimal places", ErrInvalidAmount, value)
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return d, nil
}

// AmountFromFloat converts a float, rejecting NaN, infinities and negatives.
// The value is rounded to cents.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: amount must be finite", ErrInvalidAmount)
	}
	if f < 0 {
		return decimal.Zero, fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	}
	return decimal.NewFromFloat(f).Round(2), nil
}

// RequirePositive returns ErrInvalidAmount unless amount > 0 with at most 2 fraction digits.
func RequirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: at most 2 decimal places", ErrInvalidAmount)
	}
	return nil
}

// FormatAmount renders an amount with exactly 2 fraction digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ValidateCurrencyCode accepts only USD; multi-currency is not supported.
func ValidateCurrencyCode(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: currency code must be 3 characters (ISO 4217)", ErrCurrencyMismatch)
	}

	if code != CurrencyUSD {
		return fmt.Errorf("%w: only %s is supported, got %s", ErrCurrencyMismatch, CurrencyUSD, code)
	}

	return nil
}
