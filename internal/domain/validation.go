package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
)

// Validation constants
const (
	MaxDescriptionLength = 500
	MaxEntryAmount       = "1000000000000000" // 10^15
	MaxAmountScale       = 4                  // NUMERIC(20, 4)
	ReferenceLength      = 10
	DefaultPageSize      = 20
	MaxPageSize          = 100
	DefaultCurrency      = "IRR"
)

var maxEntryAmount = decimal.RequireFromString(MaxEntryAmount)

// Supported wallet currencies (ISO 4217)
var validCurrencies = map[string]bool{
	"IRR": true, "IRT": true, "USD": true, "EUR": true,
	"GBP": true, "AED": true, "TRY": true, "CAD": true,
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = NormalizeCurrency(currency)

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a supported currency", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a strictly positive amount such as a hold or withdrawal.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MaxAmountScale)
	}

	if amount.GreaterThan(maxEntryAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	return nil
}

// ValidateSignedAmount validates a non-zero ledger delta.
func ValidateSignedAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}
	return ValidateAmount(amount.Abs())
}

// ValidateDescription rejects blank or oversized descriptions.
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)

	if description == "" {
		return ErrInvalidDescription
	}

	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}

	return nil
}

// ValidateReference checks the 10-digit numeric reference format.
func ValidateReference(ref string) error {
	if len(ref) != ReferenceLength {
		return ErrInvalidReference
	}
	for _, c := range ref {
		if c < '0' || c > '9' {
			return ErrInvalidReference
		}
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
