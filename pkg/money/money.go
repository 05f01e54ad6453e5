// Package money converts between major-unit decimal amounts and the integer
// minor units the payment gateway charges in.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

var (
	hundred       = decimal.NewFromInt(100)
	maxMinorUnits = decimal.NewFromInt(1 << 53)
)

// ToMinorUnits converts a major-unit amount to minor units for currency.
// Amounts carrying more precision than the currency allows are rejected rather
// than silently rounded.
func ToMinorUnits(amount decimal.Decimal, currency enums.Currency) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount must be non-negative")
	}
	exp := currency.MinorUnitExponent()
	shifted := amount.Shift(exp)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places for %s", amount.String(), exp, currency)
	}
	if shifted.GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("amount %s out of range", amount.String())
	}
	return shifted.IntPart(), nil
}

// FromMinorUnits converts minor units back to a major-unit decimal.
func FromMinorUnits(minor int64, currency enums.Currency) decimal.Decimal {
	return decimal.New(minor, -currency.MinorUnitExponent())
}

// RoundToCurrency rounds amount to the currency's minor unit.
func RoundToCurrency(amount decimal.Decimal, currency enums.Currency) decimal.Decimal {
	return amount.Round(currency.MinorUnitExponent())
}

// DiscountedPrice returns price × (1 − discountPercent/100) rounded to the
// currency's minor unit. discountPercent must be within [0, 100].
func DiscountedPrice(price, discountPercent decimal.Decimal, currency enums.Currency) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price must be non-negative")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("discount must be between 0 and 100")
	}
	factor := hundred.Sub(discountPercent).Div(hundred)
	return RoundToCurrency(price.Mul(factor), currency), nil
}

// Number renders amount with the currency's fixed decimals as a JSON number,
// e.g. 850 INR becomes 850.00.
func Number(amount decimal.Decimal, currency enums.Currency) json.Number {
	return json.Number(amount.StringFixed(currency.MinorUnitExponent()))
}
