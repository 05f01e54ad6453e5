package enums

import (
	"fmt"
	"strings"
)

// Currency is an ISO-4217 code accepted by the order ledger.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyAUD Currency = "AUD"
	CurrencyCAD Currency = "CAD"
	CurrencyJPY Currency = "JPY"
	CurrencyKWD Currency = "KWD"
	CurrencyBHD Currency = "BHD"
)

var validCurrencies = []Currency{
	CurrencyINR,
	CurrencyUSD,
	CurrencyEUR,
	CurrencyGBP,
	CurrencyAUD,
	CurrencyCAD,
	CurrencyJPY,
	CurrencyKWD,
	CurrencyBHD,
}

// minorUnitExponents lists the currencies whose minor unit is not 1/100.
var minorUnitExponents = map[Currency]int32{
	CurrencyJPY: 0,
	CurrencyKWD: 3,
	CurrencyBHD: 3,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

func (c Currency) IsValid() bool { return known(validCurrencies, c) }

// MinorUnitExponent returns the number of decimal places in the currency's minor unit.
func (c Currency) MinorUnitExponent() int32 {
	if exp, ok := minorUnitExponents[c]; ok {
		return exp
	}
	return 2
}

// ParseCurrency converts a raw string into a Currency. Input is case-insensitive.
func ParseCurrency(value string) (Currency, error) {
	c, err := parse(validCurrencies, strings.ToUpper(strings.TrimSpace(value)), "currency")
	if err != nil {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	return c, nil
}
