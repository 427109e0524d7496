package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var amountNoise = strings.NewReplacer("$", "", ",", "", " ", "", "USD", "")

// ParseAmount parses a currency-formatted amount such as "$1,234.50",
// "-$12.50", "$(1,234.50)" or "- $ 4.00". Parentheses denote a negative
// value.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	amount := amountNoise.Replace(strings.TrimSpace(amountStr))
	negative := false
	if strings.HasPrefix(amount, "(") && strings.HasSuffix(amount, ")") {
		negative = true
		amount = amount[1 : len(amount)-1]
	}
	amount = strings.TrimPrefix(amount, "+")
	if amount == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", amountStr)
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	if negative {
		dec = dec.Neg()
	}
	return dec, nil
}

// FormatAmount renders an amount with two decimals, the way exports store it.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
