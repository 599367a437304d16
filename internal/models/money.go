package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultCurrency is used when a payment is added without a currency code.
const DefaultCurrency = "USD"

// maxUnits is the largest whole amount whose value in cents fits an int64.
const maxUnits = (math.MaxInt64 - 99) / 100

var (
	// ErrInvalidAmount is returned for amounts that are not parseable decimals.
	ErrInvalidAmount = errors.New("amount must be a decimal number with at most two fractional digits")
	// ErrNonPositiveAmount is returned for zero or negative amounts.
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
)

// Money is an amount in minor units (cents) with an ISO 4217 currency code.
type Money struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

// ParseMoney parses user-entered amounts such as "1200", "1200.00", "$50" or "1,200.50".
// Only positive amounts with at most two fractional digits are accepted.
func ParseMoney(raw, currency string) (Money, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return Money{}, ErrNonPositiveAmount
	}
	if s == "" {
		return Money{}, ErrInvalidAmount
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	whole, ok := stripGrouping(whole)
	if !ok {
		return Money{}, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return Money{}, ErrInvalidAmount
	}
	if !allDigits(whole) || !allDigits(frac) {
		return Money{}, ErrInvalidAmount
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if units > maxUnits {
		return Money{}, ErrInvalidAmount
	}
	var cents int64
	if frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}
	total := units*100 + cents
	if total <= 0 {
		return Money{}, ErrNonPositiveAmount
	}
	return Money{Cents: total, Currency: strings.ToUpper(currency)}, nil
}

// Decimal renders the amount as a plain decimal string, e.g. "1200.00".
func (m Money) Decimal() string {
	return fmt.Sprintf("%d.%02d", m.Cents/100, m.Cents%100)
}

// String renders the amount for display, e.g. "$1200.00" or "15.00 EUR".
func (m Money) String() string {
	if m.Currency == "" || m.Currency == DefaultCurrency {
		return "$" + m.Decimal()
	}
	return m.Decimal() + " " + m.Currency
}

// stripGrouping removes thousands separators. Commas are only accepted between groups of
// exactly three digits, with a leading group of one to three.
func stripGrouping(whole string) (string, bool) {
	if !strings.Contains(whole, ",") {
		return whole, true
	}
	groups := strings.Split(whole, ",")
	if len(groups[0]) < 1 || len(groups[0]) > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
