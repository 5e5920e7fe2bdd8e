package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned by ParseCents for malformed amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// FormatCents renders cents with two decimals: 540 -> "5.40".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParseCents parses a decimal currency amount such as "5.40" or "12" into
// cents. More than two fractional digits is an error rather than a silent
// rounding.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than two decimals", ErrInvalidAmount, s)
	}
	if cents.Abs().GreaterThan(decimal.New(1, 15)) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return cents.IntPart(), nil
}
