// Package money provides the fixed-point monetary type used for every amount
// on a quote. Amounts are exact decimals (github.com/shopspring/decimal); binary
// floating point never touches a price, a discount or a tax.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of minor-unit digits kept by a rounded amount (cents).
const Scale = 2

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeResult = errors.New("negative result")
)

var (
	amountPattern = regexp.MustCompile(`^[+-]?\d+([.,]\d+)?$`)
	groupingChars = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "_", "")
)

// Money is an immutable monetary amount. The zero value is 0. Parsed amounts
// have at most Scale fraction digits; products by a quantity may have more
// until Percent rounds them.
type Money struct {
	amount decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// Parse reads a non-negative amount such as "1234.50", "1 234,50" or "12".
// More than Scale significant fraction digits is rejected.
func Parse(s string) (Money, error) {
	m, err := ParseSigned(s)
	if err != nil {
		return Zero, err
	}
	if m.IsNegative() {
		return Zero, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	return m, nil
}

// ParseSigned is Parse but accepts a leading minus sign.
func ParseSigned(s string) (Money, error) {
	raw := groupingChars.Replace(strings.TrimSpace(s))
	if !amountPattern.MatchString(raw) {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.Equal(d.Round(Scale)) {
		return Zero, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, Scale)
	}
	return Money{amount: d}, nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Money {
	m, err := ParseSigned(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal wraps d, rejecting values finer than the minor unit.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Round(Scale)) {
		return Zero, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), Scale)
	}
	return Money{amount: d}, nil
}

// FromCents builds an amount from integer minor units.
func FromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -Scale)}
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns m - other; the result may be negative.
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// SubNonNegative returns m - other, failing with ErrNegativeResult when the
// result would drop below zero.
func (m Money) SubNonNegative(other Money) (Money, error) {
	diff := m.Sub(other)
	if diff.IsNegative() {
		return Zero, fmt.Errorf("%w: %s - %s", ErrNegativeResult, m, other)
	}
	return diff, nil
}

// MulQuantity multiplies by a (possibly fractional) quantity. The product is
// exact and may carry more than Scale fraction digits.
func (m Money) MulQuantity(qty decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(qty)}
}

// Percent returns percent% of m rounded half away from zero to the minor unit.
func (m Money) Percent(percent decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(percent).Shift(-2).Round(Scale)}
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(other Money) int { return m.amount.Cmp(other.amount) }

func (m Money) Equal(other Money) bool { return m.amount.Equal(other.amount) }

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Decimal exposes the underlying exact value.
func (m Money) Decimal() decimal.Decimal { return m.amount }

// Float64 returns the amount rounded to the minor unit, for spreadsheet cells.
func (m Money) Float64() float64 { return m.amount.Round(Scale).InexactFloat64() }

// Cents returns the amount in minor units, rounding half away from zero.
func (m Money) Cents() int64 {
	return m.amount.Shift(Scale).Round(0).IntPart()
}

// String renders the amount rounded half away from zero to exactly Scale
// fraction digits, e.g. "1234.50".
func (m Money) String() string { return m.amount.StringFixed(Scale) }

// MarshalJSON encodes the amount as a JSON string to keep it exact.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts "12.50" or 12.50.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*m = Zero
		return nil
	}
	parsed, err := ParseSigned(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	m.amount = d
	return nil
}
