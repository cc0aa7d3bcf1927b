package quote

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/diewo77/go-quotes/internal/money"
	"github.com/shopspring/decimal"
)

// QuantityScale is the number of fraction digits a quantity may carry (0.125 h).
const QuantityScale = 3

// plainNumber is the only text form accepted for quantities and rates:
// no exponent, bounded length.
var plainNumber = regexp.MustCompile(`^[+-]?\d{1,15}([.,]\d{1,15})?$`)

// LineItem is one billable row. It has no identity beyond its position in the
// owning Quote and is only changed through that Quote.
type LineItem struct {
	title     string
	subtitle  string
	quantity  decimal.Decimal
	unitPrice money.Money
}

// NewLineItem validates and builds a row.
func NewLineItem(title, subtitle string, quantity decimal.Decimal, unitPrice money.Money) (LineItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return LineItem{}, fieldErr("title", fmt.Errorf("%w: title is required", ErrInvalidLineItem))
	}
	if err := checkQuantity(quantity, quantity.String()); err != nil {
		return LineItem{}, err
	}
	if unitPrice.IsNegative() {
		return LineItem{}, fieldErr("unit_price", fmt.Errorf("%w: unit price %s is negative", ErrInvalidLineItem, unitPrice))
	}
	return LineItem{
		title:     title,
		subtitle:  strings.TrimSpace(subtitle),
		quantity:  quantity,
		unitPrice: unitPrice,
	}, nil
}

// ParseQuantity reads "2", "1.5" or "0,25".
func ParseQuantity(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if !plainNumber.MatchString(raw) {
		return decimal.Zero, fieldErr("quantity", fmt.Errorf("%w: quantity %q is not a number", ErrInvalidLineItem, s))
	}
	q, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fieldErr("quantity", fmt.Errorf("%w: quantity %q is not a number", ErrInvalidLineItem, s))
	}
	if err := checkQuantity(q, fmt.Sprintf("%q", s)); err != nil {
		return decimal.Zero, err
	}
	return q, nil
}

// checkQuantity names the quantity as shown in its messages.
func checkQuantity(q decimal.Decimal, shown string) error {
	if q.IsNegative() {
		return fieldErr("quantity", fmt.Errorf("%w: quantity %s is negative", ErrInvalidLineItem, shown))
	}
	if !q.Equal(q.Round(QuantityScale)) {
		return fieldErr("quantity", fmt.Errorf("%w: quantity %s has more than %d decimal places", ErrInvalidLineItem, shown, QuantityScale))
	}
	return nil
}

// IsZero reports whether li was never built by NewLineItem.
func (li LineItem) IsZero() bool { return li.title == "" }

func (li LineItem) Title() string             { return li.title }
func (li LineItem) Subtitle() string          { return li.subtitle }
func (li LineItem) Quantity() decimal.Decimal { return li.quantity }
func (li LineItem) UnitPrice() money.Money    { return li.unitPrice }

// Total is unit price times quantity, exact. It may carry up to
// money.Scale+QuantityScale fraction digits; only the tax is rounded.
func (li LineItem) Total() money.Money {
	return li.unitPrice.MulQuantity(li.quantity)
}
