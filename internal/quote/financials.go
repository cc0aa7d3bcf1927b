package quote

import (
	"fmt"
	"strings"

	"github.com/diewo77/go-quotes/internal/money"
	"github.com/shopspring/decimal"
)

const rateScale = 2

var hundred = decimal.NewFromInt(100)

// Financials holds the VAT rate (percent) and the flat discount of a quote.
// A discount larger than the subtotal is legal here; Compute clamps it.
type Financials struct {
	vatRate  decimal.Decimal
	discount money.Money
}

// NewFinancials validates vatRate in [0,100] and discount >= 0.
func NewFinancials(vatRate decimal.Decimal, discount money.Money) (Financials, error) {
	if vatRate.IsNegative() || vatRate.GreaterThan(hundred) {
		return Financials{}, fieldErr("vat_rate", fmt.Errorf("%w: %s is outside [0,100]", ErrInvalidRate, vatRate))
	}
	if !vatRate.Equal(vatRate.Round(rateScale)) {
		return Financials{}, fieldErr("vat_rate", fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidRate, vatRate, rateScale))
	}
	if discount.IsNegative() {
		return Financials{}, fieldErr("discount", fmt.Errorf("%w: %s is negative", ErrInvalidDiscount, discount))
	}
	return Financials{vatRate: vatRate, discount: discount}, nil
}

// ParseRate reads a percentage such as "20", "5.5" or "5,5".
func ParseRate(s string) (decimal.Decimal, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(s), "%")
	raw = strings.TrimSpace(raw)
	if !plainNumber.MatchString(raw) {
		return decimal.Zero, fieldErr("vat_rate", fmt.Errorf("%w: %q is not a number", ErrInvalidRate, s))
	}
	r, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fieldErr("vat_rate", fmt.Errorf("%w: %q is not a number", ErrInvalidRate, s))
	}
	return r, nil
}

func (f Financials) VATRate() decimal.Decimal { return f.vatRate }
func (f Financials) Discount() money.Money    { return f.discount }
