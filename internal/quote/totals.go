package quote

import "github.com/diewo77/go-quotes/internal/money"

// Totals is the computed breakdown of a quote. It is a value: recompute it
// after every change instead of storing it.
type Totals struct {
	Subtotal    money.Money `json:"subtotal"`
	Discount    money.Money `json:"discount"`
	TaxableBase money.Money `json:"taxable_base"`
	TaxAmount   money.Money `json:"tax_amount"`
	GrandTotal  money.Money `json:"grand_total"`
}

// Compute folds line items and financials into Totals. It never fails:
// items and financials are validated when they are built.
//
//	subtotal     = Σ line totals
//	discount     = min(discount, subtotal)
//	taxable base = subtotal - discount
//	tax          = round(taxable base × rate / 100), half away from zero
//	grand total  = taxable base + tax
func Compute(items []LineItem, fin Financials) Totals {
	subtotal := money.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total())
	}
	discount := money.Min(fin.discount, subtotal)
	base := subtotal.Sub(discount)
	tax := base.Percent(fin.vatRate)
	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		TaxableBase: base,
		TaxAmount:   tax,
		GrandTotal:  base.Add(tax),
	}
}
