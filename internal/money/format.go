package money

import "strings"

// nbsp keeps an amount and its symbol on one printed line.
const nbsp = "\u00a0"

var symbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "CHF",
	"XOF": "FCFA",
}

// Symbol returns the display symbol of an ISO 4217 code, or the code itself.
func Symbol(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

// Format renders m for documents in the given language.
//
//	fr: 1 234,56 €   (no-break space grouping, comma decimal, trailing symbol)
//	en: €1,234.56
func Format(m Money, lang, currency string) string {
	raw := m.amount.Abs().StringFixed(Scale)
	intPart, frac, _ := strings.Cut(raw, ".")
	sym := Symbol(currency)
	sign := ""
	if m.IsNegative() {
		sign = "-"
	}
	switch lang {
	case "en":
		return sign + sym + group(intPart, ",") + "." + frac
	default:
		return sign + group(intPart, nbsp) + "," + frac + nbsp + sym
	}
}

func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
