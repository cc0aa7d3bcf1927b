// Package i18n holds the fr/en message catalog used for validation messages,
// PDF labels and spreadsheet headers.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

const (
	FR      = "fr"
	EN      = "en"
	Default = FR
)

type ctxKey struct{}

var matcher = language.NewMatcher([]language.Tag{language.French, language.English})

// DetectLanguage picks fr or en from an Accept-Language header value.
func DetectLanguage(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	tag, _, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	base, _ := tag.Base()
	return Normalize(base.String())
}

// Normalize maps anything that is not a supported code to the default.
func Normalize(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if _, ok := catalog[l]; ok {
		return l
	}
	return Default
}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, Normalize(lang))
}

// LangFrom returns the language stored by WithLang, or the default.
func LangFrom(ctx context.Context) string {
	if l, ok := ctx.Value(ctxKey{}).(string); ok && l != "" {
		return l
	}
	return Default
}

// T translates code. Unknown languages fall back to French, unknown codes
// are returned as is.
func T(lang, code string) string {
	msgs, ok := catalog[strings.ToLower(lang)]
	if !ok {
		msgs = catalog[Default]
	}
	if s, ok := msgs[code]; ok {
		return s
	}
	return code
}

var catalog = map[string]map[string]string{
	FR: {
		// validation
		"required":           "Requis",
		"must_be_positive":   "Doit être positif",
		"out_of_range":       "Hors limites",
		"invalid":            "Valeur invalide",
		"invalid_email":      "Email invalide",
		"too_long":           "Trop long",
		"invalid_amount":     "Montant invalide",
		"invalid_quantity":   "Quantité invalide",
		"invalid_rate":       "Taux de TVA invalide (0 à 100)",
		"invalid_discount":   "Remise invalide",
		"invalid_status":     "Statut inconnu",
		"invalid_date":       "Date invalide",
		"index_out_of_range": "Ligne introuvable",
		"not_found":          "Introuvable",
		"unknown_reference":  "Référence inconnue",
		"date_order":         "Ne peut précéder la date d'émission",
		"already_exists":     "Existe déjà",
		"conflict":           "Modifié entre-temps, rechargez",
		// document
		"quote":           "Devis",
		"quote_number":    "Devis n°",
		"issue_date":      "Date d'émission",
		"valid_until":     "Valable jusqu'au",
		"client":          "Client",
		"description":     "Désignation",
		"quantity":        "Qté",
		"unit_price":      "Prix unitaire HT",
		"line_total":      "Total HT",
		"subtotal":        "Sous-total HT",
		"discount":        "Remise",
		"taxable_base":    "Total HT après remise",
		"vat":             "TVA",
		"grand_total":     "Total TTC",
		"terms":           "Conditions",
		"notes":           "Notes",
		"status":          "Statut",
		"title":           "Objet",
		"vat_number":      "N° TVA",
		"siret":           "SIRET",
		"status_DRAFT":    "Brouillon",
		"status_SENT":     "Envoyé",
		"status_ACCEPTED": "Accepté",
		"status_REJECTED": "Refusé",
		"status_PAID":     "Payé",
		"currency":        "Devise",
		"page":            "Page",
	},
	EN: {
		"required":           "Required",
		"must_be_positive":   "Must be positive",
		"out_of_range":       "Out of range",
		"invalid":            "Invalid value",
		"invalid_email":      "Invalid email",
		"too_long":           "Too long",
		"invalid_amount":     "Invalid amount",
		"invalid_quantity":   "Invalid quantity",
		"invalid_rate":       "Invalid VAT rate (0 to 100)",
		"invalid_discount":   "Invalid discount",
		"invalid_status":     "Unknown status",
		"invalid_date":       "Invalid date",
		"index_out_of_range": "Line not found",
		"not_found":          "Not found",
		"unknown_reference":  "Unknown reference",
		"date_order":         "Cannot precede the issue date",
		"already_exists":     "Already exists",
		"conflict":           "Changed in the meantime, reload",
		"quote":              "Quote",
		"quote_number":       "Quote no.",
		"issue_date":         "Issue date",
		"valid_until":        "Valid until",
		"client":             "Client",
		"description":        "Description",
		"quantity":           "Qty",
		"unit_price":         "Unit price",
		"line_total":         "Amount",
		"subtotal":           "Subtotal",
		"discount":           "Discount",
		"taxable_base":       "Net after discount",
		"vat":                "VAT",
		"grand_total":        "Total due",
		"terms":              "Terms",
		"notes":              "Notes",
		"status":             "Status",
		"title":              "Subject",
		"vat_number":         "VAT no.",
		"siret":              "Company no.",
		"status_DRAFT":       "Draft",
		"status_SENT":        "Sent",
		"status_ACCEPTED":    "Accepted",
		"status_REJECTED":    "Rejected",
		"status_PAID":        "Paid",
		"currency":           "Currency",
		"page":               "Page",
	},
}
