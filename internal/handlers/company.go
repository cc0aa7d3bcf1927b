package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/quote"
	"github.com/diewo77/go-quotes/internal/services"
	"github.com/diewo77/go-quotes/validation"
	"gorm.io/gorm"
)

type CompanyHandler struct {
	db  *gorm.DB
	svc *services.QuoteService
}

func NewCompanyHandler(db *gorm.DB, svc *services.QuoteService) *CompanyHandler {
	return &CompanyHandler{db: db, svc: svc}
}

type companyReq struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"omitempty,email,max=255"`
	Phone      string `json:"phone" validate:"max=50"`
	Website    string `json:"website" validate:"omitempty,url,max=255"`
	Address    string `json:"address" validate:"max=500"`
	City       string `json:"city" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Country    string `json:"country" validate:"max=100"`
	SIRET      string `json:"siret" validate:"omitempty,len=14,numeric"`
	VATNumber  string `json:"vat_number" validate:"max=20"`
	RCS        string `json:"rcs" validate:"max=100"`
	Capital    string `json:"capital" validate:"max=100"`

	Currency          string `json:"currency" validate:"omitempty,len=3,alpha"`
	Locale            string `json:"locale" validate:"omitempty,oneof=fr en"`
	DefaultVATRate    string `json:"default_vat_rate"`
	QuoteValidityDays int    `json:"quote_validity_days" validate:"omitempty,min=1,max=365"`
	DefaultTerms      string `json:"default_terms"`
	FooterText        string `json:"footer_text"`
}

// Get returns the stored settings, or the configured defaults before the
// first save.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

// Update creates or replaces the caller's settings.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}

	var req companyReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	v := validation.Struct(req)
	validation.Required("name", req.Name, v)
	if req.DefaultVATRate != "" {
		rate := parseRate("default_vat_rate", req.DefaultVATRate, v)
		if _, err := quote.NewFinancials(rate, money.Zero); err != nil {
			v.Add("default_vat_rate", "invalid_rate")
		}
		settings.DefaultVATRate = rate
	}
	if !v.Empty() {
		invalid(w, r, v)
		return
	}

	settings.Name = strings.TrimSpace(req.Name)
	settings.Email = req.Email
	settings.Phone = req.Phone
	settings.Website = req.Website
	settings.Address = req.Address
	settings.City = req.City
	settings.PostalCode = req.PostalCode
	settings.Country = req.Country
	settings.SIRET = req.SIRET
	settings.VATNumber = req.VATNumber
	settings.RCS = req.RCS
	settings.Capital = req.Capital
	if req.Currency != "" {
		settings.Currency = strings.ToUpper(req.Currency)
	}
	if req.Locale != "" {
		settings.Locale = i18n.Normalize(req.Locale)
	}
	if req.QuoteValidityDays != 0 {
		settings.QuoteValidityDays = req.QuoteValidityDays
	}
	settings.DefaultTerms = req.DefaultTerms
	settings.FooterText = req.FooterText

	if err := h.db.WithContext(r.Context()).Save(&settings).Error; err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}
