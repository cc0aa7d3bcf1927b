package handlers

import (
	"net/http"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/services"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	svc *services.QuoteService
}

func NewDashboardHandler(svc *services.QuoteService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

type dashboardView struct {
	services.Dashboard
	RevenueFormatted  string `json:"revenue_formatted"`
	PipelineFormatted string `json:"pipeline_formatted"`
}

// Get summarises the caller's clients, catalog and quotes. Headline amounts
// are in the company currency; other currencies are listed apart.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	lang := i18n.LangFrom(r.Context())
	httpx.JSON(w, http.StatusOK, dashboardView{
		Dashboard:         d,
		RevenueFormatted:  money.Format(d.Revenue, lang, d.Currency),
		PipelineFormatted: money.Format(d.Pipeline, lang, d.Currency),
	})
}

// Health answers 200 while the database responds.
func Health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
