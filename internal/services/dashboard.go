package services

import (
	"context"

	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/quote"
)

// Dashboard summarises the caller's activity.
type Dashboard struct {
	Clients  int64                  `json:"clients"`
	Products int64                  `json:"products"`
	Quotes   int64                  `json:"quotes"`
	ByStatus map[quote.Status]int64 `json:"by_status"`
	// Currency is the company currency; Revenue and Pipeline are in it.
	Currency string `json:"currency"`
	// Revenue is the sum of ACCEPTED and PAID grand totals.
	Revenue money.Money `json:"revenue"`
	// Pipeline is the sum of SENT grand totals.
	Pipeline money.Money `json:"pipeline"`
	// Quotes in any other currency are summed apart, per currency.
	RevenueByCurrency  map[string]money.Money `json:"revenue_by_currency"`
	PipelineByCurrency map[string]money.Money `json:"pipeline_by_currency"`
}

func (s *QuoteService) Dashboard(ctx context.Context) (Dashboard, error) {
	uid, err := currentUser(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	db := s.db.WithContext(ctx)
	d := Dashboard{ByStatus: make(map[quote.Status]int64, len(quote.Statuses))}
	if err := db.Model(&models.Client{}).Where("user_id = ?", uid).Count(&d.Clients).Error; err != nil {
		return Dashboard{}, err
	}
	if err := db.Model(&models.Product{}).Where("user_id = ?", uid).Count(&d.Products).Error; err != nil {
		return Dashboard{}, err
	}

	var counts []struct {
		Status quote.Status
		N      int64
	}
	err = db.Model(&models.Quote{}).
		Select("status, COUNT(*) AS n").
		Where("user_id = ?", uid).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return Dashboard{}, err
	}
	for _, st := range quote.Statuses {
		d.ByStatus[st] = 0
	}
	for _, c := range counts {
		d.ByStatus[c.Status] = c.N
		d.Quotes += c.N
	}

	cs, err := s.settings(db, uid)
	if err != nil {
		return Dashboard{}, err
	}
	d.Currency = cs.Currency
	if d.RevenueByCurrency, err = s.Revenue(ctx); err != nil {
		return Dashboard{}, err
	}
	sent, err := s.rows(db.Model(&models.Quote{}).Where("user_id = ? AND status = ?", uid, quote.StatusSent))
	if err != nil {
		return Dashboard{}, err
	}
	d.PipelineByCurrency = sumByCurrency(sent)
	d.Revenue = d.RevenueByCurrency[d.Currency]
	d.Pipeline = d.PipelineByCurrency[d.Currency]
	return d, nil
}
